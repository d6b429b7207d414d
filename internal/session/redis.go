package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    14 * 24 * time.Hour,
	}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (domain.Bag, error) {
	data, err := s.client.Get(ctx, bagKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var bag domain.Bag
	if err := json.Unmarshal(data, &bag); err != nil {
		return nil, fmt.Errorf("unmarshal bag failed: %w", err)
	}
	return bag, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, bag domain.Bag) error {
	data, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("marshal bag failed: %w", err)
	}
	if err := s.client.Set(ctx, bagKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, bagKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func bagKey(sessionID string) string {
	return fmt.Sprintf("bag:%s", sessionID)
}
