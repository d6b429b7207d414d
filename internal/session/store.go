package session

import (
	"context"
	"errors"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

// Store holds one bag per session key. Last writer wins.
type Store interface {
	Get(ctx context.Context, sessionID string) (domain.Bag, error)
	Put(ctx context.Context, sessionID string, bag domain.Bag) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrBagNotFound = errors.New("bag not found")
