package bag

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/SamBailey6194/boutique-ado-v1/internal/catalog"
	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
	"github.com/SamBailey6194/boutique-ado-v1/internal/session"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")
	ErrSizeRequired    = errors.New("a size is required for this product")
	ErrItemNotInBag    = errors.New("item not in bag")
)

// Service owns all mutations of the session bag and the aggregated read.
type Service struct {
	store   session.Store
	catalog catalog.Catalog
	rule    DeliveryRule
	sfg     singleflight.Group // collapses concurrent reads per session
}

func NewService(store session.Store, cat catalog.Catalog, rule DeliveryRule) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		rule:    rule,
	}
}

// Get returns the session bag, or an empty bag when none exists yet.
func (s *Service) Get(ctx context.Context, sessionID string) (domain.Bag, error) {
	b, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrBagNotFound) {
		return domain.Bag{}, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Contents returns the priced view of the session bag.
func (s *Service) Contents(ctx context.Context, sessionID string) (*Contents, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		b, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return Aggregate(ctx, b, s.catalog, s.rule)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Contents), nil
}

// AddItem adds a quantity of a product to the bag. Sized products require a
// size; sizes on a plain product are ignored.
func (s *Service) AddItem(ctx context.Context, sessionID, productID, size string, qty int) error {
	if qty < 1 || qty > 99 {
		return ErrInvalidQuantity
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("resolve product %s: %w", productID, err)
	}
	if product.HasSizes && size == "" {
		return ErrSizeRequired
	}
	if !product.HasSizes {
		size = ""
	}

	b, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	b.Add(productID, size, qty)
	return s.store.Put(ctx, sessionID, b)
}

// AdjustItem sets the quantity of an existing line. Zero removes it.
func (s *Service) AdjustItem(ctx context.Context, sessionID, productID, size string, qty int) error {
	if qty < 0 || qty > 99 {
		return ErrInvalidQuantity
	}

	b, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, ok := b[productID]; !ok {
		return ErrItemNotInBag
	}
	b.SetQuantity(productID, size, qty)
	return s.store.Put(ctx, sessionID, b)
}

// RemoveItem drops a line (one size, or the whole product) from the bag.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID, size string) error {
	b, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, ok := b[productID]; !ok {
		return ErrItemNotInBag
	}
	b.Remove(productID, size)
	return s.store.Put(ctx, sessionID, b)
}

// Clear empties the session bag. Called after successful order
// finalization; a missing bag is not an error.
func (s *Service) Clear(ctx context.Context, sessionID string) {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		log.Printf("failed to clear bag for session %s: %v", sessionID, err)
	}
}
