package catalog

import (
	"context"
	"errors"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

// Catalog resolves product ids to price, display name and sizing.
// Consumers define this interface, not the MongoDB implementation.
type Catalog interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
}

var ErrProductNotFound = errors.New("product not found")
