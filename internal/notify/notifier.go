package notify

import (
	"context"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

// Notifier announces a finalized order. Implementations are fire-and-forget
// from the caller's point of view: a failed notification never rolls back
// an order.
type Notifier interface {
	OrderConfirmed(ctx context.Context, order *domain.Order) error
}

// Noop discards notifications. Used when no broker is configured.
type Noop struct{}

func (Noop) OrderConfirmed(context.Context, *domain.Order) error {
	return nil
}
