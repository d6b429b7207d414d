package orders

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicatePayment means an order for this payment id already exists.
	// This is the expected outcome of the checkout/webhook race, not a fault.
	ErrDuplicatePayment = errors.New("order already exists for payment id")
)

// MatchCriteria is the full field tuple the webhook path matches an
// existing order against. String fields compare case-insensitively.
type MatchCriteria struct {
	Shipping    domain.ShippingDetails
	GrandTotal  decimal.Decimal
	OriginalBag string
	StripePID   string
}

// Repository is the durable order store. CreateOrder must surface a
// stripe_pid uniqueness violation as ErrDuplicatePayment.
type Repository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	InsertLineItems(ctx context.Context, orderID int64, items []domain.OrderLineItem) error
	DeleteOrder(ctx context.Context, orderID int64) error
	GetByStripePID(ctx context.Context, stripePID string) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	FindMatching(ctx context.Context, m MatchCriteria) (*domain.Order, error)
	UpdateShipping(ctx context.Context, orderID int64, shipping domain.ShippingDetails) error
}
