package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingCapture OrderStatus = "pending_capture"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusDeclined       OrderStatus = "declined"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusAccepted || s == OrderStatusDeclined
}

func (s OrderStatus) String() string {
	return string(s)
}

// ShippingDetails is the buyer-entered (or provider-verified) delivery
// address attached to an order.
type ShippingDetails struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone_number"`
	Country        string `json:"country"`
	Postcode       string `json:"postcode"`
	City           string `json:"town_or_city"`
	StreetAddress1 string `json:"street_address1"`
	StreetAddress2 string `json:"street_address2"`
	County         string `json:"county"`
}

type Order struct {
	ID           int64           `json:"-"`
	OrderNumber  string          `json:"order_number"`
	StripePID    string          `json:"stripe_pid"`
	Shipping     ShippingDetails `json:"shipping"`
	OrderTotal   decimal.Decimal `json:"order_total"`
	DeliveryCost decimal.Decimal `json:"delivery_cost"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	OriginalBag  string          `json:"original_bag"`
	Status       OrderStatus     `json:"status"`
	Items        []OrderLineItem `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

// OrderLineItem is owned by exactly one order and cascade-deleted with it.
// Size is empty for plain products.
type OrderLineItem struct {
	ID          int64           `json:"-"`
	OrderID     int64           `json:"-"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"product_size,omitempty"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineitem_total"`
}

// NewOrderNumber returns a fresh 32-char uppercase hex order number.
// Order numbers are generated once at creation and never reused.
func NewOrderNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
