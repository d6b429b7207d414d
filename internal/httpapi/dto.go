package httpapi

import (
	"time"

	"github.com/SamBailey6194/boutique-ado-v1/internal/bag"
	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

// Money fields cross the API as fixed two-decimal strings. Decimal values
// carry varying exponents internally, so serializing them directly would
// leak inconsistent precision ("22" next to "2.50") to clients.

type BagLineDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Size        string `json:"product_size,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type BagContentsDTO struct {
	Lines                 []BagLineDTO `json:"lines"`
	Total                 string       `json:"total"`
	DeliveryCost          string       `json:"delivery"`
	GrandTotal            string       `json:"grand_total"`
	FreeDeliveryDelta     string       `json:"free_delivery_delta"`
	FreeDeliveryThreshold string       `json:"free_delivery_threshold"`
}

func toBagContentsDTO(c *bag.Contents) BagContentsDTO {
	lines := make([]BagLineDTO, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, BagLineDTO{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Subtotal:    line.Subtotal.StringFixed(2),
		})
	}
	return BagContentsDTO{
		Lines:                 lines,
		Total:                 c.Total.StringFixed(2),
		DeliveryCost:          c.DeliveryCost.StringFixed(2),
		GrandTotal:            c.GrandTotal.StringFixed(2),
		FreeDeliveryDelta:     c.FreeDeliveryDelta.StringFixed(2),
		FreeDeliveryThreshold: c.FreeDeliveryThreshold.StringFixed(2),
	}
}

type OrderLineItemDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Size        string `json:"product_size,omitempty"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"lineitem_total"`
}

type OrderDTO struct {
	OrderNumber  string                 `json:"order_number"`
	StripePID    string                 `json:"stripe_pid"`
	Shipping     domain.ShippingDetails `json:"shipping"`
	OrderTotal   string                 `json:"order_total"`
	DeliveryCost string                 `json:"delivery_cost"`
	GrandTotal   string                 `json:"grand_total"`
	Status       string                 `json:"status"`
	Items        []OrderLineItemDTO     `json:"items"`
	CreatedAt    time.Time              `json:"created_at"`
}

func toOrderDTO(o *domain.Order) OrderDTO {
	items := make([]OrderLineItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderLineItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal.StringFixed(2),
		})
	}
	return OrderDTO{
		OrderNumber:  o.OrderNumber,
		StripePID:    o.StripePID,
		Shipping:     o.Shipping,
		OrderTotal:   o.OrderTotal.StringFixed(2),
		DeliveryCost: o.DeliveryCost.StringFixed(2),
		GrandTotal:   o.GrandTotal.StringFixed(2),
		Status:       o.Status.String(),
		Items:        items,
		CreatedAt:    o.CreatedAt,
	}
}
