package bag

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/SamBailey6194/boutique-ado-v1/internal/catalog"
	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

// Line is one priced row of the aggregated bag view.
type Line struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"product_size,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Contents is the full priced view of a bag, including the delivery charge
// and how far the buyer is from free delivery.
type Contents struct {
	Lines                 []Line          `json:"lines"`
	Total                 decimal.Decimal `json:"total"`
	DeliveryCost          decimal.Decimal `json:"delivery"`
	GrandTotal            decimal.Decimal `json:"grand_total"`
	FreeDeliveryDelta     decimal.Decimal `json:"free_delivery_delta"`
	FreeDeliveryThreshold decimal.Decimal `json:"free_delivery_threshold"`
}

// DeliveryRule computes the delivery charge from the bag total: free once
// the total reaches the threshold, otherwise a percentage of the total.
type DeliveryRule struct {
	FreeDeliveryThreshold decimal.Decimal
	StandardPercentage    decimal.Decimal
}

// DefaultDeliveryRule matches the store settings: free over 50, 10% below.
func DefaultDeliveryRule() DeliveryRule {
	return DeliveryRule{
		FreeDeliveryThreshold: decimal.NewFromInt(50),
		StandardPercentage:    decimal.NewFromInt(10),
	}
}

// Aggregate produces the priced line-item view of a bag. It is a pure read:
// it never mutates the bag and resolves every product through the catalog.
// A product missing from the catalog aborts with catalog.ErrProductNotFound.
func Aggregate(ctx context.Context, b domain.Bag, cat catalog.Catalog, rule DeliveryRule) (*Contents, error) {
	lines := make([]Line, 0, len(b))
	total := decimal.Zero

	productIDs := make([]string, 0, len(b))
	for id := range b {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	for _, id := range productIDs {
		entry := b[id]
		product, err := cat.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if entry.IsSized() {
			sizes := make([]string, 0, len(entry.BySize))
			for size := range entry.BySize {
				sizes = append(sizes, size)
			}
			sort.Strings(sizes)

			for _, size := range sizes {
				qty := entry.BySize[size]
				if qty < 1 {
					continue
				}
				line := newLine(product, size, qty)
				lines = append(lines, line)
				total = total.Add(line.Subtotal)
			}
			continue
		}

		if entry.Quantity < 1 {
			continue
		}
		line := newLine(product, "", entry.Quantity)
		lines = append(lines, line)
		total = total.Add(line.Subtotal)
	}

	delivery := decimal.Zero
	delta := decimal.Zero
	if total.LessThan(rule.FreeDeliveryThreshold) {
		delivery = total.Mul(rule.StandardPercentage).Div(decimal.NewFromInt(100)).Round(2)
		delta = rule.FreeDeliveryThreshold.Sub(total)
	}

	return &Contents{
		Lines:                 lines,
		Total:                 total,
		DeliveryCost:          delivery,
		GrandTotal:            total.Add(delivery),
		FreeDeliveryDelta:     delta,
		FreeDeliveryThreshold: rule.FreeDeliveryThreshold,
	}, nil
}

func newLine(product *domain.Product, size string, qty int) Line {
	return Line{
		ProductID:   product.ID,
		ProductName: product.Name,
		Size:        size,
		Quantity:    qty,
		UnitPrice:   product.Price,
		Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}
