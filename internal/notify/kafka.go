package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

const ConfirmationsTopic = "order-confirmations"

// ParseBrokers splits a comma-separated broker list from configuration,
// dropping empty entries and surrounding whitespace.
func ParseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			brokers = append(brokers, part)
		}
	}
	return brokers
}

// ConfirmationEvent is the message the email worker consumes.
type ConfirmationEvent struct {
	OrderNumber string            `json:"order_number"`
	Email       string            `json:"email"`
	FullName    string            `json:"full_name"`
	GrandTotal  string            `json:"grand_total"`
	Items       []ConfirmationRow `json:"items"`
	ConfirmedAt time.Time         `json:"confirmed_at"`
}

type ConfirmationRow struct {
	ProductName string `json:"product_name"`
	Size        string `json:"product_size,omitempty"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"lineitem_total"`
}

// KafkaNotifier publishes order confirmations keyed by order number so
// redeliveries of the same order stay on one partition.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers ...string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  ConfirmationsTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) OrderConfirmed(ctx context.Context, order *domain.Order) error {
	event := ConfirmationEvent{
		OrderNumber: order.OrderNumber,
		Email:       order.Shipping.Email,
		FullName:    order.Shipping.FullName,
		GrandTotal:  order.GrandTotal.StringFixed(2),
		ConfirmedAt: time.Now(),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, ConfirmationRow{
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal.StringFixed(2),
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal confirmation event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order_confirmed")},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish confirmation for order %s: %w", order.OrderNumber, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
