package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// Consumer reads confirmation events and hands them to the email sender.
// A send failure is logged and the message is not retried: a missed
// confirmation email is not worth blocking the partition over.
type Consumer struct {
	sender EmailSender
	reader *kafka.Reader
}

func NewConsumer(sender EmailSender, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    ConfirmationsTopic,
		GroupID:  "confirmation-mailer",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{sender: sender, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event ConfirmationEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing confirmation message: %v", err)
		return
	}

	if err := c.sender.SendConfirmation(&event); err != nil {
		log.Printf("failed to send confirmation for order %s: %v", event.OrderNumber, err)
	}
}
