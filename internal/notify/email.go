package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers a confirmation message. The notifier worker is the
// only caller; the storefront itself never blocks on email.
type EmailSender interface {
	SendConfirmation(event *ConfirmationEvent) error
}

type SendGridSender struct {
	apiKey string
	from   string
}

func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, from: from}
}

func (s *SendGridSender) SendConfirmation(event *ConfirmationEvent) error {
	if s.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if event.Email == "" {
		return fmt.Errorf("order %s has no email address", event.OrderNumber)
	}

	subject := fmt.Sprintf("Order Confirmation - %s", event.OrderNumber)
	body := confirmationBody(event)

	message := mail.NewSingleEmail(
		mail.NewEmail("Boutique Ado", s.from),
		subject,
		mail.NewEmail(event.FullName, event.Email),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	log.Printf("confirmation sent for order %s to %s", event.OrderNumber, event.Email)
	return nil
}

func confirmationBody(event *ConfirmationEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", event.FullName)
	fmt.Fprintf(&sb, "Thank you for your order! Your order number is %s.\n\n", event.OrderNumber)
	for _, item := range event.Items {
		if item.Size != "" {
			fmt.Fprintf(&sb, "  %s (size %s) x%d - %s\n", item.ProductName, item.Size, item.Quantity, item.LineTotal)
			continue
		}
		fmt.Fprintf(&sb, "  %s x%d - %s\n", item.ProductName, item.Quantity, item.LineTotal)
	}
	fmt.Fprintf(&sb, "\nOrder total: %s\n", event.GrandTotal)
	return sb.String()
}
