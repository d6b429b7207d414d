package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrSignatureInvalid = errors.New("webhook signature verification failed")
	ErrGatewayRequest   = errors.New("payment gateway request failed")
)

// Gateway is the narrow contract the checkout flow needs from the payment
// provider.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*Intent, error)
	ModifyIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error
	RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error)
}

// Verifier authenticates a raw webhook delivery before anything else
// touches it.
type Verifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (*Event, error)
}

// Intent is a freshly created payment intent; ClientSecret goes back to the
// buyer's browser.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type Charge struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	BillingDetails struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"billing_details"`
}

type EventType string

const (
	EventPaymentIntentSucceeded EventType = "payment_intent.succeeded"
	EventPaymentIntentFailed    EventType = "payment_intent.payment_failed"
)

// Event is a verified webhook delivery.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type IntentAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type IntentShipping struct {
	Name    string        `json:"name"`
	Phone   string        `json:"phone"`
	Address IntentAddress `json:"address"`
}

type IntentMetadata struct {
	Bag      string `json:"bag"`
	SaveInfo string `json:"save_info"`
	Username string `json:"username"`
}

// PaymentIntent is the event payload object for payment_intent.* events.
type PaymentIntent struct {
	ID           string         `json:"id"`
	Amount       int64          `json:"amount"`
	Currency     string         `json:"currency"`
	LatestCharge string         `json:"latest_charge"`
	ReceiptEmail string         `json:"receipt_email"`
	Metadata     IntentMetadata `json:"metadata"`
	Shipping     IntentShipping `json:"shipping"`
}

// PaymentIntent decodes the event payload object.
func (e *Event) PaymentIntent() (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := json.Unmarshal(e.Data.Object, &intent); err != nil {
		return nil, fmt.Errorf("decode payment intent from event %s: %w", e.ID, err)
	}
	return &intent, nil
}
