package httpapi

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/SamBailey6194/boutique-ado-v1/internal/checkout"
	"github.com/SamBailey6194/boutique-ado-v1/internal/payments"
)

// EventHandler is the engine surface the webhook endpoint dispatches into.
type EventHandler interface {
	HandlePaymentEvent(ctx context.Context, event *payments.Event) (*checkout.EventResult, error)
}

type WebhookHandler struct {
	verifier payments.Verifier
	engine   EventHandler
	timeout  time.Duration
}

func NewWebhookHandler(verifier payments.Verifier, engine EventHandler, timeout time.Duration) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		engine:   engine,
		timeout:  timeout,
	}
}

const maxWebhookBody = 1 << 20 // 1MB

// HandleStripeWebhook verifies the delivery signature before anything else
// touches the payload. Success statuses tell the provider the event is
// handled; a 5xx makes it redeliver, which re-enters the same idempotent
// protocol.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "failed to read body")
		return
	}

	event, err := h.verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payments.ErrSignatureInvalid) {
			log.Printf("webhook rejected: %v", err)
			respondError(w, http.StatusBadRequest, "invalid_signature", "invalid signature")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}

	result, err := h.engine.HandlePaymentEvent(ctx, event)
	if err != nil {
		log.Printf("webhook %s (%s) failed: %v", event.ID, event.Type, err)
		respondError(w, http.StatusInternalServerError, "event_failed", "failed to process event")
		return
	}

	log.Printf("webhook %s (%s) handled: %s order=%s", event.ID, event.Type, result.Outcome, result.OrderNumber)
	respondJSON(w, http.StatusOK, map[string]string{
		"outcome":      string(result.Outcome),
		"order_number": result.OrderNumber,
	})
}
