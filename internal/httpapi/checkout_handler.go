package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/SamBailey6194/boutique-ado-v1/internal/bag"
	"github.com/SamBailey6194/boutique-ado-v1/internal/checkout"
	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
	"github.com/SamBailey6194/boutique-ado-v1/internal/orders"
	"github.com/SamBailey6194/boutique-ado-v1/internal/payments"
)

// CheckoutService is the engine surface the checkout endpoints call.
type CheckoutService interface {
	FinalizeFromCheckout(ctx context.Context, req checkout.CheckoutRequest) (string, error)
}

// BagReader provides the live bag and its priced view for checkout.
type BagReader interface {
	Get(ctx context.Context, sessionID string) (domain.Bag, error)
	Contents(ctx context.Context, sessionID string) (*bag.Contents, error)
}

// OrderGetter serves the order-detail (success page) endpoint.
type OrderGetter interface {
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
}

type CheckoutHandler struct {
	engine   CheckoutService
	bags     BagReader
	orders   OrderGetter
	gateway  payments.Gateway
	currency string
	timeout  time.Duration
}

func NewCheckoutHandler(engine CheckoutService, bags BagReader, orderGetter OrderGetter, gateway payments.Gateway, currency string, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		engine:   engine,
		bags:     bags,
		orders:   orderGetter,
		gateway:  gateway,
		currency: currency,
		timeout:  timeout,
	}
}

type StartCheckoutResponseDTO struct {
	ClientSecret string         `json:"client_secret"`
	StripePID    string         `json:"stripe_pid"`
	Contents     BagContentsDTO `json:"contents"`
}

// StartCheckout prices the bag and creates the payment intent the browser
// will confirm.
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	contents, err := h.bags.Contents(ctx, getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "could not price your bag")
		return
	}
	if len(contents.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "empty_bag", "there's nothing in your bag at the moment")
		return
	}

	amountMinor := contents.GrandTotal.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := h.gateway.CreateIntent(ctx, amountMinor, h.currency, nil)
	if err != nil {
		respondError(w, http.StatusBadGateway, "payment_unavailable",
			"sorry, your payment cannot be processed right now, please try again later")
		return
	}

	respondJSON(w, http.StatusOK, StartCheckoutResponseDTO{
		ClientSecret: intent.ClientSecret,
		StripePID:    intent.ID,
		Contents:     toBagContentsDTO(contents),
	})
}

type CacheCheckoutRequestDTO struct {
	ClientSecret string `json:"client_secret"`
	SaveInfo     bool   `json:"save_info"`
	Username     string `json:"username"`
}

// CacheCheckoutData stamps the bag snapshot and save-info flag onto the
// intent metadata just before the browser confirms the payment. The webhook
// reads the purchase from this snapshot, never from the live bag.
func (h *CheckoutHandler) CacheCheckoutData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CacheCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	pid, ok := intentIDFromClientSecret(req.ClientSecret)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_client_secret", "client_secret is malformed")
		return
	}

	b, err := h.bags.Get(ctx, getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "could not read your bag")
		return
	}
	snapshot, err := b.Snapshot()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "could not snapshot your bag")
		return
	}

	metadata := map[string]string{
		"bag":       snapshot,
		"save_info": boolString(req.SaveInfo),
		"username":  req.Username,
	}
	if err := h.gateway.ModifyIntentMetadata(ctx, pid, metadata); err != nil {
		respondError(w, http.StatusBadRequest, "payment_unavailable",
			"sorry, your payment cannot be processed right now, please try again later")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type CompleteCheckoutRequestDTO struct {
	ClientSecret   string `json:"client_secret"`
	SaveInfo       bool   `json:"save_info"`
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

type CompleteCheckoutResponseDTO struct {
	OrderNumber string `json:"order_number"`
}

// CompleteCheckout is the buyer-side finalize after payment authorization.
func (h *CheckoutHandler) CompleteCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CompleteCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	pid, ok := intentIDFromClientSecret(req.ClientSecret)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_client_secret", "client_secret is malformed")
		return
	}

	sessionID := getSessionID(r.Context())
	b, err := h.bags.Get(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "could not read your bag")
		return
	}
	snapshot, err := b.Snapshot()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "could not snapshot your bag")
		return
	}

	orderNumber, err := h.engine.FinalizeFromCheckout(ctx, checkout.CheckoutRequest{
		SessionID: sessionID,
		StripePID: pid,
		Shipping: domain.ShippingDetails{
			FullName:       req.FullName,
			Email:          req.Email,
			Phone:          req.Phone,
			Country:        req.Country,
			Postcode:       req.Postcode,
			City:           req.City,
			StreetAddress1: req.StreetAddress1,
			StreetAddress2: req.StreetAddress2,
			County:         req.County,
		},
		BagSnapshot: snapshot,
		SaveInfo:    req.SaveInfo,
	})
	if err != nil {
		h.handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CompleteCheckoutResponseDTO{OrderNumber: orderNumber})
}

func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderNumber := chi.URLParam(r, "order_number")
	order, err := h.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *CheckoutHandler) handleCheckoutError(w http.ResponseWriter, err error) {
	var validationErr *checkout.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "there was an error with your form, please check your details",
			Code:   "validation_failed",
			Fields: validationErr.Fields,
		})
	case errors.Is(err, checkout.ErrEmptyBag):
		respondError(w, http.StatusBadRequest, "empty_bag", "there's nothing in your bag at the moment")
	case errors.Is(err, checkout.ErrProductVanished):
		respondError(w, http.StatusConflict, "product_vanished",
			"one of the products in your bag wasn't found in our database, please call us for assistance")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error",
			"we couldn't process your order right now, please try again")
	}
}

func intentIDFromClientSecret(clientSecret string) (string, bool) {
	pid, _, found := strings.Cut(clientSecret, "_secret")
	if !found || pid == "" {
		return "", false
	}
	return pid, true
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
