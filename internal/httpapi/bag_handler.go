package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SamBailey6194/boutique-ado-v1/internal/bag"
	"github.com/SamBailey6194/boutique-ado-v1/internal/catalog"
)

// BagService is what the bag endpoints need from the bag layer.
type BagService interface {
	Contents(ctx context.Context, sessionID string) (*bag.Contents, error)
	AddItem(ctx context.Context, sessionID, productID, size string, qty int) error
	AdjustItem(ctx context.Context, sessionID, productID, size string, qty int) error
	RemoveItem(ctx context.Context, sessionID, productID, size string) error
}

type BagHandler struct {
	bags    BagService
	timeout time.Duration
}

func NewBagHandler(bags BagService, timeout time.Duration) *BagHandler {
	return &BagHandler{
		bags:    bags,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"product_size"`
	Quantity  int    `json:"quantity"`
}

type AdjustItemRequestDTO struct {
	Size     string `json:"product_size"`
	Quantity int    `json:"quantity"`
}

func (h *BagHandler) GetBag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	contents, err := h.bags.Contents(ctx, getSessionID(r.Context()))
	if err != nil {
		h.handleBagError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toBagContentsDTO(contents))
}

func (h *BagHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.bags.AddItem(ctx, getSessionID(r.Context()), req.ProductID, req.Size, req.Quantity); err != nil {
		h.handleBagError(w, err)
		return
	}

	contents, err := h.bags.Contents(ctx, getSessionID(r.Context()))
	if err != nil {
		h.handleBagError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toBagContentsDTO(contents))
}

func (h *BagHandler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")

	var req AdjustItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.bags.AdjustItem(ctx, getSessionID(r.Context()), productID, req.Size, req.Quantity); err != nil {
		h.handleBagError(w, err)
		return
	}

	contents, err := h.bags.Contents(ctx, getSessionID(r.Context()))
	if err != nil {
		h.handleBagError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toBagContentsDTO(contents))
}

func (h *BagHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	size := r.URL.Query().Get("product_size")

	if err := h.bags.RemoveItem(ctx, getSessionID(r.Context()), productID, size); err != nil {
		h.handleBagError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BagHandler) handleBagError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, bag.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, bag.ErrSizeRequired):
		respondError(w, http.StatusBadRequest, "size_required", err.Error())
	case errors.Is(err, bag.ErrItemNotInBag):
		respondError(w, http.StatusNotFound, "item_not_in_bag", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
