package httpapi

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/SamBailey6194/boutique-ado-v1/internal/bag"
	"github.com/SamBailey6194/boutique-ado-v1/internal/checkout"
	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
	"github.com/SamBailey6194/boutique-ado-v1/internal/payments"
)

type stubBagService struct {
	contents   *bag.Contents
	liveBag    domain.Bag
	addErr     error
	adjustErr  error
	removeErr  error
	contentErr error

	lastProductID string
	lastSize      string
	lastQty       int
}

func (s *stubBagService) Contents(context.Context, string) (*bag.Contents, error) {
	if s.contentErr != nil {
		return nil, s.contentErr
	}
	if s.contents == nil {
		return &bag.Contents{}, nil
	}
	return s.contents, nil
}

func (s *stubBagService) Get(context.Context, string) (domain.Bag, error) {
	if s.liveBag == nil {
		return domain.Bag{}, nil
	}
	return s.liveBag, nil
}

func (s *stubBagService) AddItem(_ context.Context, _, productID, size string, qty int) error {
	s.lastProductID, s.lastSize, s.lastQty = productID, size, qty
	return s.addErr
}

func (s *stubBagService) AdjustItem(_ context.Context, _, productID, size string, qty int) error {
	s.lastProductID, s.lastSize, s.lastQty = productID, size, qty
	return s.adjustErr
}

func (s *stubBagService) RemoveItem(_ context.Context, _, productID, size string) error {
	s.lastProductID, s.lastSize = productID, size
	return s.removeErr
}

type stubEngine struct {
	orderNumber string
	finalizeErr error
	lastRequest checkout.CheckoutRequest

	result   *checkout.EventResult
	eventErr error
}

func (s *stubEngine) FinalizeFromCheckout(_ context.Context, req checkout.CheckoutRequest) (string, error) {
	s.lastRequest = req
	if s.finalizeErr != nil {
		return "", s.finalizeErr
	}
	return s.orderNumber, nil
}

func (s *stubEngine) HandlePaymentEvent(context.Context, *payments.Event) (*checkout.EventResult, error) {
	if s.eventErr != nil {
		return nil, s.eventErr
	}
	return s.result, nil
}

type stubGateway struct {
	intent       *payments.Intent
	createErr    error
	modifyErr    error
	lastAmount   int64
	lastMetadata map[string]string
	lastIntentID string
}

func (s *stubGateway) CreateIntent(_ context.Context, amount int64, _ string, _ map[string]string) (*payments.Intent, error) {
	s.lastAmount = amount
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.intent, nil
}

func (s *stubGateway) ModifyIntentMetadata(_ context.Context, intentID string, metadata map[string]string) error {
	s.lastIntentID = intentID
	s.lastMetadata = metadata
	return s.modifyErr
}

func (s *stubGateway) RetrieveCharge(context.Context, string) (*payments.Charge, error) {
	return &payments.Charge{}, nil
}

type stubOrderGetter struct {
	order *domain.Order
	err   error
}

func (s *stubOrderGetter) GetByOrderNumber(context.Context, string) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func pricedContents() *bag.Contents {
	return &bag.Contents{
		Lines: []bag.Line{{
			ProductID: "42",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("10.00"),
			Subtotal:  decimal.RequireFromString("20.00"),
		}},
		Total:        decimal.RequireFromString("20.00"),
		DeliveryCost: decimal.RequireFromString("2.00"),
		GrandTotal:   decimal.RequireFromString("22.00"),
	}
}
