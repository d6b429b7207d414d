package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SamBailey6194/boutique-ado-v1/internal/bag"
	"github.com/SamBailey6194/boutique-ado-v1/internal/catalog"
	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
	"github.com/SamBailey6194/boutique-ado-v1/internal/notify"
	"github.com/SamBailey6194/boutique-ado-v1/internal/orders"
	"github.com/SamBailey6194/boutique-ado-v1/internal/payments"
	"github.com/SamBailey6194/boutique-ado-v1/internal/profiles"
	"github.com/SamBailey6194/boutique-ado-v1/internal/session"
)

// Config bounds the webhook-side lookup poll. The uniqueness constraint on
// stripe_pid is what actually prevents double materialization; the poll only
// gives the racing checkout request a window to commit first.
type Config struct {
	LookupAttempts int
	LookupDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		LookupAttempts: 5,
		LookupDelay:    time.Second,
	}
}

// Service reconciles the two racing completion paths of a purchase: the
// buyer's synchronous checkout request and the provider's asynchronous
// payment webhook. Exactly one order survives per payment id.
type Service struct {
	repo     orders.Repository
	catalog  catalog.Catalog
	gateway  payments.Gateway
	profiles profiles.Repository
	notifier notify.Notifier
	sessions session.Store
	rule     bag.DeliveryRule
	cfg      Config
}

func NewService(
	repo orders.Repository,
	cat catalog.Catalog,
	gateway payments.Gateway,
	profileRepo profiles.Repository,
	notifier notify.Notifier,
	sessions session.Store,
	rule bag.DeliveryRule,
	cfg Config,
) *Service {
	if cfg.LookupAttempts < 1 {
		cfg.LookupAttempts = 1
	}
	return &Service{
		repo:     repo,
		catalog:  cat,
		gateway:  gateway,
		profiles: profileRepo,
		notifier: notifier,
		sessions: sessions,
		rule:     rule,
		cfg:      cfg,
	}
}

// CheckoutRequest is the buyer-initiated finalize call, submitted after the
// browser confirms the payment.
type CheckoutRequest struct {
	SessionID   string
	StripePID   string
	Shipping    domain.ShippingDetails
	BagSnapshot string
	SaveInfo    bool
}

// FinalizeFromCheckout materializes the order from the buyer's side of the
// race. If the webhook got there first the existing order is adopted: the
// buyer-entered shipping fields win over provider-inferred ones, and no
// line items are recreated.
func (s *Service) FinalizeFromCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if err := validateCheckout(req); err != nil {
		return "", err
	}

	contents, err := s.aggregateSnapshot(ctx, req.BagSnapshot)
	if err != nil {
		return "", err
	}

	order := &domain.Order{
		OrderNumber:  domain.NewOrderNumber(),
		StripePID:    req.StripePID,
		Shipping:     req.Shipping,
		OrderTotal:   contents.Total,
		DeliveryCost: contents.DeliveryCost,
		GrandTotal:   contents.GrandTotal,
		OriginalBag:  req.BagSnapshot,
		Status:       domain.OrderStatusPendingCapture,
	}

	err = s.repo.CreateOrder(ctx, order)
	if errors.Is(err, orders.ErrDuplicatePayment) {
		return s.adoptFromCheckout(ctx, req)
	}
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	if err := s.materialize(ctx, order); err != nil {
		return "", err
	}

	if req.SaveInfo {
		s.saveInfo(ctx, order.Shipping)
	}
	s.clearBag(ctx, req.SessionID)
	return order.OrderNumber, nil
}

// adoptFromCheckout takes over an order the webhook path already created.
func (s *Service) adoptFromCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	existing, err := s.repo.GetByStripePID(ctx, req.StripePID)
	if err != nil {
		return "", fmt.Errorf("load existing order for payment %s: %w", req.StripePID, err)
	}
	log.Printf("checkout for payment %s adopted existing order %s", req.StripePID, existing.OrderNumber)

	merged := mergeShipping(existing.Shipping, req.Shipping)
	if merged != existing.Shipping {
		if err := s.repo.UpdateShipping(ctx, existing.ID, merged); err != nil {
			return "", fmt.Errorf("merge shipping into order %s: %w", existing.OrderNumber, err)
		}
	}

	if req.SaveInfo {
		s.saveInfo(ctx, merged)
	}
	s.clearBag(ctx, req.SessionID)
	return existing.OrderNumber, nil
}

// Outcome distinguishes how a webhook event was resolved, for logs and the
// provider-facing response.
type Outcome string

const (
	OutcomeCreated        Outcome = "created"
	OutcomeAlreadyExisted Outcome = "already_existed"
	OutcomeIgnored        Outcome = "ignored"
)

type EventResult struct {
	Outcome     Outcome
	OrderNumber string
	Detail      string
}

// HandlePaymentEvent processes a verified webhook event. Dispatch is by a
// closed set of event types; anything else is acknowledged and ignored so
// the provider does not redeliver it.
func (s *Service) HandlePaymentEvent(ctx context.Context, event *payments.Event) (*EventResult, error) {
	switch event.Type {
	case payments.EventPaymentIntentSucceeded:
		return s.handleIntentSucceeded(ctx, event)
	case payments.EventPaymentIntentFailed:
		intent, err := event.PaymentIntent()
		if err != nil {
			return nil, err
		}
		log.Printf("payment failed for intent %s", intent.ID)
		return &EventResult{Outcome: OutcomeIgnored, Detail: "payment failure acknowledged"}, nil
	default:
		return &EventResult{Outcome: OutcomeIgnored, Detail: fmt.Sprintf("unhandled event type %s", event.Type)}, nil
	}
}

func (s *Service) handleIntentSucceeded(ctx context.Context, event *payments.Event) (*EventResult, error) {
	intent, err := event.PaymentIntent()
	if err != nil {
		return nil, err
	}
	if intent.Metadata.Bag == "" {
		return nil, fmt.Errorf("intent %s carries no bag snapshot", intent.ID)
	}

	grandTotal, shipping, err := s.chargeDetails(ctx, intent)
	if err != nil {
		return nil, err
	}

	criteria := orders.MatchCriteria{
		Shipping:    shipping,
		GrandTotal:  grandTotal,
		OriginalBag: intent.Metadata.Bag,
		StripePID:   intent.ID,
	}

	existing, err := s.pollForOrder(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.maybeSaveInfo(ctx, intent, existing.Shipping)
		s.notifyConfirmed(ctx, existing)
		return &EventResult{Outcome: OutcomeAlreadyExisted, OrderNumber: existing.OrderNumber}, nil
	}

	order, err := s.createFromEvent(ctx, intent, shipping, grandTotal)
	if err != nil {
		return nil, err
	}

	s.maybeSaveInfo(ctx, intent, order.Shipping)
	s.notifyConfirmed(ctx, order)
	return &EventResult{Outcome: OutcomeCreated, OrderNumber: order.OrderNumber}, nil
}

// pollForOrder searches for the order the checkout path may be writing
// concurrently. Absence is not conclusive until the retry budget runs out;
// the wait holds no locks and honors context cancellation.
func (s *Service) pollForOrder(ctx context.Context, criteria orders.MatchCriteria) (*domain.Order, error) {
	for attempt := 1; ; attempt++ {
		order, err := s.repo.FindMatching(ctx, criteria)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, orders.ErrOrderNotFound) {
			return nil, fmt.Errorf("lookup order for payment %s: %w", criteria.StripePID, err)
		}
		if attempt >= s.cfg.LookupAttempts {
			return nil, nil
		}

		select {
		case <-time.After(s.cfg.LookupDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Service) createFromEvent(ctx context.Context, intent *payments.PaymentIntent, shipping domain.ShippingDetails, grandTotal decimal.Decimal) (*domain.Order, error) {
	contents, err := s.aggregateSnapshot(ctx, intent.Metadata.Bag)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderNumber:  domain.NewOrderNumber(),
		StripePID:    intent.ID,
		Shipping:     shipping,
		OrderTotal:   contents.Total,
		DeliveryCost: contents.DeliveryCost,
		GrandTotal:   grandTotal,
		OriginalBag:  intent.Metadata.Bag,
		Status:       domain.OrderStatusPendingCapture,
	}

	err = s.repo.CreateOrder(ctx, order)
	if errors.Is(err, orders.ErrDuplicatePayment) {
		// Both racers passed the lookup window. The constraint decided;
		// adopt the winner.
		existing, getErr := s.repo.GetByStripePID(ctx, intent.ID)
		if getErr != nil {
			return nil, fmt.Errorf("load racing order for payment %s: %w", intent.ID, getErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create order from event: %w", err)
	}

	if err := s.materialize(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// materialize expands the bag snapshot into line items for a just-created
// order. Any failure deletes the order: a purchase is never left partially
// materialized, and the provider's redelivery re-enters this protocol.
func (s *Service) materialize(ctx context.Context, order *domain.Order) error {
	items, err := s.expandSnapshot(ctx, order.OriginalBag)
	if err == nil {
		err = s.repo.InsertLineItems(ctx, order.ID, items)
	}
	if err != nil {
		if delErr := s.repo.DeleteOrder(ctx, order.ID); delErr != nil {
			log.Printf("failed to roll back order %s: %v", order.OrderNumber, delErr)
		}
		return fmt.Errorf("materialize order %s: %w", order.OrderNumber, err)
	}
	order.Items = items
	return nil
}

// expandSnapshot resolves every snapshot entry against the catalog and
// builds the line items: one per plain product, one per (product, size)
// pair for sized products.
func (s *Service) expandSnapshot(ctx context.Context, snapshot string) ([]domain.OrderLineItem, error) {
	b, err := domain.ParseSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	if b.IsEmpty() {
		return nil, ErrEmptyBag
	}

	productIDs := make([]string, 0, len(b))
	for id := range b {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	var items []domain.OrderLineItem
	for _, id := range productIDs {
		entry := b[id]
		product, err := s.catalog.Get(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %s", ErrProductVanished, id)
			}
			return nil, fmt.Errorf("resolve product %s: %w", id, err)
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
				items = append(items, lineItem(product, size, qty))
			}
			continue
		}

		if entry.Quantity < 1 {
			continue
		}
		items = append(items, lineItem(product, "", entry.Quantity))
	}
	return items, nil
}

func lineItem(product *domain.Product, size string, qty int) domain.OrderLineItem {
	return domain.OrderLineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Size:        size,
		Quantity:    qty,
		LineTotal:   product.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func (s *Service) aggregateSnapshot(ctx context.Context, snapshot string) (*bag.Contents, error) {
	b, err := domain.ParseSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	if b.IsEmpty() {
		return nil, ErrEmptyBag
	}

	contents, err := bag.Aggregate(ctx, b, s.catalog, s.rule)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrProductVanished, err)
		}
		return nil, err
	}
	return contents, nil
}

// chargeDetails pulls the authoritative charged amount and the verified
// shipping address from the provider.
func (s *Service) chargeDetails(ctx context.Context, intent *payments.PaymentIntent) (decimal.Decimal, domain.ShippingDetails, error) {
	amountMinor := intent.Amount
	billingEmail := ""
	billingPhone := ""

	if intent.LatestCharge != "" {
		charge, err := s.gateway.RetrieveCharge(ctx, intent.LatestCharge)
		if err != nil {
			return decimal.Zero, domain.ShippingDetails{}, fmt.Errorf("retrieve charge %s: %w", intent.LatestCharge, err)
		}
		amountMinor = charge.Amount
		billingEmail = charge.BillingDetails.Email
		billingPhone = charge.BillingDetails.Phone
	}

	grandTotal := decimal.NewFromInt(amountMinor).Div(decimal.NewFromInt(100)).Round(2)

	email := intent.ReceiptEmail
	if email == "" {
		email = billingEmail
	}
	phone := intent.Shipping.Phone
	if phone == "" {
		phone = billingPhone
	}

	addr := intent.Shipping.Address
	shipping := domain.ShippingDetails{
		FullName:       intent.Shipping.Name,
		Email:          email,
		Phone:          phone,
		Country:        addr.Country,
		Postcode:       addr.PostalCode,
		City:           addr.City,
		StreetAddress1: addr.Line1,
		StreetAddress2: addr.Line2,
		County:         addr.State,
	}
	return grandTotal, shipping, nil
}

func (s *Service) maybeSaveInfo(ctx context.Context, intent *payments.PaymentIntent, shipping domain.ShippingDetails) {
	if intent.Metadata.SaveInfo != "true" {
		return
	}
	s.saveInfo(ctx, shipping)
}

// saveInfo persists the shipping details as profile defaults and an
// address-book entry. Best effort: failures are logged, never propagated,
// and never roll back the order.
func (s *Service) saveInfo(ctx context.Context, shipping domain.ShippingDetails) {
	profile, err := s.profiles.GetByEmail(ctx, shipping.Email)
	if err != nil {
		if !errors.Is(err, profiles.ErrProfileNotFound) {
			log.Printf("save-info: lookup profile for %s: %v", shipping.Email, err)
		}
		return
	}

	defaults := profiles.DefaultShipping{
		Phone:          shipping.Phone,
		Country:        shipping.Country,
		Postcode:       shipping.Postcode,
		City:           shipping.City,
		StreetAddress1: shipping.StreetAddress1,
		StreetAddress2: shipping.StreetAddress2,
		County:         shipping.County,
	}
	if err := s.profiles.UpdateDefaults(ctx, profile.ID, defaults); err != nil {
		log.Printf("save-info: update defaults for profile %d: %v", profile.ID, err)
		return
	}

	addr := profiles.Address{
		FullName:       shipping.FullName,
		Phone:          shipping.Phone,
		Country:        shipping.Country,
		Postcode:       shipping.Postcode,
		City:           shipping.City,
		StreetAddress1: shipping.StreetAddress1,
		StreetAddress2: shipping.StreetAddress2,
		County:         shipping.County,
	}
	if err := s.profiles.GetOrCreateAddress(ctx, profile.ID, addr); err != nil {
		log.Printf("save-info: save address for profile %d: %v", profile.ID, err)
	}
}

func (s *Service) notifyConfirmed(ctx context.Context, order *domain.Order) {
	if err := s.notifier.OrderConfirmed(ctx, order); err != nil {
		log.Printf("failed to send confirmation for order %s: %v", order.OrderNumber, err)
	}
}

func (s *Service) clearBag(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		log.Printf("failed to clear bag for session %s: %v", sessionID, err)
	}
}

// mergeShipping overlays the buyer's form data onto provider-inferred
// shipping: a field the buyer filled in wins.
func mergeShipping(existing, submitted domain.ShippingDetails) domain.ShippingDetails {
	merged := existing
	if submitted.FullName != "" {
		merged.FullName = submitted.FullName
	}
	if submitted.Email != "" {
		merged.Email = submitted.Email
	}
	if submitted.Phone != "" {
		merged.Phone = submitted.Phone
	}
	if submitted.Country != "" {
		merged.Country = submitted.Country
	}
	if submitted.Postcode != "" {
		merged.Postcode = submitted.Postcode
	}
	if submitted.City != "" {
		merged.City = submitted.City
	}
	if submitted.StreetAddress1 != "" {
		merged.StreetAddress1 = submitted.StreetAddress1
	}
	if submitted.StreetAddress2 != "" {
		merged.StreetAddress2 = submitted.StreetAddress2
	}
	if submitted.County != "" {
		merged.County = submitted.County
	}
	return merged
}

func validateCheckout(req CheckoutRequest) error {
	fields := map[string]string{}
	if req.StripePID == "" {
		fields["stripe_pid"] = "missing payment reference"
	}
	if req.BagSnapshot == "" {
		fields["bag"] = "missing bag snapshot"
	}

	required := map[string]string{
		"full_name":       req.Shipping.FullName,
		"email":           req.Shipping.Email,
		"phone_number":    req.Shipping.Phone,
		"country":         req.Shipping.Country,
		"town_or_city":    req.Shipping.City,
		"street_address1": req.Shipping.StreetAddress1,
	}
	for field, value := range required {
		if value == "" {
			fields[field] = "this field is required"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
