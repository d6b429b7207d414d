package checkout

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/SamBailey6194/boutique-ado-v1/internal/catalog"
	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
	"github.com/SamBailey6194/boutique-ado-v1/internal/orders"
	"github.com/SamBailey6194/boutique-ado-v1/internal/payments"
	"github.com/SamBailey6194/boutique-ado-v1/internal/profiles"
	"github.com/SamBailey6194/boutique-ado-v1/internal/session"
)

type mockOrderRepo struct {
	mu        sync.Mutex
	seq       int64
	orders    map[int64]*domain.Order
	items     map[int64][]domain.OrderLineItem
	findCalls int

	createErr      error
	insertItemsErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: map[int64]*domain.Order{},
		items:  map[int64][]domain.OrderLineItem{},
	}
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.orders {
		if existing.StripePID == order.StripePID {
			return orders.ErrDuplicatePayment
		}
	}
	m.seq++
	order.ID = m.seq
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderRepo) InsertLineItems(_ context.Context, orderID int64, items []domain.OrderLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertItemsErr != nil {
		return m.insertItemsErr
	}
	m.items[orderID] = append([]domain.OrderLineItem(nil), items...)
	return nil
}

func (m *mockOrderRepo) DeleteOrder(_ context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, orderID)
	delete(m.items, orderID)
	return nil
}

func (m *mockOrderRepo) GetByStripePID(_ context.Context, stripePID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.StripePID == stripePID {
			return m.copyWithItems(o), nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func (m *mockOrderRepo) GetByOrderNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			return m.copyWithItems(o), nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func (m *mockOrderRepo) FindMatching(_ context.Context, c orders.MatchCriteria) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	for _, o := range m.orders {
		if o.StripePID != c.StripePID || o.OriginalBag != c.OriginalBag {
			continue
		}
		if !o.GrandTotal.Equal(c.GrandTotal) {
			continue
		}
		if !shippingEqualFold(o.Shipping, c.Shipping) {
			continue
		}
		return m.copyWithItems(o), nil
	}
	return nil, orders.ErrOrderNotFound
}

func (m *mockOrderRepo) UpdateShipping(_ context.Context, orderID int64, shipping domain.ShippingDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[orderID]; ok {
		o.Shipping = shipping
	}
	return nil
}

func (m *mockOrderRepo) copyWithItems(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderLineItem(nil), m.items[o.ID]...)
	return &c
}

func (m *mockOrderRepo) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *mockOrderRepo) itemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, items := range m.items {
		n += len(items)
	}
	return n
}

func (m *mockOrderRepo) lookupCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

func shippingEqualFold(a, b domain.ShippingDetails) bool {
	return strings.EqualFold(a.FullName, b.FullName) &&
		strings.EqualFold(a.Email, b.Email) &&
		strings.EqualFold(a.Phone, b.Phone) &&
		strings.EqualFold(a.Country, b.Country) &&
		strings.EqualFold(a.Postcode, b.Postcode) &&
		strings.EqualFold(a.City, b.City) &&
		strings.EqualFold(a.StreetAddress1, b.StreetAddress1) &&
		strings.EqualFold(a.StreetAddress2, b.StreetAddress2) &&
		strings.EqualFold(a.County, b.County)
}

type mockCatalog struct {
	mu         sync.Mutex
	products   map[string]*domain.Product
	calls      int
	failAtCall int // 0 means never fail
}

func newMockCatalog(products ...*domain.Product) *mockCatalog {
	m := &mockCatalog{products: map[string]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) Get(_ context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAtCall > 0 && m.calls >= m.failAtCall {
		return nil, catalog.ErrProductNotFound
	}
	p, ok := m.products[productID]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

type mockGateway struct {
	chargeAmount int64
	billingEmail string
	billingPhone string
	chargeErr    error
}

func (m *mockGateway) CreateIntent(context.Context, int64, string, map[string]string) (*payments.Intent, error) {
	return &payments.Intent{ID: "pi_test", ClientSecret: "pi_test_secret_xyz"}, nil
}

func (m *mockGateway) ModifyIntentMetadata(context.Context, string, map[string]string) error {
	return nil
}

func (m *mockGateway) RetrieveCharge(_ context.Context, chargeID string) (*payments.Charge, error) {
	if m.chargeErr != nil {
		return nil, m.chargeErr
	}
	charge := &payments.Charge{ID: chargeID, Amount: m.chargeAmount}
	charge.BillingDetails.Email = m.billingEmail
	charge.BillingDetails.Phone = m.billingPhone
	return charge, nil
}

type mockProfiles struct {
	mu        sync.Mutex
	profile   *profiles.Profile
	defaults  *profiles.DefaultShipping
	addresses []profiles.Address
	getErr    error
	updateErr error
}

func (m *mockProfiles) GetByEmail(_ context.Context, email string) (*profiles.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.profile == nil || !strings.EqualFold(m.profile.Email, email) {
		return nil, profiles.ErrProfileNotFound
	}
	return m.profile, nil
}

func (m *mockProfiles) UpdateDefaults(_ context.Context, _ int64, defaults profiles.DefaultShipping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.defaults = &defaults
	return nil
}

func (m *mockProfiles) GetOrCreateAddress(_ context.Context, _ int64, addr profiles.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses = append(m.addresses, addr)
	return nil
}

type mockNotifier struct {
	mu        sync.Mutex
	confirmed []string
	err       error
}

func (m *mockNotifier) OrderConfirmed(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.confirmed = append(m.confirmed, order.OrderNumber)
	return nil
}

func (m *mockNotifier) confirmations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.confirmed...)
}

type mockSessionStore struct {
	mu   sync.Mutex
	bags map[string]domain.Bag
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{bags: map[string]domain.Bag{}}
}

func (m *mockSessionStore) Get(_ context.Context, sessionID string) (domain.Bag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bags[sessionID]
	if !ok {
		return nil, session.ErrBagNotFound
	}
	return b, nil
}

func (m *mockSessionStore) Put(_ context.Context, sessionID string, b domain.Bag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bags[sessionID] = b
	return nil
}

func (m *mockSessionStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bags, sessionID)
	return nil
}

func (m *mockSessionStore) has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bags[sessionID]
	return ok
}

func testProduct(id, name, price string, hasSizes bool) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		HasSizes: hasSizes,
	}
}
