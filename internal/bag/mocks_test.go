package bag

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/SamBailey6194/boutique-ado-v1/internal/catalog"
	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
	"github.com/SamBailey6194/boutique-ado-v1/internal/session"
)

type mockCatalog struct {
	products map[string]*domain.Product
}

func newMockCatalog(products ...*domain.Product) *mockCatalog {
	m := &mockCatalog{products: map[string]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) Get(_ context.Context, productID string) (*domain.Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func testProduct(id, name, price string, hasSizes bool) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		HasSizes: hasSizes,
	}
}

type mockStore struct {
	mu     sync.Mutex
	bags   map[string]domain.Bag
	getErr error
	putErr error
}

func newMockStore() *mockStore {
	return &mockStore{bags: map[string]domain.Bag{}}
}

func (m *mockStore) Get(_ context.Context, sessionID string) (domain.Bag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.bags[sessionID]
	if !ok {
		return nil, session.ErrBagNotFound
	}
	return b, nil
}

func (m *mockStore) Put(_ context.Context, sessionID string, b domain.Bag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.bags[sessionID] = b
	return nil
}

func (m *mockStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bags, sessionID)
	return nil
}
