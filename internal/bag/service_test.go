package bag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

const sessionID = "sess1"

func newTestService(products ...*domain.Product) (*Service, *mockStore) {
	store := newMockStore()
	return NewService(store, newMockCatalog(products...), DefaultDeliveryRule()), store
}

func TestService_Get_MissingBagIsEmpty(t *testing.T) {
	svc, _ := newTestService()

	b, err := svc.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.True(t, b.IsEmpty())
}

func TestService_AddItem_Plain(t *testing.T) {
	svc, store := newTestService(testProduct("42", "Arctic Parka", "10.00", false))

	require.NoError(t, svc.AddItem(context.Background(), sessionID, "42", "", 2))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "42", "", 3))

	assert.Equal(t, 5, store.bags[sessionID]["42"].Quantity, "adds accumulate")
}

func TestService_AddItem_IgnoresSizeOnPlainProduct(t *testing.T) {
	svc, store := newTestService(testProduct("42", "Arctic Parka", "10.00", false))

	require.NoError(t, svc.AddItem(context.Background(), sessionID, "42", "M", 1))

	entry := store.bags[sessionID]["42"]
	assert.Nil(t, entry.BySize)
	assert.Equal(t, 1, entry.Quantity)
}

func TestService_AddItem_SizedAccumulatesPerSize(t *testing.T) {
	svc, store := newTestService(testProduct("7", "Wool Jumper", "15.00", true))

	require.NoError(t, svc.AddItem(context.Background(), sessionID, "7", "M", 1))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "7", "M", 2))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "7", "L", 1))

	entry := store.bags[sessionID]["7"]
	assert.Equal(t, map[string]int{"M": 3, "L": 1}, entry.BySize)
}

func TestService_AddItem_SizeRequired(t *testing.T) {
	svc, _ := newTestService(testProduct("7", "Wool Jumper", "15.00", true))

	err := svc.AddItem(context.Background(), sessionID, "7", "", 1)
	require.ErrorIs(t, err, ErrSizeRequired)
}

func TestService_AddItem_QuantityBounds(t *testing.T) {
	svc, _ := newTestService(testProduct("42", "Arctic Parka", "10.00", false))

	assert.ErrorIs(t, svc.AddItem(context.Background(), sessionID, "42", "", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, svc.AddItem(context.Background(), sessionID, "42", "", 100), ErrInvalidQuantity)
	assert.NoError(t, svc.AddItem(context.Background(), sessionID, "42", "", 99))
}

func TestService_AdjustItem_SetsQuantity(t *testing.T) {
	svc, store := newTestService(testProduct("42", "Arctic Parka", "10.00", false))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "42", "", 2))

	require.NoError(t, svc.AdjustItem(context.Background(), sessionID, "42", "", 7))
	assert.Equal(t, 7, store.bags[sessionID]["42"].Quantity)
}

func TestService_AdjustItem_ZeroRemoves(t *testing.T) {
	svc, store := newTestService(testProduct("42", "Arctic Parka", "10.00", false))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "42", "", 2))

	require.NoError(t, svc.AdjustItem(context.Background(), sessionID, "42", "", 0))
	assert.NotContains(t, store.bags[sessionID], "42")
}

func TestService_AdjustItem_LastSizeDropsEntry(t *testing.T) {
	svc, store := newTestService(testProduct("7", "Wool Jumper", "15.00", true))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "7", "M", 1))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "7", "L", 2))

	require.NoError(t, svc.AdjustItem(context.Background(), sessionID, "7", "M", 0))
	assert.Equal(t, map[string]int{"L": 2}, store.bags[sessionID]["7"].BySize)

	require.NoError(t, svc.AdjustItem(context.Background(), sessionID, "7", "L", 0))
	assert.NotContains(t, store.bags[sessionID], "7", "removing the last size drops the whole entry")
}

func TestService_AdjustItem_NotInBag(t *testing.T) {
	svc, _ := newTestService(testProduct("42", "Arctic Parka", "10.00", false))

	err := svc.AdjustItem(context.Background(), sessionID, "42", "", 1)
	require.ErrorIs(t, err, ErrItemNotInBag)
}

func TestService_RemoveItem(t *testing.T) {
	svc, store := newTestService(testProduct("42", "Arctic Parka", "10.00", false))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "42", "", 2))

	require.NoError(t, svc.RemoveItem(context.Background(), sessionID, "42", ""))
	assert.NotContains(t, store.bags[sessionID], "42")

	err := svc.RemoveItem(context.Background(), sessionID, "42", "")
	require.ErrorIs(t, err, ErrItemNotInBag)
}

func TestService_Contents(t *testing.T) {
	svc, _ := newTestService(
		testProduct("42", "Arctic Parka", "10.00", false),
		testProduct("7", "Wool Jumper", "15.00", true),
	)
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "42", "", 2))
	require.NoError(t, svc.AddItem(context.Background(), sessionID, "7", "M", 1))

	contents, err := svc.Contents(context.Background(), sessionID)
	require.NoError(t, err)

	require.Len(t, contents.Lines, 2)
	assert.True(t, contents.Total.Equal(contents.Lines[0].Subtotal.Add(contents.Lines[1].Subtotal)))
}

func TestService_Contents_EmptySession(t *testing.T) {
	svc, _ := newTestService()

	contents, err := svc.Contents(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Empty(t, contents.Lines)
	assert.True(t, contents.GrandTotal.IsZero())
}
