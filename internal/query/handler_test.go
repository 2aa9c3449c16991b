package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/example/ec-checkout/internal/infrastructure/store"
	"github.com/example/ec-checkout/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueryHandler() (*Handler, *mocks.MockReadStore, *address.MemoryBook) {
	readStore := mocks.NewMockReadStore()
	readStore.OwnerOf = func(item any) string {
		return item.(*OrderReadModel).UserID
	}
	book := address.NewMemoryBook()
	return NewHandler(readStore, book), readStore, book
}

// ============================================
// Cart Query Tests
// ============================================

func TestHandler_GetCart_Found(t *testing.T) {
	handler, readStore, _ := newTestQueryHandler()
	readStore.SetData(store.CollectionCarts, "cart-user-1", &CartReadModel{
		ID:       "cart-user-1",
		UserID:   "user-1",
		Items:    []CartItemReadModel{{ProductID: "p-1", UnitPrice: money.Money(500), Quantity: 2}},
		Subtotal: money.Money(1000),
	})

	c, err := handler.GetCart(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, money.Money(1000), c.Subtotal)
}

func TestHandler_GetCart_EmptyWhenMissing(t *testing.T) {
	handler, _, _ := newTestQueryHandler()

	c, err := handler.GetCart(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "cart-user-1", c.ID)
	assert.NotNil(t, c.Items)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Subtotal)
}

func TestHandler_GetCart_StoreError(t *testing.T) {
	handler, readStore, _ := newTestQueryHandler()
	readStore.GetErr = errors.New("db down")

	_, err := handler.GetCart(context.Background(), "user-1")
	assert.Error(t, err)
}

// ============================================
// Order Query Tests
// ============================================

func TestHandler_GetOrder(t *testing.T) {
	handler, readStore, _ := newTestQueryHandler()
	readStore.SetData(store.CollectionOrders, "order-1", &OrderReadModel{ID: "order-1", UserID: "user-1", Status: "pending"})

	tests := []struct {
		name    string
		userID  string
		orderID string
		wantErr error
	}{
		{"own order", "user-1", "order-1", nil},
		{"other user's order hidden", "user-2", "order-1", ErrOrderNotFound},
		{"missing order", "user-1", "order-9", ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := handler.GetOrder(context.Background(), tt.userID, tt.orderID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pending", o.Status)
		})
	}
}

func TestHandler_ListOrdersByUser(t *testing.T) {
	handler, readStore, _ := newTestQueryHandler()
	now := time.Now()
	readStore.SetData(store.CollectionOrders, "order-1", &OrderReadModel{ID: "order-1", UserID: "user-1", CreatedAt: now})
	readStore.SetData(store.CollectionOrders, "order-2", &OrderReadModel{ID: "order-2", UserID: "user-2", CreatedAt: now})
	readStore.SetData(store.CollectionOrders, "order-3", &OrderReadModel{ID: "order-3", UserID: "user-1", CreatedAt: now})

	orders, err := handler.ListOrdersByUser(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "user-1", o.UserID)
	}
}

func TestHandler_ListOrdersByUser_Empty(t *testing.T) {
	handler, _, _ := newTestQueryHandler()

	orders, err := handler.ListOrdersByUser(context.Background(), "user-1")

	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

// ============================================
// Address Query Tests
// ============================================

func TestHandler_ListAddresses(t *testing.T) {
	handler, _, book := newTestQueryHandler()
	ctx := context.Background()

	list, err := handler.ListAddresses(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	require.NoError(t, book.Save(ctx, "user-1", address.Address{RecipientName: "Asha Rao", Street: "12 MG Road", City: "Bengaluru", PostalCode: "560001"}))

	list, err = handler.ListAddresses(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bengaluru", list[0].City)
}
