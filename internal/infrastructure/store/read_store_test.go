package store

import (
	"context"
	"testing"
	"time"

	"github.com/example/ec-checkout/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ReadStore Tests
// =============================================================================

func TestReadStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	rs := NewReadStore()

	cart := &readmodel.CartReadModel{ID: "cart-user-1", UserID: "user-1"}
	require.NoError(t, rs.Set(ctx, CollectionCarts, cart.ID, cart))

	got, found, err := rs.Get(ctx, CollectionCarts, cart.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Same(t, cart, got)

	_, found, err = rs.Get(ctx, CollectionOrders, cart.ID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, rs.Delete(ctx, CollectionCarts, cart.ID))
	_, found, _ = rs.Get(ctx, CollectionCarts, cart.ID)
	assert.False(t, found)

	assert.NoError(t, rs.Delete(ctx, "missing", "x"))
}

func TestReadStore_GetAllByUser_NewestFirst(t *testing.T) {
	ctx := context.Background()
	rs := NewReadStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	orders := []*readmodel.OrderReadModel{
		{ID: "o-1", UserID: "user-1", CreatedAt: base},
		{ID: "o-2", UserID: "user-1", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "o-3", UserID: "user-2", CreatedAt: base.Add(time.Hour)},
		{ID: "o-4", UserID: "user-1", CreatedAt: base.Add(time.Hour)},
	}
	for _, o := range orders {
		require.NoError(t, rs.Set(ctx, CollectionOrders, o.ID, o))
	}

	items, err := rs.GetAllByUser(ctx, CollectionOrders, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 3)

	var ids []string
	for _, item := range items {
		ids = append(ids, item.(*readmodel.OrderReadModel).ID)
	}
	assert.Equal(t, []string{"o-2", "o-4", "o-1"}, ids)

	items, err = rs.GetAllByUser(ctx, CollectionOrders, "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReadStore_Update(t *testing.T) {
	ctx := context.Background()
	rs := NewReadStore()

	updated, err := rs.Update(ctx, CollectionOrders, "o-1", func(current any) any { return current })
	require.NoError(t, err)
	assert.False(t, updated)

	require.NoError(t, rs.Set(ctx, CollectionOrders, "o-1", &readmodel.OrderReadModel{ID: "o-1", Status: "placed"}))
	updated, err = rs.Update(ctx, CollectionOrders, "o-1", func(current any) any {
		o := *current.(*readmodel.OrderReadModel)
		o.Status = "paid"
		return &o
	})
	require.NoError(t, err)
	assert.True(t, updated)

	got, _, _ := rs.Get(ctx, CollectionOrders, "o-1")
	assert.Equal(t, "paid", got.(*readmodel.OrderReadModel).Status)
}
