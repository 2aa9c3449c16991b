package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

// =============================================================================
// EventStore Tests
// =============================================================================

func TestEventStore_AppendAssignsVersions(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	es := NewEventStore(pub)

	for i := 0; i < 3; i++ {
		_, err := es.Append(ctx, "cart-user-1", "Cart", "ItemAdded", map[string]int{"quantity": i + 1})
		require.NoError(t, err)
	}
	_, err := es.Append(ctx, "order-1", "Order", "OrderPlaced", map[string]string{"id": "order-1"})
	require.NoError(t, err)

	events := es.GetEvents(ctx, "cart-user-1")
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, i+1, e.Version)
		assert.Equal(t, "Cart", e.AggregateType)
		assert.NotEmpty(t, e.ID)
	}

	var payload map[string]int
	require.NoError(t, json.Unmarshal(events[2].Data, &payload))
	assert.Equal(t, 3, payload["quantity"])

	assert.Equal(t, []string{"cart-user-1", "cart-user-1", "cart-user-1", "order-1"}, pub.keys)
	assert.Len(t, es.GetAllEvents(ctx), 4)
}

func TestEventStore_GetEventsFromVersion(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)

	for i := 0; i < 5; i++ {
		_, err := es.Append(ctx, "order-1", "Order", "OrderPaid", nil)
		require.NoError(t, err)
	}

	events := es.GetEventsFromVersion(ctx, "order-1", 3)
	require.Len(t, events, 2)
	assert.Equal(t, 4, events[0].Version)
	assert.Equal(t, 5, events[1].Version)

	assert.Empty(t, es.GetEventsFromVersion(ctx, "unknown", 0))
}

func TestEventStore_PublishFailureKeepsEvent(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker down")}
	es := NewEventStore(publisher)

	event, err := es.Append(context.Background(), "order-1", "Order", "OrderPlaced", nil)

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, []string{"order-1"}, publisher.keys)
	stored := es.GetEvents(context.Background(), "order-1")
	require.Len(t, stored, 1)
	assert.Equal(t, event.ID, stored[0].ID)
}

func TestEventStore_AppendRejectsUnencodableData(t *testing.T) {
	es := NewEventStore(nil)

	_, err := es.Append(context.Background(), "order-1", "Order", "OrderPlaced", make(chan int))
	assert.Error(t, err)
	assert.Empty(t, es.GetEvents(context.Background(), "order-1"))
}

// =============================================================================
// Snapshot Tests
// =============================================================================

func TestSnapshotThreshold(t *testing.T) {
	assert.Equal(t, 10, SnapshotThreshold)
}

func TestEventStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)

	snap, err := es.GetSnapshot(ctx, "order-1")
	require.NoError(t, err)
	assert.Nil(t, snap)

	state, err := json.Marshal(map[string]string{"status": "paid"})
	require.NoError(t, err)
	require.NoError(t, es.SaveSnapshot(ctx, &Snapshot{
		AggregateID:   "order-1",
		AggregateType: "Order",
		Version:       10,
		State:         state,
		CreatedAt:     time.Now(),
	}))
	require.NoError(t, es.SaveSnapshot(ctx, &Snapshot{
		AggregateID:   "order-1",
		AggregateType: "Order",
		Version:       20,
		State:         state,
		CreatedAt:     time.Now(),
	}))

	snap, err = es.GetSnapshot(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 20, snap.Version)
	assert.JSONEq(t, `{"status":"paid"}`, string(snap.State))
}

func TestEventStore_GetEventsByType(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)

	_, err := es.Append(ctx, "cart-1", "Cart", "ItemAddedToCart", map[string]int{"qty": 1})
	require.NoError(t, err)
	_, err = es.Append(ctx, "order-1", "Order", "OrderPlaced", map[string]int{"total": 100})
	require.NoError(t, err)
	_, err = es.Append(ctx, "cart-1", "Cart", "CartCleared", map[string]int{})
	require.NoError(t, err)

	carts := es.GetEventsByType(ctx, "Cart")
	require.Len(t, carts, 2)
	assert.Equal(t, 1, carts[0].Version)
	assert.Equal(t, 2, carts[1].Version)
	assert.Len(t, es.GetEventsByType(ctx, "Order"), 1)
	assert.Empty(t, es.GetEventsByType(ctx, "Unknown"))
}
