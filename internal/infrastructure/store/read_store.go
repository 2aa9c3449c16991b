package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/ec-checkout/internal/readmodel"
)

// ReadStore is an in-memory read model store
type ReadStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any // collection -> id -> data
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		data: make(map[string]map[string]any),
	}
}

// Set stores a read model
func (rs *ReadStore) Set(ctx context.Context, collection, id string, data any) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.data[collection] == nil {
		rs.data[collection] = make(map[string]any)
	}
	rs.data[collection][id] = data
	return nil
}

// Get retrieves a read model by id
func (rs *ReadStore) Get(ctx context.Context, collection, id string) (any, bool, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	data, ok := rs.data[collection][id]
	return data, ok, nil
}

// GetAllByUser retrieves a user's items in a collection, newest first
func (rs *ReadStore) GetAllByUser(ctx context.Context, collection, userID string) ([]any, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var items []any
	for _, item := range rs.data[collection] {
		if owner, _ := ownerOf(item); owner == userID {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		_, ti := ownerOf(items[i])
		_, tj := ownerOf(items[j])
		return ti.After(tj)
	})
	return items, nil
}

// ownerOf returns the user id and sort time of a read model
func ownerOf(item any) (string, time.Time) {
	switch m := item.(type) {
	case *readmodel.CartReadModel:
		return m.UserID, m.UpdatedAt
	case *readmodel.OrderReadModel:
		return m.UserID, m.CreatedAt
	}
	return "", time.Time{}
}

// Delete removes a read model
func (rs *ReadStore) Delete(ctx context.Context, collection, id string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.data[collection] != nil {
		delete(rs.data[collection], id)
	}
	return nil
}

// Update modifies a read model using an update function
func (rs *ReadStore) Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, ok := rs.data[collection][id]
	if !ok {
		return false, nil
	}
	rs.data[collection][id] = updateFn(current)
	return true, nil
}
