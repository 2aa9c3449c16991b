package store

import "context"

// Read model collections
const (
	CollectionCarts  = "carts"
	CollectionOrders = "orders"
)

// ReadStoreInterface defines the interface for read model storage
type ReadStoreInterface interface {
	// Set stores a read model
	Set(ctx context.Context, collection, id string, data any) error

	// Get retrieves a read model by id
	Get(ctx context.Context, collection, id string) (any, bool, error)

	// GetAllByUser retrieves a user's items in a collection, newest first
	GetAllByUser(ctx context.Context, collection, userID string) ([]any, error)

	// Delete removes a read model
	Delete(ctx context.Context, collection, id string) error

	// Update modifies a read model using an update function
	Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error)
}
