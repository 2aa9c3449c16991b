package coupon

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry looks up coupons by normalized code. Implementations return
// ErrNotFound for unknown codes.
type Registry interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}

// MemoryRegistry is an in-memory Registry for tests and local runs
type MemoryRegistry struct {
	mu      sync.RWMutex
	coupons map[string]Coupon
}

func NewMemoryRegistry(coupons ...Coupon) *MemoryRegistry {
	r := &MemoryRegistry{coupons: make(map[string]Coupon)}
	for _, c := range coupons {
		r.Put(c)
	}
	return r
}

// Put adds or replaces a coupon
func (r *MemoryRegistry) Put(c Coupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Code = NormalizeCode(c.Code)
	r.coupons[c.Code] = c
}

// Upsert validates and stores a coupon
func (r *MemoryRegistry) Upsert(ctx context.Context, c Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.Put(c)
	return nil
}

func (r *MemoryRegistry) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.coupons[NormalizeCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// SharedRegistry collapses concurrent lookups of the same code into one
// call to the underlying registry.
type SharedRegistry struct {
	next Registry
	sfg  singleflight.Group
}

func NewSharedRegistry(next Registry) *SharedRegistry {
	return &SharedRegistry{next: next}
}

func (r *SharedRegistry) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	key := NormalizeCode(code)
	v, err, _ := r.sfg.Do(key, func() (interface{}, error) {
		return r.next.FindByCode(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	// callers may hold the result; hand each its own copy
	c := *v.(*Coupon)
	return &c, nil
}
