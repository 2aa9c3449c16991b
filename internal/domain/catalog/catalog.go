package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/money"
)

var ErrProductNotFound = errors.New("product not found")

// Product is the catalog view the checkout needs: price, name and the fields
// coupon scopes match on.
type Product struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    money.Money `json:"price"`
	Category string      `json:"category"`
	VendorID string      `json:"vendor_id"`
}

// CartItem snapshots the product into a cart line
func (p Product) CartItem() cart.Item {
	return cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Category:  p.Category,
		VendorID:  p.VendorID,
	}
}

// Reader is the read-only catalog the checkout consumes
type Reader interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// MemoryCatalog is an in-memory Reader
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemoryCatalog(products ...Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *MemoryCatalog) Put(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *MemoryCatalog) GetProduct(ctx context.Context, id string) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}
