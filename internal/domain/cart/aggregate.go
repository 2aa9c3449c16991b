package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/ec-checkout/internal/domain/aggregate"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/example/ec-checkout/internal/infrastructure/store"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrInvalidPrice    = errors.New("unit price cannot be negative")
)

// Item is a cart line. UnitPrice is the catalog price at the time the product
// was first added; later adds of the same product keep it.
type Item struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int         `json:"quantity"`
	Category  string      `json:"category"`
	VendorID  string      `json:"vendor_id"`
}

// LineTotal returns UnitPrice x Quantity
func (i Item) LineTotal() money.Money {
	return i.UnitPrice.Times(i.Quantity)
}

// Cart holds line items in insertion order. Quantity is always >= 1; a line
// that would drop to zero is removed.
type Cart struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Items   []Item `json:"items"`
	Version int    `json:"version"`
}

// New returns an empty cart for a user
func New(userID string) *Cart {
	return &Cart{ID: GetCartID(userID), UserID: userID}
}

// GetCartID returns the cart ID for a user (using userID as cartID for simplicity)
func GetCartID(userID string) string {
	return "cart-" + userID
}

func (c *Cart) GetID() string    { return c.ID }
func (c *Cart) GetVersion() int  { return c.Version }
func (c *Cart) SetVersion(v int) { c.Version = v }

func (c *Cart) indexOf(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Find returns the line for productID
func (c *Cart) Find(productID string) (Item, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

// AddItem inserts the item or increments the quantity of an existing line
func (c *Cart) AddItem(item Item, quantity int) error {
	if item.ProductID == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.UnitPrice < 0 {
		return ErrInvalidPrice
	}

	if i := c.indexOf(item.ProductID); i >= 0 {
		c.Items[i].Quantity += quantity
		return nil
	}
	item.Quantity = quantity
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity <= 0 removes the
// line. Unknown products are ignored. Reports whether the cart changed.
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	if c.Items[i].Quantity == quantity {
		return false
	}
	c.Items[i].Quantity = quantity
	return true
}

// RemoveItem drops a line; removing an absent product is a no-op
func (c *Cart) RemoveItem(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Clear removes all lines
func (c *Cart) Clear() {
	c.Items = nil
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal is the exact sum of UnitPrice x Quantity over all lines
func (c *Cart) Subtotal() money.Money {
	var total money.Money
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// Snapshot returns a copy of the lines that later cart mutations cannot touch
func (c *Cart) Snapshot() []Item {
	return append([]Item(nil), c.Items...)
}

// ApplyEvent applies a single event to the cart state (implements aggregate.Aggregate)
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID = data.CartID
		c.UserID = data.UserID
		if err := c.AddItem(Item{
			ProductID: data.ProductID,
			Name:      data.Name,
			UnitPrice: data.UnitPrice,
			Category:  data.Category,
			VendorID:  data.VendorID,
		}, data.Quantity); err != nil {
			return err
		}
	case EventQuantityUpdated:
		var data CartItemQuantityUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.UpdateQuantity(data.ProductID, data.Quantity)
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.RemoveItem(data.ProductID)
	case EventCartCleared:
		c.Clear()
	}
	c.Version = event.Version
	return nil
}

// Service persists cart mutations as events
type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Load rebuilds a user's cart; a user without events gets an empty cart
func (s *Service) Load(ctx context.Context, userID string) (*Cart, error) {
	cart, found, err := aggregate.LoadAggregate(ctx, s.eventStore, GetCartID(userID), func() *Cart {
		return New(userID)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return New(userID), nil
	}
	return cart, nil
}

func (s *Service) AddItem(ctx context.Context, userID string, item Item, quantity int) (*Cart, error) {
	cart, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := cart.AddItem(item, quantity); err != nil {
		return nil, err
	}

	event := ItemAddedToCart{
		CartID:    cart.ID,
		UserID:    userID,
		ProductID: item.ProductID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Category:  item.Category,
		VendorID:  item.VendorID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	}
	if err := aggregate.Record(ctx, s.eventStore, cart, AggregateType, EventItemAdded, event); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity records a quantity change, or a removal when quantity <= 0.
// Unknown products append nothing.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	cart, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.UpdateQuantity(productID, quantity) {
		return cart, nil
	}

	event := CartItemQuantityUpdated{
		CartID:    cart.ID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	}
	if err := aggregate.Record(ctx, s.eventStore, cart, AggregateType, EventQuantityUpdated, event); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}

	cart, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveItem(productID) {
		return cart, nil
	}

	event := ItemRemovedFromCart{
		CartID:    cart.ID,
		UserID:    userID,
		ProductID: productID,
		RemovedAt: time.Now(),
	}
	if err := aggregate.Record(ctx, s.eventStore, cart, AggregateType, EventItemRemoved, event); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart. An already empty cart appends nothing.
func (s *Service) Clear(ctx context.Context, userID string) error {
	cart, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if cart.IsEmpty() {
		return nil
	}
	cart.Clear()

	event := CartCleared{
		CartID:    cart.ID,
		UserID:    userID,
		ClearedAt: time.Now(),
	}
	return aggregate.Record(ctx, s.eventStore, cart, AggregateType, EventCartCleared, event)
}
