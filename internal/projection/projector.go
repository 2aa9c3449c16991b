package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/order"
	"github.com/example/ec-checkout/internal/infrastructure/store"
	"github.com/example/ec-checkout/internal/readmodel"
)

// Projector maintains the cart and order read models from the event stream.
// Events at or below a model's version have already been applied and are
// skipped, so redelivery is harmless.
type Projector struct {
	readStore store.ReadStoreInterface
}

var _ store.Publisher = (*Projector)(nil)

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

// Publish lets the projector stand in for a broker when the API runs
// against the in-memory event store. Payloads other than store.Event are
// ignored.
func (p *Projector) Publish(ctx context.Context, key string, event any) error {
	e, ok := event.(store.Event)
	if !ok {
		return nil
	}
	return p.HandleEvent(ctx, e)
}

// EventSource lists stored events of one aggregate type in commit order
type EventSource interface {
	GetEventsByType(ctx context.Context, aggregateType string) []store.Event
}

// Replay feeds every stored cart and order event through the projector and
// returns how many were handled. Already-applied versions are skipped, so a
// replay over a populated read store only fills gaps.
func (p *Projector) Replay(ctx context.Context, source EventSource) (int, error) {
	handled := 0
	for _, aggregateType := range []string{cart.AggregateType, order.AggregateType} {
		for _, event := range source.GetEventsByType(ctx, aggregateType) {
			if err := ctx.Err(); err != nil {
				return handled, err
			}
			if err := p.HandleEvent(ctx, event); err != nil {
				return handled, fmt.Errorf("replay %s v%d of %s: %w", event.EventType, event.Version, event.AggregateID, err)
			}
			handled++
		}
	}
	return handled, nil
}

func (p *Projector) HandleEvent(ctx context.Context, event store.Event) error {
	log.Printf("[Projector] Received event: %s (aggregate: %s v%d)", event.EventType, event.AggregateID, event.Version)

	switch event.AggregateType {
	case cart.AggregateType:
		return p.handleCartEvent(ctx, event)
	case order.AggregateType:
		return p.handleOrderEvent(ctx, event)
	}

	return nil
}

func (p *Projector) handleCartEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateCart(ctx, e.CartID, e.UserID, event, func(c *readmodel.CartReadModel) {
			for i, item := range c.Items {
				if item.ProductID == e.ProductID {
					c.Items[i].Quantity += e.Quantity
					return
				}
			}
			c.Items = append(c.Items, readmodel.CartItemReadModel{
				ProductID: e.ProductID,
				Name:      e.Name,
				UnitPrice: e.UnitPrice,
				Quantity:  e.Quantity,
				Category:  e.Category,
				VendorID:  e.VendorID,
			})
		})

	case cart.EventQuantityUpdated:
		var e cart.CartItemQuantityUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateCart(ctx, e.CartID, e.UserID, event, func(c *readmodel.CartReadModel) {
			for i, item := range c.Items {
				if item.ProductID == e.ProductID {
					c.Items[i].Quantity = e.Quantity
				}
			}
		})

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateCart(ctx, e.CartID, e.UserID, event, func(c *readmodel.CartReadModel) {
			items := make([]readmodel.CartItemReadModel, 0, len(c.Items))
			for _, item := range c.Items {
				if item.ProductID != e.ProductID {
					items = append(items, item)
				}
			}
			c.Items = items
		})

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateCart(ctx, e.CartID, e.UserID, event, func(c *readmodel.CartReadModel) {
			c.Items = []readmodel.CartItemReadModel{}
		})
	}

	return nil
}

// updateCart applies fn to the cart read model, creating it on first sight
func (p *Projector) updateCart(ctx context.Context, cartID, userID string, event store.Event, fn func(c *readmodel.CartReadModel)) error {
	current, found, err := p.readStore.Get(ctx, store.CollectionCarts, cartID)
	if err != nil {
		return err
	}

	c := &readmodel.CartReadModel{ID: cartID, UserID: userID, Items: []readmodel.CartItemReadModel{}}
	if found {
		existing := current.(*readmodel.CartReadModel)
		if event.Version > 0 && event.Version <= existing.Version {
			log.Printf("[Projector] Skipping replayed %s v%d for %s", event.EventType, event.Version, cartID)
			return nil
		}
		copied := *existing
		copied.Items = append([]readmodel.CartItemReadModel(nil), existing.Items...)
		c = &copied
	}

	fn(c)
	c.Recalculate()
	c.Version = event.Version
	c.UpdatedAt = event.Timestamp
	return p.readStore.Set(ctx, store.CollectionCarts, cartID, c)
}

func (p *Projector) handleOrderEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if _, found, err := p.readStore.Get(ctx, store.CollectionOrders, e.OrderID); err != nil || found {
			return err
		}
		items := make([]readmodel.OrderItemReadModel, len(e.Items))
		for i, item := range e.Items {
			items[i] = readmodel.OrderItemReadModel{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
			}
		}
		return p.readStore.Set(ctx, store.CollectionOrders, e.OrderID, &readmodel.OrderReadModel{
			ID:             e.OrderID,
			UserID:         e.UserID,
			Items:          items,
			Address:        e.Address,
			ShippingMethod: string(e.ShippingMethod),
			PaymentMethod:  e.PaymentMethod,
			Subtotal:       e.Subtotal,
			ShippingCost:   e.ShippingCost,
			Tax:            e.Tax,
			Discount:       e.Discount,
			Total:          e.Total,
			CouponCode:     e.CouponCode,
			Status:         string(order.StatusPending),
			Version:        event.Version,
			CreatedAt:      e.PlacedAt,
			UpdatedAt:      e.PlacedAt,
		})

	case order.EventOrderPaid:
		var e order.OrderPaid
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.setOrderStatus(ctx, e.OrderID, order.StatusPaid, event)

	case order.EventOrderShipped:
		var e order.OrderShipped
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.setOrderStatus(ctx, e.OrderID, order.StatusShipped, event)

	case order.EventOrderCancelled:
		var e order.OrderCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.setOrderStatus(ctx, e.OrderID, order.StatusCancelled, event)
	}

	return nil
}

func (p *Projector) setOrderStatus(ctx context.Context, orderID string, status order.Status, event store.Event) error {
	found, err := p.readStore.Update(ctx, store.CollectionOrders, orderID, func(current any) any {
		o := *current.(*readmodel.OrderReadModel)
		if event.Version > 0 && event.Version <= o.Version {
			return &o
		}
		o.Status = string(status)
		o.Version = event.Version
		o.UpdatedAt = event.Timestamp
		return &o
	})
	if err != nil {
		return err
	}
	if !found {
		log.Printf("[Projector] Order %s not projected yet, dropping %s", orderID, event.EventType)
	}
	return nil
}
