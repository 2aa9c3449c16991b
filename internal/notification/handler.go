package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/ec-checkout/internal/domain/order"
	"github.com/example/ec-checkout/internal/email"
	"github.com/example/ec-checkout/internal/infrastructure/store"
)

// Sender delivers order confirmations
type Sender interface {
	SendOrderConfirmation(to string, c email.Confirmation) error
}

// Handler processes events for sending notifications
type Handler struct {
	sender Sender
}

// NewHandler creates a new notification handler
func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, event store.Event) error {
	// Only process OrderPlaced events
	if event.EventType == order.EventOrderPlaced {
		return h.handleOrderPlaced(event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(event store.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", e.OrderID, e.UserID)

	to := e.Address.Email
	if to == "" {
		log.Printf("[Notifier] Order %s has no contact email, skipping confirmation", e.OrderID)
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	confirmation := email.Confirmation{
		OrderID:        e.OrderID,
		RecipientName:  e.Address.RecipientName,
		Items:          items,
		ShippingMethod: string(e.ShippingMethod),
		Subtotal:       e.Subtotal,
		ShippingCost:   e.ShippingCost,
		Tax:            e.Tax,
		Discount:       e.Discount,
		Total:          e.Total,
		CouponCode:     e.CouponCode,
	}
	if err := h.sender.SendOrderConfirmation(to, confirmation); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", to, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", to, e.OrderID)
	return nil
}
