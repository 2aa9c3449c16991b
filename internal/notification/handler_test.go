package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/order"
	"github.com/example/ec-checkout/internal/domain/pricing"
	"github.com/example/ec-checkout/internal/email"
	"github.com/example/ec-checkout/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to           string
	confirmation email.Confirmation
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) SendOrderConfirmation(to string, c email.Confirmation) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, confirmation: c})
	return nil
}

func placedEvent(t *testing.T, e order.OrderPlaced) store.Event {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return store.Event{
		AggregateID:   e.OrderID,
		AggregateType: order.AggregateType,
		EventType:     order.EventOrderPlaced,
		Data:          data,
		Version:       1,
	}
}

func samplePlaced() order.OrderPlaced {
	return order.OrderPlaced{
		OrderID: "order-1",
		UserID:  "user-1",
		Items: []order.OrderItem{
			{ProductID: "p-notebook", Name: "Notebook", UnitPrice: 50000, Quantity: 2},
		},
		Address: address.Address{
			RecipientName: "Asha Rao",
			Street:        "12 MG Road",
			City:          "Bengaluru",
			PostalCode:    "560001",
			Email:         "asha@example.com",
		},
		ShippingMethod: pricing.Standard,
		PaymentMethod:  "card",
		Subtotal:       100000,
		Tax:            18000,
		Discount:       10000,
		Total:          108000,
		CouponCode:     "FLASH10",
	}
}

func TestHandleEvent_OrderPlacedSendsConfirmation(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender)

	err := h.HandleEvent(context.Background(), placedEvent(t, samplePlaced()))

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "asha@example.com", sender.sent[0].to)
	c := sender.sent[0].confirmation
	assert.Equal(t, "order-1", c.OrderID)
	assert.Equal(t, "Asha Rao", c.RecipientName)
	assert.Equal(t, "standard", c.ShippingMethod)
	assert.EqualValues(t, 108000, c.Total)
	assert.Equal(t, "FLASH10", c.CouponCode)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Notebook", c.Items[0].Name)
}

func TestHandleEvent_NoEmailSkips(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender)
	e := samplePlaced()
	e.Address.Email = ""

	err := h.HandleEvent(context.Background(), placedEvent(t, e))

	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestHandleEvent_SendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	h := NewHandler(sender)

	err := h.HandleEvent(context.Background(), placedEvent(t, samplePlaced()))

	assert.EqualError(t, err, "smtp down")
}

func TestHandleEvent_IgnoresOtherEvents(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(sender)

	err := h.HandleEvent(context.Background(), store.Event{
		AggregateID: "order-1",
		EventType:   order.EventOrderPaid,
		Data:        json.RawMessage(`{"order_id":"order-1"}`),
	})

	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestHandleEvent_InvalidPayload(t *testing.T) {
	h := NewHandler(&fakeSender{})

	err := h.HandleEvent(context.Background(), store.Event{
		AggregateID: "order-1",
		EventType:   order.EventOrderPlaced,
		Data:        json.RawMessage(`{"total":"lots"}`),
	})

	assert.Error(t, err)
}
