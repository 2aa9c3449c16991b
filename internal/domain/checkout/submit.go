package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/example/ec-checkout/internal/domain/pricing"
)

// OrderLine is the denormalized item snapshot sent with an order
type OrderLine struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int         `json:"quantity"`
}

// OrderRequest is the single atomic order-creation payload
type OrderRequest struct {
	UserID         string                 `json:"user_id"`
	SessionID      string                 `json:"session_id"`
	Address        address.Address        `json:"address"`
	Items          []OrderLine            `json:"items"`
	ShippingMethod pricing.ShippingMethod `json:"shipping_method"`
	PaymentMethod  PaymentMethod          `json:"payment_method"`
	Subtotal       money.Money            `json:"subtotal"`
	ShippingCost   money.Money            `json:"shipping_cost"`
	Tax            money.Money            `json:"tax"`
	Discount       money.Money            `json:"discount"`
	Total          money.Money            `json:"total"`
	CouponCode     string                 `json:"coupon_code,omitempty"`
}

// PlacedOrder is the order as the order service recorded it
type PlacedOrder struct {
	OrderID    string            `json:"order_id"`
	Breakdown  pricing.Breakdown `json:"breakdown"`
	CouponCode string            `json:"coupon_code,omitempty"`
}

// OrderCreator is the order-creation endpoint. A refusal is reported as a
// *RejectedError; anything else is treated as a transport failure.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*PlacedOrder, error)
}

// CartClearer empties a user's cart after the order is placed
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Receipt is the outcome of a successful submission. AddressSaveError is
// set when the order went through but the opted-in address could not be
// saved.
type Receipt struct {
	OrderID          string            `json:"order_id"`
	Breakdown        pricing.Breakdown `json:"breakdown"`
	CouponCode       string            `json:"coupon_code,omitempty"`
	AddressSaved     bool              `json:"address_saved"`
	AddressSaveError string            `json:"address_save_error,omitempty"`
}

// Submitter turns a reviewed session into one order
type Submitter struct {
	orders    OrderCreator
	addresses address.Book
	carts     CartClearer
}

func NewSubmitter(orders OrderCreator, addresses address.Book, carts CartClearer) *Submitter {
	return &Submitter{orders: orders, addresses: addresses, carts: carts}
}

// Submit places the order for a session in Review. A failed submission
// leaves the session in Review so the buyer can retry.
func (s *Submitter) Submit(ctx context.Context, sess *Session) (*Receipt, error) {
	switch {
	case sess.Step == StepComplete:
		return nil, ErrSessionComplete
	case sess.Step != StepReview:
		return nil, ErrNotInReview
	}
	if !sess.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInProgress
	}
	defer sess.submitting.Store(false)

	if sess.ReviewBreakdown == nil {
		b := sess.compute()
		sess.ReviewBreakdown = &b
	}
	req := buildOrderRequest(sess)

	placed, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		if errors.Is(err, ErrRejected) || errors.Is(err, ErrTransportFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
	orderID := placed.OrderID
	log.Printf("[Checkout] Order %s placed for user %s (session %s, total %s)", orderID, sess.UserID, sess.ID, placed.Breakdown.Total)

	// the receipt reports what was recorded, not what was asked for
	receipt := &Receipt{
		OrderID:    orderID,
		Breakdown:  placed.Breakdown,
		CouponCode: placed.CouponCode,
	}

	if sess.SaveAddress && !sess.AddressSaved {
		if err := s.saveAddress(ctx, sess.UserID, sess.Address); err != nil {
			log.Printf("[Checkout] Failed to save address for user %s: %v", sess.UserID, err)
			receipt.AddressSaveError = err.Error()
		} else {
			receipt.AddressSaved = true
			sess.AddressSaved = true
		}
	}

	if err := s.carts.Clear(ctx, sess.UserID); err != nil {
		log.Printf("[Checkout] Failed to clear cart for user %s after order %s: %v", sess.UserID, orderID, err)
	}

	sess.OrderID = orderID
	sess.Step = StepComplete
	sess.cart = cart.New(sess.UserID)
	sess.touch()
	return receipt, nil
}

// saveAddress persists a unless an identical address is already saved
func (s *Submitter) saveAddress(ctx context.Context, userID string, a address.Address) error {
	saved, err := s.addresses.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("list saved addresses: %w", err)
	}
	if address.Contains(saved, a) {
		return nil
	}
	if err := s.addresses.Save(ctx, userID, a); err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}

func buildOrderRequest(sess *Session) OrderRequest {
	items := sess.cart.Snapshot()
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	b := *sess.ReviewBreakdown
	return OrderRequest{
		UserID:         sess.UserID,
		SessionID:      sess.ID,
		Address:        sess.Address,
		Items:          lines,
		ShippingMethod: sess.ShippingMethod,
		PaymentMethod:  sess.PaymentMethod,
		Subtotal:       b.Subtotal,
		ShippingCost:   b.ShippingCost,
		Tax:            b.Tax,
		Discount:       b.Discount,
		Total:          b.Total,
		CouponCode:     sess.couponCode(),
	}
}
