package command

import (
	"context"
	"errors"

	"github.com/example/ec-checkout/internal/domain/checkout"
	"github.com/example/ec-checkout/internal/domain/order"
	"github.com/example/ec-checkout/internal/domain/pricing"
)

// OrderCreator places checkout requests through the order aggregate.
// Validation refusals come back as *checkout.RejectedError.
type OrderCreator struct {
	orders *order.Service
}

var _ checkout.OrderCreator = (*OrderCreator)(nil)

func NewOrderCreator(orders *order.Service) *OrderCreator {
	return &OrderCreator{orders: orders}
}

func (c *OrderCreator) CreateOrder(ctx context.Context, req checkout.OrderRequest) (*checkout.PlacedOrder, error) {
	items := make([]order.OrderItem, len(req.Items))
	for i, line := range req.Items {
		items[i] = order.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	o, err := c.orders.Place(ctx, order.Placement{
		UserID:         req.UserID,
		SessionID:      req.SessionID,
		Items:          items,
		Address:        req.Address,
		ShippingMethod: req.ShippingMethod,
		PaymentMethod:  string(req.PaymentMethod),
		Subtotal:       req.Subtotal,
		ShippingCost:   req.ShippingCost,
		Tax:            req.Tax,
		Discount:       req.Discount,
		Total:          req.Total,
		CouponCode:     req.CouponCode,
	})
	if err != nil {
		if isPlacementRefusal(err) {
			return nil, &checkout.RejectedError{Reason: err.Error()}
		}
		return nil, err
	}
	return &checkout.PlacedOrder{
		OrderID: o.ID,
		Breakdown: pricing.Breakdown{
			Subtotal:     o.Subtotal,
			ShippingCost: o.ShippingCost,
			Tax:          o.Tax,
			Discount:     o.Discount,
			Total:        o.Total,
		},
		CouponCode: o.CouponCode,
	}, nil
}

func isPlacementRefusal(err error) bool {
	for _, target := range []error{
		order.ErrEmptyOrder,
		order.ErrInvalidItem,
		order.ErrInvalidAddress,
		order.ErrInvalidShipping,
		order.ErrTotalMismatch,
		order.ErrPlacementChanged,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
