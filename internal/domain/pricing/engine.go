package pricing

import (
	"errors"

	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/shopspring/decimal"
)

var ErrInvalidShippingMethod = errors.New("invalid shipping method")

// ShippingMethod is the delivery speed chosen at the Shipping step
type ShippingMethod string

const (
	Standard ShippingMethod = "standard"
	Express  ShippingMethod = "express"
)

// ParseShippingMethod accepts "standard" or "express"
func ParseShippingMethod(s string) (ShippingMethod, error) {
	switch m := ShippingMethod(s); m {
	case Standard, Express:
		return m, nil
	}
	return "", ErrInvalidShippingMethod
}

func (m ShippingMethod) Valid() bool {
	return m == Standard || m == Express
}

// Policy holds the shipping and tax constants
type Policy struct {
	FreeShippingThreshold money.Money
	StandardFee           money.Money
	ExpressFee            money.Money
	TaxRatePercent        decimal.Decimal
}

// DefaultPolicy: standard shipping free from ₹499, else ₹99; express ₹149; 18% tax
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: 49900,
		StandardFee:           9900,
		ExpressFee:            14900,
		TaxRatePercent:        decimal.NewFromInt(18),
	}
}

// Breakdown is the priced view of a cart
type Breakdown struct {
	Subtotal     money.Money `json:"subtotal"`
	ShippingCost money.Money `json:"shipping_cost"`
	Tax          money.Money `json:"tax"`
	Discount     money.Money `json:"discount"`
	Total        money.Money `json:"total"`
}

// Engine computes breakdowns. It is pure and safe for concurrent use.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// ShippingCost for a subtotal. An empty cart ships for free.
func (e *Engine) ShippingCost(subtotal money.Money, method ShippingMethod) money.Money {
	if subtotal <= 0 {
		return 0
	}
	if method == Express {
		return e.policy.ExpressFee
	}
	if subtotal >= e.policy.FreeShippingThreshold {
		return 0
	}
	return e.policy.StandardFee
}

// Compute prices the items. The coupon discount is recomputed against the
// current subtotal rather than taken from applied.Discount, which may predate
// a cart change. Tax is charged on the subtotal before discount.
func (e *Engine) Compute(items []cart.Item, method ShippingMethod, applied *coupon.AppliedCoupon) Breakdown {
	var b Breakdown
	for _, item := range items {
		b.Subtotal += item.LineTotal()
	}

	b.ShippingCost = e.ShippingCost(b.Subtotal, method)

	if applied != nil {
		b.Discount = applied.Coupon.DiscountFor(b.Subtotal)
	}

	b.Tax = b.Subtotal.Percent(e.policy.TaxRatePercent)

	b.Total = b.Subtotal + b.ShippingCost + b.Tax - b.Discount
	if b.Total < 0 {
		b.Total = 0
	}
	return b
}
