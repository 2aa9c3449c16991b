package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/money"
)

// Evaluator decides whether a code applies to a cart and what it grants
type Evaluator struct {
	registry Registry
	now      func() time.Time
}

func NewEvaluator(registry Registry) *Evaluator {
	return &Evaluator{registry: registry, now: time.Now}
}

// WithClock replaces the time source, used by tests to pin expiry checks
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate looks up code and checks it against the cart. The returned
// AppliedCoupon carries a snapshot of the coupon so later revalidation needs
// no lookup.
func (e *Evaluator) Evaluate(ctx context.Context, code string, items []cart.Item, subtotal money.Money) (*AppliedCoupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrNotFound
	}

	c, err := e.registry.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("coupon lookup %s: %w", normalized, err)
	}

	if err := c.check(items, subtotal, e.now()); err != nil {
		return nil, err
	}
	return &AppliedCoupon{Coupon: *c, Discount: c.DiscountFor(subtotal)}, nil
}

// Revalidate re-checks a held coupon against new cart contents without I/O
func (e *Evaluator) Revalidate(applied AppliedCoupon, items []cart.Item, subtotal money.Money) (*AppliedCoupon, error) {
	return Revalidate(applied, items, subtotal, e.now())
}

// Revalidate is the clock-explicit form of Evaluator.Revalidate
func Revalidate(applied AppliedCoupon, items []cart.Item, subtotal money.Money, now time.Time) (*AppliedCoupon, error) {
	c := applied.Coupon
	if err := c.check(items, subtotal, now); err != nil {
		return nil, err
	}
	return &AppliedCoupon{Coupon: c, Discount: c.DiscountFor(subtotal)}, nil
}
