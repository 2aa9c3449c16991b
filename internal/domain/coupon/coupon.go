package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("coupon not found")
	ErrExpired        = errors.New("coupon has expired")
	ErrMinOrderNotMet = errors.New("order subtotal is below the coupon minimum")
	ErrScopeMismatch  = errors.New("cart has no items eligible for this coupon")
	ErrInvalidCoupon  = errors.New("invalid coupon definition")
)

// Kind is the discount strategy of a coupon
type Kind string

const (
	// Percentage discounts Value percent of the subtotal
	Percentage Kind = "percentage"
	// FixedAmount discounts Value paise, capped at the subtotal
	FixedAmount Kind = "fixed_amount"
)

// ScopeKind restricts which carts a coupon applies to
type ScopeKind string

const (
	ScopeGlobal   ScopeKind = "global"
	ScopeCategory ScopeKind = "category"
	ScopeVendor   ScopeKind = "vendor"
)

// Scope is Global, Category(Target) or Vendor(Target)
type Scope struct {
	Kind   ScopeKind `json:"kind"`
	Target string    `json:"target,omitempty"`
}

// Coupon is read-only reference data looked up by code.
// Value is percent points for Percentage and paise for FixedAmount.
type Coupon struct {
	Code           string          `json:"code"`
	Kind           Kind            `json:"kind"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount money.Money     `json:"min_order_amount"`
	ExpiresAt      time.Time       `json:"expires_at"`
	Scope          Scope           `json:"scope"`
}

// AppliedCoupon is the coupon snapshot held by a checkout session together
// with the discount it granted against the current cart.
type AppliedCoupon struct {
	Coupon   Coupon      `json:"coupon"`
	Discount money.Money `json:"discount"`
}

// NormalizeCode trims and upper-cases a code; lookups are case-insensitive
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a coupon definition before it is stored
func (c Coupon) Validate() error {
	if NormalizeCode(c.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	}
	if c.Value.IsNegative() {
		return fmt.Errorf("%w: value cannot be negative", ErrInvalidCoupon)
	}
	// stored as NUMERIC(12,2)
	if !c.Value.Equal(c.Value.Truncate(2)) {
		return fmt.Errorf("%w: value has more than 2 decimal places", ErrInvalidCoupon)
	}
	switch c.Kind {
	case Percentage:
		if c.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: percentage above 100", ErrInvalidCoupon)
		}
	case FixedAmount:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCoupon, c.Kind)
	}
	if c.MinOrderAmount < 0 {
		return fmt.Errorf("%w: minimum order cannot be negative", ErrInvalidCoupon)
	}
	switch c.Scope.Kind {
	case ScopeGlobal:
	case ScopeCategory, ScopeVendor:
		if strings.TrimSpace(c.Scope.Target) == "" {
			return fmt.Errorf("%w: %s scope needs a target", ErrInvalidCoupon, c.Scope.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidCoupon, c.Scope.Kind)
	}
	return nil
}

// Expired reports whether the coupon is past its expiry at now.
// A zero ExpiresAt never expires.
func (c Coupon) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Matches reports whether at least one item falls within the coupon scope
func (s Scope) Matches(items []cart.Item) bool {
	switch s.Kind {
	case ScopeCategory:
		for _, item := range items {
			if strings.EqualFold(item.Category, s.Target) {
				return true
			}
		}
		return false
	case ScopeVendor:
		for _, item := range items {
			if item.VendorID == s.Target {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// DiscountFor computes the discount over subtotal. Never negative, never
// more than the subtotal.
func (c Coupon) DiscountFor(subtotal money.Money) money.Money {
	if subtotal <= 0 || c.Value.IsNegative() {
		return 0
	}

	var d money.Money
	switch c.Kind {
	case Percentage:
		d = subtotal.Percent(c.Value)
	case FixedAmount:
		d = money.Money(c.Value.Round(0).IntPart())
	}
	if d < 0 {
		return 0
	}
	return money.Min(d, subtotal)
}

// check runs the eligibility rules in order: expiry, minimum, scope
func (c Coupon) check(items []cart.Item, subtotal money.Money, now time.Time) error {
	if c.Expired(now) {
		return ErrExpired
	}
	if subtotal < c.MinOrderAmount {
		return ErrMinOrderNotMet
	}
	if !c.Scope.Matches(items) {
		return ErrScopeMismatch
	}
	return nil
}
