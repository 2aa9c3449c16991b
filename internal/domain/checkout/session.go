package checkout

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/example/ec-checkout/internal/domain/pricing"
)

// CouponEvaluator applies a coupon code to cart contents
type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, items []cart.Item, subtotal money.Money) (*coupon.AppliedCoupon, error)
}

// CouponNotice tells the buyer an applied coupon was dropped
type CouponNotice struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Session is one buyer's pass through the checkout. Exported fields are the
// persisted state; the cart and pricing engine are attached with Bind after
// loading.
type Session struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	Step            Step                   `json:"step"`
	Address         address.Address        `json:"address"`
	AddressSaved    bool                   `json:"address_saved"`
	SaveAddress     bool                   `json:"save_address"`
	ShippingMethod  pricing.ShippingMethod `json:"shipping_method"`
	PaymentMethod   PaymentMethod          `json:"payment_method"`
	AppliedCoupon   *coupon.AppliedCoupon  `json:"applied_coupon,omitempty"`
	ReviewBreakdown *pricing.Breakdown     `json:"review_breakdown,omitempty"`
	OrderID         string                 `json:"order_id,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`

	submitting atomic.Bool
	cart       *cart.Cart
	engine     *pricing.Engine
	now        func() time.Time
}

// NewSession starts a checkout at the Identity step with Standard shipping
// and Card payment preselected.
func NewSession(id, userID string, c *cart.Cart, engine *pricing.Engine) *Session {
	s := &Session{
		ID:             id,
		UserID:         userID,
		Step:           StepIdentity,
		ShippingMethod: pricing.Standard,
		PaymentMethod:  PaymentCard,
	}
	s.Bind(c, engine)
	s.CreatedAt = s.now()
	s.UpdatedAt = s.CreatedAt
	return s
}

// Bind attaches the live cart and pricing engine to a loaded session
func (s *Session) Bind(c *cart.Cart, engine *pricing.Engine) {
	if c == nil {
		c = cart.New(s.UserID)
	}
	s.cart = c
	s.engine = engine
	if s.now == nil {
		s.now = time.Now
	}
}

// WithClock replaces the session time source
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

func (s *Session) Cart() *cart.Cart { return s.cart }

// Submitting reports whether an order submission is in flight
func (s *Session) Submitting() bool { return s.submitting.Load() }

func (s *Session) touch() { s.UpdatedAt = s.now() }

// CanAdvance evaluates the current step's guard without changing anything
func (s *Session) CanAdvance() error {
	switch s.Step {
	case StepIdentity:
		fields := s.Address.MissingFields()
		if s.cart.IsEmpty() {
			fields = append(fields, "cart")
		}
		if len(fields) > 0 {
			return &ValidationError{Step: s.Step, Fields: fields}
		}
	case StepShipping:
		if !s.ShippingMethod.Valid() {
			return &ValidationError{Step: s.Step, Fields: []string{"shipping_method"}}
		}
	case StepPayment:
		if !s.PaymentMethod.Valid() {
			return &ValidationError{Step: s.Step, Fields: []string{"payment_method"}}
		}
	case StepReview:
		return ErrConfirmationRequired
	case StepComplete:
		return ErrSessionComplete
	default:
		return ErrInvalidStep
	}
	return nil
}

// Advance moves to the next step if the guard holds. Entering Review
// revalidates the coupon and freezes the breakdown; a dropped coupon is
// reported through the notice.
func (s *Session) Advance() (*CouponNotice, error) {
	if err := s.CanAdvance(); err != nil {
		return nil, err
	}

	var notice *CouponNotice
	if s.Step == StepPayment {
		notice = s.revalidateCoupon()
		b := s.compute()
		s.ReviewBreakdown = &b
	}
	s.Step++
	s.touch()
	return notice, nil
}

// Retreat returns to an earlier step. Entered data is kept; the frozen
// breakdown is discarded.
func (s *Session) Retreat(to Step) error {
	if s.Step == StepComplete {
		return ErrSessionComplete
	}
	if to < StepIdentity || to >= s.Step {
		return ErrInvalidStep
	}
	s.Step = to
	s.ReviewBreakdown = nil
	s.touch()
	return nil
}

func (s *Session) ensureEditable() error {
	switch {
	case s.Step == StepComplete:
		return ErrSessionComplete
	case s.Step.locked():
		return ErrSessionLocked
	}
	return nil
}

// EnsureCartMutable refuses cart edits once the breakdown is frozen
func (s *Session) EnsureCartMutable() error {
	return s.ensureEditable()
}

// SetAddress records the delivery address. saved marks an address picked
// from the buyer's saved list; save opts in to persisting a fresh one.
// Past Identity an incomplete address is refused so the guard stays true.
func (s *Session) SetAddress(a address.Address, saved, save bool) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	a = a.Normalize()
	if s.Step > StepIdentity {
		if missing := a.MissingFields(); len(missing) > 0 {
			return &ValidationError{Step: StepIdentity, Fields: missing}
		}
	}
	s.Address = a
	s.AddressSaved = saved
	s.SaveAddress = save && !saved
	s.touch()
	return nil
}

func (s *Session) SetShippingMethod(m pricing.ShippingMethod) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	if !m.Valid() {
		return pricing.ErrInvalidShippingMethod
	}
	s.ShippingMethod = m
	s.touch()
	return nil
}

func (s *Session) SetPaymentMethod(m PaymentMethod) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	if !m.Valid() {
		return ErrInvalidPaymentMethod
	}
	s.PaymentMethod = m
	s.touch()
	return nil
}

// ApplyCoupon replaces the applied coupon with code. On failure the
// previously applied coupon is kept.
func (s *Session) ApplyCoupon(ctx context.Context, ev CouponEvaluator, code string) (*coupon.AppliedCoupon, error) {
	if err := s.ensureEditable(); err != nil {
		return nil, err
	}
	applied, err := ev.Evaluate(ctx, code, s.cart.Snapshot(), s.cart.Subtotal())
	if err != nil {
		return nil, err
	}
	s.AppliedCoupon = applied
	s.touch()
	return applied, nil
}

func (s *Session) RemoveCoupon() error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.AppliedCoupon = nil
	s.touch()
	return nil
}

// CartChanged attaches the mutated cart and re-checks the applied coupon
func (s *Session) CartChanged(c *cart.Cart) *CouponNotice {
	s.cart = c
	s.touch()
	return s.revalidateCoupon()
}

func (s *Session) revalidateCoupon() *CouponNotice {
	if s.AppliedCoupon == nil {
		return nil
	}
	refreshed, err := coupon.Revalidate(*s.AppliedCoupon, s.cart.Snapshot(), s.cart.Subtotal(), s.now())
	if err != nil {
		notice := &CouponNotice{Code: s.AppliedCoupon.Coupon.Code, Reason: err.Error(), Err: err}
		s.AppliedCoupon = nil
		return notice
	}
	s.AppliedCoupon = refreshed
	return nil
}

// Breakdown is the frozen review copy in Review and Complete, otherwise a
// fresh computation from the current cart, shipping method and coupon.
func (s *Session) Breakdown() pricing.Breakdown {
	if s.Step.locked() && s.ReviewBreakdown != nil {
		return *s.ReviewBreakdown
	}
	return s.compute()
}

func (s *Session) compute() pricing.Breakdown {
	return s.engine.Compute(s.cart.Snapshot(), s.ShippingMethod, s.effectiveCoupon())
}

// effectiveCoupon is the applied coupon only while it still qualifies
func (s *Session) effectiveCoupon() *coupon.AppliedCoupon {
	if s.AppliedCoupon == nil {
		return nil
	}
	refreshed, err := coupon.Revalidate(*s.AppliedCoupon, s.cart.Snapshot(), s.cart.Subtotal(), s.now())
	if err != nil {
		return nil
	}
	return refreshed
}

func (s *Session) couponCode() string {
	if s.AppliedCoupon == nil {
		return ""
	}
	return s.AppliedCoupon.Coupon.Code
}
