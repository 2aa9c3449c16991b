package command

import (
	"context"
	"errors"
	"log"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/catalog"
	"github.com/example/ec-checkout/internal/domain/checkout"
	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/example/ec-checkout/internal/domain/order"
	"github.com/example/ec-checkout/internal/domain/pricing"
	"github.com/example/ec-checkout/internal/infrastructure/session"
	"github.com/example/ec-checkout/internal/metrics"
	"github.com/google/uuid"
)

var ErrNoSession = errors.New("no checkout in progress")

type Handler struct {
	catalog   catalog.Reader
	cartSvc   *cart.Service
	orderSvc  *order.Service
	sessions  session.Store
	coupons   checkout.CouponEvaluator
	addresses address.Book
	engine    *pricing.Engine
	submitter *checkout.Submitter
	metrics   *metrics.CheckoutMetrics
}

func NewHandler(
	catalogReader catalog.Reader,
	cartSvc *cart.Service,
	orderSvc *order.Service,
	sessions session.Store,
	coupons checkout.CouponEvaluator,
	addresses address.Book,
	engine *pricing.Engine,
) *Handler {
	return &Handler{
		catalog:   catalogReader,
		cartSvc:   cartSvc,
		orderSvc:  orderSvc,
		sessions:  sessions,
		coupons:   coupons,
		addresses: addresses,
		engine:    engine,
		submitter: checkout.NewSubmitter(NewOrderCreator(orderSvc), addresses, cartSvc),
	}
}

// WithMetrics records checkout outcomes on m
func (h *Handler) WithMetrics(m *metrics.CheckoutMetrics) *Handler {
	h.metrics = m
	return h
}

// CartView is the live cart with its current price breakdown
type CartView struct {
	Cart      *cart.Cart             `json:"cart"`
	Breakdown pricing.Breakdown      `json:"breakdown"`
	Notice    *checkout.CouponNotice `json:"coupon_notice,omitempty"`
}

// CheckoutView is a checkout session as the buyer sees it
type CheckoutView struct {
	Session   *checkout.Session      `json:"session"`
	Items     []cart.Item            `json:"items"`
	Breakdown pricing.Breakdown      `json:"breakdown"`
	Notice    *checkout.CouponNotice `json:"coupon_notice,omitempty"`
}

// GuardResult reports whether the current step may be left
type GuardResult struct {
	Step       checkout.Step `json:"step"`
	CanAdvance bool          `json:"can_advance"`
	Missing    []string      `json:"missing,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// ============================================
// Cart
// ============================================

// ViewCart returns the live cart priced the way the open checkout would
// price it, or with Standard shipping when no checkout is open.
func (h *Handler) ViewCart(ctx context.Context, userID string) (*CartView, error) {
	sess, err := h.openSession(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		c, err := h.cartSvc.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &CartView{Cart: c, Breakdown: h.engine.Compute(c.Snapshot(), pricing.Standard, nil)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &CartView{Cart: sess.Cart(), Breakdown: sess.Breakdown()}, nil
}

// AddToCart adds a catalog product at its current price
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*CartView, error) {
	if cmd.Quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	if cmd.ProductID == "" {
		return nil, cart.ErrInvalidProduct
	}
	p, err := h.catalog.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	return h.mutateCart(ctx, cmd.UserID, func() (*cart.Cart, error) {
		return h.cartSvc.AddItem(ctx, cmd.UserID, p.CartItem(), cmd.Quantity)
	})
}

// UpdateCartItem sets a line quantity; zero or less removes the line
func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) (*CartView, error) {
	return h.mutateCart(ctx, cmd.UserID, func() (*cart.Cart, error) {
		return h.cartSvc.UpdateQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity)
	})
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*CartView, error) {
	return h.mutateCart(ctx, cmd.UserID, func() (*cart.Cart, error) {
		return h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.ProductID)
	})
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) (*CartView, error) {
	return h.mutateCart(ctx, cmd.UserID, func() (*cart.Cart, error) {
		if err := h.cartSvc.Clear(ctx, cmd.UserID); err != nil {
			return nil, err
		}
		return cart.New(cmd.UserID), nil
	})
}

// mutateCart runs a cart change and keeps an open checkout session in step
// with it. Changes are refused once the session is in Review.
func (h *Handler) mutateCart(ctx context.Context, userID string, mutate func() (*cart.Cart, error)) (*CartView, error) {
	sess, err := h.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		if err := sess.EnsureCartMutable(); err != nil {
			return nil, err
		}
	}

	c, err := mutate()
	if err != nil {
		return nil, err
	}

	view := &CartView{Cart: c}
	if sess == nil {
		view.Breakdown = h.engine.Compute(c.Snapshot(), pricing.Standard, nil)
		return view, nil
	}

	view.Notice = sess.CartChanged(c)
	if view.Notice != nil {
		log.Printf("[Checkout] Dropped coupon %s for user %s: %s", view.Notice.Code, userID, view.Notice.Reason)
		h.metrics.CouponResult("dropped")
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	view.Breakdown = sess.Breakdown()
	return view, nil
}

// activeSession returns the user's open session, or nil. A completed
// session is discarded so the buyer can start shopping again.
func (h *Handler) activeSession(ctx context.Context, userID string) (*checkout.Session, error) {
	sess, err := h.openSession(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.Step == checkout.StepComplete {
		if err := h.sessions.Delete(ctx, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sess, nil
}

// ============================================
// Checkout
// ============================================

// BeginCheckout starts a fresh session, replacing any existing one
func (h *Handler) BeginCheckout(ctx context.Context, userID string) (*CheckoutView, error) {
	c, err := h.cartSvc.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess := checkout.NewSession(uuid.New().String(), userID, c, h.engine)
	if err := h.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	log.Printf("[Checkout] Session %s started for user %s", sess.ID, userID)
	h.metrics.StepEntered(sess.Step.String())
	return h.view(sess, nil), nil
}

func (h *Handler) GetCheckout(ctx context.Context, userID string) (*CheckoutView, error) {
	sess, err := h.openSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	return h.view(sess, nil), nil
}

// SetAddress records the delivery address. An address claimed as saved
// that is not in the user's book is treated as freshly entered.
func (h *Handler) SetAddress(ctx context.Context, cmd SetAddress) (*CheckoutView, error) {
	saved := cmd.Saved
	if saved {
		list, err := h.addresses.List(ctx, cmd.UserID)
		if err != nil {
			return nil, err
		}
		if !address.Contains(list, cmd.Address.Normalize()) {
			log.Printf("[Checkout] Address for user %s is not in the saved list, treating as new", cmd.UserID)
			saved = false
		}
	}

	return h.updateSession(ctx, cmd.UserID, func(sess *checkout.Session) (*checkout.CouponNotice, error) {
		return nil, sess.SetAddress(cmd.Address, saved, cmd.Save)
	})
}

func (h *Handler) SetShipping(ctx context.Context, cmd SetShipping) (*CheckoutView, error) {
	method, err := pricing.ParseShippingMethod(cmd.Method)
	if err != nil {
		return nil, err
	}
	return h.updateSession(ctx, cmd.UserID, func(sess *checkout.Session) (*checkout.CouponNotice, error) {
		return nil, sess.SetShippingMethod(method)
	})
}

func (h *Handler) SetPayment(ctx context.Context, cmd SetPayment) (*CheckoutView, error) {
	method, err := checkout.ParsePaymentMethod(cmd.Method)
	if err != nil {
		return nil, err
	}
	return h.updateSession(ctx, cmd.UserID, func(sess *checkout.Session) (*checkout.CouponNotice, error) {
		return nil, sess.SetPaymentMethod(method)
	})
}

// ApplyCoupon replaces the applied coupon. A failed apply keeps the
// previous coupon.
func (h *Handler) ApplyCoupon(ctx context.Context, cmd ApplyCoupon) (*CheckoutView, error) {
	return h.updateSession(ctx, cmd.UserID, func(sess *checkout.Session) (*checkout.CouponNotice, error) {
		_, err := sess.ApplyCoupon(ctx, h.coupons, cmd.Code)
		h.metrics.CouponResult(couponResult(err))
		return nil, err
	})
}

func (h *Handler) RemoveCoupon(ctx context.Context, userID string) (*CheckoutView, error) {
	return h.updateSession(ctx, userID, func(sess *checkout.Session) (*checkout.CouponNotice, error) {
		return nil, sess.RemoveCoupon()
	})
}

// Guard evaluates the current step without changing the session
func (h *Handler) Guard(ctx context.Context, userID string) (*GuardResult, error) {
	sess, err := h.openSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &GuardResult{Step: sess.Step}
	err = sess.CanAdvance()
	var verr *checkout.ValidationError
	switch {
	case err == nil:
		result.CanAdvance = true
	case errors.As(err, &verr):
		result.Missing = verr.Fields
		result.Reason = verr.Error()
	default:
		result.Reason = err.Error()
	}
	return result, nil
}

func (h *Handler) Advance(ctx context.Context, userID string) (*CheckoutView, error) {
	return h.updateSession(ctx, userID, func(sess *checkout.Session) (*checkout.CouponNotice, error) {
		notice, err := sess.Advance()
		if err != nil {
			return nil, err
		}
		h.metrics.StepEntered(sess.Step.String())
		if notice != nil {
			log.Printf("[Checkout] Dropped coupon %s entering review for user %s: %s", notice.Code, sess.UserID, notice.Reason)
			h.metrics.CouponResult("dropped")
		}
		return notice, nil
	})
}

func (h *Handler) Retreat(ctx context.Context, cmd Retreat) (*CheckoutView, error) {
	to, err := checkout.ParseStep(cmd.To)
	if err != nil {
		return nil, err
	}
	return h.updateSession(ctx, cmd.UserID, func(sess *checkout.Session) (*checkout.CouponNotice, error) {
		return nil, sess.Retreat(to)
	})
}

// Submit places the order for the user's session. The session lock makes
// concurrent submits across API instances produce a single order call.
func (h *Handler) Submit(ctx context.Context, userID string) (*checkout.Receipt, error) {
	sess, err := h.openSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	release, err := h.sessions.Lock(ctx, sess.ID)
	if errors.Is(err, session.ErrLocked) {
		h.metrics.SubmitFailed("in_progress")
		return nil, checkout.ErrSubmissionInProgress
	}
	if err != nil {
		return nil, err
	}
	defer release()

	// the session may have been submitted while we waited for the lock
	sess, err = h.openSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	receipt, err := h.submitter.Submit(ctx, sess)
	if err != nil {
		h.metrics.SubmitFailed(submitOutcome(err))
		return nil, err
	}
	h.metrics.OrderPlaced(receipt.Breakdown.Total)

	if err := h.sessions.Save(ctx, sess); err != nil {
		// the order exists; a resubmit of this session finds it again
		log.Printf("[Checkout] Failed to save completed session %s: %v", sess.ID, err)
	}
	return receipt, nil
}

// ============================================
// Orders
// ============================================

func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) error {
	return h.orderSvc.Cancel(ctx, cmd.UserID, cmd.OrderID, cmd.Reason)
}

// PayOrder and ShipOrder are fulfilment-side transitions
func (h *Handler) PayOrder(ctx context.Context, orderID string) error {
	return h.orderSvc.Pay(ctx, orderID)
}

func (h *Handler) ShipOrder(ctx context.Context, orderID string) error {
	return h.orderSvc.Ship(ctx, orderID)
}

// ============================================
// Helpers
// ============================================

// openSession loads the user's session bound to the live cart
func (h *Handler) openSession(ctx context.Context, userID string) (*checkout.Session, error) {
	sess, err := h.sessions.Load(ctx, userID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	c, err := h.cartSvc.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.Bind(c, h.engine)
	return sess, nil
}

// updateSession loads the session, applies fn and saves it. A refused
// change is not saved.
func (h *Handler) updateSession(ctx context.Context, userID string, fn func(sess *checkout.Session) (*checkout.CouponNotice, error)) (*CheckoutView, error) {
	sess, err := h.openSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	notice, err := fn(sess)
	if err != nil {
		return nil, err
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return h.view(sess, notice), nil
}

func (h *Handler) view(sess *checkout.Session, notice *checkout.CouponNotice) *CheckoutView {
	items := sess.Cart().Snapshot()
	if items == nil {
		items = []cart.Item{}
	}
	return &CheckoutView{
		Session:   sess,
		Items:     items,
		Breakdown: sess.Breakdown(),
		Notice:    notice,
	}
}

func couponResult(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, coupon.ErrNotFound):
		return "not_found"
	case errors.Is(err, coupon.ErrExpired):
		return "expired"
	case errors.Is(err, coupon.ErrMinOrderNotMet):
		return "min_order_not_met"
	case errors.Is(err, coupon.ErrScopeMismatch):
		return "scope_mismatch"
	}
	return "error"
}

func submitOutcome(err error) string {
	switch {
	case errors.Is(err, checkout.ErrRejected):
		return "rejected"
	case errors.Is(err, checkout.ErrTransportFailure):
		return "transport_failure"
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		return "in_progress"
	}
	return "refused"
}
