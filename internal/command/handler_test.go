package command

import (
	"context"
	"errors"
	"testing"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/catalog"
	"github.com/example/ec-checkout/internal/domain/checkout"
	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/example/ec-checkout/internal/domain/order"
	"github.com/example/ec-checkout/internal/domain/pricing"
	"github.com/example/ec-checkout/internal/infrastructure/session"
	"github.com/example/ec-checkout/internal/infrastructure/store"
	"github.com/example/ec-checkout/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

type fixture struct {
	handler  *Handler
	events   *mocks.MockEventStore
	sessions *session.MemoryStore
	book     *address.MemoryBook
	carts    *cart.Service
}

func newTestHandler() *fixture {
	events := mocks.NewMockEventStore()
	f := newTestHandlerOn(events)
	f.events = events
	return f
}

func newTestHandlerOn(events store.EventStoreInterface) *fixture {
	products := catalog.NewMemoryCatalog(
		catalog.Product{ID: "p-notebook", Name: "Notebook", Price: money.Money(50000), Category: "stationery", VendorID: "v-1"},
		catalog.Product{ID: "p-pen", Name: "Pen", Price: money.Money(3333), Category: "stationery", VendorID: "v-2"},
	)
	registry := coupon.NewMemoryRegistry(coupon.Coupon{
		Code:           "FLASH10",
		Kind:           coupon.Percentage,
		Value:          decimal.NewFromInt(10),
		MinOrderAmount: money.Money(50000),
		Scope:          coupon.Scope{Kind: coupon.ScopeGlobal},
	})
	sessions := session.NewMemoryStore()
	book := address.NewMemoryBook()
	carts := cart.NewService(events)

	handler := NewHandler(
		products,
		carts,
		order.NewService(events),
		sessions,
		coupon.NewEvaluator(registry),
		book,
		pricing.NewEngine(pricing.DefaultPolicy()),
	)
	return &fixture{handler: handler, sessions: sessions, book: book, carts: carts}
}

type downBus struct{}

func (downBus) Publish(ctx context.Context, key string, event any) error {
	return errors.New("kafka: leader not available")
}

func testAddress() address.Address {
	return address.Address{
		RecipientName: "Asha Rao",
		Street:        "12 MG Road",
		City:          "Bengaluru",
		State:         "KA",
		PostalCode:    "560001",
		Phone:         "9800000000",
		Email:         "asha@example.com",
	}
}

// toReview fills the cart with two notebooks and walks the checkout to Review
func (f *fixture) toReview(t *testing.T, withCoupon bool) *CheckoutView {
	t.Helper()
	ctx := context.Background()
	h := f.handler

	_, err := h.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-notebook", Quantity: 2})
	require.NoError(t, err)
	_, err = h.BeginCheckout(ctx, testUser)
	require.NoError(t, err)
	_, err = h.SetAddress(ctx, SetAddress{UserID: testUser, Address: testAddress(), Save: true})
	require.NoError(t, err)
	_, err = h.Advance(ctx, testUser)
	require.NoError(t, err)
	_, err = h.Advance(ctx, testUser)
	require.NoError(t, err)
	if withCoupon {
		_, err = h.ApplyCoupon(ctx, ApplyCoupon{UserID: testUser, Code: "flash10"})
		require.NoError(t, err)
	}
	view, err := h.Advance(ctx, testUser)
	require.NoError(t, err)
	require.Equal(t, checkout.StepReview, view.Session.Step)
	return view
}

func (f *fixture) orderEvents(sessionID string) int {
	return len(f.events.GetEvents(context.Background(), order.OrderIDFor(testUser, sessionID)))
}

// ============================================
// Cart Tests
// ============================================

func TestHandler_AddToCart(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()

	view, err := f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 3})

	require.NoError(t, err)
	require.Len(t, view.Cart.Items, 1)
	assert.Equal(t, "Pen", view.Cart.Items[0].Name)
	assert.Equal(t, money.Money(9999), view.Breakdown.Subtotal)
	assert.Equal(t, money.Money(9900), view.Breakdown.ShippingCost)
	assert.Nil(t, view.Notice)
	assert.Equal(t, cart.EventItemAdded, f.events.AppendCalls[0].EventType)
}

func TestHandler_AddToCart_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cmd     AddToCart
		wantErr error
	}{
		{"zero quantity", AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 0}, cart.ErrInvalidQuantity},
		{"missing product id", AddToCart{UserID: testUser, Quantity: 1}, cart.ErrInvalidProduct},
		{"unknown product", AddToCart{UserID: testUser, ProductID: "p-missing", Quantity: 1}, catalog.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestHandler()
			_, err := f.handler.AddToCart(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.events.AppendCalls)
		})
	}
}

func TestHandler_UpdateCartItem_ZeroRemoves(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	_, err := f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 3})
	require.NoError(t, err)

	view, err := f.handler.UpdateCartItem(ctx, UpdateCartItem{UserID: testUser, ProductID: "p-pen", Quantity: 0})

	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)
	assert.Zero(t, view.Breakdown.Total)
}

func TestHandler_ClearCart(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	_, err := f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 1})
	require.NoError(t, err)

	view, err := f.handler.ClearCart(ctx, ClearCart{UserID: testUser})

	require.NoError(t, err)
	assert.True(t, view.Cart.IsEmpty())
	c, err := f.carts.Load(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestHandler_CartLockedInReview(t *testing.T) {
	f := newTestHandler()
	f.toReview(t, false)
	appends := len(f.events.AppendCalls)

	_, err := f.handler.AddToCart(context.Background(), AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 1})

	assert.ErrorIs(t, err, checkout.ErrSessionLocked)
	assert.Len(t, f.events.AppendCalls, appends)
}

func TestHandler_CartChangeDropsCoupon(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	h := f.handler

	_, err := h.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-notebook", Quantity: 2})
	require.NoError(t, err)
	_, err = h.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 1})
	require.NoError(t, err)
	_, err = h.BeginCheckout(ctx, testUser)
	require.NoError(t, err)
	_, err = h.ApplyCoupon(ctx, ApplyCoupon{UserID: testUser, Code: "FLASH10"})
	require.NoError(t, err)

	// still above the minimum
	view, err := h.UpdateCartItem(ctx, UpdateCartItem{UserID: testUser, ProductID: "p-notebook", Quantity: 1})
	require.NoError(t, err)
	assert.Nil(t, view.Notice)
	assert.Equal(t, money.Money(5333), view.Breakdown.Discount)

	view, err = h.RemoveFromCart(ctx, RemoveFromCart{UserID: testUser, ProductID: "p-notebook"})
	require.NoError(t, err)
	require.NotNil(t, view.Notice)
	assert.Equal(t, "FLASH10", view.Notice.Code)
	assert.ErrorIs(t, view.Notice.Err, coupon.ErrMinOrderNotMet)
	assert.Zero(t, view.Breakdown.Discount)

	cv, err := h.GetCheckout(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, cv.Session.AppliedCoupon)
}

// ============================================
// Checkout Tests
// ============================================

func TestHandler_NoSession(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()

	_, err := f.handler.GetCheckout(ctx, testUser)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = f.handler.Advance(ctx, testUser)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = f.handler.Submit(ctx, testUser)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestHandler_BeginCheckoutDefaults(t *testing.T) {
	f := newTestHandler()

	view, err := f.handler.BeginCheckout(context.Background(), testUser)

	require.NoError(t, err)
	assert.NotEmpty(t, view.Session.ID)
	assert.Equal(t, checkout.StepIdentity, view.Session.Step)
	assert.Equal(t, pricing.Standard, view.Session.ShippingMethod)
	assert.Equal(t, checkout.PaymentCard, view.Session.PaymentMethod)
	assert.NotNil(t, view.Items)
}

func TestHandler_Guard(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	_, err := f.handler.BeginCheckout(ctx, testUser)
	require.NoError(t, err)

	result, err := f.handler.Guard(ctx, testUser)
	require.NoError(t, err)
	assert.False(t, result.CanAdvance)
	assert.Equal(t, []string{"recipient_name", "street", "city", "postal_code", "cart"}, result.Missing)

	_, err = f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 1})
	require.NoError(t, err)
	_, err = f.handler.SetAddress(ctx, SetAddress{UserID: testUser, Address: testAddress()})
	require.NoError(t, err)

	result, err = f.handler.Guard(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, result.CanAdvance)
	assert.Empty(t, result.Missing)

	_, err = f.handler.Advance(ctx, testUser)
	require.NoError(t, err)
	view, err := f.handler.GetCheckout(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepShipping, view.Session.Step)
}

func TestHandler_AdvanceRefusedKeepsStep(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	_, err := f.handler.BeginCheckout(ctx, testUser)
	require.NoError(t, err)

	_, err = f.handler.Advance(ctx, testUser)

	var verr *checkout.ValidationError
	require.ErrorAs(t, err, &verr)
	view, err := f.handler.GetCheckout(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepIdentity, view.Session.Step)
}

func TestHandler_SetShippingAndPayment(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	_, err := f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 1})
	require.NoError(t, err)
	_, err = f.handler.BeginCheckout(ctx, testUser)
	require.NoError(t, err)

	view, err := f.handler.SetShipping(ctx, SetShipping{UserID: testUser, Method: "express"})
	require.NoError(t, err)
	assert.Equal(t, money.Money(14900), view.Breakdown.ShippingCost)

	_, err = f.handler.SetShipping(ctx, SetShipping{UserID: testUser, Method: "drone"})
	assert.ErrorIs(t, err, pricing.ErrInvalidShippingMethod)

	view, err = f.handler.SetPayment(ctx, SetPayment{UserID: testUser, Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, checkout.PaymentUPI, view.Session.PaymentMethod)

	_, err = f.handler.SetPayment(ctx, SetPayment{UserID: testUser, Method: "cash"})
	assert.ErrorIs(t, err, checkout.ErrInvalidPaymentMethod)
}

func TestHandler_ApplyCoupon_FailureKeepsPrevious(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	_, err := f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-notebook", Quantity: 2})
	require.NoError(t, err)
	_, err = f.handler.BeginCheckout(ctx, testUser)
	require.NoError(t, err)
	_, err = f.handler.ApplyCoupon(ctx, ApplyCoupon{UserID: testUser, Code: "FLASH10"})
	require.NoError(t, err)

	_, err = f.handler.ApplyCoupon(ctx, ApplyCoupon{UserID: testUser, Code: "NOPE"})
	assert.ErrorIs(t, err, coupon.ErrNotFound)

	view, err := f.handler.GetCheckout(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, view.Session.AppliedCoupon)
	assert.Equal(t, "FLASH10", view.Session.AppliedCoupon.Coupon.Code)

	view, err = f.handler.RemoveCoupon(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, view.Session.AppliedCoupon)
	assert.Zero(t, view.Breakdown.Discount)
}

func TestHandler_SetAddress_SavedFlagVerified(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	_, err := f.handler.BeginCheckout(ctx, testUser)
	require.NoError(t, err)

	view, err := f.handler.SetAddress(ctx, SetAddress{UserID: testUser, Address: testAddress(), Saved: true})
	require.NoError(t, err)
	assert.False(t, view.Session.AddressSaved)

	require.NoError(t, f.book.Save(ctx, testUser, testAddress()))
	view, err = f.handler.SetAddress(ctx, SetAddress{UserID: testUser, Address: testAddress(), Saved: true, Save: true})
	require.NoError(t, err)
	assert.True(t, view.Session.AddressSaved)
	assert.False(t, view.Session.SaveAddress)
}

func TestHandler_Retreat(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	f.toReview(t, true)

	_, err := f.handler.Retreat(ctx, Retreat{UserID: testUser, To: "nowhere"})
	assert.ErrorIs(t, err, checkout.ErrInvalidStep)

	view, err := f.handler.Retreat(ctx, Retreat{UserID: testUser, To: "shipping"})
	require.NoError(t, err)
	assert.Equal(t, checkout.StepShipping, view.Session.Step)
	assert.Nil(t, view.Session.ReviewBreakdown)
	assert.Equal(t, "Bengaluru", view.Session.Address.City)

	// cart is editable again
	_, err = f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 1})
	assert.NoError(t, err)
}

// ============================================
// Submit Tests
// ============================================

func TestHandler_Submit_EndToEnd(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	review := f.toReview(t, true)

	assert.Equal(t, money.Money(100000), review.Breakdown.Subtotal)
	assert.Equal(t, money.Money(0), review.Breakdown.ShippingCost)
	assert.Equal(t, money.Money(10000), review.Breakdown.Discount)
	assert.Equal(t, money.Money(18000), review.Breakdown.Tax)
	assert.Equal(t, money.Money(108000), review.Breakdown.Total)

	receipt, err := f.handler.Submit(ctx, testUser)

	require.NoError(t, err)
	assert.Equal(t, order.OrderIDFor(testUser, review.Session.ID), receipt.OrderID)
	assert.Equal(t, money.Money(108000), receipt.Breakdown.Total)
	assert.Equal(t, "FLASH10", receipt.CouponCode)
	assert.True(t, receipt.AddressSaved)

	placed, err := order.NewService(f.events).Get(ctx, testUser, receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(108000), placed.Total)
	assert.Equal(t, "card", placed.PaymentMethod)
	assert.Len(t, placed.Items, 1)

	c, err := f.carts.Load(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	saved, err := f.book.List(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	view, err := f.handler.GetCheckout(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepComplete, view.Session.Step)
	assert.Equal(t, receipt.OrderID, view.Session.OrderID)

	_, err = f.handler.Submit(ctx, testUser)
	assert.ErrorIs(t, err, checkout.ErrSessionComplete)
	assert.Equal(t, 1, f.orderEvents(review.Session.ID))
}

func TestHandler_Submit_RequiresReview(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	_, err := f.handler.BeginCheckout(ctx, testUser)
	require.NoError(t, err)

	_, err = f.handler.Submit(ctx, testUser)
	assert.ErrorIs(t, err, checkout.ErrNotInReview)
}

func TestHandler_Submit_LockedSession(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	review := f.toReview(t, false)

	release, err := f.sessions.Lock(ctx, review.Session.ID)
	require.NoError(t, err)

	_, err = f.handler.Submit(ctx, testUser)
	assert.ErrorIs(t, err, checkout.ErrSubmissionInProgress)
	assert.Zero(t, f.orderEvents(review.Session.ID))

	release()
	_, err = f.handler.Submit(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, f.orderEvents(review.Session.ID))
}

func TestHandler_Submit_TransportFailureThenRetry(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	review := f.toReview(t, false)

	f.events.AppendErr = errors.New("connection reset")
	_, err := f.handler.Submit(ctx, testUser)
	assert.ErrorIs(t, err, checkout.ErrTransportFailure)

	view, err := f.handler.GetCheckout(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepReview, view.Session.Step)

	f.events.AppendErr = nil
	receipt, err := f.handler.Submit(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, order.OrderIDFor(testUser, review.Session.ID), receipt.OrderID)
}

func TestHandler_BusDownDoesNotFailCheckout(t *testing.T) {
	events := store.NewEventStore(downBus{})
	f := newTestHandlerOn(events)
	ctx := context.Background()
	h := f.handler

	_, err := h.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-notebook", Quantity: 1})
	require.NoError(t, err)
	_, err = h.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 1})
	require.NoError(t, err)
	_, err = h.BeginCheckout(ctx, testUser)
	require.NoError(t, err)
	_, err = h.ApplyCoupon(ctx, ApplyCoupon{UserID: testUser, Code: "FLASH10"})
	require.NoError(t, err)

	// the session still follows the cart
	view, err := h.RemoveFromCart(ctx, RemoveFromCart{UserID: testUser, ProductID: "p-notebook"})
	require.NoError(t, err)
	require.NotNil(t, view.Notice)
	assert.Equal(t, "FLASH10", view.Notice.Code)
	cv, err := h.GetCheckout(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, cv.Session.AppliedCoupon)

	_, err = h.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-notebook", Quantity: 2})
	require.NoError(t, err)
	_, err = h.SetAddress(ctx, SetAddress{UserID: testUser, Address: testAddress()})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = h.Advance(ctx, testUser)
		require.NoError(t, err)
	}

	receipt, err := h.Submit(ctx, testUser)

	require.NoError(t, err)
	placed, err := order.NewService(events).Get(ctx, testUser, receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, placed.Total, receipt.Breakdown.Total)
	assert.Len(t, events.GetEventsByType(ctx, order.AggregateType), 1)
}

func TestHandler_CompletedSessionDiscardedOnCartChange(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	f.toReview(t, false)
	_, err := f.handler.Submit(ctx, testUser)
	require.NoError(t, err)

	view, err := f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-pen", Quantity: 1})
	require.NoError(t, err)
	assert.Len(t, view.Cart.Items, 1)

	_, err = f.handler.GetCheckout(ctx, testUser)
	assert.ErrorIs(t, err, ErrNoSession)
}

// ============================================
// Order Tests
// ============================================

func TestHandler_CancelOrder(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	f.toReview(t, false)
	receipt, err := f.handler.Submit(ctx, testUser)
	require.NoError(t, err)

	err = f.handler.CancelOrder(ctx, CancelOrder{UserID: "user-2", OrderID: receipt.OrderID})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	require.NoError(t, f.handler.CancelOrder(ctx, CancelOrder{UserID: testUser, OrderID: receipt.OrderID, Reason: "changed my mind"}))
	o, err := order.NewService(f.events).Get(ctx, testUser, receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, o.Status)
}

func TestOrderCreator_RejectsInvalidPlacement(t *testing.T) {
	creator := NewOrderCreator(order.NewService(mocks.NewMockEventStore()))

	_, err := creator.CreateOrder(context.Background(), checkout.OrderRequest{UserID: testUser, SessionID: "sess-1"})

	var rejected *checkout.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.ErrorIs(t, err, checkout.ErrRejected)
	assert.Contains(t, rejected.Reason, "at least one item")
}

func TestOrderCreator_ReturnsRecordedOrder(t *testing.T) {
	creator := NewOrderCreator(order.NewService(mocks.NewMockEventStore()))
	req := checkout.OrderRequest{
		UserID:         testUser,
		SessionID:      "sess-1",
		Address:        testAddress(),
		Items:          []checkout.OrderLine{{ProductID: "p-pen", Name: "Pen", UnitPrice: money.Money(3333), Quantity: 1}},
		ShippingMethod: pricing.Standard,
		PaymentMethod:  checkout.PaymentCard,
		Subtotal:       money.Money(3333),
		ShippingCost:   money.Money(9900),
		Tax:            money.Money(600),
		Total:          money.Money(13833),
	}

	placed, err := creator.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, order.OrderIDFor(testUser, "sess-1"), placed.OrderID)
	assert.Equal(t, money.Money(13833), placed.Breakdown.Total)

	// same session, different cart
	req.Items[0].Quantity = 2
	req.Subtotal = money.Money(6666)
	req.Tax = money.Money(1200)
	req.Total = money.Money(17766)

	_, err = creator.CreateOrder(context.Background(), req)

	var rejected *checkout.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "different contents")
}

func TestOrderCreator_StoreFailureNotRejected(t *testing.T) {
	events := mocks.NewMockEventStore()
	events.AppendErr = errors.New("disk full")
	creator := NewOrderCreator(order.NewService(events))

	_, err := creator.CreateOrder(context.Background(), checkout.OrderRequest{
		UserID:         testUser,
		SessionID:      "sess-1",
		Address:        testAddress(),
		Items:          []checkout.OrderLine{{ProductID: "p-pen", Name: "Pen", UnitPrice: money.Money(3333), Quantity: 1}},
		ShippingMethod: pricing.Standard,
		PaymentMethod:  checkout.PaymentCard,
		Subtotal:       money.Money(3333),
		ShippingCost:   money.Money(9900),
		Tax:            money.Money(600),
		Total:          money.Money(13833),
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, checkout.ErrRejected)
}

func TestHandler_PayAndShipOrder(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()
	f.toReview(t, false)
	receipt, err := f.handler.Submit(ctx, testUser)
	require.NoError(t, err)

	assert.ErrorIs(t, f.handler.ShipOrder(ctx, receipt.OrderID), order.ErrOrderNotPaid)
	require.NoError(t, f.handler.PayOrder(ctx, receipt.OrderID))
	require.NoError(t, f.handler.ShipOrder(ctx, receipt.OrderID))

	o, err := order.NewService(f.events).Get(ctx, testUser, receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, o.Status)
	assert.ErrorIs(t, f.handler.CancelOrder(ctx, CancelOrder{UserID: testUser, OrderID: receipt.OrderID}), order.ErrOrderShipped)
}

func TestHandler_ViewCart(t *testing.T) {
	f := newTestHandler()
	ctx := context.Background()

	view, err := f.handler.ViewCart(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, view.Cart.IsEmpty())
	assert.Zero(t, view.Breakdown.Total)

	_, err = f.handler.AddToCart(ctx, AddToCart{UserID: testUser, ProductID: "p-notebook", Quantity: 2})
	require.NoError(t, err)
	_, err = f.handler.BeginCheckout(ctx, testUser)
	require.NoError(t, err)
	_, err = f.handler.ApplyCoupon(ctx, ApplyCoupon{UserID: testUser, Code: "FLASH10"})
	require.NoError(t, err)

	view, err = f.handler.ViewCart(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, money.Money(10000), view.Breakdown.Discount)
	assert.Equal(t, money.Money(108000), view.Breakdown.Total)
}
