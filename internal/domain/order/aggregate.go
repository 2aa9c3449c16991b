package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/aggregate"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/example/ec-checkout/internal/domain/pricing"
	"github.com/example/ec-checkout/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmptyOrder       = errors.New("order must have at least one item")
	ErrInvalidItem      = errors.New("order item is invalid")
	ErrInvalidAddress   = errors.New("delivery address is incomplete")
	ErrInvalidShipping  = errors.New("shipping method is invalid")
	ErrTotalMismatch    = errors.New("order totals do not add up")
	ErrPlacementChanged = errors.New("an order with different contents was already placed for this checkout")
	ErrInvalidStatus    = errors.New("invalid order status transition")
	ErrOrderAlreadyPaid = errors.New("order is already paid")
	ErrOrderNotPaid     = errors.New("order must be paid before shipping")
	ErrOrderShipped     = errors.New("cannot cancel shipped order")
	ErrOrderCancelled   = errors.New("order is already cancelled")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCancelled},
	StatusShipped:   {}, // terminal state
	StatusCancelled: {}, // terminal state
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target Status) error {
	switch {
	case o.Status == StatusCancelled:
		return ErrOrderCancelled
	case o.Status == StatusShipped && target == StatusCancelled:
		return ErrOrderShipped
	case (o.Status == StatusPaid || o.Status == StatusShipped) && target == StatusPaid:
		return ErrOrderAlreadyPaid
	case o.Status == StatusPending && target == StatusShipped:
		return ErrOrderNotPaid
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
	}
}

type Order struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	SessionID      string                 `json:"session_id"`
	Items          []OrderItem            `json:"items"`
	Address        address.Address        `json:"address"`
	ShippingMethod pricing.ShippingMethod `json:"shipping_method"`
	PaymentMethod  string                 `json:"payment_method"`
	Subtotal       money.Money            `json:"subtotal"`
	ShippingCost   money.Money            `json:"shipping_cost"`
	Tax            money.Money            `json:"tax"`
	Discount       money.Money            `json:"discount"`
	Total          money.Money            `json:"total"`
	CouponCode     string                 `json:"coupon_code,omitempty"`
	Status         Status                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"` // Current event version
}

// Aggregate interface implementation
func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// ApplyEvent applies a single event to the order state (implements aggregate.Aggregate)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.UserID = data.UserID
		o.SessionID = data.SessionID
		o.Items = data.Items
		o.Address = data.Address
		o.ShippingMethod = data.ShippingMethod
		o.PaymentMethod = data.PaymentMethod
		o.Subtotal = data.Subtotal
		o.ShippingCost = data.ShippingCost
		o.Tax = data.Tax
		o.Discount = data.Discount
		o.Total = data.Total
		o.CouponCode = data.CouponCode
		o.Status = StatusPending
		o.CreatedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventOrderPaid:
		var data OrderPaid
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusPaid
		o.UpdatedAt = data.PaidAt
	case EventOrderShipped:
		var data OrderShipped
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusShipped
		o.UpdatedAt = data.ShippedAt
	case EventOrderCancelled:
		var data OrderCancelled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusCancelled
		o.UpdatedAt = data.CancelledAt
	}
	o.Version = event.Version
	return nil
}

// Placement is a request to create an order with a precomputed breakdown
type Placement struct {
	UserID         string
	SessionID      string
	Items          []OrderItem
	Address        address.Address
	ShippingMethod pricing.ShippingMethod
	PaymentMethod  string
	Subtotal       money.Money
	ShippingCost   money.Money
	Tax            money.Money
	Discount       money.Money
	Total          money.Money
	CouponCode     string
}

// Validate checks the placement is self-consistent: items are well formed,
// the address is complete and the breakdown adds up.
func (p Placement) Validate() error {
	if len(p.Items) == 0 {
		return ErrEmptyOrder
	}

	var subtotal money.Money
	for _, item := range p.Items {
		if item.ProductID == "" || item.Quantity < 1 || item.UnitPrice < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidItem, item.ProductID)
		}
		subtotal += item.UnitPrice.Times(item.Quantity)
	}

	if missing := p.Address.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrInvalidAddress, missing)
	}
	if !p.ShippingMethod.Valid() {
		return ErrInvalidShipping
	}

	if subtotal != p.Subtotal {
		return fmt.Errorf("%w: subtotal %s, items sum to %s", ErrTotalMismatch, p.Subtotal, subtotal)
	}
	if p.Discount < 0 || p.Discount > p.Subtotal || p.ShippingCost < 0 || p.Tax < 0 {
		return fmt.Errorf("%w: invalid breakdown component", ErrTotalMismatch)
	}
	total := p.Subtotal + p.ShippingCost + p.Tax - p.Discount
	if total < 0 {
		total = 0
	}
	if total != p.Total {
		return fmt.Errorf("%w: total %s, expected %s", ErrTotalMismatch, p.Total, total)
	}
	return nil
}

// matches reports whether p would place exactly this order
func (o *Order) matches(p Placement) bool {
	return slices.Equal(o.Items, p.Items) &&
		o.Address == p.Address &&
		o.ShippingMethod == p.ShippingMethod &&
		o.PaymentMethod == p.PaymentMethod &&
		o.Subtotal == p.Subtotal &&
		o.ShippingCost == p.ShippingCost &&
		o.Tax == p.Tax &&
		o.Discount == p.Discount &&
		o.Total == p.Total &&
		o.CouponCode == p.CouponCode
}

// orderNamespace derives stable order ids from checkout sessions so a
// retried placement for the same session finds the existing order.
var orderNamespace = uuid.MustParse("6f1c7a52-3c1e-4d8b-9a57-1f0e2b3c4d5e")

// OrderIDFor returns the order id for a user's checkout session. Without a
// session id a random id is used.
func OrderIDFor(userID, sessionID string) string {
	if sessionID == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(orderNamespace, []byte(userID+"/"+sessionID)).String()
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// loadOrder loads an order by replaying events, using snapshot if available
func (s *Service) loadOrder(ctx context.Context, orderID string) (*Order, error) {
	order, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Get returns a user's order
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Place validates and records a new order. Placing the same contents again
// for a checkout session returns the order already created; different
// contents for that session fail with ErrPlacementChanged.
func (s *Service) Place(ctx context.Context, p Placement) (*Order, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	orderID := OrderIDFor(p.UserID, p.SessionID)
	if p.SessionID != "" {
		existing, err := s.loadOrder(ctx, orderID)
		if err == nil {
			if !existing.matches(p) {
				log.Printf("[Order] Session %s already placed order %s with different contents", p.SessionID, orderID)
				return nil, fmt.Errorf("%w: order %s", ErrPlacementChanged, orderID)
			}
			log.Printf("[Order] Order %s already placed for session %s", orderID, p.SessionID)
			return existing, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
	}

	now := time.Now()
	order := &Order{
		ID:             orderID,
		UserID:         p.UserID,
		SessionID:      p.SessionID,
		Items:          p.Items,
		Address:        p.Address,
		ShippingMethod: p.ShippingMethod,
		PaymentMethod:  p.PaymentMethod,
		Subtotal:       p.Subtotal,
		ShippingCost:   p.ShippingCost,
		Tax:            p.Tax,
		Discount:       p.Discount,
		Total:          p.Total,
		CouponCode:     p.CouponCode,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	event := OrderPlaced{
		OrderID:        orderID,
		UserID:         p.UserID,
		SessionID:      p.SessionID,
		Items:          p.Items,
		Address:        p.Address,
		ShippingMethod: p.ShippingMethod,
		PaymentMethod:  p.PaymentMethod,
		Subtotal:       p.Subtotal,
		ShippingCost:   p.ShippingCost,
		Tax:            p.Tax,
		Discount:       p.Discount,
		Total:          p.Total,
		CouponCode:     p.CouponCode,
		PlacedAt:       now,
	}

	if err := aggregate.Record(ctx, s.eventStore, order, AggregateType, EventOrderPlaced, event); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Pay(ctx context.Context, orderID string) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.CanTransitionTo(StatusPaid) {
		return order.transitionError(StatusPaid)
	}

	event := OrderPaid{
		OrderID: orderID,
		UserID:  order.UserID,
		PaidAt:  time.Now(),
	}

	order.Status = StatusPaid
	return aggregate.Record(ctx, s.eventStore, order, AggregateType, EventOrderPaid, event)
}

func (s *Service) Ship(ctx context.Context, orderID string) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.CanTransitionTo(StatusShipped) {
		return order.transitionError(StatusShipped)
	}

	event := OrderShipped{
		OrderID:   orderID,
		UserID:    order.UserID,
		ShippedAt: time.Now(),
	}

	order.Status = StatusShipped
	return aggregate.Record(ctx, s.eventStore, order, AggregateType, EventOrderShipped, event)
}

// Cancel cancels a user's pending or paid order
func (s *Service) Cancel(ctx context.Context, userID, orderID, reason string) error {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return err
	}

	if !order.CanTransitionTo(StatusCancelled) {
		return order.transitionError(StatusCancelled)
	}

	event := OrderCancelled{
		OrderID:     orderID,
		UserID:      order.UserID,
		Reason:      reason,
		CancelledAt: time.Now(),
	}

	order.Status = StatusCancelled
	return aggregate.Record(ctx, s.eventStore, order, AggregateType, EventOrderCancelled, event)
}
