package order

import (
	"time"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/example/ec-checkout/internal/domain/pricing"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderPaid      = "OrderPaid"
	EventOrderShipped   = "OrderShipped"
	EventOrderCancelled = "OrderCancelled"
)

type OrderItem struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int         `json:"quantity"`
}

type OrderPlaced struct {
	OrderID        string                 `json:"order_id"`
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
	PlacedAt       time.Time              `json:"placed_at"`
}

type OrderPaid struct {
	OrderID string    `json:"order_id"`
	UserID  string    `json:"user_id"`
	PaidAt  time.Time `json:"paid_at"`
}

type OrderShipped struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	ShippedAt time.Time `json:"shipped_at"`
}

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}
