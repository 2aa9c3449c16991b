package readmodel

import (
	"time"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/money"
)

// CartItemReadModel represents an item in the cart
type CartItemReadModel struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int         `json:"quantity"`
	Category  string      `json:"category"`
	VendorID  string      `json:"vendor_id"`
}

// CartReadModel is the read model for shopping cart
type CartReadModel struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Items     []CartItemReadModel `json:"items"`
	Subtotal  money.Money         `json:"subtotal"`
	Version   int                 `json:"version"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Recalculate sets Subtotal from the items
func (c *CartReadModel) Recalculate() {
	var subtotal money.Money
	for _, item := range c.Items {
		subtotal += item.UnitPrice.Times(item.Quantity)
	}
	c.Subtotal = subtotal
}

// OrderItemReadModel represents an item in an order
type OrderItemReadModel struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int         `json:"quantity"`
}

// OrderReadModel is the read model for orders
type OrderReadModel struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	Items          []OrderItemReadModel `json:"items"`
	Address        address.Address      `json:"address"`
	ShippingMethod string               `json:"shipping_method"`
	PaymentMethod  string               `json:"payment_method"`
	Subtotal       money.Money          `json:"subtotal"`
	ShippingCost   money.Money          `json:"shipping_cost"`
	Tax            money.Money          `json:"tax"`
	Discount       money.Money          `json:"discount"`
	Total          money.Money          `json:"total"`
	CouponCode     string               `json:"coupon_code,omitempty"`
	Status         string               `json:"status"`
	Version        int                  `json:"version"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}
