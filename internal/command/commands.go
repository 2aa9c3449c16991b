package command

import "github.com/example/ec-checkout/internal/domain/address"

// Cart Commands
type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItem struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}

// Checkout Commands
type SetAddress struct {
	UserID  string          `json:"user_id"`
	Address address.Address `json:"address"`
	Saved   bool            `json:"saved"`
	Save    bool            `json:"save"`
}

type SetShipping struct {
	UserID string `json:"user_id"`
	Method string `json:"method"`
}

type SetPayment struct {
	UserID string `json:"user_id"`
	Method string `json:"method"`
}

type ApplyCoupon struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type Retreat struct {
	UserID string `json:"user_id"`
	To     string `json:"to"`
}

// Order Commands
type CancelOrder struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}
