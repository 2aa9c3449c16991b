package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/example/ec-checkout/internal/api/middleware"
	"github.com/example/ec-checkout/internal/command"
	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/example/ec-checkout/internal/domain/money"
	"github.com/example/ec-checkout/internal/query"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20 // 1MB

// CouponWriter stores coupon definitions
type CouponWriter interface {
	Upsert(ctx context.Context, c coupon.Coupon) error
}

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	coupons      CouponWriter
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, coupons CouponWriter) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		coupons:      coupons,
	}
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cmdHandler.ViewCart(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.cmdHandler.AddToCart(r.Context(), command.AddToCart{
		UserID:    getUserID(r),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.cmdHandler.UpdateCartItem(r.Context(), command.UpdateCartItem{
		UserID:    getUserID(r),
		ProductID: chi.URLParam(r, "productID"),
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cmdHandler.RemoveFromCart(r.Context(), command.RemoveFromCart{
		UserID:    getUserID(r),
		ProductID: chi.URLParam(r, "productID"),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cmdHandler.ClearCart(r.Context(), command.ClearCart{UserID: getUserID(r)})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Checkout Handlers

func (h *Handlers) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	view, err := h.cmdHandler.BeginCheckout(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *Handlers) GetCheckout(w http.ResponseWriter, r *http.Request) {
	view, err := h.cmdHandler.GetCheckout(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type AddressRequest struct {
	address.Address
	// Saved marks an address picked from the saved list
	Saved bool `json:"saved"`
	// Save opts in to storing a new address once the order is placed
	Save bool `json:"save"`
}

func (h *Handlers) SetAddress(w http.ResponseWriter, r *http.Request) {
	var req AddressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.cmdHandler.SetAddress(r.Context(), command.SetAddress{
		UserID:  getUserID(r),
		Address: req.Address,
		Saved:   req.Saved,
		Save:    req.Save,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type MethodRequest struct {
	Method string `json:"method"`
}

func (h *Handlers) SetShipping(w http.ResponseWriter, r *http.Request) {
	var req MethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.cmdHandler.SetShipping(r.Context(), command.SetShipping{UserID: getUserID(r), Method: req.Method})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req MethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.cmdHandler.SetPayment(r.Context(), command.SetPayment{UserID: getUserID(r), Method: req.Method})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type CouponCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handlers) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req CouponCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.cmdHandler.ApplyCoupon(r.Context(), command.ApplyCoupon{UserID: getUserID(r), Code: req.Code})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	view, err := h.cmdHandler.RemoveCoupon(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) Guard(w http.ResponseWriter, r *http.Request) {
	result, err := h.cmdHandler.Guard(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	view, err := h.cmdHandler.Advance(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type RetreatRequest struct {
	To string `json:"to"`
}

func (h *Handlers) Retreat(w http.ResponseWriter, r *http.Request) {
	var req RetreatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.cmdHandler.Retreat(r.Context(), command.Retreat{UserID: getUserID(r), To: req.To})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.cmdHandler.Submit(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// Address Handlers

func (h *Handlers) ListAddresses(w http.ResponseWriter, r *http.Request) {
	list, err := h.queryHandler.ListAddresses(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.ListOrdersByUser(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queryHandler.GetOrder(r.Context(), getUserID(r), chi.URLParam(r, "orderID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	orderID := chi.URLParam(r, "orderID")
	err := h.cmdHandler.CancelOrder(r.Context(), command.CancelOrder{
		UserID:  getUserID(r),
		OrderID: orderID,
		Reason:  req.Reason,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": "cancelled"})
}

// Admin Handlers

func (h *Handlers) GetUserCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.queryHandler.GetCart(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

type CouponRequest struct {
	Kind           coupon.Kind     `json:"kind"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount money.Money     `json:"min_order_amount"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	Scope          coupon.Scope    `json:"scope"`
}

func (h *Handlers) PutCoupon(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c := coupon.Coupon{
		Code:           coupon.NormalizeCode(chi.URLParam(r, "code")),
		Kind:           req.Kind,
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		Scope:          req.Scope,
	}
	if req.ExpiresAt != nil {
		c.ExpiresAt = *req.ExpiresAt
	}
	if err := h.coupons.Upsert(r.Context(), c); err != nil {
		respondDomainError(w, err)
		return
	}
	log.Printf("[API] Coupon %s saved by %s", c.Code, getUserID(r))
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) PayOrder(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(w, r, "paid", h.cmdHandler.PayOrder)
}

func (h *Handlers) ShipOrder(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(w, r, "shipped", h.cmdHandler.ShipOrder)
}

func (h *Handlers) transitionOrder(w http.ResponseWriter, r *http.Request, status string, fn func(ctx context.Context, orderID string) error) {
	orderID := chi.URLParam(r, "orderID")
	if err := fn(r.Context(), orderID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": status})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

// decodeJSON reads a bounded JSON body into dst, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// getUserID is the authenticated user; routes are only mounted behind
// AuthMiddleware
func getUserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
