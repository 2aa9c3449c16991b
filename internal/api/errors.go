package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/example/ec-checkout/internal/command"
	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/catalog"
	"github.com/example/ec-checkout/internal/domain/checkout"
	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/example/ec-checkout/internal/domain/order"
	"github.com/example/ec-checkout/internal/domain/pricing"
	"github.com/example/ec-checkout/internal/query"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is
var errorMappings = []errorMapping{
	{command.ErrNoSession, http.StatusNotFound, "no_checkout"},

	{cart.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{cart.ErrInvalidProduct, http.StatusBadRequest, "invalid_product"},
	{cart.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{catalog.ErrProductNotFound, http.StatusNotFound, "product_not_found"},

	{coupon.ErrNotFound, http.StatusNotFound, "coupon_not_found"},
	{coupon.ErrExpired, http.StatusUnprocessableEntity, "coupon_expired"},
	{coupon.ErrMinOrderNotMet, http.StatusUnprocessableEntity, "coupon_min_order_not_met"},
	{coupon.ErrScopeMismatch, http.StatusUnprocessableEntity, "coupon_scope_mismatch"},
	{coupon.ErrInvalidCoupon, http.StatusBadRequest, "invalid_coupon"},

	{pricing.ErrInvalidShippingMethod, http.StatusBadRequest, "invalid_shipping_method"},
	{checkout.ErrInvalidPaymentMethod, http.StatusBadRequest, "invalid_payment_method"},
	{checkout.ErrInvalidStep, http.StatusBadRequest, "invalid_step"},
	{checkout.ErrSessionLocked, http.StatusConflict, "session_locked"},
	{checkout.ErrSessionComplete, http.StatusConflict, "session_complete"},
	{checkout.ErrConfirmationRequired, http.StatusConflict, "confirmation_required"},
	{checkout.ErrNotInReview, http.StatusConflict, "not_in_review"},
	{checkout.ErrSubmissionInProgress, http.StatusConflict, "submission_in_progress"},
	{checkout.ErrRejected, http.StatusUnprocessableEntity, "order_rejected"},

	{order.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{query.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{order.ErrOrderAlreadyPaid, http.StatusConflict, "order_already_paid"},
	{order.ErrOrderNotPaid, http.StatusConflict, "order_not_paid"},
	{order.ErrOrderShipped, http.StatusConflict, "order_shipped"},
	{order.ErrOrderCancelled, http.StatusConflict, "order_cancelled"},
	{order.ErrInvalidStatus, http.StatusConflict, "invalid_order_status"},
}

// respondDomainError maps an error from the command or query side to a
// status and code. Unclassified errors are logged and reported generically.
func respondDomainError(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
		return
	}

	if errors.Is(err, checkout.ErrTransportFailure) {
		log.Printf("[API] Order submission failed: %v", err)
		respondError(w, http.StatusServiceUnavailable, "order_service_unavailable",
			"the order could not be placed right now; please try again")
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			respondError(w, m.status, m.code, err.Error())
			return
		}
	}

	log.Printf("[API] Unhandled error: %v", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}
