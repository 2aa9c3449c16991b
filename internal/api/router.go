package api

import (
	"net/http"

	authmw "github.com/example/ec-checkout/internal/api/middleware"
	"github.com/example/ec-checkout/internal/auth"
	"github.com/example/ec-checkout/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// NewRouter mounts the checkout API under /api/v1 behind JWT auth. Health
// and metrics stay public. serverMetrics may be nil.
func NewRouter(handlers *Handlers, jwtService *auth.JWTService, serverMetrics *metrics.ServerMetrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if serverMetrics != nil {
		r.Use(serverMetrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(jwtService))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handlers.GetCart)
			r.Delete("/", handlers.ClearCart)
			r.Post("/items", handlers.AddToCart)
			r.Patch("/items/{productID}", handlers.UpdateCartItem)
			r.Delete("/items/{productID}", handlers.RemoveFromCart)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", handlers.BeginCheckout)
			r.Get("/", handlers.GetCheckout)
			r.Put("/address", handlers.SetAddress)
			r.Put("/shipping", handlers.SetShipping)
			r.Put("/payment", handlers.SetPayment)
			r.Post("/coupon", handlers.ApplyCoupon)
			r.Delete("/coupon", handlers.RemoveCoupon)
			r.Get("/guard", handlers.Guard)
			r.Post("/advance", handlers.Advance)
			r.Post("/retreat", handlers.Retreat)
			r.Post("/submit", handlers.Submit)
		})

		r.Get("/addresses", handlers.ListAddresses)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", handlers.GetOrders)
			r.Get("/{orderID}", handlers.GetOrder)
			r.Post("/{orderID}/cancel", handlers.CancelOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.RequireRole("admin"))
			r.Get("/carts/{userID}", handlers.GetUserCart)
			r.Put("/coupons/{code}", handlers.PutCoupon)
			r.Post("/orders/{orderID}/pay", handlers.PayOrder)
			r.Post("/orders/{orderID}/ship", handlers.ShipOrder)
		})
	})

	return r
}
