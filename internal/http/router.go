// Package http is the REST surface of the checkout engine: one entry point
// that turns a cart into orders, one that moves an order through its status
// machine, plus the read endpoints a customer app needs.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(service CheckoutService, timeout time.Duration) http.Handler {
	checkoutHandler := NewCheckoutHandler(service, timeout)
	ordersHandler := NewOrdersHandler(service, timeout)

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MockAuthMiddleware)
	r.Use(VendorAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", checkoutHandler.Checkout)
		r.Get("/checkout/{batch_id}", checkoutHandler.GetBatch)

		r.Get("/orders", ordersHandler.ListOrders)
		r.Get("/orders/{order_id}", ordersHandler.GetOrder)
		r.Patch("/orders/{order_id}/status", ordersHandler.UpdateStatus)
		r.Post("/orders/{order_id}/cancel", ordersHandler.Cancel)
	})

	return otelhttp.NewHandler(r, "globaleats-api")
}
