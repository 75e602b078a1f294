package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/storefront-checkout/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса оформления заказа.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/checkout", func(r chi.Router) {
		r.Post("/session", h.CreateSession)
		r.Post("/quote", h.Quote)

		r.Group(func(r chi.Router) {
			r.Use(h.sessionMiddleware.Middleware)

			r.Get("/session", h.GetSession)
			r.Delete("/session", h.CloseSession)

			r.Put("/session/cart", h.SetCart)

			r.Post("/session/coupon", h.ApplyCoupon)
			r.Delete("/session/coupon", h.RemoveCoupon)

			r.Post("/session/coins", h.ApplyCoins)
			r.Delete("/session/coins", h.RemoveCoins)

			r.Get("/session/totals", h.GetTotals)
		})
	})

	r.Get("/api/orders/{orderID}/timeline", h.GetOrderTimeline)
	r.Get("/api/order-status/{status}/steps", h.GetStatusSteps)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
