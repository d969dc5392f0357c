package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Get("/totals", h.GetTotals)
		r.Post("/refresh", h.RefreshCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", h.GetCheckoutStatus)
		r.Post("/", h.Checkout)
		r.Post("/open", h.OpenCheckout)
		r.Post("/submit", h.SubmitPayment)
		r.Post("/cancel", h.CancelCheckout)
	})

	r.Post("/session", h.Login)
	r.Delete("/session", h.Logout)

	return otelhttp.NewHandler(r, "cartd")
}
