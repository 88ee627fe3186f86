package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the storefront API surface.
func NewRouter(carts *CartHandler, orders *OrdersHandler, products *ProductsHandler, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(IdentityMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Get("/{product_id}", products.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(SessionMiddleware)
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items/{product_id}", carts.UpdateQuantity)
			r.Delete("/items/{product_id}", carts.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orders.SubmitOrder)
			r.Get("/", orders.ListOrders)
			r.Get("/{order_number}", orders.GetOrder)
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Get("/", orders.ListAllOrders)
			r.Patch("/{order_number}/status", orders.UpdateStatus)
			r.Patch("/{order_number}/payment-status", orders.UpdatePaymentStatus)
		})
	})

	return r
}
