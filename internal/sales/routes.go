package sales

import "github.com/go-chi/chi/v5"

// MountRoutes registers cart, checkout and order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sessions", h.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Delete("/", h.closeSession)
		r.Get("/cart", h.showCart)
		r.Post("/cart", h.addToCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/checkout", h.checkoutSession)
	})
	r.Post("/checkout", h.checkout)
	r.Post("/quote", h.quote)
	r.Get("/orders", h.listOrders)
}
