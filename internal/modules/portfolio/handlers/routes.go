package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers portfolio routes on the /portfolio subrouter
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/value", h.handleValue)
	r.Get("/value/history", h.handleValueHistory)
	r.Get("/distribution", h.handleDistribution)

	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.handleListPositions)
		r.Post("/", h.handleCreatePosition)
		r.Post("/update-prices", h.handleUpdatePrices)
		r.Put("/{symbol}", h.handleUpdatePosition)
		r.Delete("/{symbol}", h.handleDeletePosition)
	})
}
