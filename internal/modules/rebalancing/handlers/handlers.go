// Package handlers provides HTTP handlers for balancing runs.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/rebalancing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for balancing endpoints
type Handler struct {
	service *rebalancing.Service
	log     zerolog.Logger
}

// NewHandler creates a new balancing handler
func NewHandler(service *rebalancing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// RegisterRoutes registers balancing routes on the /portfolio subrouter
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/balance", h.handleBalance)
	r.Get("/balance/plans", h.handlePlans)
}

// handleBalance computes buy recommendations for new money
// POST /api/portfolio/balance
func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AmountToBuy    float64 `json:"amount_to_buy"`
		MinAmountToBuy float64 `json:"min_amount_to_buy"`
		Strategy       string  `json:"strategy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AmountToBuy <= 0 {
		writeError(w, http.StatusBadRequest, "amount_to_buy must be greater than 0")
		return
	}
	if req.MinAmountToBuy < 0 {
		writeError(w, http.StatusBadRequest, "min_amount_to_buy must be greater than 0")
		return
	}

	strategy, err := rebalancing.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Balance(req.AmountToBuy, req.MinAmountToBuy, strategy)
	if err != nil {
		h.log.Error().Err(err).Msg("Balancing run failed")
		writeError(w, http.StatusInternalServerError, "Failed to balance portfolio")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePlans returns recent balancing runs
// GET /api/portfolio/balance/plans?limit=20
func (h *Handler) handlePlans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	plans, err := h.service.RecentPlans(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch plans")
		writeError(w, http.StatusInternalServerError, "Failed to fetch plans")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) // Ignore encode error - already committed response
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
