// Package handlers provides HTTP handlers for deposit tracking.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/events"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/deposits"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for deposit endpoints
type Handler struct {
	repo     *deposits.Repository
	hub      *events.Hub
	currency string
	log      zerolog.Logger
}

// NewHandler creates a new deposits handler
func NewHandler(repo *deposits.Repository, hub *events.Hub, currency string, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		hub:      hub,
		currency: currency,
		log:      log.With().Str("handler", "deposits").Logger(),
	}
}

// RegisterRoutes registers deposit routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/deposits", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/total", h.handleTotal)
		r.Post("/", h.handleAdd)
	})
}

type depositResponse struct {
	DepositID   int64   `json:"depositid"`
	Datestamp   string  `json:"datestamp"`
	Amount      float64 `json:"amount"`
	PortfolioID int64   `json:"portfolioid"`
	Currency    string  `json:"currency"`
}

func (h *Handler) toResponse(d deposits.Deposit) depositResponse {
	return depositResponse{
		DepositID:   d.DepositID,
		Datestamp:   d.Datestamp,
		Amount:      d.Amount,
		PortfolioID: d.PortfolioID,
		Currency:    h.currency,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		if parsed < 1 || parsed > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	list, err := h.repo.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch deposits")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch deposits: %v", err))
		return
	}

	responses := make([]depositResponse, 0, len(list))
	for _, d := range list {
		responses = append(responses, h.toResponse(d))
	}

	writeJSON(w, http.StatusOK, responses)
}

func (h *Handler) handleTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.repo.Total()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch total deposits")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch total deposits: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_deposits": total,
		"currency":       h.currency,
	})
}

type addRequest struct {
	Datestamp string  `json:"datestamp"`
	Amount    float64 `json:"amount"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if _, err := time.Parse(dateLayout, req.Datestamp); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD.")
		return
	}

	deposit, err := h.repo.Add(req.Amount, req.Datestamp)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to add deposit")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to add deposit: %v", err))
		return
	}

	if h.hub != nil {
		h.hub.Publish(&events.DepositAddedData{
			Amount:    deposit.Amount,
			Datestamp: deposit.Datestamp,
		})
	}

	writeJSON(w, http.StatusCreated, h.toResponse(*deposit))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) // Ignore encode error - already committed response
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
