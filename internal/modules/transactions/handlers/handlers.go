// Package handlers provides HTTP handlers for the transaction ledger.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/transactions"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for transaction endpoints
type Handler struct {
	service *transactions.Service
	log     zerolog.Logger
}

// NewHandler creates a new transactions handler
func NewHandler(service *transactions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "transactions").Logger(),
	}
}

// RegisterRoutes registers transaction routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := transactions.ListFilter{
		Symbol: r.URL.Query().Get("symbol"),
		Type:   r.URL.Query().Get("transaction_type"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		if limit < 1 || limit > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		filter.Limit = limit
	}

	list, err := h.service.List(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch transactions")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch transactions: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, list)
}

type createRequest struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
	Type     string  `json:"type"`
	Date     string  `json:"date"`
	RowID    *int64  `json:"rowid"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))

	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if !transactions.ValidType(req.Type) {
		writeError(w, http.StatusBadRequest, "type must be buy, sell or dividend")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD.")
		return
	}

	err := h.service.Record(transactions.RecordInput{
		Symbol:   req.Symbol,
		Type:     req.Type,
		Quantity: req.Quantity,
		Price:    req.Price,
		Date:     req.Date,
		RowID:    req.RowID,
	})
	if err != nil {
		h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("Failed to add transaction")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to add transaction: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Transaction added successfully",
		"symbol":   req.Symbol,
		"type":     req.Type,
		"quantity": req.Quantity,
		"price":    req.Price,
		"date":     req.Date,
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summarize(r.URL.Query().Get("symbol"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch transaction summary")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch transaction summary: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) // Ignore encode error - already committed response
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
