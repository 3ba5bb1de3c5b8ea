// Package handlers provides HTTP handlers for dividend reporting.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/dividends"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for dividend endpoints
type Handler struct {
	service  *dividends.Service
	currency string
	log      zerolog.Logger
}

// NewHandler creates a new dividends handler
func NewHandler(service *dividends.Service, currency string, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		currency: currency,
		log:      log.With().Str("handler", "dividends").Logger(),
	}
}

// RegisterRoutes registers dividend routes on the portfolio router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dividends", func(r chi.Router) {
		r.Get("/total", h.handleTotal)
		r.Get("/summary", h.handleSummary)
		r.Get("/breakdown", h.handleBreakdown)
		r.Get("/calendar", h.handleCalendar)
	})
}

func (h *Handler) handleTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.Total()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute total dividend")
		writeError(w, http.StatusInternalServerError, "Failed to compute total dividend")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_dividend": total,
		"currency":       h.currency,
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dividend summary")
		writeError(w, http.StatusInternalServerError, "Failed to build dividend summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.Breakdown()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dividend breakdown")
		writeError(w, http.StatusInternalServerError, "Failed to build dividend breakdown")
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	if _, err := time.Parse(dateLayout, startDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD.")
		return
	}
	if _, err := time.Parse(dateLayout, endDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD.")
		return
	}
	if startDate > endDate {
		writeError(w, http.StatusBadRequest, "start_date must be before or equal to end_date.")
		return
	}

	calendar, err := h.service.BuildCalendar(startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dividend calendar")
		writeError(w, http.StatusInternalServerError, "Failed to build dividend calendar")
		return
	}

	writeJSON(w, http.StatusOK, calendar)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) // Ignore encode error - already committed response
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
