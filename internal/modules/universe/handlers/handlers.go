// Package handlers provides HTTP handlers for the stock catalog.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/historical"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/universe"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PositionChecker reports whether a stock is currently held.
// Satisfied by the portfolio position repository.
type PositionChecker interface {
	HasPosition(stockID int64) (bool, error)
}

// PriceHistoryStore provides stored daily closes for charting.
// Satisfied by the historical price store.
type PriceHistoryStore interface {
	GetCloses(symbol, startDate, endDate string) ([]historical.ClosePoint, error)
}

// SeriesSource builds daily OHLCV series with optional indicator overlays.
// Satisfied by the historical service.
type SeriesSource interface {
	GetSeries(symbol string, days int, indicators []string) (*historical.Series, error)
}

// Handler provides HTTP handlers for stock catalog endpoints
type Handler struct {
	stockRepo *universe.StockRepository
	service   *universe.Service
	positions PositionChecker
	history   PriceHistoryStore
	series    SeriesSource
	log       zerolog.Logger
}

// NewHandler creates a new stock catalog handler
func NewHandler(stockRepo *universe.StockRepository, service *universe.Service, positions PositionChecker, history PriceHistoryStore, series SeriesSource, log zerolog.Logger) *Handler {
	return &Handler{
		stockRepo: stockRepo,
		service:   service,
		positions: positions,
		history:   history,
		series:    series,
		log:       log.With().Str("handler", "stocks").Logger(),
	}
}

// RegisterRoutes registers all stock catalog routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stocks", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleAdd)
		r.Post("/update-prices", h.handleUpdatePrices)
		r.Get("/{symbol}", h.handleGet)
		r.Delete("/{symbol}", h.handleDelete)
		r.Get("/{symbol}/price-history", h.handlePriceHistory)
		r.Get("/{symbol}/history", h.handleHistory)
	})
}

// handleList returns all tracked stocks
// GET /api/stocks
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.stockRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch stocks")
		writeError(w, http.StatusInternalServerError, "Failed to fetch stocks")
		return
	}
	if stocks == nil {
		stocks = []universe.Stock{}
	}
	writeJSON(w, http.StatusOK, stocks)
}

// handleGet returns one stock by symbol
// GET /api/stocks/{symbol}
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	symbol := universe.NormalizeSymbol(chi.URLParam(r, "symbol"))

	stock, err := h.stockRepo.GetBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch stock")
		writeError(w, http.StatusInternalServerError, "Failed to fetch stock")
		return
	}
	if stock == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Stock with symbol '%s' not found", symbol))
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// handleAdd adds a symbol to the catalog, fetching its data from the
// market data provider. Adding an already-tracked symbol returns the
// existing stock.
// POST /api/stocks
func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	stock, err := h.service.EnsureStock(req.Symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("Failed to add stock")
		writeError(w, http.StatusBadGateway, "Failed to look up symbol")
		return
	}
	writeJSON(w, http.StatusCreated, stock)
}

// handleDelete removes a stock from the catalog. Stocks with an open
// position cannot be removed.
// DELETE /api/stocks/{symbol}
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	symbol := universe.NormalizeSymbol(chi.URLParam(r, "symbol"))

	stock, err := h.stockRepo.GetBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch stock")
		writeError(w, http.StatusInternalServerError, "Failed to fetch stock")
		return
	}
	if stock == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Stock with symbol '%s' not found", symbol))
		return
	}

	held, err := h.positions.HasPosition(stock.StockID)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to check position")
		writeError(w, http.StatusInternalServerError, "Failed to check position")
		return
	}
	if held {
		writeError(w, http.StatusConflict, fmt.Sprintf("Stock %s has an open position", symbol))
		return
	}

	if err := h.stockRepo.Delete(stock.StockID); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to delete stock")
		writeError(w, http.StatusInternalServerError, "Failed to delete stock")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdatePrices re-fetches quotes for every tracked stock
// POST /api/stocks/update-prices
func (h *Handler) handleUpdatePrices(w http.ResponseWriter, r *http.Request) {
	updated, _, err := h.service.RefreshAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Price refresh failed")
		writeError(w, http.StatusInternalServerError, "Failed to update stock prices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Stock prices updated successfully",
		"updated_count": updated,
	})
}

// handlePriceHistory returns stored daily closes for one stock
// GET /api/stocks/{symbol}/price-history?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *Handler) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	symbol := universe.NormalizeSymbol(chi.URLParam(r, "symbol"))

	stock, err := h.stockRepo.GetBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch stock")
		writeError(w, http.StatusInternalServerError, "Failed to fetch stock")
		return
	}
	if stock == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Stock with symbol '%s' not found", symbol))
		return
	}

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	points, err := h.history.GetCloses(symbol, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch price history")
		writeError(w, http.StatusInternalServerError, "Failed to fetch price history")
		return
	}
	if points == nil {
		points = []historical.ClosePoint{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   stock.Symbol,
		"name":     stock.Name,
		"currency": stock.Currency,
		"data":     points,
	})
}

// handleHistory returns recent daily bars with optional indicator overlays
// GET /api/stocks/{symbol}/history?days=90&indicators=sma20,ema50,rsi14
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := universe.NormalizeSymbol(chi.URLParam(r, "symbol"))

	stock, err := h.stockRepo.GetBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch stock")
		writeError(w, http.StatusInternalServerError, "Failed to fetch stock")
		return
	}
	if stock == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Stock with symbol '%s' not found", symbol))
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	indicators, err := historical.ParseIndicators(r.URL.Query().Get("indicators"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.series.GetSeries(symbol, days, indicators)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build price series")
		writeError(w, http.StatusInternalServerError, "Failed to build price series")
		return
	}

	writeJSON(w, http.StatusOK, series)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) // Ignore encode error - already committed response
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
