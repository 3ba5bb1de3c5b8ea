// Package handlers provides HTTP handlers for positions, portfolio
// value and allocation endpoints.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/historical"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/universe"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// StockCatalog is the slice of the universe module the position
// endpoints depend on: resolving symbols and refreshing held prices.
type StockCatalog interface {
	EnsureStock(symbol string) (*universe.Stock, error)
	RefreshSymbols(symbols []string) (updated, failed int, err error)
}

// ValueHistoryReader provides recorded end-of-day portfolio values
type ValueHistoryReader interface {
	GetAll() ([]historical.ValuePoint, error)
}

// Handler provides HTTP handlers for portfolio endpoints
type Handler struct {
	positionRepo *portfolio.PositionRepository
	stockRepo    *universe.StockRepository
	service      *portfolio.Service
	catalog      StockCatalog
	valueHistory ValueHistoryReader
	currency     string
	log          zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(
	positionRepo *portfolio.PositionRepository,
	stockRepo *universe.StockRepository,
	service *portfolio.Service,
	catalog StockCatalog,
	valueHistory ValueHistoryReader,
	currency string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		positionRepo: positionRepo,
		stockRepo:    stockRepo,
		service:      service,
		catalog:      catalog,
		valueHistory: valueHistory,
		currency:     currency,
		log:          log.With().Str("handler", "portfolio").Logger(),
	}
}

// positionResponse is the API shape of one holding
type positionResponse struct {
	StockID            int64           `json:"stockid"`
	Quantity           int64           `json:"quantity"`
	AverageCostBasis   float64         `json:"average_cost_basis"`
	DistributionTarget *float64        `json:"distribution_target"`
	DistributionReal   float64         `json:"distribution_real"`
	Stock              *universe.Stock `json:"stock"`
	Delta              float64         `json:"delta"`
}

// handleValue returns the current portfolio total
// GET /api/portfolio/value
func (h *Handler) handleValue(w http.ResponseWriter, r *http.Request) {
	total, count, err := h.service.Value()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to calculate portfolio value")
		writeError(w, http.StatusInternalServerError, "Failed to calculate portfolio value")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_value":     total,
		"currency":        h.currency,
		"positions_count": count,
	})
}

// handleValueHistory returns recorded end-of-day portfolio values
// GET /api/portfolio/value/history
func (h *Handler) handleValueHistory(w http.ResponseWriter, r *http.Request) {
	points, err := h.valueHistory.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch value history")
		writeError(w, http.StatusInternalServerError, "Failed to get portfolio value history")
		return
	}
	if points == nil {
		points = []historical.ValuePoint{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio_value_history": points,
	})
}

// handleDistribution returns current vs target weights, most
// underweight positions first. Weights are recomputed and persisted
// before the response is built.
// GET /api/portfolio/distribution
func (h *Handler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.RefreshDistribution()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh distribution")
		writeError(w, http.StatusInternalServerError, "Failed to fetch distribution")
		return
	}

	type distributionItem struct {
		Symbol             string   `json:"symbol"`
		Name               string   `json:"name"`
		DistributionReal   float64  `json:"distribution_real"`
		DistributionTarget *float64 `json:"distribution_target"`
		Delta              float64  `json:"delta"`
		Value              float64  `json:"value"`
	}

	items := make([]distributionItem, 0, len(snapshot.Positions))
	for _, p := range snapshot.Positions {
		items = append(items, distributionItem{
			Symbol:             p.Symbol,
			Name:               p.Name,
			DistributionReal:   p.DistributionReal,
			DistributionTarget: targetPtr(p),
			Delta:              p.Delta(),
			Value:              round2(p.Value()),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Delta > items[j].Delta })

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"distributions": items,
		"total_value":   snapshot.TotalValue(),
	})
}

// handleListPositions returns all holdings with nested stock data
// GET /api/portfolio/positions
func (h *Handler) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch positions")
		writeError(w, http.StatusInternalServerError, "Failed to fetch positions")
		return
	}

	responses := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		resp, err := h.toResponse(p)
		if err != nil {
			h.log.Error().Err(err).Int64("stockid", p.StockID).Msg("Failed to resolve stock")
			writeError(w, http.StatusInternalServerError, "Failed to fetch positions")
			return
		}
		responses = append(responses, resp)
	}
	writeJSON(w, http.StatusOK, responses)
}

// handleCreatePosition opens a new position, adding the stock to the
// catalog first when it is unknown
// POST /api/portfolio/positions
func (h *Handler) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol             string   `json:"symbol"`
		Quantity           int64    `json:"quantity"`
		DistributionTarget *float64 `json:"distribution_target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be greater than 0")
		return
	}
	if req.DistributionTarget != nil && (*req.DistributionTarget < 0 || *req.DistributionTarget > 100) {
		writeError(w, http.StatusBadRequest, "distribution_target must be between 0 and 100")
		return
	}

	symbol := universe.NormalizeSymbol(req.Symbol)

	stock, err := h.catalog.EnsureStock(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to resolve stock")
		writeError(w, http.StatusBadGateway, "Failed to look up symbol")
		return
	}

	existing, err := h.positionRepo.GetByStockID(stock.StockID)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to check position")
		writeError(w, http.StatusInternalServerError, "Failed to add position")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Position for %s already exists. Use PUT to update.", symbol))
		return
	}

	if err := h.positionRepo.Create(stock.StockID, req.Quantity, req.DistributionTarget); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to create position")
		writeError(w, http.StatusInternalServerError, "Failed to add position")
		return
	}

	position, err := h.positionRepo.GetByStockID(stock.StockID)
	if err != nil || position == nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to reload position")
		writeError(w, http.StatusInternalServerError, "Failed to add position")
		return
	}

	resp := positionResponse{
		StockID:            position.StockID,
		Quantity:           position.Quantity,
		AverageCostBasis:   position.AverageCostBasis,
		DistributionTarget: targetPtr(*position),
		DistributionReal:   position.DistributionReal,
		Stock:              stock,
		Delta:              position.Delta(),
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleUpdatePosition adjusts quantity and/or target weight
// PUT /api/portfolio/positions/{symbol}
func (h *Handler) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	symbol := universe.NormalizeSymbol(chi.URLParam(r, "symbol"))

	var req struct {
		Quantity           *int64   `json:"quantity"`
		DistributionTarget *float64 `json:"distribution_target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be greater than 0")
		return
	}
	if req.DistributionTarget != nil && (*req.DistributionTarget < 0 || *req.DistributionTarget > 100) {
		writeError(w, http.StatusBadRequest, "distribution_target must be between 0 and 100")
		return
	}

	stock, err := h.stockRepo.GetBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch stock")
		writeError(w, http.StatusInternalServerError, "Failed to update position")
		return
	}
	if stock == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Stock with symbol '%s' not found", symbol))
		return
	}

	position, err := h.positionRepo.GetByStockID(stock.StockID)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch position")
		writeError(w, http.StatusInternalServerError, "Failed to update position")
		return
	}
	if position == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Position for %s not found", symbol))
		return
	}

	if req.Quantity != nil {
		if err := h.positionRepo.UpdateQuantity(stock.StockID, *req.Quantity); err != nil {
			h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to update quantity")
			writeError(w, http.StatusInternalServerError, "Failed to update position")
			return
		}
	}
	if req.DistributionTarget != nil {
		if err := h.positionRepo.UpdateTarget(stock.StockID, req.DistributionTarget); err != nil {
			h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to update target")
			writeError(w, http.StatusInternalServerError, "Failed to update position")
			return
		}
	}

	position, err = h.positionRepo.GetByStockID(stock.StockID)
	if err != nil || position == nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to reload position")
		writeError(w, http.StatusInternalServerError, "Failed to update position")
		return
	}

	resp := positionResponse{
		StockID:            position.StockID,
		Quantity:           position.Quantity,
		AverageCostBasis:   position.AverageCostBasis,
		DistributionTarget: targetPtr(*position),
		DistributionReal:   position.DistributionReal,
		Stock:              stock,
		Delta:              position.Delta(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeletePosition removes a closed position. All shares must be
// sold first; the stock record and transaction history stay.
// DELETE /api/portfolio/positions/{symbol}
func (h *Handler) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	symbol := universe.NormalizeSymbol(chi.URLParam(r, "symbol"))

	stock, err := h.stockRepo.GetBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch stock")
		writeError(w, http.StatusInternalServerError, "Failed to delete position")
		return
	}
	if stock == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Stock with symbol '%s' not found", symbol))
		return
	}

	position, err := h.positionRepo.GetByStockID(stock.StockID)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch position")
		writeError(w, http.StatusInternalServerError, "Failed to delete position")
		return
	}
	if position == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Position for %s not found", symbol))
		return
	}
	if position.Quantity != 0 {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Position for %s still holds %d shares. Sell all shares before deleting.", symbol, position.Quantity))
		return
	}

	if err := h.positionRepo.Delete(stock.StockID); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to delete position")
		writeError(w, http.StatusInternalServerError, "Failed to delete position")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdatePrices refreshes quotes for held stocks only
// POST /api/portfolio/positions/update-prices
func (h *Handler) handleUpdatePrices(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch positions")
		writeError(w, http.StatusInternalServerError, "Failed to update position prices")
		return
	}

	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}

	updated, _, err := h.catalog.RefreshSymbols(symbols)
	if err != nil {
		h.log.Error().Err(err).Msg("Price refresh failed")
		writeError(w, http.StatusInternalServerError, "Failed to update position prices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Position prices updated successfully",
		"updated_count": updated,
	})
}

// toResponse builds the API shape for one position, resolving the
// nested stock record
func (h *Handler) toResponse(p portfolio.Position) (positionResponse, error) {
	stock, err := h.stockRepo.GetByID(p.StockID)
	if err != nil {
		return positionResponse{}, err
	}
	return positionResponse{
		StockID:            p.StockID,
		Quantity:           p.Quantity,
		AverageCostBasis:   p.AverageCostBasis,
		DistributionTarget: targetPtr(p),
		DistributionReal:   p.DistributionReal,
		Stock:              stock,
		Delta:              p.Delta(),
	}, nil
}

// targetPtr maps an unset target to JSON null
func targetPtr(p portfolio.Position) *float64 {
	if !p.HasTarget {
		return nil
	}
	t := p.DistributionTarget
	return &t
}

func round2(val float64) float64 {
	return float64(int64(val*100+0.5)) / 100
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) // Ignore encode error - already committed response
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
