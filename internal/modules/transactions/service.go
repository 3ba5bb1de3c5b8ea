package transactions

import (
	"fmt"
	"strings"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/events"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/universe"
	"github.com/rs/zerolog"
)

// StockResolver resolves a symbol to a stock, creating it from provider
// data when it is not in the universe yet.
type StockResolver interface {
	EnsureStock(symbol string) (*universe.Stock, error)
}

// PositionStore applies ledger side effects to the held positions.
type PositionStore interface {
	GetByStockID(stockID int64) (*portfolio.Position, error)
	UpsertHolding(stockID, quantity int64, avgCost float64) error
}

// RecordInput describes one transaction to record. RowID, when set, pins
// the ledger row id so that re-importing the same row replaces it instead
// of appending a duplicate.
type RecordInput struct {
	Symbol   string
	Type     string
	Quantity int64
	Price    float64
	Date     string
	RowID    *int64
}

// Service records transactions and keeps positions consistent with them
type Service struct {
	repo      *Repository
	stocks    StockResolver
	positions PositionStore
	hub       *events.Hub
	log       zerolog.Logger
}

// NewService creates a new transactions service
func NewService(repo *Repository, stocks StockResolver, positions PositionStore, hub *events.Hub, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		stocks:    stocks,
		positions: positions,
		hub:       hub,
		log:       log.With().Str("service", "transactions").Logger(),
	}
}

// Record validates and stores a transaction, then applies its position
// side effect: buys raise the held quantity and blend the average cost
// basis, sells lower the quantity and keep the basis, dividend rows change
// nothing. A row replayed under an explicit RowID updates the stored row
// without re-applying the side effect.
func (s *Service) Record(input RecordInput) error {
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	txType := strings.ToLower(strings.TrimSpace(input.Type))

	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !ValidType(txType) {
		return fmt.Errorf("unknown transaction type %q", txType)
	}
	if input.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if input.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}

	stock, err := s.stocks.EnsureStock(symbol)
	if err != nil {
		return fmt.Errorf("failed to resolve stock %s: %w", symbol, err)
	}

	// A sell that cannot be honored should not reach the ledger.
	var position *portfolio.Position
	if txType == TypeBuy || txType == TypeSell {
		position, err = s.positions.GetByStockID(stock.StockID)
		if err != nil {
			return fmt.Errorf("failed to load position for %s: %w", symbol, err)
		}
		if txType == TypeSell {
			if position == nil {
				return fmt.Errorf("cannot sell %s: no position held", symbol)
			}
			if input.Quantity > position.Quantity {
				return fmt.Errorf("cannot sell %d shares of %s: only %d held", input.Quantity, symbol, position.Quantity)
			}
		}
	}

	applyEffect := true
	if input.RowID != nil {
		existing, err := s.repo.GetByID(*input.RowID)
		if err != nil {
			return err
		}
		// Replaying an imported row must not double-apply its effect.
		applyEffect = existing == nil
		if err := s.repo.UpsertWithID(*input.RowID, stock.StockID, input.Quantity, input.Price, txType, input.Date); err != nil {
			return err
		}
	} else {
		if _, err := s.repo.Insert(stock.StockID, input.Quantity, input.Price, txType, input.Date); err != nil {
			return err
		}
	}

	if applyEffect {
		if err := s.applyToPosition(stock.StockID, position, txType, input.Quantity, input.Price); err != nil {
			return err
		}
	}

	if s.hub != nil {
		s.hub.Publish(&events.TransactionRecordedData{
			Symbol:   symbol,
			Type:     txType,
			Quantity: int(input.Quantity),
			Price:    input.Price,
		})
	}

	s.log.Info().
		Str("symbol", symbol).
		Str("type", txType).
		Int64("quantity", input.Quantity).
		Float64("price", input.Price).
		Msg("Transaction recorded")

	return nil
}

// List retrieves ledger rows, normalizing the filter the same way Record
// normalizes its input.
func (s *Service) List(filter ListFilter) ([]Transaction, error) {
	filter.Symbol = strings.ToUpper(strings.TrimSpace(filter.Symbol))
	filter.Type = strings.ToLower(strings.TrimSpace(filter.Type))
	return s.repo.List(filter)
}

// Summarize aggregates ledger activity per symbol.
func (s *Service) Summarize(symbol string) ([]SymbolSummary, error) {
	return s.repo.Summarize(strings.ToUpper(strings.TrimSpace(symbol)))
}

func (s *Service) applyToPosition(stockID int64, position *portfolio.Position, txType string, quantity int64, price float64) error {
	switch txType {
	case TypeBuy:
		if position == nil {
			return s.positions.UpsertHolding(stockID, quantity, price)
		}
		newQuantity := position.Quantity + quantity
		newBasis := (float64(position.Quantity)*position.AverageCostBasis + float64(quantity)*price) / float64(newQuantity)
		return s.positions.UpsertHolding(stockID, newQuantity, newBasis)
	case TypeSell:
		return s.positions.UpsertHolding(stockID, position.Quantity-quantity, position.AverageCostBasis)
	default:
		return nil
	}
}
