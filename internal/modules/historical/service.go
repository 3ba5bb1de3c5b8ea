package historical

import (
	"fmt"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/clients/marketdata"
	"github.com/rs/zerolog"
)

// syncDays is how much daily history a series sync pulls from the provider.
const syncDays = 365

// defaultSeriesDays is the window served when a request doesn't say.
const defaultSeriesDays = 90

// BarProvider fetches daily OHLCV candles for a symbol.
type BarProvider interface {
	GetDailyPrices(symbol string, days int) ([]marketdata.DailyPrice, error)
}

// Service keeps the stored price series current and assembles
// indicator-annotated views of it.
type Service struct {
	prices   *PriceStore
	provider BarProvider
	log      zerolog.Logger
}

// NewService creates a new historical service
func NewService(prices *PriceStore, provider BarProvider, log zerolog.Logger) *Service {
	return &Service{
		prices:   prices,
		provider: provider,
		log:      log.With().Str("service", "historical").Logger(),
	}
}

// SyncSeries replaces the stored daily series for a symbol with the
// provider's most recent year.
func (s *Service) SyncSeries(symbol string) error {
	bars, err := s.provider.GetDailyPrices(symbol, syncDays)
	if err != nil {
		return fmt.Errorf("failed to fetch daily prices for %s: %w", symbol, err)
	}

	return s.prices.SaveDailyPrices(symbol, bars)
}

// GetSeries returns the last days stored bars for a symbol with the
// requested indicator overlays. Specs must already be validated with
// ParseIndicators.
func (s *Service) GetSeries(symbol string, days int, indicators []string) (*Series, error) {
	if days <= 0 {
		days = defaultSeriesDays
	}

	bars, err := s.prices.GetRecentBars(symbol, days)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	overlays, err := ComputeIndicators(closes, indicators)
	if err != nil {
		return nil, err
	}

	return &Series{
		Symbol:     symbol,
		Days:       days,
		Data:       bars,
		Indicators: overlays,
	}, nil
}
