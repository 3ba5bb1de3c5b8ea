package universe

import (
	"fmt"
	"sync"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/clients/marketdata"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/events"
	"github.com/rs/zerolog"
)

// MarketDataProvider is the slice of the market data client the
// universe service depends on
type MarketDataProvider interface {
	GetQuote(symbol string) (*marketdata.Quote, error)
	GetProfile(symbol string) (*marketdata.Profile, error)
}

// FeedIngester stores a stock's provider dividend feed.
type FeedIngester interface {
	SyncFeed(stockID int64, symbol string) error
}

// SeriesIngester stores a stock's provider daily price series.
type SeriesIngester interface {
	SyncSeries(symbol string) error
}

// Service coordinates stock catalog maintenance: adding new symbols
// from the provider and refreshing quotes for tracked ones. Each add or
// refresh also pulls the stock's dividend feed and daily series through
// the attached ingesters.
type Service struct {
	stockRepo *StockRepository
	provider  MarketDataProvider
	feeds     FeedIngester
	series    SeriesIngester
	hub       *events.Hub
	log       zerolog.Logger
}

// NewService creates a new universe service. feeds and series may be nil,
// which disables the corresponding ingest.
func NewService(stockRepo *StockRepository, provider MarketDataProvider, feeds FeedIngester, series SeriesIngester, hub *events.Hub, log zerolog.Logger) *Service {
	return &Service{
		stockRepo: stockRepo,
		provider:  provider,
		feeds:     feeds,
		series:    series,
		hub:       hub,
		log:       log.With().Str("service", "universe").Logger(),
	}
}

// EnsureStock returns the stock for symbol, fetching and storing it
// from the provider when it is not yet in the catalog
func (s *Service) EnsureStock(symbol string) (*Stock, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	existing, err := s.stockRepo.GetBySymbol(symbol)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	stock, err := s.fetchStock(symbol)
	if err != nil {
		return nil, err
	}

	stockID, err := s.stockRepo.Upsert(*stock)
	if err != nil {
		return nil, err
	}
	stock.StockID = stockID

	s.ingest(stockID, stock.Symbol)

	s.log.Info().Str("symbol", symbol).Int64("stockid", stockID).Msg("Stock added to catalog")
	return stock, nil
}

// RefreshSymbol re-fetches the quote for one tracked stock
func (s *Service) RefreshSymbol(symbol string) (*Stock, error) {
	stock, err := s.stockRepo.GetBySymbol(symbol)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, fmt.Errorf("stock %s not found", NormalizeSymbol(symbol))
	}

	quote, err := s.provider.GetQuote(stock.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh %s: %w", stock.Symbol, err)
	}

	if err := s.stockRepo.UpdateQuote(stock.StockID, quote.Price, quote.MarketCap, quote.DividendRate, quote.DividendYield); err != nil {
		return nil, err
	}

	stock.Price = quote.Price
	stock.MarketCap = quote.MarketCap
	stock.Dividend = quote.DividendRate
	stock.DividendYield = quote.DividendYield
	return stock, nil
}

// RefreshAll re-fetches quotes for every tracked stock and publishes a
// prices_refreshed event
func (s *Service) RefreshAll() (updated, failed int, err error) {
	stocks, err := s.stockRepo.GetAll()
	if err != nil {
		return 0, 0, err
	}

	updated, failed = s.refreshStocks(stocks)
	return updated, failed, nil
}

// RefreshSymbols re-fetches quotes for the given symbols only. Symbols
// not in the catalog are ignored.
func (s *Service) RefreshSymbols(symbols []string) (updated, failed int, err error) {
	wanted := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		wanted[NormalizeSymbol(sym)] = struct{}{}
	}

	stocks, err := s.stockRepo.GetAll()
	if err != nil {
		return 0, 0, err
	}

	var selected []Stock
	for _, stock := range stocks {
		if _, ok := wanted[stock.Symbol]; ok {
			selected = append(selected, stock)
		}
	}

	updated, failed = s.refreshStocks(selected)
	return updated, failed, nil
}

// refreshQuoteWorkers bounds how many provider requests run at once.
const refreshQuoteWorkers = 8

// refreshStocks fetches fresh quotes for the given stocks concurrently,
// then applies all writes serially to keep SQLite happy. A
// prices_refreshed event is published when anything was attempted.
func (s *Service) refreshStocks(stocks []Stock) (updated, failed int) {
	quotes := make([]*marketdata.Quote, len(stocks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, refreshQuoteWorkers)
	for i := range stocks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			quote, err := s.provider.GetQuote(stocks[i].Symbol)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", stocks[i].Symbol).Msg("Quote refresh failed")
				return
			}
			quotes[i] = quote
		}(i)
	}
	wg.Wait()

	for i, stock := range stocks {
		quote := quotes[i]
		if quote == nil {
			failed++
			continue
		}
		if quote.Price <= 0 {
			s.log.Warn().Str("symbol", stock.Symbol).Msg("Provider returned non-positive price, keeping previous")
			failed++
			continue
		}

		if err := s.stockRepo.UpdateQuote(stock.StockID, quote.Price, quote.MarketCap, quote.DividendRate, quote.DividendYield); err != nil {
			s.log.Error().Err(err).Str("symbol", stock.Symbol).Msg("Quote write failed")
			failed++
			continue
		}
		s.ingest(stock.StockID, stock.Symbol)
		updated++
	}

	if s.hub != nil && len(stocks) > 0 {
		s.hub.Publish(&events.PricesRefreshedData{UpdatedCount: updated, FailedCount: failed})
	}

	s.log.Info().Int("updated", updated).Int("failed", failed).Msg("Price refresh complete")
	return updated, failed
}

// ingest pulls the stock's dividend feed and daily series alongside its
// quote. Both are best-effort; a failed ingest never fails the caller.
func (s *Service) ingest(stockID int64, symbol string) {
	if s.feeds != nil {
		if err := s.feeds.SyncFeed(stockID, symbol); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Dividend feed sync failed")
		}
	}
	if s.series != nil {
		if err := s.series.SyncSeries(symbol); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Daily series sync failed")
		}
	}
}

// fetchStock builds a full Stock from the provider's quote and profile
func (s *Service) fetchStock(symbol string) (*Stock, error) {
	quote, err := s.provider.GetQuote(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", symbol, err)
	}
	if quote.Price <= 0 {
		return nil, fmt.Errorf("no price available for %s", symbol)
	}

	stock := &Stock{
		Symbol:        NormalizeSymbol(quote.Symbol),
		Name:          quote.Name,
		Price:         quote.Price,
		Currency:      quote.Currency,
		MarketCap:     quote.MarketCap,
		Dividend:      quote.DividendRate,
		DividendYield: quote.DividendYield,
		QuoteType:     quote.QuoteType,
	}
	if stock.Symbol == "" {
		stock.Symbol = NormalizeSymbol(symbol)
	}

	// Profile is best-effort; a stock without sector data is still usable
	profile, err := s.provider.GetProfile(symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Profile lookup failed")
	} else {
		stock.Sector = profile.Sector
		stock.Industry = profile.Industry
		stock.Country = profile.Country
		stock.LogoURL = profile.LogoURL
		stock.ExDividendDate = profile.ExDividendDate
	}

	return stock, nil
}
