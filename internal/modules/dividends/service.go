package dividends

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/clients/marketdata"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/transactions"
	"github.com/rs/zerolog"
)

// PositionSource provides the current holdings with embedded stock data.
type PositionSource interface {
	GetAll() ([]portfolio.Position, error)
}

// TransactionSource provides recorded dividend payments from the
// transaction ledger.
type TransactionSource interface {
	DividendPaymentsInRange(startDate, endDate string) ([]transactions.DividendPayment, error)
	StockIDsWithDividends() (map[int64]bool, error)
	DividendTotalInRange(startDate, endDate string) (float64, error)
}

// FeedProvider fetches the raw dividend history for a symbol.
type FeedProvider interface {
	GetDividends(symbol string) ([]marketdata.DividendEvent, error)
}

// Service computes dividend income reports from current holdings, the
// transaction ledger and the stored provider feed.
type Service struct {
	feedRepo     *FeedRepository
	positions    PositionSource
	transactions TransactionSource
	provider     FeedProvider
	currency     string
	log          zerolog.Logger
}

// NewService creates a new dividends service
func NewService(feedRepo *FeedRepository, positions PositionSource, txns TransactionSource, provider FeedProvider, currency string, log zerolog.Logger) *Service {
	return &Service{
		feedRepo:     feedRepo,
		positions:    positions,
		transactions: txns,
		provider:     provider,
		currency:     currency,
		log:          log.With().Str("service", "dividends").Logger(),
	}
}

// SyncFeed replaces the stored dividend feed for one stock with the
// provider's current history. Rows without a positive amount are dropped.
func (s *Service) SyncFeed(stockID int64, symbol string) error {
	events, err := s.provider.GetDividends(symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch dividends for %s: %w", symbol, err)
	}

	records := make([]FeedRecord, 0, len(events))
	for _, ev := range events {
		if ev.Amount <= 0 {
			continue
		}
		records = append(records, FeedRecord{StockID: stockID, Date: ev.Date, Amount: ev.Amount})
	}

	if err := s.feedRepo.ReplaceFeed(stockID, records); err != nil {
		return err
	}

	s.log.Debug().
		Str("symbol", symbol).
		Int("records", len(records)).
		Msg("Dividend feed synced")

	return nil
}

// Total returns the expected yearly dividend income from current holdings,
// using each stock's forward annual rate.
func (s *Service) Total() (float64, error) {
	positions, err := s.positions.GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load positions: %w", err)
	}

	var total float64
	for _, p := range positions {
		total += p.Dividend * float64(p.Quantity)
	}

	return round(total, 2), nil
}

// Summary combines the forward yearly total with what was actually received
// this calendar year, a full-year forecast and the next expected payment.
// The forecast is year-to-date receipts plus projected payments through
// December 31; the next payment is the earliest projection on or after
// today across all held positions, nil when nothing is projected.
func (s *Service) Summary() (*Summary, error) {
	total, err := s.Total()
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()
	yearStart := fmt.Sprintf("%d-01-01", today.Year())
	yearEnd := fmt.Sprintf("%d-12-31", today.Year())
	todayStr := today.Format(dateLayout)

	received, err := s.transactions.DividendTotalInRange(yearStart, todayStr)
	if err != nil {
		return nil, fmt.Errorf("failed to sum received dividends: %w", err)
	}

	positions, err := s.positions.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	horizon := today.AddDate(1, 0, 0).Format(dateLayout)

	var projectedRest float64
	var next *StockDividend
	for _, pos := range positions {
		history, err := s.feedRepo.GetByStockID(pos.StockID)
		if err != nil {
			return nil, fmt.Errorf("failed to load dividend feed for %s: %w", pos.Symbol, err)
		}

		projections := Project(history, todayStr, horizon)
		for _, proj := range projections {
			if proj.Date <= yearEnd {
				projectedRest += proj.Amount * float64(pos.Quantity)
			}
		}

		if len(projections) == 0 {
			continue
		}
		first := projections[0]
		if next == nil || first.Date < next.ExpectedDate {
			next = &StockDividend{
				Symbol:        pos.Symbol,
				Name:          pos.Name,
				Quantity:      pos.Quantity,
				DividendRate:  round(first.Amount, 2),
				TotalDividend: round(first.Amount*float64(pos.Quantity), 2),
				ExpectedDate:  first.Date,
			}
		}
	}

	return &Summary{
		TotalDividend:          total,
		YearToDateDividend:     round(received, 2),
		YearlyForecastDividend: round(received+projectedRest, 2),
		NextDividend:           next,
		Currency:               s.currency,
	}, nil
}

// Breakdown reports per-stock dividend income for the current calendar
// year, computed from the stored feed rather than the forward rate, richest
// first. Stocks with enough feed history also carry cadence statistics.
func (s *Service) Breakdown() (*Breakdown, error) {
	positions, err := s.positions.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	year := time.Now().UTC().Year()
	rates, err := s.feedRepo.SumByStockInRange(fmt.Sprintf("%d-01-01", year), fmt.Sprintf("%d-12-31", year))
	if err != nil {
		return nil, err
	}

	items := make([]StockDividend, 0, len(positions))
	var total float64
	for _, pos := range positions {
		rate := rates[pos.StockID]
		item := StockDividend{
			Symbol:        pos.Symbol,
			Name:          pos.Name,
			Quantity:      pos.Quantity,
			DividendRate:  round(rate, 2),
			TotalDividend: round(rate*float64(pos.Quantity), 2),
		}

		history, err := s.feedRepo.GetByStockID(pos.StockID)
		if err != nil {
			return nil, fmt.Errorf("failed to load dividend feed for %s: %w", pos.Symbol, err)
		}
		if cadence, ok := AnalyzeCadence(history); ok {
			mean := round(cadence.MeanDays, 1)
			stddev := round(cadence.StdDevDays, 1)
			item.PaymentsPerYear = cadence.PaymentsPerYear
			item.IntervalMeanDays = &mean
			item.IntervalStdDays = &stddev
		}

		total += item.TotalDividend
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TotalDividend > items[j].TotalDividend
	})

	return &Breakdown{
		Dividends:           items,
		TotalYearlyDividend: round(total, 2),
		Currency:            s.currency,
	}, nil
}

func round(val float64, decimals int) float64 {
	ratio := math.Pow(10, float64(decimals))
	return math.Round(val*ratio) / ratio
}
