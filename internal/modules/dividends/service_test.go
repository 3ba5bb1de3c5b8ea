package dividends

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/clients/marketdata"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
)

type fakeFeedProvider struct {
	events []marketdata.DividendEvent
	err    error
}

func (f *fakeFeedProvider) GetDividends(symbol string) ([]marketdata.DividendEvent, error) {
	return f.events, f.err
}

func TestTotal(t *testing.T) {
	positions := &fakePositionSource{positions: []portfolio.Position{
		{StockID: 1, Symbol: "AAPL", Quantity: 10, Dividend: 0.96},
		{StockID: 2, Symbol: "O", Quantity: 20, Dividend: 3.16},
		{StockID: 3, Symbol: "GOOG", Quantity: 5, Dividend: 0},
	}}

	svc, _ := newCalendarService(t, positions, &fakeTransactionSource{})

	total, err := svc.Total()
	require.NoError(t, err)
	// 9.6 + 63.2 + 0
	assert.InDelta(t, 72.8, total, 0.001)
}

func TestTotalEmptyPortfolio(t *testing.T) {
	svc, _ := newCalendarService(t, &fakePositionSource{}, &fakeTransactionSource{})

	total, err := svc.Total()
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestSyncFeedDropsNonPositiveAmounts(t *testing.T) {
	db := setupFeedDB(t)
	feedRepo := NewFeedRepository(db, zerolog.Nop())
	provider := &fakeFeedProvider{events: []marketdata.DividendEvent{
		{Date: "2024-01-15", Amount: 0.26},
		{Date: "2024-04-15", Amount: 0},
		{Date: "2024-07-15", Amount: -0.1},
		{Date: "2024-10-15", Amount: 0.27},
	}}
	svc := NewService(feedRepo, &fakePositionSource{}, &fakeTransactionSource{}, provider, "EUR", zerolog.Nop())

	require.NoError(t, svc.SyncFeed(3, "O"))

	records, err := feedRepo.GetByStockID(3)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-15", records[0].Date)
	assert.Equal(t, "2024-10-15", records[1].Date)
}

func TestSyncFeedReplacesExisting(t *testing.T) {
	db := setupFeedDB(t)
	feedRepo := NewFeedRepository(db, zerolog.Nop())
	insertFeedRow(t, db, 3, "2023-01-15", 0.25)

	provider := &fakeFeedProvider{events: []marketdata.DividendEvent{
		{Date: "2024-01-15", Amount: 0.26},
	}}
	svc := NewService(feedRepo, &fakePositionSource{}, &fakeTransactionSource{}, provider, "EUR", zerolog.Nop())

	require.NoError(t, svc.SyncFeed(3, "O"))

	records, err := feedRepo.GetByStockID(3)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-01-15", records[0].Date)
}

func TestSyncFeedProviderError(t *testing.T) {
	db := setupFeedDB(t)
	feedRepo := NewFeedRepository(db, zerolog.Nop())
	provider := &fakeFeedProvider{err: errors.New("rate limited")}
	svc := NewService(feedRepo, &fakePositionSource{}, &fakeTransactionSource{}, provider, "EUR", zerolog.Nop())

	err := svc.SyncFeed(3, "O")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "O")
}

func TestBreakdown(t *testing.T) {
	positions := &fakePositionSource{positions: []portfolio.Position{
		{StockID: 1, Symbol: "AAPL", Name: "Apple", Quantity: 10},
		{StockID: 2, Symbol: "O", Name: "Realty Income", Quantity: 4},
	}}
	svc, db := newCalendarService(t, positions, &fakeTransactionSource{})

	// Breakdown sums the feed for the current calendar year.
	year := time.Now().UTC().Year()
	insertFeedRow(t, db, 1, fmt.Sprintf("%d-02-09", year), 0.24)
	insertFeedRow(t, db, 1, fmt.Sprintf("%d-05-10", year), 0.25)
	insertFeedRow(t, db, 2, fmt.Sprintf("%d-03-14", year), 3.00)
	insertFeedRow(t, db, 2, fmt.Sprintf("%d-03-14", year-1), 2.80) // prior year, excluded

	breakdown, err := svc.Breakdown()
	require.NoError(t, err)
	require.Len(t, breakdown.Dividends, 2)

	// Sorted richest first: O at 3.00*4 = 12 beats AAPL at 0.49*10 = 4.9.
	assert.Equal(t, "O", breakdown.Dividends[0].Symbol)
	assert.InDelta(t, 12.0, breakdown.Dividends[0].TotalDividend, 0.001)
	assert.Equal(t, "AAPL", breakdown.Dividends[1].Symbol)
	assert.InDelta(t, 4.9, breakdown.Dividends[1].TotalDividend, 0.001)
	assert.InDelta(t, 16.9, breakdown.TotalYearlyDividend, 0.001)
	assert.Equal(t, "EUR", breakdown.Currency)
}

func TestBreakdownCadenceFields(t *testing.T) {
	positions := &fakePositionSource{positions: []portfolio.Position{
		{StockID: 1, Symbol: "AAPL", Name: "Apple", Quantity: 10},
		{StockID: 2, Symbol: "NEW", Name: "New Listing", Quantity: 1},
	}}
	svc, db := newCalendarService(t, positions, &fakeTransactionSource{})

	insertFeedRow(t, db, 1, "2024-02-09", 0.24)
	insertFeedRow(t, db, 1, "2024-05-10", 0.25)
	insertFeedRow(t, db, 1, "2024-08-09", 0.25)
	insertFeedRow(t, db, 2, "2024-06-01", 0.10) // single payment, no cadence

	breakdown, err := svc.Breakdown()
	require.NoError(t, err)
	require.Len(t, breakdown.Dividends, 2)

	byDividendSymbol := map[string]StockDividend{}
	for _, d := range breakdown.Dividends {
		byDividendSymbol[d.Symbol] = d
	}

	aapl := byDividendSymbol["AAPL"]
	assert.Equal(t, 4, aapl.PaymentsPerYear)
	require.NotNil(t, aapl.IntervalMeanDays)
	assert.InDelta(t, 91.0, *aapl.IntervalMeanDays, 0.5)

	single := byDividendSymbol["NEW"]
	assert.Zero(t, single.PaymentsPerYear)
	assert.Nil(t, single.IntervalMeanDays)
}
