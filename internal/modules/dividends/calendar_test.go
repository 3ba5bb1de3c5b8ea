package dividends

import (
	"database/sql"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/transactions"
)

// setupFeedDB creates an in-memory database with the dividends table.
func setupFeedDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE dividends (
			stockid INTEGER NOT NULL,
			date TEXT NOT NULL,
			amount REAL NOT NULL,
			PRIMARY KEY (stockid, date)
		)
	`)
	require.NoError(t, err)

	return db
}

func insertFeedRow(t *testing.T, db *sql.DB, stockID int64, date string, amount float64) {
	_, err := db.Exec("INSERT INTO dividends (stockid, date, amount) VALUES (?, ?, ?)", stockID, date, amount)
	require.NoError(t, err)
}

// fakePositionSource serves a fixed set of holdings.
type fakePositionSource struct {
	positions []portfolio.Position
}

func (f *fakePositionSource) GetAll() ([]portfolio.Position, error) {
	return f.positions, nil
}

// fakeTransactionSource serves fixed dividend ledger data.
type fakeTransactionSource struct {
	payments []transactions.DividendPayment
	covered  map[int64]bool
	total    float64
}

func (f *fakeTransactionSource) DividendPaymentsInRange(startDate, endDate string) ([]transactions.DividendPayment, error) {
	var inRange []transactions.DividendPayment
	for _, p := range f.payments {
		if p.Date >= startDate && p.Date <= endDate {
			inRange = append(inRange, p)
		}
	}
	return inRange, nil
}

func (f *fakeTransactionSource) StockIDsWithDividends() (map[int64]bool, error) {
	if f.covered == nil {
		return map[int64]bool{}, nil
	}
	return f.covered, nil
}

func (f *fakeTransactionSource) DividendTotalInRange(startDate, endDate string) (float64, error) {
	return f.total, nil
}

func newCalendarService(t *testing.T, positions *fakePositionSource, txns *fakeTransactionSource) (*Service, *sql.DB) {
	db := setupFeedDB(t)
	feedRepo := NewFeedRepository(db, zerolog.Nop())
	svc := NewService(feedRepo, positions, txns, nil, "EUR", zerolog.Nop())
	return svc, db
}

func TestBuildCalendarLedgerIsAuthoritative(t *testing.T) {
	positions := &fakePositionSource{positions: []portfolio.Position{
		{StockID: 1, Symbol: "AAPL", Name: "Apple", Quantity: 10},
	}}
	// AAPL has one recorded payment, so its raw feed rows must not
	// appear even though they fall inside the range.
	txns := &fakeTransactionSource{
		payments: []transactions.DividendPayment{
			{StockID: 1, Symbol: "AAPL", Name: "Apple", Date: "2024-02-15", Amount: 0.24, Quantity: 8},
		},
		covered: map[int64]bool{1: true},
	}

	svc, db := newCalendarService(t, positions, txns)
	insertFeedRow(t, db, 1, "2024-02-09", 0.24)
	insertFeedRow(t, db, 1, "2024-05-10", 0.25)

	calendar, err := svc.BuildCalendar("2024-01-01", "2024-12-31")
	require.NoError(t, err)

	var feedDates []string
	for _, ev := range calendar.Events {
		if ev.Type == EventTypeHistorical {
			feedDates = append(feedDates, ev.Date)
		}
	}
	assert.Equal(t, []string{"2024-02-15"}, feedDates,
		"only the ledger payment should be historical; feed rows are superseded")

	// The transaction total uses the quantity recorded on the row.
	require.NotEmpty(t, calendar.Events)
	assert.InDelta(t, 0.24*8, calendar.Events[0].TotalAmount, 0.001)
}

func TestBuildCalendarFeedFallback(t *testing.T) {
	positions := &fakePositionSource{positions: []portfolio.Position{
		{StockID: 2, Symbol: "MSFT", Name: "Microsoft", Quantity: 4},
	}}
	txns := &fakeTransactionSource{}

	svc, db := newCalendarService(t, positions, txns)
	insertFeedRow(t, db, 2, "2024-03-14", 0.75)
	insertFeedRow(t, db, 2, "2023-12-14", 0.75) // outside range

	calendar, err := svc.BuildCalendar("2024-01-01", "2024-12-31")
	require.NoError(t, err)

	var historical []CalendarEvent
	for _, ev := range calendar.Events {
		if ev.Type == EventTypeHistorical {
			historical = append(historical, ev)
		}
	}
	require.Len(t, historical, 1)
	assert.Equal(t, "2024-03-14", historical[0].Date)
	assert.Equal(t, "MSFT", historical[0].Symbol)
	// Feed fallback totals use the currently held quantity.
	assert.InDelta(t, 0.75*4, historical[0].TotalAmount, 0.001)
}

func TestBuildCalendarIncludesProjections(t *testing.T) {
	positions := &fakePositionSource{positions: []portfolio.Position{
		{StockID: 3, Symbol: "O", Name: "Realty Income", Quantity: 20},
	}}
	txns := &fakeTransactionSource{}

	svc, db := newCalendarService(t, positions, txns)
	insertFeedRow(t, db, 3, "2024-01-15", 0.26)
	insertFeedRow(t, db, 3, "2024-04-15", 0.26)
	insertFeedRow(t, db, 3, "2024-07-15", 0.26)

	calendar, err := svc.BuildCalendar("2024-08-01", "2024-12-31")
	require.NoError(t, err)

	var projected []CalendarEvent
	for _, ev := range calendar.Events {
		if ev.Type == EventTypeProjected {
			projected = append(projected, ev)
		}
	}
	require.NotEmpty(t, projected, "held stock with quarterly history should project payments")
	for _, ev := range projected {
		assert.Greater(t, ev.Date, "2024-07-15", "projections must be after the last historical payment")
		assert.InDelta(t, 0.26, ev.AmountPerShare, 0.001)
		assert.InDelta(t, 0.26*20, ev.TotalAmount, 0.001)
	}
}

func TestBuildCalendarSortedByDate(t *testing.T) {
	positions := &fakePositionSource{positions: []portfolio.Position{
		{StockID: 1, Symbol: "AAPL", Name: "Apple", Quantity: 10},
		{StockID: 2, Symbol: "MSFT", Name: "Microsoft", Quantity: 4},
	}}
	txns := &fakeTransactionSource{
		payments: []transactions.DividendPayment{
			{StockID: 1, Symbol: "AAPL", Name: "Apple", Date: "2024-08-15", Amount: 0.25, Quantity: 10},
			{StockID: 1, Symbol: "AAPL", Name: "Apple", Date: "2024-02-15", Amount: 0.24, Quantity: 10},
		},
		covered: map[int64]bool{1: true},
	}

	svc, db := newCalendarService(t, positions, txns)
	insertFeedRow(t, db, 2, "2024-03-14", 0.75)
	insertFeedRow(t, db, 2, "2024-06-13", 0.75)
	insertFeedRow(t, db, 2, "2024-09-12", 0.75)

	calendar, err := svc.BuildCalendar("2024-01-01", "2024-12-31")
	require.NoError(t, err)
	require.NotEmpty(t, calendar.Events)

	sorted := sort.SliceIsSorted(calendar.Events, func(i, j int) bool {
		return calendar.Events[i].Date < calendar.Events[j].Date
	})
	assert.True(t, sorted, "events must be ordered by date: %+v", calendar.Events)
}

func TestBuildCalendarTotals(t *testing.T) {
	positions := &fakePositionSource{positions: []portfolio.Position{
		{StockID: 2, Symbol: "MSFT", Name: "Microsoft", Quantity: 4},
	}}
	txns := &fakeTransactionSource{
		payments: []transactions.DividendPayment{
			{StockID: 1, Symbol: "AAPL", Name: "Apple", Date: "2024-02-15", Amount: 0.25, Quantity: 8},
		},
		covered: map[int64]bool{1: true},
	}

	svc, db := newCalendarService(t, positions, txns)
	insertFeedRow(t, db, 2, "2024-03-14", 0.75)

	calendar, err := svc.BuildCalendar("2024-01-01", "2024-12-31")
	require.NoError(t, err)

	// 0.25*8 from the ledger plus 0.75*4 from the feed fallback.
	assert.InDelta(t, 2.0+3.0, calendar.TotalHistorical, 0.001)
	assert.Equal(t, 0.0, calendar.TotalProjected)
}

func TestBuildCalendarEmptyPortfolio(t *testing.T) {
	svc, _ := newCalendarService(t, &fakePositionSource{}, &fakeTransactionSource{})

	calendar, err := svc.BuildCalendar("2024-01-01", "2024-12-31")
	require.NoError(t, err)

	assert.Empty(t, calendar.Events)
	assert.NotNil(t, calendar.Events, "events must encode as [] not null")
	assert.Equal(t, 0.0, calendar.TotalHistorical)
	assert.Equal(t, 0.0, calendar.TotalProjected)
}
