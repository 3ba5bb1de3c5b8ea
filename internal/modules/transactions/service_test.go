package transactions

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/universe"
)

type fakeStockResolver struct {
	stocks map[string]*universe.Stock
}

func (f *fakeStockResolver) EnsureStock(symbol string) (*universe.Stock, error) {
	if s, ok := f.stocks[symbol]; ok {
		return s, nil
	}
	// Unknown symbols get created on the fly, as the universe does.
	s := &universe.Stock{StockID: int64(len(f.stocks) + 1), Symbol: symbol}
	f.stocks[symbol] = s
	return s, nil
}

type fakePositionStore struct {
	positions map[int64]*portfolio.Position
	upserts   []upsertCall
}

type upsertCall struct {
	stockID  int64
	quantity int64
	avgCost  float64
}

func (f *fakePositionStore) GetByStockID(stockID int64) (*portfolio.Position, error) {
	return f.positions[stockID], nil
}

func (f *fakePositionStore) UpsertHolding(stockID, quantity int64, avgCost float64) error {
	f.upserts = append(f.upserts, upsertCall{stockID, quantity, avgCost})
	f.positions[stockID] = &portfolio.Position{StockID: stockID, Quantity: quantity, AverageCostBasis: avgCost}
	return nil
}

func newLedgerService(t *testing.T) (*Service, *fakePositionStore, *Repository) {
	db := setupLedgerDB(t)
	insertStock(t, db, "AAPL", "Apple")

	repo := NewRepository(db, zerolog.Nop())
	stocks := &fakeStockResolver{stocks: map[string]*universe.Stock{
		"AAPL": {StockID: 1, Symbol: "AAPL", Name: "Apple", Price: 150.0},
	}}
	positions := &fakePositionStore{positions: map[int64]*portfolio.Position{}}
	svc := NewService(repo, stocks, positions, nil, zerolog.Nop())
	return svc, positions, repo
}

func TestRecordValidation(t *testing.T) {
	svc, _, _ := newLedgerService(t)

	tests := []struct {
		name  string
		input RecordInput
	}{
		{"empty symbol", RecordInput{Symbol: "  ", Type: TypeBuy, Quantity: 1, Price: 10, Date: "2024-01-10"}},
		{"unknown type", RecordInput{Symbol: "AAPL", Type: "short", Quantity: 1, Price: 10, Date: "2024-01-10"}},
		{"zero quantity", RecordInput{Symbol: "AAPL", Type: TypeBuy, Quantity: 0, Price: 10, Date: "2024-01-10"}},
		{"negative quantity", RecordInput{Symbol: "AAPL", Type: TypeBuy, Quantity: -5, Price: 10, Date: "2024-01-10"}},
		{"zero price", RecordInput{Symbol: "AAPL", Type: TypeBuy, Quantity: 1, Price: 0, Date: "2024-01-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, svc.Record(tt.input))
		})
	}
}

func TestRecordBuyCreatesPosition(t *testing.T) {
	svc, positions, repo := newLedgerService(t)

	err := svc.Record(RecordInput{Symbol: "aapl", Type: "BUY", Quantity: 10, Price: 150.0, Date: "2024-01-10"})
	require.NoError(t, err)

	// Symbol and type are normalized before hitting the ledger.
	rows, err := repo.List(ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, TypeBuy, rows[0].Type)

	pos := positions.positions[1]
	require.NotNil(t, pos)
	assert.Equal(t, int64(10), pos.Quantity)
	assert.InDelta(t, 150.0, pos.AverageCostBasis, 0.001)
}

func TestRecordBuyBlendsCostBasis(t *testing.T) {
	svc, positions, _ := newLedgerService(t)
	positions.positions[1] = &portfolio.Position{StockID: 1, Quantity: 10, AverageCostBasis: 100.0}

	err := svc.Record(RecordInput{Symbol: "AAPL", Type: TypeBuy, Quantity: 10, Price: 200.0, Date: "2024-02-10"})
	require.NoError(t, err)

	pos := positions.positions[1]
	assert.Equal(t, int64(20), pos.Quantity)
	// (10*100 + 10*200) / 20
	assert.InDelta(t, 150.0, pos.AverageCostBasis, 0.001)
}

func TestRecordSellGuards(t *testing.T) {
	svc, positions, repo := newLedgerService(t)

	// No position held at all.
	err := svc.Record(RecordInput{Symbol: "AAPL", Type: TypeSell, Quantity: 1, Price: 150.0, Date: "2024-01-10"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no position held")

	positions.positions[1] = &portfolio.Position{StockID: 1, Quantity: 5, AverageCostBasis: 100.0}

	// More than held.
	err = svc.Record(RecordInput{Symbol: "AAPL", Type: TypeSell, Quantity: 6, Price: 150.0, Date: "2024-01-10"})
	require.Error(t, err)

	// A rejected sell must not reach the ledger.
	rows, err := repo.List(ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRecordSellKeepsCostBasis(t *testing.T) {
	svc, positions, _ := newLedgerService(t)
	positions.positions[1] = &portfolio.Position{StockID: 1, Quantity: 10, AverageCostBasis: 100.0}

	err := svc.Record(RecordInput{Symbol: "AAPL", Type: TypeSell, Quantity: 4, Price: 150.0, Date: "2024-03-10"})
	require.NoError(t, err)

	pos := positions.positions[1]
	assert.Equal(t, int64(6), pos.Quantity)
	assert.InDelta(t, 100.0, pos.AverageCostBasis, 0.001)
}

func TestRecordDividendLeavesPositionAlone(t *testing.T) {
	svc, positions, repo := newLedgerService(t)

	err := svc.Record(RecordInput{Symbol: "AAPL", Type: TypeDividend, Quantity: 10, Price: 0.24, Date: "2024-02-15"})
	require.NoError(t, err)

	assert.Empty(t, positions.upserts)

	rows, err := repo.List(ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, TypeDividend, rows[0].Type)
}

func TestRecordReplayedRowSkipsSideEffect(t *testing.T) {
	svc, positions, repo := newLedgerService(t)
	rowID := int64(7)

	err := svc.Record(RecordInput{Symbol: "AAPL", Type: TypeBuy, Quantity: 10, Price: 150.0, Date: "2024-01-10", RowID: &rowID})
	require.NoError(t, err)
	require.Len(t, positions.upserts, 1)

	// Same row again: the ledger row updates, the position does not move.
	err = svc.Record(RecordInput{Symbol: "AAPL", Type: TypeBuy, Quantity: 12, Price: 155.0, Date: "2024-01-10", RowID: &rowID})
	require.NoError(t, err)
	assert.Len(t, positions.upserts, 1)

	rows, err := repo.List(ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(12), rows[0].Quantity)
}

func TestListNormalizesFilter(t *testing.T) {
	svc, _, repo := newLedgerService(t)
	_, err := repo.Insert(1, 10, 150.0, TypeBuy, "2024-01-10")
	require.NoError(t, err)

	rows, err := svc.List(ListFilter{Symbol: " aapl ", Type: " BUY "})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
