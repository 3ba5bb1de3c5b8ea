package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPortfolioService(t *testing.T) (*Service, *PositionRepository) {
	db := setupPositionDB(t)
	repo := NewPositionRepository(db, zerolog.Nop())
	return NewService(repo, zerolog.Nop()), repo
}

func TestLoadSnapshot(t *testing.T) {
	svc, repo := newPortfolioService(t)
	db := repo.db
	aapl := addStock(t, db, "AAPL", "Apple", 100.0)
	msft := addStock(t, db, "MSFT", "Microsoft", 300.0)
	require.NoError(t, repo.Create(aapl, 10, nil))
	require.NoError(t, repo.Create(msft, 5, nil))

	snapshot, err := svc.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, snapshot.Positions, 2)
	assert.InDelta(t, 2500.0, snapshot.TotalValue(), 0.001)
}

func TestRefreshDistributionPersistsWeights(t *testing.T) {
	svc, repo := newPortfolioService(t)
	db := repo.db
	aapl := addStock(t, db, "AAPL", "Apple", 100.0)
	msft := addStock(t, db, "MSFT", "Microsoft", 300.0)
	require.NoError(t, repo.Create(aapl, 15, nil)) // 1500
	require.NoError(t, repo.Create(msft, 5, nil))  // 1500

	snapshot, err := svc.RefreshDistribution()
	require.NoError(t, err)
	for _, p := range snapshot.Positions {
		assert.InDelta(t, 50.0, p.DistributionReal, 0.001)
	}

	// The recomputed weights must land in the database too.
	stored, err := repo.GetAll()
	require.NoError(t, err)
	for _, p := range stored {
		assert.InDelta(t, 50.0, p.DistributionReal, 0.001)
	}
}

func TestValue(t *testing.T) {
	svc, repo := newPortfolioService(t)
	db := repo.db
	aapl := addStock(t, db, "AAPL", "Apple", 30.75)
	require.NoError(t, repo.Create(aapl, 2, nil))

	value, count, err := svc.Value()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	// 61.5 rounds to 62.
	assert.Equal(t, 62.0, value)
}

func TestValueEmptyPortfolio(t *testing.T) {
	svc, _ := newPortfolioService(t)

	value, count, err := svc.Value()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0.0, value)
}
