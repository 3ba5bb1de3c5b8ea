package rebalancing

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupPlanDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE rebalance_plans (
			id              TEXT PRIMARY KEY,
			created_at      INTEGER NOT NULL,
			strategy        TEXT NOT NULL,
			amount          REAL NOT NULL,
			min_amount      REAL NOT NULL,
			total_invested  REAL NOT NULL,
			leftover        REAL NOT NULL,
			recommendations TEXT NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func TestPlanSaveAndGetRecent(t *testing.T) {
	db := setupPlanDB(t)
	repo := NewPlanRepository(db, zerolog.Nop())

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	plan := Plan{
		ID:            "plan-1",
		CreatedAt:     base,
		Strategy:      string(StrategyRebalance),
		Amount:        1000,
		MinAmount:     50,
		TotalInvested: 990,
		Leftover:      10,
		Recommendations: []Recommendation{
			{Symbol: "AAPL", Shares: 2, Amount: 300, StockPrice: 150},
		},
	}
	require.NoError(t, repo.Save(plan))
	require.NoError(t, repo.Save(Plan{
		ID:        "plan-2",
		CreatedAt: base.Add(time.Hour),
		Strategy:  string(StrategyProportional),
		Amount:    500,
	}))

	plans, err := repo.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	// Newest first.
	assert.Equal(t, "plan-2", plans[0].ID)
	assert.Equal(t, "plan-1", plans[1].ID)

	loaded := plans[1]
	assert.Equal(t, base, loaded.CreatedAt)
	assert.InDelta(t, 990.0, loaded.TotalInvested, 0.001)
	require.Len(t, loaded.Recommendations, 1)
	assert.Equal(t, "AAPL", loaded.Recommendations[0].Symbol)
	assert.Equal(t, int64(2), loaded.Recommendations[0].Shares)

	// Null recommendations round-trip as an empty slice.
	assert.NotNil(t, plans[0].Recommendations)
	assert.Empty(t, plans[0].Recommendations)
}

func TestPlanGetRecentLimit(t *testing.T) {
	db := setupPlanDB(t)
	repo := NewPlanRepository(db, zerolog.Nop())

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(Plan{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Strategy:  string(StrategyProportional),
		}))
	}

	plans, err := repo.GetRecent(3)
	require.NoError(t, err)
	assert.Len(t, plans, 3)
	assert.Equal(t, "e", plans[0].ID)
}

func TestPlanSkipsCorruptPayload(t *testing.T) {
	db := setupPlanDB(t)
	repo := NewPlanRepository(db, zerolog.Nop())

	_, err := db.Exec(`
		INSERT INTO rebalance_plans
		(id, created_at, strategy, amount, min_amount, total_invested, leftover, recommendations)
		VALUES ('bad', 1, 'rebalance', 0, 0, 0, 0, 'not json')
	`)
	require.NoError(t, err)
	require.NoError(t, repo.Save(Plan{ID: "good", CreatedAt: time.Now(), Strategy: "rebalance"}))

	plans, err := repo.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "good", plans[0].ID)
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupPlanDB(t)
	repo := NewPlanRepository(db, zerolog.Nop())

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(Plan{ID: "old", CreatedAt: base, Strategy: "rebalance"}))
	require.NoError(t, repo.Save(Plan{ID: "new", CreatedAt: base.AddDate(0, 1, 0), Strategy: "rebalance"}))

	deleted, err := repo.DeleteOlderThan(base.AddDate(0, 0, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	plans, err := repo.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "new", plans[0].ID)
}
