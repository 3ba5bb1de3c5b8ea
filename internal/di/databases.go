package di

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/config"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/database"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/historical"
	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3" // history.db driver
)

// InitializeDatabases opens the three databases and applies their schemas.
// portfolio.db and cache.db go through the modernc wrapper with
// profile-specific pragmas; history.db uses the mattn driver.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open portfolio database: %w", err)
	}
	if err := portfolioDB.Migrate(); err != nil {
		portfolioDB.Close()
		return nil, fmt.Errorf("failed to migrate portfolio database: %w", err)
	}

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		portfolioDB.Close()
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := cacheDB.Migrate(); err != nil {
		cacheDB.Close()
		portfolioDB.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	historyDB, err := sql.Open("sqlite3", filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		cacheDB.Close()
		portfolioDB.Close()
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := historical.InitSchema(historyDB); err != nil {
		_ = historyDB.Close()
		cacheDB.Close()
		portfolioDB.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized")

	return &Container{
		PortfolioDB: portfolioDB,
		CacheDB:     cacheDB,
		HistoryDB:   historyDB,
	}, nil
}
