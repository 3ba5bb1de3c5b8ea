package historical

import (
	"database/sql"
	"fmt"
)

// InitSchema creates the history tables when missing. history.db carries no
// migrations; both tables are append-mostly and keyed by natural keys.
func InitSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date TEXT NOT NULL,
			open REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			close REAL NOT NULL,
			volume INTEGER,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_prices_symbol_date ON daily_prices(symbol, date DESC)`,
		`CREATE TABLE IF NOT EXISTS portfolio_value_history (
			date TEXT PRIMARY KEY,
			value REAL NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize history schema: %w", err)
		}
	}

	return nil
}
