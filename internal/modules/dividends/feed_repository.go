package dividends

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// feedColumns is the list of columns for the dividends table.
// Column order must match what scanFeedRecord expects.
const feedColumns = `stockid, date, amount`

// FeedRepository handles the raw provider dividend feed stored in
// portfolio.db. Each row is one per-share payment on an ex-dividend date;
// (stockid, date) is the primary key.
type FeedRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewFeedRepository creates a new dividend feed repository
func NewFeedRepository(db *sql.DB, log zerolog.Logger) *FeedRepository {
	return &FeedRepository{
		db:  db,
		log: log.With().Str("repo", "dividend_feed").Logger(),
	}
}

// GetByStockID retrieves the full feed for one stock, oldest payment first.
// The ascending order is what the projector expects.
func (r *FeedRepository) GetByStockID(stockID int64) ([]FeedRecord, error) {
	query := "SELECT " + feedColumns + " FROM dividends WHERE stockid = ? ORDER BY date ASC"

	rows, err := r.db.Query(query, stockID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dividend feed: %w", err)
	}
	defer rows.Close()

	var records []FeedRecord
	for rows.Next() {
		var rec FeedRecord
		if err := rows.Scan(&rec.StockID, &rec.Date, &rec.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan dividend row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dividend rows: %w", err)
	}

	return records, nil
}

// ReplaceFeed swaps the stored feed for a stock with the provider's current
// history. Runs in a single transaction so readers never see a half-written
// feed.
func (r *FeedRepository) ReplaceFeed(stockID int64, records []FeedRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM dividends WHERE stockid = ?", stockID); err != nil {
		return fmt.Errorf("failed to clear dividend feed: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO dividends (stockid, date, amount) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare feed insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(stockID, rec.Date, rec.Amount); err != nil {
			return fmt.Errorf("failed to insert dividend row %s: %w", rec.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dividend feed: %w", err)
	}

	return nil
}

// SumByStockInRange returns the per-stock sum of feed amounts with dates in
// [startDate, endDate]. Stocks with no payments in the range are absent
// from the map.
func (r *FeedRepository) SumByStockInRange(startDate, endDate string) (map[int64]float64, error) {
	query := `
		SELECT stockid, SUM(amount) AS total
		FROM dividends
		WHERE date BETWEEN ? AND ?
		GROUP BY stockid
	`

	rows, err := r.db.Query(query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to sum dividend feeds: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]float64)
	for rows.Next() {
		var stockID int64
		var total float64
		if err := rows.Scan(&stockID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan feed total: %w", err)
		}
		totals[stockID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed totals: %w", err)
	}

	return totals, nil
}

// Count returns the number of stored feed rows across all stocks.
func (r *FeedRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM dividends").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dividend rows: %w", err)
	}
	return count, nil
}
