package historical

import (
	"database/sql"
	"fmt"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/clients/marketdata"
	"github.com/rs/zerolog"
)

// PriceStore persists per-symbol daily OHLCV bars in history.db.
type PriceStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceStore creates a new price store
func NewPriceStore(db *sql.DB, log zerolog.Logger) *PriceStore {
	return &PriceStore{
		db:  db,
		log: log.With().Str("repo", "price_store").Logger(),
	}
}

// SaveDailyPrices upserts provider bars for a symbol in one transaction.
// Re-syncing a range the store already has simply overwrites it.
func (s *PriceStore) SaveDailyPrices(symbol string, prices []marketdata.DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_prices (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare price insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.Exec(symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return fmt.Errorf("failed to insert daily price for %s: %w", p.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit daily prices: %w", err)
	}

	s.log.Debug().
		Str("symbol", symbol).
		Int("count", len(prices)).
		Msg("Daily prices saved")

	return nil
}

// GetCloses returns closing prices ascending by date. Empty bounds leave
// that side of the range open.
func (s *PriceStore) GetCloses(symbol, startDate, endDate string) ([]ClosePoint, error) {
	query := "SELECT date, close FROM daily_prices WHERE symbol = ?"
	args := []interface{}{symbol}

	if startDate != "" {
		query += " AND date >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND date <= ?"
		args = append(args, endDate)
	}
	query += " ORDER BY date ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes: %w", err)
	}
	defer rows.Close()

	points := make([]ClosePoint, 0)
	for rows.Next() {
		var p ClosePoint
		if err := rows.Scan(&p.Datestamp, &p.ClosePrice); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read closes: %w", err)
	}

	return points, nil
}

// GetRecentBars returns the last days bars for a symbol, oldest first.
func (s *PriceStore) GetRecentBars(symbol string, days int) ([]DailyBar, error) {
	if days <= 0 {
		return []DailyBar{}, nil
	}

	// Newest-first LIMIT picks the window, then the slice is reversed so
	// indicator math sees chronological order.
	query := `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily bars: %w", err)
	}
	defer rows.Close()

	bars := make([]DailyBar, 0, days)
	for rows.Next() {
		var b DailyBar
		var volume sql.NullInt64
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily bar: %w", err)
		}
		if volume.Valid {
			b.Volume = &volume.Int64
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily bars: %w", err)
	}

	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}
