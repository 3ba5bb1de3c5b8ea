package historical

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// ValueHistoryRepository records the portfolio's total value over time,
// one row per day.
type ValueHistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewValueHistoryRepository creates a new value history repository
func NewValueHistoryRepository(db *sql.DB, log zerolog.Logger) *ValueHistoryRepository {
	return &ValueHistoryRepository{
		db:  db,
		log: log.With().Str("repo", "value_history").Logger(),
	}
}

// GetAll retrieves the full value history, oldest first.
func (r *ValueHistoryRepository) GetAll() ([]ValuePoint, error) {
	rows, err := r.db.Query("SELECT date, value FROM portfolio_value_history ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query value history: %w", err)
	}
	defer rows.Close()

	points := make([]ValuePoint, 0)
	for rows.Next() {
		var p ValuePoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan value point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read value history: %w", err)
	}

	return points, nil
}

// Record stores the portfolio value for a date. Re-recording the same date
// overwrites it, so the daily snapshot job is safe to re-run.
func (r *ValueHistoryRepository) Record(date string, value float64) error {
	_, err := r.db.Exec(
		"INSERT OR REPLACE INTO portfolio_value_history (date, value) VALUES (?, ?)",
		date, value,
	)
	if err != nil {
		return fmt.Errorf("failed to record portfolio value: %w", err)
	}

	r.log.Debug().
		Str("date", date).
		Float64("value", value).
		Msg("Portfolio value recorded")

	return nil
}
