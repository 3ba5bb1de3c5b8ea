package deposits

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// depositColumns is the list of columns for the deposits table.
const depositColumns = `depositid, amount, datestamp, portfolioid`

// Repository handles deposit database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new deposits repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "deposits").Logger(),
	}
}

// List retrieves deposits newest first. A non-positive limit falls back to
// the default of 100.
func (r *Repository) List(limit int) ([]Deposit, error) {
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT " + depositColumns + " FROM deposits ORDER BY datestamp DESC, depositid DESC LIMIT ?"
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	deposits := make([]Deposit, 0)
	for rows.Next() {
		var d Deposit
		if err := rows.Scan(&d.DepositID, &d.Amount, &d.Datestamp, &d.PortfolioID); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deposits: %w", err)
	}

	return deposits, nil
}

// Add records a new deposit and returns the stored row.
func (r *Repository) Add(amount float64, datestamp string) (*Deposit, error) {
	result, err := r.db.Exec("INSERT INTO deposits (amount, datestamp) VALUES (?, ?)", amount, datestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to add deposit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert ID: %w", err)
	}

	r.log.Info().
		Float64("amount", amount).
		Str("datestamp", datestamp).
		Msg("Deposit recorded")

	return &Deposit{
		DepositID:   id,
		Amount:      amount,
		Datestamp:   datestamp,
		PortfolioID: 1,
	}, nil
}

// Total returns the sum of all deposits.
func (r *Repository) Total() (float64, error) {
	var total float64
	if err := r.db.QueryRow("SELECT COALESCE(SUM(amount), 0) FROM deposits").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum deposits: %w", err)
	}
	return total, nil
}
