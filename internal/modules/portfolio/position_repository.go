package portfolio

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// positionColumns joins each position with its stock row. Column order
// must match scanPosition.
const positionColumns = `p.stockid, s.symbol, s.name, s.price, s.currency, p.quantity,
p.average_cost_basis, p.distribution_target, p.distribution_real, s.dividend, s.ex_dividend_date`

const positionFrom = ` FROM positions p JOIN stocks s ON s.stockid = p.stockid`

// PositionRepository handles position database operations
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// GetAll returns all positions joined with stock data, ordered by symbol
func (r *PositionRepository) GetAll() ([]Position, error) {
	query := "SELECT " + positionColumns + positionFrom + " ORDER BY s.symbol"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// GetByStockID returns one position, or nil if the stock is not held
func (r *PositionRepository) GetByStockID(stockID int64) (*Position, error) {
	query := "SELECT " + positionColumns + positionFrom + " WHERE p.stockid = ?"

	rows, err := r.db.Query(query, stockID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Not held
	}

	position, err := scanPosition(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	return &position, nil
}

// GetBySymbol returns one position looked up by ticker symbol, or nil
func (r *PositionRepository) GetBySymbol(symbol string) (*Position, error) {
	query := "SELECT " + positionColumns + positionFrom + " WHERE s.symbol = ?"

	rows, err := r.db.Query(query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query position by symbol: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	position, err := scanPosition(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	return &position, nil
}

// HasPosition reports whether a position row exists for the stock
func (r *PositionRepository) HasPosition(stockID int64) (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM positions WHERE stockid = ?", stockID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check position: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new position. Fails if the stock is already held.
func (r *PositionRepository) Create(stockID int64, quantity int64, target *float64) error {
	query := `
		INSERT INTO positions (stockid, quantity, average_cost_basis, distribution_target, distribution_real)
		VALUES (?, ?, 0, ?, 0)
	`

	_, err := r.db.Exec(query, stockID, quantity, nullFloat64Ptr(target))
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}

	r.log.Info().Int64("stockid", stockID).Int64("quantity", quantity).Msg("Position created")
	return nil
}

// UpdateQuantity sets the share count of a position
func (r *PositionRepository) UpdateQuantity(stockID int64, quantity int64) error {
	result, err := r.db.Exec("UPDATE positions SET quantity = ? WHERE stockid = ?", quantity, stockID)
	if err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	return requireRow(result, stockID)
}

// UpdateTarget sets or clears the target weight of a position
func (r *PositionRepository) UpdateTarget(stockID int64, target *float64) error {
	result, err := r.db.Exec("UPDATE positions SET distribution_target = ? WHERE stockid = ?",
		nullFloat64Ptr(target), stockID)
	if err != nil {
		return fmt.Errorf("failed to update target: %w", err)
	}
	return requireRow(result, stockID)
}

// UpsertHolding sets quantity and average cost together, creating the
// position row when missing. Used when applying transactions.
func (r *PositionRepository) UpsertHolding(stockID int64, quantity int64, avgCost float64) error {
	query := `
		INSERT INTO positions (stockid, quantity, average_cost_basis, distribution_real)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(stockid) DO UPDATE SET
			quantity = excluded.quantity,
			average_cost_basis = excluded.average_cost_basis
	`

	if _, err := r.db.Exec(query, stockID, quantity, avgCost); err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

// UpdateRealDistributions writes recomputed weights for all positions
// in a single transaction
func (r *PositionRepository) UpdateRealDistributions(weights map[int64]float64) error {
	if len(weights) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare("UPDATE positions SET distribution_real = ? WHERE stockid = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare update: %w", err)
	}
	defer stmt.Close()

	for stockID, weight := range weights {
		if _, err := stmt.Exec(weight, stockID); err != nil {
			return fmt.Errorf("failed to update weight for stock %d: %w", stockID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a position row
func (r *PositionRepository) Delete(stockID int64) error {
	result, err := r.db.Exec("DELETE FROM positions WHERE stockid = ?", stockID)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if err := requireRow(result, stockID); err != nil {
		return err
	}

	r.log.Info().Int64("stockid", stockID).Msg("Position deleted")
	return nil
}

// Count returns the number of open positions
func (r *PositionRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM positions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return count, nil
}

func scanPosition(rows *sql.Rows) (Position, error) {
	var position Position
	var name, currency, exDividendDate sql.NullString
	var price, avgCost, target, real, dividend sql.NullFloat64

	err := rows.Scan(
		&position.StockID,
		&position.Symbol,
		&name,
		&price,
		&currency,
		&position.Quantity,
		&avgCost,
		&target,
		&real,
		&dividend,
		&exDividendDate,
	)
	if err != nil {
		return position, err
	}

	if name.Valid {
		position.Name = name.String
	}
	if price.Valid {
		position.Price = price.Float64
	}
	if currency.Valid {
		position.Currency = currency.String
	}
	if avgCost.Valid {
		position.AverageCostBasis = avgCost.Float64
	}
	if target.Valid {
		position.DistributionTarget = target.Float64
		position.HasTarget = true
	}
	if real.Valid {
		position.DistributionReal = real.Float64
	}
	if dividend.Valid {
		position.Dividend = dividend.Float64
	}
	if exDividendDate.Valid {
		position.ExDividendDate = exDividendDate.String
	}

	return position, nil
}

// requireRow converts a zero-row update into a not-found error
func requireRow(result sql.Result, stockID int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("position for stock %d not found", stockID)
	}
	return nil
}

// nullFloat64Ptr converts a nil pointer to NULL for storage
func nullFloat64Ptr(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
