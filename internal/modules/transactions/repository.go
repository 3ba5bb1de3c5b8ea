package transactions

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// transactionColumns is the joined column list for ledger queries.
// Column order must match scanTransaction.
const transactionColumns = `t.transactionid, t.stockid, s.symbol, s.name, t.quantity, t.price, t.type, t.datestamp`

// ListFilter narrows a ledger listing. Zero values mean no filter; Limit 0
// falls back to the repository default.
type ListFilter struct {
	Symbol string
	Type   string
	Limit  int
}

// Repository handles transaction ledger database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transactions repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// List retrieves ledger rows newest first, joined with their stock.
// Transactions whose stock row is gone are not listed.
func (r *Repository) List(filter ListFilter) ([]Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions t JOIN stocks s ON t.stockid = s.stockid"
	var args []interface{}

	where := ""
	if filter.Symbol != "" {
		where = " WHERE s.symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Type != "" {
		if where == "" {
			where = " WHERE t.type = ?"
		} else {
			where += " AND t.type = ?"
		}
		args = append(args, filter.Type)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += where + " ORDER BY t.datestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	return transactions, nil
}

// GetByID retrieves one ledger row, or nil when absent.
func (r *Repository) GetByID(id int64) (*Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions t JOIN stocks s ON t.stockid = s.stockid WHERE t.transactionid = ?"

	row := r.db.QueryRow(query, id)
	var txn Transaction
	var name sql.NullString
	err := row.Scan(&txn.TransactionID, &txn.StockID, &txn.Symbol, &name, &txn.Quantity, &txn.Price, &txn.Type, &txn.Datestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	txn.Name = name.String

	return &txn, nil
}

// Insert appends a new ledger row and returns its id.
func (r *Repository) Insert(stockID, quantity int64, price float64, txType, datestamp string) (int64, error) {
	result, err := r.db.Exec(
		"INSERT INTO transactions (stockid, quantity, price, type, datestamp) VALUES (?, ?, ?, ?, ?)",
		stockID, quantity, price, txType, datestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID: %w", err)
	}

	return id, nil
}

// UpsertWithID writes a ledger row under an explicit id, replacing any
// existing row with that id. Spreadsheet imports use this to stay
// idempotent across re-runs.
func (r *Repository) UpsertWithID(id, stockID, quantity int64, price float64, txType, datestamp string) error {
	_, err := r.db.Exec(`
		INSERT INTO transactions (transactionid, stockid, quantity, price, type, datestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(transactionid) DO UPDATE SET
			stockid = excluded.stockid,
			quantity = excluded.quantity,
			price = excluded.price,
			type = excluded.type,
			datestamp = excluded.datestamp
	`, id, stockID, quantity, price, txType, datestamp)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction %d: %w", id, err)
	}

	return nil
}

// Summarize aggregates ledger activity per symbol, biggest invested first.
// An empty symbol aggregates every stock.
func (r *Repository) Summarize(symbol string) ([]SymbolSummary, error) {
	query := `
		SELECT
			s.symbol,
			s.name,
			COUNT(*) AS transaction_count,
			SUM(CASE WHEN t.type = 'buy' THEN t.quantity ELSE 0 END) AS total_bought,
			SUM(CASE WHEN t.type = 'sell' THEN t.quantity ELSE 0 END) AS total_sold,
			SUM(CASE WHEN t.type = 'buy' THEN t.quantity * t.price ELSE 0 END) AS total_invested,
			SUM(CASE WHEN t.type = 'sell' THEN t.quantity * t.price ELSE 0 END) AS total_divested
		FROM transactions t
		JOIN stocks s ON t.stockid = s.stockid
	`
	var args []interface{}
	if symbol != "" {
		query += " WHERE s.symbol = ?"
		args = append(args, symbol)
	}
	query += " GROUP BY s.symbol, s.name ORDER BY total_invested DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	defer rows.Close()

	summaries := make([]SymbolSummary, 0)
	for rows.Next() {
		var s SymbolSummary
		var name sql.NullString
		if err := rows.Scan(&s.Symbol, &name, &s.TransactionCount, &s.TotalBought, &s.TotalSold, &s.TotalInvested, &s.TotalDivested); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		s.Name = name.String
		s.TotalInvested = round2(s.TotalInvested)
		s.TotalDivested = round2(s.TotalDivested)
		s.NetShares = s.TotalBought - s.TotalSold
		s.NetInvestment = round2(s.TotalInvested - s.TotalDivested)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read summaries: %w", err)
	}

	return summaries, nil
}

// DividendPaymentsInRange retrieves dividend-type rows with datestamps in
// [startDate, endDate], oldest first.
func (r *Repository) DividendPaymentsInRange(startDate, endDate string) ([]DividendPayment, error) {
	query := `
		SELECT t.stockid, s.symbol, s.name, t.datestamp, t.price, t.quantity
		FROM transactions t
		JOIN stocks s ON t.stockid = s.stockid
		WHERE t.type = 'dividend' AND t.datestamp BETWEEN ? AND ?
		ORDER BY t.datestamp ASC
	`

	rows, err := r.db.Query(query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get dividend transactions: %w", err)
	}
	defer rows.Close()

	payments := make([]DividendPayment, 0)
	for rows.Next() {
		var p DividendPayment
		var name sql.NullString
		if err := rows.Scan(&p.StockID, &p.Symbol, &name, &p.Date, &p.Amount, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan dividend transaction: %w", err)
		}
		p.Name = name.String
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dividend transactions: %w", err)
	}

	return payments, nil
}

// StockIDsWithDividends returns the set of stocks with at least one
// dividend-type row of any date.
func (r *Repository) StockIDsWithDividends() (map[int64]bool, error) {
	rows, err := r.db.Query("SELECT DISTINCT stockid FROM transactions WHERE type = 'dividend'")
	if err != nil {
		return nil, fmt.Errorf("failed to get dividend stocks: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan stock id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stock ids: %w", err)
	}

	return ids, nil
}

// DividendTotalInRange sums quantity x price over dividend-type rows with
// datestamps in [startDate, endDate].
func (r *Repository) DividendTotalInRange(startDate, endDate string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(quantity * price), 0)
		FROM transactions
		WHERE type = 'dividend' AND datestamp BETWEEN ? AND ?
	`

	var total float64
	if err := r.db.QueryRow(query, startDate, endDate).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum dividend transactions: %w", err)
	}

	return total, nil
}

func scanTransaction(rows *sql.Rows) (Transaction, error) {
	var txn Transaction
	var name sql.NullString
	err := rows.Scan(&txn.TransactionID, &txn.StockID, &txn.Symbol, &name, &txn.Quantity, &txn.Price, &txn.Type, &txn.Datestamp)
	if err != nil {
		return txn, err
	}
	txn.Name = name.String
	return txn, nil
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
