package universe

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// stockColumns is the list of columns for the stocks table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match scanStock.
const stockColumns = `stockid, symbol, name, price, currency, market_cap, sector, industry,
country, dividend, dividend_yield, logo_url, quote_type, ex_dividend_date`

// StockRepository handles stock catalog database operations
type StockRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *sql.DB, log zerolog.Logger) *StockRepository {
	return &StockRepository{
		db:  db,
		log: log.With().Str("repo", "stock").Logger(),
	}
}

// GetBySymbol returns a stock by symbol, or nil if not found
func (r *StockRepository) GetBySymbol(symbol string) (*Stock, error) {
	query := "SELECT " + stockColumns + " FROM stocks WHERE symbol = ?"

	rows, err := r.db.Query(query, NormalizeSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to query stock by symbol: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Stock not found
	}

	stock, err := scanStock(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock: %w", err)
	}

	return &stock, nil
}

// GetByID returns a stock by its numeric ID, or nil if not found
func (r *StockRepository) GetByID(stockID int64) (*Stock, error) {
	query := "SELECT " + stockColumns + " FROM stocks WHERE stockid = ?"

	rows, err := r.db.Query(query, stockID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	stock, err := scanStock(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock: %w", err)
	}

	return &stock, nil
}

// GetAll returns all tracked stocks ordered by symbol
func (r *StockRepository) GetAll() ([]Stock, error) {
	query := "SELECT " + stockColumns + " FROM stocks ORDER BY symbol"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []Stock
	for rows.Next() {
		stock, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return stocks, nil
}

// Upsert inserts a stock or updates it by symbol, returning the stock ID
func (r *StockRepository) Upsert(stock Stock) (int64, error) {
	stock.Symbol = NormalizeSymbol(stock.Symbol)
	if stock.Symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO stocks
		(symbol, name, price, currency, market_cap, sector, industry, country,
		 dividend, dividend_yield, logo_url, quote_type, ex_dividend_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			currency = excluded.currency,
			market_cap = excluded.market_cap,
			sector = excluded.sector,
			industry = excluded.industry,
			country = excluded.country,
			dividend = excluded.dividend,
			dividend_yield = excluded.dividend_yield,
			logo_url = excluded.logo_url,
			quote_type = excluded.quote_type,
			ex_dividend_date = excluded.ex_dividend_date
	`

	_, err = tx.Exec(query,
		stock.Symbol,
		stock.Name,
		stock.Price,
		stock.Currency,
		stock.MarketCap,
		nullString(stock.Sector),
		nullString(stock.Industry),
		nullString(stock.Country),
		stock.Dividend,
		stock.DividendYield,
		nullString(stock.LogoURL),
		nullString(stock.QuoteType),
		nullString(stock.ExDividendDate),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert stock: %w", err)
	}

	var stockID int64
	if err := tx.QueryRow("SELECT stockid FROM stocks WHERE symbol = ?", stock.Symbol).Scan(&stockID); err != nil {
		return 0, fmt.Errorf("failed to read stock id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stockID, nil
}

// UpdateQuote refreshes the market-sourced fields of a stock
func (r *StockRepository) UpdateQuote(stockID int64, price, marketCap, dividend, dividendYield float64) error {
	query := `
		UPDATE stocks
		SET price = ?, market_cap = ?, dividend = ?, dividend_yield = ?
		WHERE stockid = ?
	`

	result, err := r.db.Exec(query, price, marketCap, dividend, dividendYield, stockID)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("stock %d not found", stockID)
	}

	return nil
}

// UpdatePrice sets only the current price of a stock
func (r *StockRepository) UpdatePrice(stockID int64, price float64) error {
	result, err := r.db.Exec("UPDATE stocks SET price = ? WHERE stockid = ?", price, stockID)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("stock %d not found", stockID)
	}

	return nil
}

// Delete removes a stock from the catalog
func (r *StockRepository) Delete(stockID int64) error {
	_, err := r.db.Exec("DELETE FROM stocks WHERE stockid = ?", stockID)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}

	r.log.Info().Int64("stockid", stockID).Msg("Stock deleted")
	return nil
}

// Count returns the number of tracked stocks
func (r *StockRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM stocks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stocks: %w", err)
	}
	return count, nil
}

// NormalizeSymbol uppercases and trims a ticker symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func scanStock(rows *sql.Rows) (Stock, error) {
	var stock Stock
	var name, currency, sector, industry, country sql.NullString
	var logoURL, quoteType, exDividendDate sql.NullString
	var price, marketCap, dividend, dividendYield sql.NullFloat64

	err := rows.Scan(
		&stock.StockID,
		&stock.Symbol,
		&name,
		&price,
		&currency,
		&marketCap,
		&sector,
		&industry,
		&country,
		&dividend,
		&dividendYield,
		&logoURL,
		&quoteType,
		&exDividendDate,
	)
	if err != nil {
		return stock, err
	}

	if name.Valid {
		stock.Name = name.String
	}
	if price.Valid {
		stock.Price = price.Float64
	}
	if currency.Valid {
		stock.Currency = currency.String
	}
	if marketCap.Valid {
		stock.MarketCap = marketCap.Float64
	}
	if sector.Valid {
		stock.Sector = sector.String
	}
	if industry.Valid {
		stock.Industry = industry.String
	}
	if country.Valid {
		stock.Country = country.String
	}
	if dividend.Valid {
		stock.Dividend = dividend.Float64
	}
	if dividendYield.Valid {
		stock.DividendYield = dividendYield.Float64
	}
	if logoURL.Valid {
		stock.LogoURL = logoURL.String
	}
	if quoteType.Valid {
		stock.QuoteType = quoteType.String
	}
	if exDividendDate.Valid {
		stock.ExDividendDate = exDividendDate.String
	}

	return stock, nil
}

// nullString converts an empty string to NULL for storage
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
