// Package marketdata provides quote, dividend and price-series fetching
// from the market data provider, with persistent caching.
// Cached payloads are msgpack-encoded blobs with expiration timestamps.
package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// AllTables lists all cache tables in cache.db for cleanup operations.
var AllTables = []string{
	"quotes",
	"profiles",
	"dividend_feeds",
	"daily_series",
}

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// TTL constants for the different payload types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	TTLQuote       = 10 * time.Minute   // Current price moves constantly
	TTLProfile     = 7 * 24 * time.Hour // Sector/industry/country rarely change
	TTLDividends   = 24 * time.Hour     // Dividend feed updates at most daily
	TTLDailySeries = 6 * time.Hour      // Daily candles gain one row per trading day
)

// Cache provides cache operations for provider responses.
type Cache struct {
	db *sql.DB
}

// NewCache creates a new market data cache backed by cache.db.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// validateTable ensures the table name is in our allowed list.
// This prevents SQL injection through table names.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid cache table: %s", table)
	}
	return nil
}

// Store saves a payload with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (c *Cache) Store(table, symbol string, payload interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (symbol, data, expires_at) VALUES (?, ?, ?)",
		table,
	)

	if _, err := c.db.Exec(query, symbol, blob, expiresAt); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}

	return nil
}

// GetIfFresh decodes the payload into out only if expires_at > now.
// Returns false if the key doesn't exist or the data is expired.
// Use Get to retrieve stale data as a fallback when provider calls fail.
func (c *Cache) GetIfFresh(table, symbol string, out interface{}) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	now := time.Now().Unix()
	query := fmt.Sprintf(
		"SELECT data FROM %s WHERE symbol = ? AND expires_at > ?",
		table,
	)

	var blob []byte
	err := c.db.QueryRow(query, symbol, now).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to decode payload from %s: %w", table, err)
	}

	return true, nil
}

// Get decodes the payload regardless of expiration status.
// Stale data is better than no data when the provider is unreachable.
// Returns false if the key doesn't exist.
func (c *Cache) Get(table, symbol string, out interface{}) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE symbol = ?", table)

	var blob []byte
	err := c.db.QueryRow(query, symbol).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to decode payload from %s: %w", table, err)
	}

	return true, nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (c *Cache) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)

	result, err := c.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}

	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all cache tables.
// Returns a map of table name to number of rows deleted.
func (c *Cache) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := c.DeleteExpired(table)
		if err != nil {
			return results, fmt.Errorf("failed to delete expired from %s: %w", table, err)
		}
		results[table] = deleted
	}

	return results, nil
}
