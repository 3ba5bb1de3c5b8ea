package database

// schemas maps database names to their DDL. Every statement is
// IF NOT EXISTS so Migrate can run on every startup.
var schemas = map[string]string{
	"portfolio": portfolioSchema,
	"cache":     cacheSchema,
}

const portfolioSchema = `
CREATE TABLE IF NOT EXISTS stocks (
    stockid          INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol           TEXT NOT NULL UNIQUE,
    name             TEXT NOT NULL DEFAULT '',
    price            REAL NOT NULL DEFAULT 0,
    currency         TEXT NOT NULL DEFAULT 'EUR',
    market_cap       REAL,
    sector           TEXT,
    industry         TEXT,
    country          TEXT,
    dividend         REAL,
    dividend_yield   REAL,
    logo_url         TEXT,
    quote_type       TEXT,
    ex_dividend_date TEXT
);

CREATE TABLE IF NOT EXISTS positions (
    stockid             INTEGER PRIMARY KEY REFERENCES stocks(stockid),
    quantity            INTEGER NOT NULL DEFAULT 0,
    average_cost_basis  REAL NOT NULL DEFAULT 0,
    distribution_target REAL,
    distribution_real   REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
    transactionid INTEGER PRIMARY KEY AUTOINCREMENT,
    stockid       INTEGER NOT NULL REFERENCES stocks(stockid),
    quantity      INTEGER NOT NULL,
    price         REAL NOT NULL,
    type          TEXT NOT NULL CHECK (type IN ('buy', 'sell', 'dividend')),
    datestamp     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_stockid ON transactions(stockid);
CREATE INDEX IF NOT EXISTS idx_transactions_datestamp ON transactions(datestamp);

CREATE TABLE IF NOT EXISTS deposits (
    depositid   INTEGER PRIMARY KEY AUTOINCREMENT,
    amount      REAL NOT NULL,
    datestamp   TEXT NOT NULL,
    portfolioid INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS dividends (
    stockid INTEGER NOT NULL REFERENCES stocks(stockid),
    date    TEXT NOT NULL,
    amount  REAL NOT NULL,
    PRIMARY KEY (stockid, date)
);

CREATE TABLE IF NOT EXISTS rebalance_plans (
    id              TEXT PRIMARY KEY,
    created_at      INTEGER NOT NULL,
    strategy        TEXT NOT NULL,
    amount          REAL NOT NULL,
    min_amount      REAL NOT NULL,
    total_invested  REAL NOT NULL,
    leftover        REAL NOT NULL,
    recommendations TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rebalance_plans_created_at ON rebalance_plans(created_at);
`

const cacheSchema = `
CREATE TABLE IF NOT EXISTS quotes (
    symbol     TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    symbol     TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS dividend_feeds (
    symbol     TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_series (
    symbol     TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);
`
