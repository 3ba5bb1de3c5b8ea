// Package di provides dependency injection wiring and initialization.
//
// The Container is the single source of truth for all shared instances:
// databases, the event hub, the market data client, repositories and
// services. It is created by Wire() and handed to the server and the
// scheduler jobs.
package di

import (
	"database/sql"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/clients/marketdata"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/database"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/events"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/deposits"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/dividends"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/historical"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/rebalancing"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/transactions"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/universe"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/reliability"
)

// Container holds all dependencies for the application
type Container struct {
	// Databases
	PortfolioDB *database.DB // Portfolio state: stocks, positions, transactions, deposits, dividends, plans
	CacheDB     *database.DB // Provider response cache (msgpack blobs with TTLs)
	HistoryDB   *sql.DB      // Daily price bars and portfolio value history

	// Events
	Hub *events.Hub

	// Clients
	MarketDataCache  *marketdata.Cache
	MarketDataClient *marketdata.Client

	// Repositories
	StockRepo       *universe.StockRepository
	PositionRepo    *portfolio.PositionRepository
	TransactionRepo *transactions.Repository
	DepositRepo     *deposits.Repository
	FeedRepo        *dividends.FeedRepository
	PlanRepo        *rebalancing.PlanRepository
	PriceStore      *historical.PriceStore
	ValueHistory    *historical.ValueHistoryRepository

	// Services
	HistoricalService   *historical.Service
	DividendsService    *dividends.Service
	UniverseService     *universe.Service
	PortfolioService    *portfolio.Service
	TransactionsService *transactions.Service
	RebalancingService  *rebalancing.Service
	BackupService       *reliability.BackupService // nil when backups are disabled
}

// Close releases all database connections
func (c *Container) Close() {
	if c.HistoryDB != nil {
		_ = c.HistoryDB.Close()
	}
	if c.CacheDB != nil {
		_ = c.CacheDB.Close()
	}
	if c.PortfolioDB != nil {
		_ = c.PortfolioDB.Close()
	}
}
