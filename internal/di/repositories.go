package di

import (
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/deposits"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/dividends"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/historical"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/rebalancing"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/transactions"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/universe"
	"github.com/rs/zerolog"
)

// InitializeRepositories constructs the data access layer on top of the
// open database connections
func InitializeRepositories(c *Container, log zerolog.Logger) {
	conn := c.PortfolioDB.Conn()

	c.StockRepo = universe.NewStockRepository(conn, log)
	c.PositionRepo = portfolio.NewPositionRepository(conn, log)
	c.TransactionRepo = transactions.NewRepository(conn, log)
	c.DepositRepo = deposits.NewRepository(conn, log)
	c.FeedRepo = dividends.NewFeedRepository(conn, log)
	c.PlanRepo = rebalancing.NewPlanRepository(conn, log)

	c.PriceStore = historical.NewPriceStore(c.HistoryDB, log)
	c.ValueHistory = historical.NewValueHistoryRepository(c.HistoryDB, log)
}
