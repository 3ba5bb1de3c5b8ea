package di

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/clients/marketdata"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/config"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/events"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/dividends"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/historical"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/rebalancing"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/transactions"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/universe"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices constructs the business logic layer. Order matters:
// the universe service ingests dividend feeds and daily series through the
// dividends and historical services, and the transactions service resolves
// symbols through the universe service.
func InitializeServices(c *Container, cfg *config.Config, log zerolog.Logger) error {
	c.Hub = events.NewHub(log)

	c.MarketDataCache = marketdata.NewCache(c.CacheDB.Conn())
	c.MarketDataClient = marketdata.NewClient(cfg.MarketDataURL, c.MarketDataCache, log)

	c.HistoricalService = historical.NewService(c.PriceStore, c.MarketDataClient, log)
	c.DividendsService = dividends.NewService(
		c.FeedRepo,
		c.PositionRepo,
		c.TransactionRepo,
		c.MarketDataClient,
		cfg.Currency,
		log,
	)

	c.UniverseService = universe.NewService(
		c.StockRepo,
		c.MarketDataClient,
		c.DividendsService,
		c.HistoricalService,
		c.Hub,
		log,
	)

	c.PortfolioService = portfolio.NewService(c.PositionRepo, log)
	c.TransactionsService = transactions.NewService(
		c.TransactionRepo,
		c.UniverseService,
		c.PositionRepo,
		c.Hub,
		log,
	)
	c.RebalancingService = rebalancing.NewService(
		c.PortfolioService,
		c.PlanRepo,
		c.Hub,
		cfg.DefaultMinBuy,
		log,
	)

	if cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3ClientConfig{
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			Endpoint:  cfg.Backup.Endpoint,
			Prefix:    cfg.Backup.Prefix,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create s3 client: %w", err)
		}

		c.BackupService = reliability.NewBackupService(
			s3Client,
			map[string]*sql.DB{
				"portfolio": c.PortfolioDB.Conn(),
				"history":   c.HistoryDB,
			},
			cfg.DataDir,
			30,
			c.Hub,
			log,
		)
	}

	return nil
}
