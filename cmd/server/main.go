// Package main is the entry point for the portfolio balancer service.
// The application tracks a stock universe and portfolio holdings, computes
// rebalancing plans for incoming deposits, and projects upcoming dividend
// income from historical payment cadence.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env file supported)
//  2. Initialize structured logging
//  3. Wire all dependencies via the DI container (databases, repositories, services)
//  4. Register recurring background jobs with the scheduler
//  5. Start the HTTP server
//  6. Wait for shutdown signal and drain gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/config"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/di"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/scheduler"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/server"
	"github.com/glongrais/Portfolio-Balancer-sub000/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("currency", cfg.Currency).
		Msg("Starting portfolio balancer")

	// Wire all dependencies using DI container.
	// Databases are opened and migrated first, then repositories are created
	// with database connections, then services with repository dependencies.
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	// Background jobs: price refresh, daily value snapshot, cache cleanup
	// and (when configured) database backups.
	sched := scheduler.New(log)
	registerJobs(sched, container, cfg, log)
	sched.Start()

	// Start server in goroutine so the main thread can wait for signals
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the scheduler first so no new jobs touch the databases while
	// the server drains. Stop blocks until running jobs complete.
	sched.Stop()

	// The HTTP server gets up to 10 seconds to finish in-flight requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// registerJobs wires the recurring jobs to their cron schedules. A bad
// schedule expression is a configuration error and aborts startup.
func registerJobs(sched *scheduler.Scheduler, container *di.Container, cfg *config.Config, log zerolog.Logger) {
	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.PriceRefreshCron, scheduler.NewPriceRefreshJob(container.UniverseService, log)},
		{cfg.ValueSnapshotCron, scheduler.NewValueSnapshotJob(container.PortfolioService, container.ValueHistory, log)},
		{cfg.CacheCleanupCron, scheduler.NewCacheCleanupJob(container.MarketDataCache, log)},
	}

	if cfg.Backup.Enabled && container.BackupService != nil {
		jobs = append(jobs, struct {
			schedule string
			job      scheduler.Job
		}{cfg.Backup.Cron, scheduler.NewBackupJob(container.BackupService, log)})
	}

	for _, entry := range jobs {
		if err := sched.AddJob(entry.schedule, entry.job); err != nil {
			log.Fatal().Err(err).Str("job", entry.job.Name()).Msg("Failed to register job")
		}
	}
}
