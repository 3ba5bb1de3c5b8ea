package di

import (
	"fmt"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Open databases and apply schemas
// 2. Construct repositories
// 3. Construct services
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	InitializeRepositories(container, log)

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed")

	return container, nil
}
