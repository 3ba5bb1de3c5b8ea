package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"
)

// PriceRefresher re-fetches quotes for every tracked stock.
// Satisfied by the universe service.
type PriceRefresher interface {
	RefreshAll() (updated, failed int, err error)
}

// PriceRefreshJob keeps catalog prices current during the day
type PriceRefreshJob struct {
	universe PriceRefresher
	log      zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job
func NewPriceRefreshJob(universe PriceRefresher, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		universe: universe,
		log:      log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes quotes for all tracked stocks
func (j *PriceRefreshJob) Run() error {
	updated, failed, err := j.universe.RefreshAll()
	if err != nil {
		return fmt.Errorf("failed to refresh prices: %w", err)
	}

	j.log.Info().
		Int("updated", updated).
		Int("failed", failed).
		Msg("Price refresh completed")

	return nil
}
