package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"
)

// CachePruner removes expired rows from the provider response cache.
// Satisfied by the market data cache.
type CachePruner interface {
	DeleteAllExpired() (map[string]int64, error)
}

// CacheCleanupJob keeps cache.db from growing without bound
type CacheCleanupJob struct {
	cache CachePruner
	log   zerolog.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache CachePruner, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache: cache,
		log:   log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Run deletes expired entries from every cache table
func (j *CacheCleanupJob) Run() error {
	deleted, err := j.cache.DeleteAllExpired()
	if err != nil {
		return fmt.Errorf("failed to clean cache: %w", err)
	}

	var total int64
	for _, n := range deleted {
		total += n
	}

	if total > 0 {
		j.log.Info().
			Int64("deleted", total).
			Msg("Expired cache entries removed")
	} else {
		j.log.Debug().Msg("No expired cache entries")
	}

	return nil
}
