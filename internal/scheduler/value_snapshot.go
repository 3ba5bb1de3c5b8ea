package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PortfolioValuer computes the current market value of all positions.
// Satisfied by the portfolio service.
type PortfolioValuer interface {
	Value() (value float64, positions int, err error)
}

// ValueRecorder persists one portfolio value point per day.
// Satisfied by the value history repository.
type ValueRecorder interface {
	Record(date string, value float64) error
}

// ValueSnapshotJob records the end-of-day portfolio value so the
// value-over-time chart has one point per day. Re-running on the same
// day overwrites that day's point.
type ValueSnapshotJob struct {
	portfolio PortfolioValuer
	values    ValueRecorder
	log       zerolog.Logger
}

// NewValueSnapshotJob creates a new value snapshot job
func NewValueSnapshotJob(portfolio PortfolioValuer, values ValueRecorder, log zerolog.Logger) *ValueSnapshotJob {
	return &ValueSnapshotJob{
		portfolio: portfolio,
		values:    values,
		log:       log.With().Str("job", "value_snapshot").Logger(),
	}
}

// Name returns the job name
func (j *ValueSnapshotJob) Name() string {
	return "value_snapshot"
}

// Run computes and stores today's portfolio value
func (j *ValueSnapshotJob) Run() error {
	value, positions, err := j.portfolio.Value()
	if err != nil {
		return fmt.Errorf("failed to compute portfolio value: %w", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := j.values.Record(today, value); err != nil {
		return fmt.Errorf("failed to record portfolio value: %w", err)
	}

	j.log.Info().
		Str("date", today).
		Float64("value", value).
		Int("positions", positions).
		Msg("Portfolio value snapshot recorded")

	return nil
}
