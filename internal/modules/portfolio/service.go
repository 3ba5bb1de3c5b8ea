package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Service orchestrates snapshot loading and allocation math. It keeps
// no state of its own; every call reads fresh rows.
type Service struct {
	positionRepo *PositionRepository
	log          zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(positionRepo *PositionRepository, log zerolog.Logger) *Service {
	return &Service{
		positionRepo: positionRepo,
		log:          log.With().Str("service", "portfolio").Logger(),
	}
}

// LoadSnapshot reads all positions at current prices
func (s *Service) LoadSnapshot() (*Snapshot, error) {
	positions, err := s.positionRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}
	return NewSnapshot(positions), nil
}

// RefreshDistribution recomputes every position's real weight from
// current prices and persists the result. Returns the refreshed
// snapshot so callers can reuse it without a second read.
func (s *Service) RefreshDistribution() (*Snapshot, error) {
	snapshot, err := s.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	snapshot.ApplyRealDistribution()

	weights := make(map[int64]float64, len(snapshot.Positions))
	for _, p := range snapshot.Positions {
		weights[p.StockID] = p.DistributionReal
	}
	if err := s.positionRepo.UpdateRealDistributions(weights); err != nil {
		return nil, fmt.Errorf("failed to persist weights: %w", err)
	}

	return snapshot, nil
}

// Value returns the rounded portfolio total and the position count
func (s *Service) Value() (float64, int, error) {
	snapshot, err := s.LoadSnapshot()
	if err != nil {
		return 0, 0, err
	}
	return snapshot.TotalValue(), len(snapshot.Positions), nil
}
