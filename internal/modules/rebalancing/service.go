package rebalancing

import (
	"fmt"
	"time"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/events"
	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service runs the balancing engine against a fresh portfolio
// snapshot and records each run as a plan.
type Service struct {
	portfolioSvc *portfolio.Service
	planRepo     *PlanRepository
	hub          *events.Hub
	defaultMin   float64
	log          zerolog.Logger
}

// NewService creates a new rebalancing service. defaultMin is the
// fallback per-purchase minimum when a request does not set one.
func NewService(portfolioSvc *portfolio.Service, planRepo *PlanRepository, hub *events.Hub, defaultMin float64, log zerolog.Logger) *Service {
	return &Service{
		portfolioSvc: portfolioSvc,
		planRepo:     planRepo,
		hub:          hub,
		defaultMin:   defaultMin,
		log:          log.With().Str("service", "rebalancing").Logger(),
	}
}

// Balance refreshes real weights, runs the engine and persists the
// resulting plan
func (s *Service) Balance(amountToBuy, minAmount float64, strategy Strategy) (Result, error) {
	if amountToBuy <= 0 {
		return Result{}, fmt.Errorf("amount_to_buy must be greater than 0")
	}
	if minAmount <= 0 {
		minAmount = s.defaultMin
	}

	snapshot, err := s.portfolioSvc.RefreshDistribution()
	if err != nil {
		return Result{}, fmt.Errorf("failed to refresh distribution: %w", err)
	}

	result := Balance(snapshot, amountToBuy, minAmount, strategy)

	plan := Plan{
		ID:              uuid.New().String(),
		CreatedAt:       time.Now().UTC(),
		Strategy:        string(strategy),
		Amount:          amountToBuy,
		MinAmount:       minAmount,
		TotalInvested:   result.TotalInvested,
		Leftover:        result.Leftover,
		Recommendations: result.Recommendations,
	}
	// A failed write must not block the recommendations themselves
	if err := s.planRepo.Save(plan); err != nil {
		s.log.Warn().Err(err).Str("id", plan.ID).Msg("Failed to persist plan")
	} else if s.hub != nil {
		s.hub.Publish(&events.PlanGeneratedData{
			PlanID:        plan.ID,
			Strategy:      plan.Strategy,
			Count:         len(result.Recommendations),
			TotalInvested: result.TotalInvested,
		})
	}

	s.log.Info().
		Str("strategy", string(strategy)).
		Float64("amount", amountToBuy).
		Int("recommendations", len(result.Recommendations)).
		Float64("total_invested", result.TotalInvested).
		Msg("Balancing run complete")

	return result, nil
}

// RecentPlans returns the latest persisted plans, newest first
func (s *Service) RecentPlans(limit int) ([]Plan, error) {
	plans, err := s.planRepo.GetRecent(limit)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []Plan{}
	}
	return plans, nil
}
