package rebalancing

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Plan is one persisted balancing run, kept so past recommendations
// can be reviewed after prices move on.
type Plan struct {
	ID              string           `json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	Strategy        string           `json:"strategy"`
	Amount          float64          `json:"amount"`
	MinAmount       float64          `json:"min_amount"`
	TotalInvested   float64          `json:"total_invested"`
	Leftover        float64          `json:"leftover"`
	Recommendations []Recommendation `json:"recommendations"`
}

// PlanRepository persists balancing runs
type PlanRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sql.DB, log zerolog.Logger) *PlanRepository {
	return &PlanRepository{
		db:  db,
		log: log.With().Str("repo", "rebalance_plan").Logger(),
	}
}

// Save stores a plan with its recommendations serialized as JSON
func (r *PlanRepository) Save(plan Plan) error {
	recsJSON, err := json.Marshal(plan.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO rebalance_plans
		(id, created_at, strategy, amount, min_amount, total_invested, leftover, recommendations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		plan.ID,
		plan.CreatedAt.Unix(),
		plan.Strategy,
		plan.Amount,
		plan.MinAmount,
		plan.TotalInvested,
		plan.Leftover,
		string(recsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	return nil
}

// GetRecent returns the most recent plans, newest first
func (r *PlanRepository) GetRecent(limit int) ([]Plan, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, created_at, strategy, amount, min_amount, total_invested, leftover, recommendations
		FROM rebalance_plans
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var plan Plan
		var createdAtUnix int64
		var recsJSON string

		err := rows.Scan(
			&plan.ID,
			&createdAtUnix,
			&plan.Strategy,
			&plan.Amount,
			&plan.MinAmount,
			&plan.TotalInvested,
			&plan.Leftover,
			&recsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}

		plan.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
		if err := json.Unmarshal([]byte(recsJSON), &plan.Recommendations); err != nil {
			r.log.Warn().Err(err).Str("id", plan.ID).Msg("Skipping plan with bad recommendations payload")
			continue
		}
		if plan.Recommendations == nil {
			plan.Recommendations = []Recommendation{}
		}

		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// DeleteOlderThan removes plans created before the cutoff, returning
// the number deleted
func (r *PlanRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM rebalance_plans WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old plans: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return deleted, nil
}
