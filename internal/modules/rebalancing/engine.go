// Package rebalancing computes buy recommendations that spread new
// money across a portfolio according to its target weights.
package rebalancing

import (
	"fmt"
	"math"
	"sort"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/modules/portfolio"
)

// Strategy selects how new money is allocated
type Strategy string

const (
	// StrategyRebalance fixes current imbalances first: each position
	// is bought up toward its target share of the grown portfolio.
	StrategyRebalance Strategy = "rebalance"

	// StrategyProportional splits the budget by target weights alone,
	// ignoring how far positions currently drift.
	StrategyProportional Strategy = "proportional"
)

// ParseStrategy validates a strategy name. An empty string selects the
// proportional default.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRebalance:
		return StrategyRebalance, nil
	case StrategyProportional, "":
		return StrategyProportional, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

// Recommendation is one suggested purchase
type Recommendation struct {
	Symbol     string  `json:"symbol"`
	Shares     int64   `json:"shares"`
	Amount     float64 `json:"amount"`
	StockPrice float64 `json:"stock_price"`
}

// Result is the full outcome of one balancing run
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Leftover        float64          `json:"leftover"`
	TotalInvested   float64          `json:"total_invested"`
}

// Balance computes buy recommendations for investing amountToBuy into
// the portfolio captured by snapshot. Purchases below minAmount are
// skipped, shares are always whole, and no position is ever sold.
// Real weights in the snapshot must be current; callers refresh the
// distribution before balancing.
func Balance(snapshot *portfolio.Snapshot, amountToBuy, minAmount float64, strategy Strategy) Result {
	var recommendations []Recommendation
	var totalInvested float64
	var leftover float64

	if strategy == StrategyProportional {
		recommendations, totalInvested = balanceProportional(snapshot.Positions, amountToBuy, minAmount)
		leftover = amountToBuy - totalInvested
	} else {
		recommendations, totalInvested, leftover = balanceRebalance(snapshot, amountToBuy, minAmount)
	}

	if recommendations == nil {
		recommendations = []Recommendation{}
	}

	return Result{
		Recommendations: recommendations,
		Leftover:        math.Floor(leftover),
		TotalInvested:   round2(totalInvested),
	}
}

// balanceRebalance allocates new money to the most underweight
// positions first, buying each up toward its target share of the
// portfolio as it will be after the deposit.
func balanceRebalance(snapshot *portfolio.Snapshot, amountToBuy, minAmount float64) ([]Recommendation, float64, float64) {
	// Target fractions are taken against the grown portfolio so a
	// deposit cannot push other positions below target.
	totalValue := snapshot.TotalValue() + amountToBuy
	remaining := amountToBuy

	positions := make([]portfolio.Position, len(snapshot.Positions))
	copy(positions, snapshot.Positions)
	sort.SliceStable(positions, func(i, j int) bool { return positions[i].Delta() > positions[j].Delta() })

	var recommendations []Recommendation
	var totalInvested float64

	for _, p := range positions {
		if p.Price > remaining {
			continue
		}

		target := p.DistributionTarget/100 - round(p.Price*float64(p.Quantity)/totalValue, 4)
		moneyToBuy := target * totalValue
		shares := math.Floor(math.Min(remaining, moneyToBuy) / p.Price)

		if shares < 1 || shares*p.Price < minAmount {
			continue
		}

		invest := shares * p.Price
		remaining -= invest
		totalInvested += invest

		recommendations = append(recommendations, Recommendation{
			Symbol:     p.Symbol,
			Shares:     int64(shares),
			Amount:     round2(invest),
			StockPrice: p.Price,
		})
	}

	return recommendations, totalInvested, remaining
}

// balanceProportional splits the budget across positions with a
// positive target weight, renormalizing as positions drop out.
func balanceProportional(positions []portfolio.Position, amountToBuy, minAmount float64) ([]Recommendation, float64) {
	var eligible []portfolio.Position
	for _, p := range positions {
		if p.HasTarget && p.DistributionTarget > 0 {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Delta() > eligible[j].Delta() })

	// Positions where even one share exceeds the whole budget can
	// never be bought, so they must not dilute the target sum.
	kept := eligible[:0]
	for _, p := range eligible {
		if p.Price <= amountToBuy {
			kept = append(kept, p)
		}
	}
	eligible = kept

	var targetSum float64
	for _, p := range eligible {
		targetSum += p.DistributionTarget
	}

	remaining := amountToBuy
	var recommendations []Recommendation
	var totalInvested float64

	for _, p := range eligible {
		allocation := remaining * (p.DistributionTarget / targetSum)
		shares := math.Floor(allocation / p.Price)

		// Rounding down can leave an allocation under the per-buy
		// minimum; rounding up may still fit the remaining budget.
		if shares*p.Price < minAmount {
			shares = math.Ceil(allocation / p.Price)
		}

		invest := shares * p.Price
		if shares < 1 || invest > remaining || invest < minAmount {
			targetSum -= p.DistributionTarget
			continue
		}

		remaining -= invest
		targetSum -= p.DistributionTarget
		totalInvested += invest

		recommendations = append(recommendations, Recommendation{
			Symbol:     p.Symbol,
			Shares:     int64(shares),
			Amount:     round2(invest),
			StockPrice: p.Price,
		})
	}

	return recommendations, totalInvested
}

// round rounds a value to the given number of decimal places
func round(val float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(val*p) / p
}

func round2(val float64) float64 {
	return round(val, 2)
}
