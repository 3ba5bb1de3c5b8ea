// Package portfolio tracks held positions and their allocation against
// target weights.
package portfolio

// Position is one holding joined with its stock catalog entry. The
// stock-sourced fields (Symbol, Name, Price, Dividend) are read-only
// here and refreshed through the universe module.
type Position struct {
	StockID            int64
	Symbol             string
	Name               string
	Price              float64
	Currency           string
	Quantity           int64
	AverageCostBasis   float64
	DistributionTarget float64 // percentage points, 0 when unset
	HasTarget          bool    // distribution_target IS NOT NULL
	DistributionReal   float64 // percentage points
	Dividend           float64 // annual dividend per share
	ExDividendDate     string
}

// Value returns the current market value of the position
func (p Position) Value() float64 {
	return p.Price * float64(p.Quantity)
}

// Delta returns how far the position sits below its target weight, in
// percentage points. Positive means underweight.
func (p Position) Delta() float64 {
	return p.DistributionTarget - p.DistributionReal
}
