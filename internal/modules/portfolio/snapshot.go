package portfolio

import "math"

// Snapshot is a point-in-time view of every holding with its current
// price. Callers load one, run calculations against it, and discard
// it; no portfolio state is cached between requests.
type Snapshot struct {
	Positions []Position
}

// NewSnapshot builds a snapshot from loaded positions
func NewSnapshot(positions []Position) *Snapshot {
	return &Snapshot{Positions: positions}
}

// TotalValue returns the summed market value of all positions,
// rounded to the nearest whole unit of currency.
func (s *Snapshot) TotalValue() float64 {
	var total float64
	for _, p := range s.Positions {
		total += p.Value()
	}
	return math.Round(total)
}

// ApplyRealDistribution recomputes DistributionReal for every position
// in the snapshot from current prices. An empty portfolio has no
// weights, so every position is set to zero rather than dividing by a
// zero total.
func (s *Snapshot) ApplyRealDistribution() {
	total := s.TotalValue()
	for i := range s.Positions {
		if total == 0 {
			s.Positions[i].DistributionReal = 0
			continue
		}
		s.Positions[i].DistributionReal = round(s.Positions[i].Value()/total*100, 2)
	}
}

// round rounds a value to the given number of decimal places
func round(val float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(val*p) / p
}
