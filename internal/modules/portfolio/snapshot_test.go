package portfolio

import "testing"

func TestSnapshotTotalValue(t *testing.T) {
	tests := []struct {
		name      string
		positions []Position
		want      float64
	}{
		{
			name: "sums quantity times price",
			positions: []Position{
				{Symbol: "AAPL", Price: 100, Quantity: 10},
				{Symbol: "GOOG", Price: 200, Quantity: 5},
			},
			want: 2000,
		},
		{
			name: "rounds to nearest whole unit",
			positions: []Position{
				{Symbol: "AAPL", Price: 10.25, Quantity: 3}, // 30.75
				{Symbol: "MSFT", Price: 99.99, Quantity: 1},
			},
			want: 131, // 130.74 rounds up
		},
		{
			name:      "empty portfolio",
			positions: nil,
			want:      0,
		},
		{
			name: "zero quantity contributes nothing",
			positions: []Position{
				{Symbol: "AAPL", Price: 100, Quantity: 0},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSnapshot(tt.positions).TotalValue()
			if got != tt.want {
				t.Errorf("TotalValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyRealDistribution(t *testing.T) {
	snapshot := NewSnapshot([]Position{
		{Symbol: "AAPL", Price: 100, Quantity: 10}, // 1000 of 2000 -> 50%
		{Symbol: "GOOG", Price: 200, Quantity: 5},  // 1000 of 2000 -> 50%
	})

	snapshot.ApplyRealDistribution()

	if snapshot.Positions[0].DistributionReal != 50 {
		t.Errorf("AAPL DistributionReal = %v, want 50", snapshot.Positions[0].DistributionReal)
	}
	if snapshot.Positions[1].DistributionReal != 50 {
		t.Errorf("GOOG DistributionReal = %v, want 50", snapshot.Positions[1].DistributionReal)
	}
}

func TestApplyRealDistributionRoundsToTwoDecimals(t *testing.T) {
	snapshot := NewSnapshot([]Position{
		{Symbol: "A", Price: 1, Quantity: 1}, // 1 of 3 -> 33.33%
		{Symbol: "B", Price: 1, Quantity: 2}, // 2 of 3 -> 66.67%
	})

	snapshot.ApplyRealDistribution()

	if snapshot.Positions[0].DistributionReal != 33.33 {
		t.Errorf("A DistributionReal = %v, want 33.33", snapshot.Positions[0].DistributionReal)
	}
	if snapshot.Positions[1].DistributionReal != 66.67 {
		t.Errorf("B DistributionReal = %v, want 66.67", snapshot.Positions[1].DistributionReal)
	}
}

func TestApplyRealDistributionZeroTotal(t *testing.T) {
	// A worthless portfolio has no weights; the update must not divide
	// by zero and must clear any stale values.
	snapshot := NewSnapshot([]Position{
		{Symbol: "AAPL", Price: 0, Quantity: 10, DistributionReal: 42},
	})

	snapshot.ApplyRealDistribution()

	if snapshot.Positions[0].DistributionReal != 0 {
		t.Errorf("DistributionReal = %v, want 0 for a zero-value portfolio", snapshot.Positions[0].DistributionReal)
	}
}

func TestApplyRealDistributionIdempotent(t *testing.T) {
	snapshot := NewSnapshot([]Position{
		{Symbol: "AAPL", Price: 173.5, Quantity: 7},
		{Symbol: "GOOG", Price: 201.25, Quantity: 3},
		{Symbol: "MSFT", Price: 310, Quantity: 2},
	})

	snapshot.ApplyRealDistribution()
	first := make([]float64, len(snapshot.Positions))
	for i, p := range snapshot.Positions {
		first[i] = p.DistributionReal
	}

	snapshot.ApplyRealDistribution()
	for i, p := range snapshot.Positions {
		if p.DistributionReal != first[i] {
			t.Errorf("%s: second run changed DistributionReal from %v to %v",
				p.Symbol, first[i], p.DistributionReal)
		}
	}
}

func TestPositionDelta(t *testing.T) {
	tests := []struct {
		name     string
		position Position
		want     float64
	}{
		{"underweight", Position{DistributionTarget: 40, HasTarget: true, DistributionReal: 20}, 20},
		{"overweight", Position{DistributionTarget: 60, HasTarget: true, DistributionReal: 80}, -20},
		{"on target", Position{DistributionTarget: 50, HasTarget: true, DistributionReal: 50}, 0},
		{"no target counts as zero", Position{DistributionReal: 10}, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.position.Delta(); got != tt.want {
				t.Errorf("Delta() = %v, want %v", got, tt.want)
			}
		})
	}
}
