package historical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndicators(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "sma20", []string{"sma20"}, false},
		{"multiple with spaces", " sma20 , EMA50 ,rsi14", []string{"sma20", "ema50", "rsi14"}, false},
		{"skips empty parts", "sma20,,ema50", []string{"sma20", "ema50"}, false},
		{"unknown family", "macd12", nil, true},
		{"missing period", "sma", nil, true},
		{"period too small", "sma1", nil, true},
		{"garbage", "20sma", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIndicators(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeIndicatorsSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	overlays, err := ComputeIndicators(closes, []string{"sma3"})
	require.NoError(t, err)
	require.Contains(t, overlays, "sma3")

	sma := overlays["sma3"]
	require.Len(t, sma, len(closes))
	// Warm-up entries are zero, then each value averages the last 3 closes.
	assert.Equal(t, 0.0, sma[0])
	assert.Equal(t, 0.0, sma[1])
	assert.InDelta(t, 2.0, sma[2], 0.001)
	assert.InDelta(t, 3.0, sma[3], 0.001)
	assert.InDelta(t, 4.0, sma[4], 0.001)
}

func TestComputeIndicatorsTooFewBars(t *testing.T) {
	closes := []float64{1, 2, 3}

	overlays, err := ComputeIndicators(closes, []string{"sma20"})
	require.NoError(t, err)
	require.Contains(t, overlays, "sma20")
	// Aligned with the input, all warm-up.
	assert.Equal(t, make([]float64, 3), overlays["sma20"])
}

func TestComputeIndicatorsRSIRange(t *testing.T) {
	closes := []float64{
		44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1,
		46.0, 46.4, 46.2, 45.6, 46.3, 46.3, 46.0, 46.4, 46.2, 45.7,
	}

	overlays, err := ComputeIndicators(closes, []string{"rsi14"})
	require.NoError(t, err)
	rsi := overlays["rsi14"]
	require.Len(t, rsi, len(closes))

	for _, v := range rsi[14:] {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 100.0)
	}
}

func TestComputeIndicatorsNoSpecs(t *testing.T) {
	overlays, err := ComputeIndicators([]float64{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.Nil(t, overlays)
}

func TestComputeIndicatorsBadSpec(t *testing.T) {
	_, err := ComputeIndicators([]float64{1, 2, 3}, []string{"bogus9"})
	assert.Error(t, err)
}
