package dividends

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const dateLayout = "2006-01-02"

// Common payment cadences in days. Real feeds rarely pay on exact
// schedules, so a median gap near a known cadence snaps to it before
// projecting forward.
const (
	intervalQuarterly  = 91
	intervalSemiAnnual = 182
	intervalAnnual     = 365
)

// projectionHorizonDays caps how far past the last known payment the
// projector extrapolates. A feed that went quiet stops producing events
// after one silent year instead of projecting forever.
const projectionHorizonDays = 365

// ProjectedDividend is a single extrapolated future payment.
type ProjectedDividend struct {
	Date   string
	Amount float64
}

// Cadence summarizes the spacing of a stock's historical payments.
type Cadence struct {
	IntervalDays    int     // snapped projection step
	MeanDays        float64 // mean gap between consecutive payments
	StdDevDays      float64 // sample standard deviation of the gaps, 0 with a single gap
	PaymentsPerYear int
}

// AnalyzeCadence derives the payment cadence from a feed sorted ascending
// by date. Returns false when fewer than two payments exist or a date is
// malformed.
func AnalyzeCadence(history []FeedRecord) (Cadence, bool) {
	dates, err := parseFeedDates(history)
	if err != nil {
		return Cadence{}, false
	}
	return cadenceOf(dates)
}

// Project extrapolates future payments from a feed sorted ascending by
// date, stepping the snapped interval forward from the last known payment.
// Each projected payment carries the last known per-share amount. Only
// dates inside [startDate, endDate], strictly after the last payment and
// not already present in the feed are returned. Feeds with fewer than two
// payments project nothing.
func Project(history []FeedRecord, startDate, endDate string) []ProjectedDividend {
	dates, err := parseFeedDates(history)
	if err != nil {
		return nil
	}
	cadence, ok := cadenceOf(dates)
	if !ok {
		return nil
	}

	startT, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil
	}
	endT, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil
	}

	known := make(map[string]bool, len(history))
	for _, rec := range history {
		known[rec.Date] = true
	}

	last := dates[len(dates)-1]
	amount := history[len(history)-1].Amount
	horizon := last.AddDate(0, 0, projectionHorizonDays)

	var projected []ProjectedDividend
	for next := last.AddDate(0, 0, cadence.IntervalDays); !next.After(endT) && !next.After(horizon); next = next.AddDate(0, 0, cadence.IntervalDays) {
		if next.Before(startT) || !next.After(last) {
			continue
		}
		date := next.Format(dateLayout)
		if known[date] {
			continue
		}
		projected = append(projected, ProjectedDividend{Date: date, Amount: amount})
	}

	return projected
}

func cadenceOf(dates []time.Time) (Cadence, bool) {
	if len(dates) < 2 {
		return Cadence{}, false
	}

	intervals := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		intervals = append(intervals, dates[i].Sub(dates[i-1]).Hours()/24)
	}

	step := snapInterval(median(intervals))
	if step <= 0 {
		return Cadence{}, false
	}

	cadence := Cadence{
		IntervalDays:    step,
		MeanDays:        stat.Mean(intervals, nil),
		PaymentsPerYear: int(math.Round(365 / float64(step))),
	}
	if len(intervals) > 1 {
		cadence.StdDevDays = stat.StdDev(intervals, nil)
	}

	return cadence, true
}

// snapInterval buckets a median payment gap to the nearest common cadence.
// Gaps outside every bucket are used as-is, rounded to whole days.
func snapInterval(medianDays float64) int {
	switch {
	case medianDays >= 80 && medianDays <= 100:
		return intervalQuarterly
	case medianDays >= 160 && medianDays <= 200:
		return intervalSemiAnnual
	case medianDays >= 330 && medianDays <= 400:
		return intervalAnnual
	default:
		return int(math.Round(medianDays))
	}
}

// median returns the middle value, averaging the two central values for
// even-length input.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func parseFeedDates(history []FeedRecord) ([]time.Time, error) {
	dates := make([]time.Time, len(history))
	for i, rec := range history {
		t, err := time.Parse(dateLayout, rec.Date)
		if err != nil {
			return nil, fmt.Errorf("bad feed date %q: %w", rec.Date, err)
		}
		dates[i] = t
	}
	return dates, nil
}
