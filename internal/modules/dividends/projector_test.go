package dividends

import (
	"testing"
	"time"
)

func feed(pairs ...interface{}) []FeedRecord {
	records := make([]FeedRecord, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		records = append(records, FeedRecord{
			Date:   pairs[i].(string),
			Amount: pairs[i+1].(float64),
		})
	}
	return records
}

func TestProjectQuarterlyHistory(t *testing.T) {
	history := feed(
		"2023-01-15", 0.5,
		"2023-04-15", 0.5,
		"2023-07-15", 0.52,
		"2023-10-15", 0.52,
	)

	projected := Project(history, "2024-01-01", "2024-12-31")

	if len(projected) != 4 {
		t.Fatalf("expected 4 projected payments, got %d: %+v", len(projected), projected)
	}

	// Every payment carries the last known amount, spaced 91 days apart
	// from the last historical date.
	prev, _ := time.Parse(dateLayout, "2023-10-15")
	for i, p := range projected {
		if p.Amount != 0.52 {
			t.Errorf("payment %d: amount = %v, want 0.52", i, p.Amount)
		}
		d, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			t.Fatalf("payment %d: bad date %q", i, p.Date)
		}
		gap := d.Sub(prev).Hours() / 24
		if gap != 91 {
			t.Errorf("payment %d: gap = %v days, want 91", i, gap)
		}
		prev = d
	}

	if projected[0].Date != "2024-01-14" {
		t.Errorf("first projected date = %s, want 2024-01-14", projected[0].Date)
	}
}

func TestProjectTooFewRecords(t *testing.T) {
	tests := []struct {
		name    string
		history []FeedRecord
	}{
		{"no history", nil},
		{"single payment", feed("2023-06-01", 1.2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Project(tt.history, "2023-01-01", "2025-12-31"); len(got) != 0 {
				t.Errorf("expected no projections, got %+v", got)
			}
		})
	}
}

func TestProjectHorizonCap(t *testing.T) {
	history := feed(
		"2023-01-15", 0.5,
		"2023-04-15", 0.5,
		"2023-07-15", 0.52,
		"2023-10-15", 0.52,
	)

	// A far end date must not extend projections past one year after the
	// last historical payment (2024-10-14).
	projected := Project(history, "2024-01-01", "2030-12-31")

	if len(projected) != 4 {
		t.Fatalf("expected 4 projected payments under the one-year cap, got %d", len(projected))
	}
	last := projected[len(projected)-1].Date
	if last > "2024-10-14" {
		t.Errorf("last projected date %s exceeds the one-year horizon", last)
	}
}

func TestProjectRespectsStartDate(t *testing.T) {
	history := feed(
		"2023-01-15", 0.5,
		"2023-04-15", 0.5,
		"2023-07-15", 0.52,
		"2023-10-15", 0.52,
	)

	projected := Project(history, "2024-06-01", "2024-12-31")

	for _, p := range projected {
		if p.Date < "2024-06-01" {
			t.Errorf("projected date %s is before the requested start", p.Date)
		}
	}
	if len(projected) != 2 {
		t.Errorf("expected 2 projections from June on, got %+v", projected)
	}
}

func TestProjectSemiAnnualCadence(t *testing.T) {
	history := feed(
		"2022-05-10", 1.0,
		"2022-11-08", 1.0,
		"2023-05-09", 1.1,
	)

	projected := Project(history, "2023-05-10", "2024-05-09")

	if len(projected) != 2 {
		t.Fatalf("expected 2 semi-annual projections, got %+v", projected)
	}
	// 2023-05-09 + 182 days
	if projected[0].Date != "2023-11-07" {
		t.Errorf("first projected date = %s, want 2023-11-07", projected[0].Date)
	}
	if projected[0].Amount != 1.1 {
		t.Errorf("projected amount = %v, want the last known 1.1", projected[0].Amount)
	}
}

func TestProjectIrregularCadenceUsesMedian(t *testing.T) {
	// Monthly-ish gaps fall outside every common bucket; the rounded
	// median (30 days) is used as-is.
	history := feed(
		"2024-01-01", 0.1,
		"2024-01-31", 0.1,
		"2024-03-01", 0.1,
		"2024-03-31", 0.1,
	)

	projected := Project(history, "2024-04-01", "2024-06-30")

	want := []string{"2024-04-30", "2024-05-30", "2024-06-29"}
	if len(projected) != len(want) {
		t.Fatalf("expected %d projections, got %+v", len(want), projected)
	}
	for i, p := range projected {
		if p.Date != want[i] {
			t.Errorf("projection %d: date = %s, want %s", i, p.Date, want[i])
		}
	}
}

func TestProjectMalformedDates(t *testing.T) {
	history := feed(
		"2023-01-15", 0.5,
		"15/04/2023", 0.5,
	)

	if got := Project(history, "2023-01-01", "2024-12-31"); got != nil {
		t.Errorf("expected nil for malformed history, got %+v", got)
	}
}

func TestAnalyzeCadence(t *testing.T) {
	tests := []struct {
		name         string
		history      []FeedRecord
		wantOK       bool
		wantInterval int
		wantPerYear  int
	}{
		{
			name: "quarterly",
			history: feed(
				"2023-01-15", 0.5,
				"2023-04-15", 0.5,
				"2023-07-15", 0.52,
				"2023-10-15", 0.52,
			),
			wantOK:       true,
			wantInterval: 91,
			wantPerYear:  4,
		},
		{
			name: "annual",
			history: feed(
				"2021-06-01", 2.0,
				"2022-06-02", 2.1,
				"2023-06-01", 2.2,
			),
			wantOK:       true,
			wantInterval: 365,
			wantPerYear:  1,
		},
		{
			name:    "single record",
			history: feed("2023-06-01", 1.0),
			wantOK:  false,
		},
		{
			name:    "empty",
			history: nil,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cadence, ok := AnalyzeCadence(tt.history)
			if ok != tt.wantOK {
				t.Fatalf("AnalyzeCadence ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if cadence.IntervalDays != tt.wantInterval {
				t.Errorf("IntervalDays = %d, want %d", cadence.IntervalDays, tt.wantInterval)
			}
			if cadence.PaymentsPerYear != tt.wantPerYear {
				t.Errorf("PaymentsPerYear = %d, want %d", cadence.PaymentsPerYear, tt.wantPerYear)
			}
		})
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd length", []float64{90, 91, 92}, 91},
		{"even length averages middle pair", []float64{89, 91, 93, 95}, 92},
		{"single value", []float64{182}, 182},
		{"unsorted input", []float64{92, 90, 91}, 91},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.values); got != tt.want {
				t.Errorf("median(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
