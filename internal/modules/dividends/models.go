// Package dividends reports dividend income for the portfolio: realized
// totals, per-stock breakdowns, payment-cadence analysis and a calendar
// that merges recorded payments with projected future ones.
package dividends

// Calendar event types.
const (
	EventTypeHistorical = "historical"
	EventTypeProjected  = "projected"
)

// FeedRecord is one raw provider dividend row (per-share amount on an
// ex-dividend date) as stored in the dividends table.
type FeedRecord struct {
	StockID int64   `json:"stockid"`
	Date    string  `json:"date"`
	Amount  float64 `json:"amount"`
}

// StockDividend is the per-stock dividend income line used by the summary
// and breakdown endpoints. The cadence fields are only present when the
// stock has enough feed history to derive a payment rhythm.
type StockDividend struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Quantity         int64    `json:"quantity"`
	DividendRate     float64  `json:"dividend_rate"`
	TotalDividend    float64  `json:"total_dividend"`
	ExpectedDate     string   `json:"expected_date,omitempty"`
	PaymentsPerYear  int      `json:"payments_per_year,omitempty"`
	IntervalMeanDays *float64 `json:"interval_mean_days,omitempty"`
	IntervalStdDays  *float64 `json:"interval_stddev_days,omitempty"`
}

// Summary is the response payload for the dividend summary endpoint.
type Summary struct {
	TotalDividend          float64        `json:"total_dividend"`
	YearToDateDividend     float64        `json:"year_to_date_dividend"`
	YearlyForecastDividend float64        `json:"yearly_forecast_dividend"`
	NextDividend           *StockDividend `json:"next_dividend"`
	Currency               string         `json:"currency"`
}

// Breakdown is the response payload for the per-stock breakdown endpoint.
type Breakdown struct {
	Dividends           []StockDividend `json:"dividends"`
	TotalYearlyDividend float64         `json:"total_yearly_dividend"`
	Currency            string          `json:"currency"`
}

// CalendarEvent is a single dividend payment on the calendar, either
// recorded (historical) or extrapolated from cadence (projected).
type CalendarEvent struct {
	Date           string  `json:"date"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	AmountPerShare float64 `json:"amount_per_share"`
	TotalAmount    float64 `json:"total_amount"`
	Type           string  `json:"type"`
}

// Calendar is the response payload for the calendar endpoint. Events are
// sorted ascending by date.
type Calendar struct {
	Events          []CalendarEvent `json:"events"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	TotalHistorical float64         `json:"total_historical"`
	TotalProjected  float64         `json:"total_projected"`
}
