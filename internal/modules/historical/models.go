// Package historical stores per-symbol daily price series and the recorded
// portfolio value over time. The data lives in history.db, separate from
// the live portfolio database, because it grows without bound and is only
// ever appended to.
package historical

// ClosePoint is one closing price on a date.
type ClosePoint struct {
	Datestamp  string  `json:"datestamp"`
	ClosePrice float64 `json:"closeprice"`
}

// ValuePoint is one recorded portfolio value on a date.
type ValuePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// DailyBar is one stored OHLCV bar.
type DailyBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume *int64  `json:"volume,omitempty"`
}

// Series is a daily bar series with optional indicator overlays, keyed by
// the requested spec (for example "sma20"). Overlay slices align with Data;
// warm-up entries before an indicator has enough bars are zero.
type Series struct {
	Symbol     string               `json:"symbol"`
	Days       int                  `json:"days"`
	Data       []DailyBar           `json:"data"`
	Indicators map[string][]float64 `json:"indicators,omitempty"`
}
