// Package universe manages the catalog of tracked stocks and their
// market data refresh cycle.
package universe

// Stock is one instrument tracked by the application. Price and the
// dividend fields are refreshed from the market data provider; the
// descriptive fields change rarely.
type Stock struct {
	StockID        int64   `json:"stockid"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	MarketCap      float64 `json:"market_cap"`
	Sector         string  `json:"sector"`
	Industry       string  `json:"industry"`
	Country        string  `json:"country"`
	Dividend       float64 `json:"dividend"` // annual dividend per share
	DividendYield  float64 `json:"dividend_yield"`
	LogoURL        string  `json:"logo_url"`
	QuoteType      string  `json:"quote_type"`
	ExDividendDate string  `json:"ex_dividend_date,omitempty"`
}
