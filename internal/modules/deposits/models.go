// Package deposits tracks cash put into the portfolio.
package deposits

// Deposit is one recorded cash deposit.
type Deposit struct {
	DepositID   int64   `json:"depositid"`
	Amount      float64 `json:"amount"`
	Datestamp   string  `json:"datestamp"`
	PortfolioID int64   `json:"portfolioid"`
}
