// Package transactions keeps the buy/sell/dividend ledger and applies its
// position side effects: buys and sells move the held quantity and average
// cost basis, dividend rows are record-only.
package transactions

// Transaction types.
const (
	TypeBuy      = "buy"
	TypeSell     = "sell"
	TypeDividend = "dividend"
)

// Transaction is one ledger row joined with its stock.
type Transaction struct {
	TransactionID int64   `json:"transactionid"`
	StockID       int64   `json:"stockid"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Quantity      int64   `json:"quantity"`
	Price         float64 `json:"price"`
	Type          string  `json:"type"`
	Datestamp     string  `json:"datestamp"`
}

// DividendPayment is a dividend-type transaction joined with its stock,
// consumed by the dividend calendar. Amount is the per-share amount
// recorded on the transaction.
type DividendPayment struct {
	StockID  int64
	Symbol   string
	Name     string
	Date     string
	Amount   float64
	Quantity int64
}

// SymbolSummary aggregates a symbol's ledger activity.
type SymbolSummary struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	TransactionCount int64   `json:"transaction_count"`
	TotalBought      int64   `json:"total_bought"`
	TotalSold        int64   `json:"total_sold"`
	TotalInvested    float64 `json:"total_invested"`
	TotalDivested    float64 `json:"total_divested"`
	NetShares        int64   `json:"net_shares"`
	NetInvestment    float64 `json:"net_investment"`
}

// ValidType reports whether t is a known transaction type.
func ValidType(t string) bool {
	return t == TypeBuy || t == TypeSell || t == TypeDividend
}
