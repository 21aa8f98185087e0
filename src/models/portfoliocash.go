package models

import "github.com/shopspring/decimal"

// PortfolioCash is the free money on one market section of the account
// at the report's end date.
type PortfolioCash struct {
	Portfolio string
	Timestamp int64
	Market    string
	Value     decimal.Decimal
	Currency  string
}

// PortfolioProperty is one named account-level indicator, such as the
// total assets estimate at the report's end date.
type PortfolioProperty struct {
	Portfolio string
	Timestamp int64
	Property  string
	Value     string
}

// Property names stored for an account.
const (
	PropertyTotalAssetsRUB = "TOTAL_ASSETS_RUB"
	PropertyTotalAssetsUSD = "TOTAL_ASSETS_USD"
)
