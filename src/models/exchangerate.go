package models

import "github.com/shopspring/decimal"

// ForeignExchangeRate is one official currency rate: one unit of
// BaseCurrency costs Rate units of QuoteCurrency on Date.
type ForeignExchangeRate struct {
	Date          string // yyyy-MM-dd
	BaseCurrency  string
	QuoteCurrency string
	Rate          decimal.Decimal
}
