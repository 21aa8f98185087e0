package models

import "github.com/shopspring/decimal"

// SecurityTransaction is one executed trade of a stock or bond.
// Value and Fee are signed from the account's point of view: money paid
// out is negative. AccruedInterest is zero for stocks.
type SecurityTransaction struct {
	TradeID         string
	Portfolio       string
	Timestamp       int64
	SecurityID      int64
	Count           int64
	Value           decimal.Decimal
	AccruedInterest decimal.Decimal
	Fee             decimal.Decimal
	ValueCurrency   string
	FeeCurrency     string
}

// DerivativeTransaction is one futures or option trade. The contract
// value may be expressed in quote points rather than money, so it keeps
// its own currency code distinct from the fee's.
type DerivativeTransaction struct {
	TradeID       string
	Portfolio     string
	Timestamp     int64
	SecurityID    int64
	Count         int64
	Value         decimal.Decimal
	Fee           decimal.Decimal
	ValueCurrency string
	FeeCurrency   string
}
