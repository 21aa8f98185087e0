// Package models holds the domain records produced by broker report
// parsing and persisted by the database layer.
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SecurityType classifies a financial instrument.
type SecurityType int

const (
	TypeUnspecified SecurityType = iota
	TypeStock
	TypeBond
	TypeStockOrBond
	TypeAsset
	TypeDerivative
	TypeCurrencyPair
)

func (t SecurityType) String() string {
	switch t {
	case TypeStock:
		return "stock"
	case TypeBond:
		return "bond"
	case TypeStockOrBond:
		return "stock_or_bond"
	case TypeAsset:
		return "asset"
	case TypeDerivative:
		return "derivative"
	case TypeCurrencyPair:
		return "currency_pair"
	default:
		return "unspecified"
	}
}

// Security is one instrument identified by any of ISIN, ticker or name.
// Which keys are present depends on the instrument type and the broker.
type Security struct {
	ID     int64
	ISIN   string
	Ticker string
	Name   string
	Type   SecurityType
}

// Validate requires at least one identifying key. A security with no
// key at all can never be matched against later report rows.
func (s Security) Validate() error {
	if s.ISIN == "" && s.Ticker == "" && s.Name == "" {
		return fmt.Errorf("security of type %s has no isin, ticker or name", s.Type)
	}
	return nil
}

// SecurityQuote is an instrument's end-of-period valuation. Price and
// AccruedInterest are nil when the quote already is the clean money
// price, as for stocks quoted in currency rather than percent.
type SecurityQuote struct {
	SecurityID      int64
	Timestamp       int64
	Quote           decimal.Decimal
	Price           *decimal.Decimal
	AccruedInterest *decimal.Decimal
	Currency        string
}
