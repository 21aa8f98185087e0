package models

import "github.com/shopspring/decimal"

// CashFlowType classifies a money movement on the account.
type CashFlowType int

const (
	CashFlowCash CashFlowType = iota
	CashFlowTax
	CashFlowCommission
	CashFlowDividend
	CashFlowCoupon
	CashFlowAmortization
	CashFlowRedemption
	CashFlowDerivativeProfit
)

func (t CashFlowType) String() string {
	switch t {
	case CashFlowCash:
		return "cash"
	case CashFlowTax:
		return "tax"
	case CashFlowCommission:
		return "commission"
	case CashFlowDividend:
		return "dividend"
	case CashFlowCoupon:
		return "coupon"
	case CashFlowAmortization:
		return "amortization"
	case CashFlowRedemption:
		return "redemption"
	case CashFlowDerivativeProfit:
		return "derivative_profit"
	default:
		return "unknown"
	}
}

// EventCashFlow is a money movement not tied to a security: deposits,
// withdrawals, account-level fees and taxes.
type EventCashFlow struct {
	Portfolio   string
	Timestamp   int64
	Type        CashFlowType
	Value       decimal.Decimal
	Currency    string
	Description string
}

// CheckEquality reports whether two events describe the same movement.
// Descriptions are free text that brokers reword between report
// versions, so they do not participate.
func (e EventCashFlow) CheckEquality(other EventCashFlow) bool {
	return e.Portfolio == other.Portfolio &&
		e.Timestamp == other.Timestamp &&
		e.Type == other.Type &&
		e.Value.Equal(other.Value) &&
		e.Currency == other.Currency
}

// MergeDuplicates folds an equal event into this one, keeping both
// descriptions.
func (e EventCashFlow) MergeDuplicates(other EventCashFlow) EventCashFlow {
	merged := e
	switch {
	case merged.Description == "":
		merged.Description = other.Description
	case other.Description != "" && other.Description != merged.Description:
		merged.Description = merged.Description + "; " + other.Description
	}
	return merged
}

// SecurityEventCashFlow is a money movement attributable to a held
// security: dividends, coupons, amortizations, redemptions and the
// taxes withheld from them.
type SecurityEventCashFlow struct {
	Portfolio  string
	Timestamp  int64
	Type       CashFlowType
	SecurityID int64
	Count      int64
	Value      decimal.Decimal
	Currency   string
}

// CheckEquality reports whether two flows describe the same payment,
// value aside. Brokers split one payment across report rows, so equal
// flows are summed rather than dropped.
func (e SecurityEventCashFlow) CheckEquality(other SecurityEventCashFlow) bool {
	return e.Portfolio == other.Portfolio &&
		e.Timestamp == other.Timestamp &&
		e.Type == other.Type &&
		e.SecurityID == other.SecurityID &&
		e.Count == other.Count &&
		e.Currency == other.Currency
}

// MergeDuplicates sums the values of two equal flows.
func (e SecurityEventCashFlow) MergeDuplicates(other SecurityEventCashFlow) SecurityEventCashFlow {
	merged := e
	merged.Value = e.Value.Add(other.Value)
	return merged
}
