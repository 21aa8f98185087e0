// Package processors normalizes parsed broker records: currency
// conversion of trade fees and the exchange rate registry backing it.
package processors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/logger"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// ErrAmbiguousCurrency reports a trade whose fee legs cannot be folded
// into one currency. The trade is dropped; the rest of the report is
// unaffected.
var ErrAmbiguousCurrency = errors.New("ambiguous fee currency")

// materiality is the magnitude below which a fee leg is a rounding
// artifact, not a fee.
var materiality = decimal.NewFromFloat(0.01)

// RateProvider converts an amount between currencies at a given
// instant. It returns ErrRateUnknown when no rate is recorded for that
// currency pair and day.
type RateProvider interface {
	Convert(amount decimal.Decimal, from, to string, timestamp int64) (decimal.Decimal, error)
}

// FeeComponent is one fee leg of a trade in its own currency.
type FeeComponent struct {
	Amount   decimal.Decimal
	Currency string
}

// FeeInputs is a trade's gross value plus its fee legs as the report
// states them. Absent legs carry a zero amount. Brokers charge up to
// four separate fees per trade: their own commission, the exchange's,
// the clearing house's and a stamp duty.
type FeeInputs struct {
	Timestamp     int64
	Value         decimal.Decimal
	ValueCurrency string
	BrokerFee     FeeComponent
	MarketFee     FeeComponent
	ClearingFee   FeeComponent
	StampDuty     FeeComponent
}

// ReconciliationResult is the trade's money legs folded into at most
// two currencies: the value's and a single fee currency.
type ReconciliationResult struct {
	Value         decimal.Decimal
	ValueCurrency string
	Fee           decimal.Decimal
	FeeCurrency   string
}

// FeeReconciler folds a trade's fee legs into one target currency.
type FeeReconciler struct {
	rates RateProvider
}

func NewFeeReconciler(rates RateProvider) *FeeReconciler {
	return &FeeReconciler{rates: rates}
}

// Reconcile picks a target fee currency and converts every material fee
// leg into it. A leg whose rate is unknown is folded into the trade
// value when its currency matches the value's; otherwise the whole
// trade fails with ErrAmbiguousCurrency.
func (f *FeeReconciler) Reconcile(in FeeInputs) (ReconciliationResult, error) {
	valueCurrency := utils.NormalizeCurrency(in.ValueCurrency)
	components := []FeeComponent{in.BrokerFee, in.MarketFee, in.ClearingFee, in.StampDuty}
	present := components[:0]
	for _, c := range components {
		if c.Amount.Abs().LessThan(materiality) {
			continue
		}
		c.Currency = utils.NormalizeCurrency(c.Currency)
		present = append(present, c)
	}

	target, err := targetFeeCurrency(present, valueCurrency)
	if err != nil {
		return ReconciliationResult{}, err
	}

	result := ReconciliationResult{
		Value:         in.Value,
		ValueCurrency: valueCurrency,
		FeeCurrency:   target,
	}
	for _, c := range present {
		if c.Currency == target {
			result.Fee = result.Fee.Add(c.Amount)
			continue
		}
		converted, err := f.rates.Convert(c.Amount, c.Currency, target, in.Timestamp)
		if err == nil {
			result.Fee = result.Fee.Add(converted)
			continue
		}
		if !errors.Is(err, ErrRateUnknown) {
			return ReconciliationResult{}, err
		}
		if c.Currency == valueCurrency {
			// Total cash impact stays correct, attribution of this leg
			// to the fee is lost.
			result.Value = result.Value.Sub(c.Amount)
			logger.L.Warn("exchange rate unknown, fee folded into trade value",
				"amount", c.Amount.String(),
				"currency", c.Currency,
				"feeCurrency", target)
			continue
		}
		return ReconciliationResult{}, fmt.Errorf(
			"%w: no %s/%s exchange rate for fee leg of %s",
			ErrAmbiguousCurrency, c.Currency, target, c.Amount)
	}
	return result, nil
}

func targetFeeCurrency(present []FeeComponent, valueCurrency string) (string, error) {
	var distinct []string
next:
	for _, c := range present {
		for _, seen := range distinct {
			if seen == c.Currency {
				continue next
			}
		}
		distinct = append(distinct, c.Currency)
	}
	switch len(distinct) {
	case 0:
		return valueCurrency, nil
	case 1:
		return distinct[0], nil
	}
	var foreign []string
	for _, currency := range distinct {
		if currency != valueCurrency {
			foreign = append(foreign, currency)
		}
	}
	if len(foreign) == 1 {
		return foreign[0], nil
	}
	return "", fmt.Errorf(
		"%w: three or more currencies in one trade are not supported: value %s, fees %v",
		ErrAmbiguousCurrency, valueCurrency, distinct)
}
