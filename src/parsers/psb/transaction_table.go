package psb

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/processors"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Stock and bond trades appear in two tables with identical schemas:
// same-day settlement and T+ settlement.
const (
	transactionTable1Name = "Сделки, совершенные с ЦБ на биржевых торговых площадках (Фондовый рынок) с расчетами в дату заключения"
	transactionTable2Name = "Сделки, совершенные с ЦБ на биржевых торговых площадках (Фондовый рынок) с расчетами Т+, рассчитанные в отчетном периоде"
	transactionTableEnd   = "Итого оборот"
)

const (
	colTradeDateTime      table.Column = "dateTime"
	colTradeID            table.Column = "tradeId"
	colTradeISIN          table.Column = "isin"
	colTradeDirection     table.Column = "direction"
	colTradeCount         table.Column = "count"
	colTradeValue         table.Column = "value"
	colTradeValueCurrency table.Column = "valueCurrency"
	colTradeAccrued       table.Column = "accruedInterest"
	colTradeMarketFee     table.Column = "marketFee"
	colTradeClearingFee   table.Column = "clearingFee"
	colTradeItsFee        table.Column = "itsFee"
	colTradeBrokerFee     table.Column = "brokerFee"
	colTradeFeeCurrency   table.Column = "feeCurrency"
)

var transactionHeader = table.Header{
	colTradeDateTime: table.AnyOf(
		table.Keywords("дата", "исполнения"),
		table.Keywords("дата и время")),
	colTradeID:            table.Keywords("номер сделки"),
	colTradeISIN:          table.Keywords("isin"),
	colTradeDirection:     table.Keywords("покупка", "продажа"),
	colTradeCount:         table.Keywords("кол-во"),
	colTradeValue:         table.Keywords("сумма сделки"),
	colTradeValueCurrency: table.Keywords("валюта сделки"),
	colTradeAccrued:       table.Keywords("^нкд$"),
	colTradeMarketFee:     table.Keywords("комиссия торговой системы"),
	colTradeClearingFee:   table.Keywords("клиринговая комиссия"),
	colTradeItsFee:        table.Keywords("комиссия за итс"),
	colTradeBrokerFee:     table.Keywords("ком", "брокера"),
	colTradeFeeCurrency:   table.Keywords("валюта", "брок", "комиссии"),
}

var accruedEpsilon = decimal.NewFromFloat(0.01)

func extractSecurityTransactions(r *Report, registrar *parsers.SecurityRegistrar, reconciler *processors.FeeReconciler) table.Extraction[models.SecurityTransaction] {
	var out table.Extraction[models.SecurityTransaction]
	for _, tableName := range []string{transactionTable1Name, transactionTable2Name} {
		t, err := table.NewWithFooter(r.page, r.fileName, tableName, transactionTableEnd, transactionHeader, 1)
		if err != nil {
			out.Errors = append(out.Errors, table.RowError{Table: tableName, File: r.fileName, Err: err})
			continue
		}
		part := table.Extract(t, func(row *table.RowRecord) ([]models.SecurityTransaction, error) {
			return parseSecurityTransaction(r, registrar, reconciler, row)
		})
		out.Records = append(out.Records, part.Records...)
		out.Errors = append(out.Errors, part.Errors...)
	}
	return out
}

func parseSecurityTransaction(r *Report, registrar *parsers.SecurityRegistrar, reconciler *processors.FeeReconciler, row *table.RowRecord) ([]models.SecurityTransaction, error) {
	direction, err := row.String(colTradeDirection)
	if err != nil {
		return nil, err
	}
	isBuy := strings.EqualFold(strings.TrimSpace(direction), "покупка")

	isin, err := row.String(colTradeISIN)
	if err != nil {
		return nil, err
	}
	securityID, err := registrar.DeclareByISIN(isin, func() models.Security {
		return models.Security{ISIN: isin, Type: models.TypeStockOrBond}
	})
	if err != nil {
		return nil, err
	}

	dateTime, err := row.String(colTradeDateTime)
	if err != nil {
		return nil, err
	}
	timestamp, err := utils.ParseReportDate(dateTime)
	if err != nil {
		return nil, err
	}
	// Trade numbers sit in numeric cells; normalize through int64 so a
	// float-formatted cell does not leak a fraction into the id.
	tradeIDNum, err := row.Long(colTradeID)
	if err != nil {
		return nil, err
	}
	tradeID := strconv.FormatInt(tradeIDNum, 10)
	count, err := row.Long(colTradeCount)
	if err != nil {
		return nil, err
	}
	value, err := row.Decimal(colTradeValue)
	if err != nil {
		return nil, err
	}
	accrued := row.DecimalOr(colTradeAccrued, decimal.Zero)
	if isBuy {
		value = value.Neg()
		accrued = accrued.Neg()
	}
	if accrued.Abs().LessThan(accruedEpsilon) {
		accrued = decimal.Zero
	}

	// The trade currency cell reads like "РУБ/RUB"; the ISO code is the
	// second half.
	valueCurrencyCell, err := row.String(colTradeValueCurrency)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(strings.ReplaceAll(valueCurrencyCell, " ", ""), "/")
	valueCurrency := parts[len(parts)-1]
	feeCurrency := row.StringOr(colTradeFeeCurrency, valueCurrency)

	reconciled, err := reconciler.Reconcile(processors.FeeInputs{
		Timestamp:     timestamp.Unix(),
		Value:         value,
		ValueCurrency: valueCurrency,
		BrokerFee:     processors.FeeComponent{Amount: row.DecimalOr(colTradeBrokerFee, decimal.Zero), Currency: feeCurrency},
		MarketFee:     processors.FeeComponent{Amount: row.DecimalOr(colTradeMarketFee, decimal.Zero), Currency: valueCurrency},
		ClearingFee:   processors.FeeComponent{Amount: row.DecimalOr(colTradeClearingFee, decimal.Zero), Currency: valueCurrency},
		StampDuty:     processors.FeeComponent{Amount: row.DecimalOr(colTradeItsFee, decimal.Zero), Currency: valueCurrency},
	})
	if err != nil {
		return nil, err
	}

	sign := int64(1)
	if !isBuy {
		sign = -1
	}
	return []models.SecurityTransaction{{
		TradeID:         tradeID,
		Portfolio:       r.portfolio,
		Timestamp:       timestamp.Unix(),
		SecurityID:      securityID,
		Count:           sign * count,
		Value:           reconciled.Value,
		AccruedInterest: accrued,
		Fee:             reconciled.Fee.Neg(),
		ValueCurrency:   reconciled.ValueCurrency,
		FeeCurrency:     reconciled.FeeCurrency,
	}}, nil
}
