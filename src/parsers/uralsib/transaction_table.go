package uralsib

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

// Exchange trades table. The two fee columns sit under nested two-row
// headers, and the broker commission amount has no header text of its
// own, only its currency neighbor does.
const transactionTableName = "Биржевые сделки с ценными бумагами в отчетном периоде"

const transactionHeaderRows = 2

const (
	colTradeID            table.Column = "tradeID"
	colTradeDateTime      table.Column = "dateTime"
	colTradeISIN          table.Column = "isin"
	colTradeDirection     table.Column = "direction"
	colTradeCount         table.Column = "count"
	colTradeValue         table.Column = "value"
	colTradeAccrued       table.Column = "accruedInterest"
	colTradeValueCurrency table.Column = "valueCurrency"
	colTradeMarketFee     table.Column = "marketFee"
	colTradeMarketFeeCcy  table.Column = "marketFeeCurrency"
	colTradeBrokerFee     table.Column = "brokerFee"
	colTradeBrokerFeeCcy  table.Column = "brokerFeeCurrency"
)

var brokerFeeCurrencyColumn = table.MultiLine(
	table.Keywords("комиссия брокера"),
	table.Keywords("валюта списания"))

var transactionHeader = table.Header{
	colTradeID:            table.Keywords("номер", "сделки"),
	colTradeDateTime:      table.Keywords("дата", "сделки"),
	colTradeISIN:          table.Keywords("isin"),
	colTradeDirection:     table.Keywords("вид", "сделки"),
	colTradeCount:         table.Keywords("количество", "цб"),
	colTradeValue:         table.Keywords("сумма сделки"),
	colTradeAccrued:       table.Keywords("^нкд$"),
	colTradeValueCurrency: table.Keywords("валюта", "суммы"),
	colTradeMarketFee: table.MultiLine(
		table.Keywords("комиссия тс"),
		table.Keywords("всего")),
	colTradeMarketFeeCcy: table.MultiLine(
		table.Keywords("комиссия тс"),
		table.Keywords("валюта списания")),
	colTradeBrokerFeeCcy: brokerFeeCurrencyColumn,
	colTradeBrokerFee:    table.RelativeTo(brokerFeeCurrencyColumn, -1),
}

var amountEpsilon = decimal.NewFromFloat(0.01)

func extractSecurityTransactions(r *Report, registrar *parsers.SecurityRegistrar, reconciler *processors.FeeReconciler) table.Extraction[models.SecurityTransaction] {
	t, err := table.New(r.page, r.fileName, transactionTableName, transactionHeader, transactionHeaderRows)
	if err != nil {
		return table.Extraction[models.SecurityTransaction]{Errors: []table.RowError{{
			Table: transactionTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.Extract(t, func(row *table.RowRecord) ([]models.SecurityTransaction, error) {
		return parseSecurityTransaction(r, registrar, reconciler, row)
	})
}

func parseSecurityTransaction(r *Report, registrar *parsers.SecurityRegistrar, reconciler *processors.FeeReconciler, row *table.RowRecord) ([]models.SecurityTransaction, error) {
	// The sheet repeats section headers and page breaks inside the
	// table; rows without a numeric trade number are not trades.
	tradeID, err := row.Long(colTradeID)
	if err != nil {
		return nil, nil
	}
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
	direction, err := row.String(colTradeDirection)
	if err != nil {
		return nil, err
	}
	buy := strings.HasPrefix(strings.ToLower(strings.TrimSpace(direction)), "покупка")
	count, err := row.Long(colTradeCount)
	if err != nil {
		return nil, err
	}
	value, err := row.Decimal(colTradeValue)
	if err != nil {
		return nil, err
	}
	accrued := row.DecimalOr(colTradeAccrued, decimal.Zero)
	if buy {
		value = value.Neg()
		accrued = accrued.Neg()
	} else {
		count = -count
	}
	if accrued.Abs().LessThan(amountEpsilon) {
		accrued = decimal.Zero
	}

	valueCurrency := utils.NormalizeCurrency(row.StringOr(colTradeValueCurrency, "RUB"))
	marketFee := row.DecimalOr(colTradeMarketFee, decimal.Zero)
	brokerFee := row.DecimalOr(colTradeBrokerFee, decimal.Zero)
	reconciled, err := reconciler.Reconcile(processors.FeeInputs{
		Timestamp:     timestamp.Unix(),
		Value:         value,
		ValueCurrency: valueCurrency,
		// A sub-materiality fee may carry a blank currency cell; the
		// trade currency stands in, the reconciler drops the leg anyway.
		MarketFee: processors.FeeComponent{
			Amount:   marketFee,
			Currency: row.StringOr(colTradeMarketFeeCcy, valueCurrency),
		},
		BrokerFee: processors.FeeComponent{
			Amount:   brokerFee,
			Currency: row.StringOr(colTradeBrokerFeeCcy, valueCurrency),
		},
	})
	if err != nil {
		return nil, err
	}

	return []models.SecurityTransaction{{
		TradeID:         strconv.FormatInt(tradeID, 10),
		Portfolio:       r.portfolio,
		Timestamp:       timestamp.Unix(),
		SecurityID:      securityID,
		Count:           count,
		Value:           reconciled.Value,
		AccruedInterest: accrued,
		Fee:             reconciled.Fee.Neg(),
		ValueCurrency:   reconciled.ValueCurrency,
		FeeCurrency:     reconciled.FeeCurrency,
	}}, nil
}
