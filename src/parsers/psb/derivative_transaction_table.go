package psb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Futures and options trades. Every record is emitted twice: the money
// leg in RUB and the quote leg in exchange points, sharing one trade id.
const (
	derivativeTableName = "Информация о заключенных сделках"
	derivativeTableEnd  = "Итого"

	// Synthetic unit for derivative quote legs.
	pointCurrency = "PNT"
)

const (
	colDerivDateTime    table.Column = "dateTime"
	colDerivTradeID     table.Column = "tradeId"
	colDerivType        table.Column = "contractType"
	colDerivContract    table.Column = "contract"
	colDerivDirection   table.Column = "direction"
	colDerivCount       table.Column = "count"
	colDerivQuote       table.Column = "quote"
	colDerivValue       table.Column = "value"
	colDerivOptionQuote table.Column = "optionQuote"
	colDerivOptionPrice table.Column = "optionPrice"
	colDerivMarketFee   table.Column = "marketFee"
	colDerivBrokerFee   table.Column = "brokerFee"
)

var derivativeHeader = table.Header{
	colDerivDateTime:    table.Keywords("дата включения в клиринг"),
	colDerivTradeID:     table.Keywords("№"),
	colDerivType:        table.Keywords("вид контракта"),
	colDerivContract:    table.Keywords("контракт"),
	colDerivDirection:   table.Keywords("покупка", "продажа"),
	colDerivCount:       table.Keywords("кол-во"),
	colDerivQuote:       table.Keywords("цена фьючерсного контракта", "цена исполнения опциона", "пункты"),
	colDerivValue:       table.Keywords("сумма срочной сделки"),
	colDerivOptionQuote: table.Optional(table.Keywords("цена опциона", "пункты")),
	colDerivOptionPrice: table.Optional(table.Keywords("цена опциона", "руб")),
	colDerivMarketFee:   table.Keywords("комиссия торговой системы"),
	colDerivBrokerFee:   table.Keywords("комиссия брокера"),
}

func extractDerivativeTransactions(r *Report, registrar *parsers.SecurityRegistrar) table.Extraction[models.DerivativeTransaction] {
	t, err := table.NewWithFooter(r.page, r.fileName, derivativeTableName, derivativeTableEnd, derivativeHeader, 1)
	if err != nil {
		return table.Extraction[models.DerivativeTransaction]{Errors: []table.RowError{{
			Table: derivativeTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.Extract(t, func(row *table.RowRecord) ([]models.DerivativeTransaction, error) {
		return parseDerivativeTransaction(r, registrar, row)
	})
}

func parseDerivativeTransaction(r *Report, registrar *parsers.SecurityRegistrar, row *table.RowRecord) ([]models.DerivativeTransaction, error) {
	direction, err := row.String(colDerivDirection)
	if err != nil {
		return nil, err
	}
	isBuy := strings.EqualFold(strings.TrimSpace(direction), "покупка")
	count, err := row.Long(colDerivCount)
	if err != nil {
		return nil, err
	}
	contractType, err := row.String(colDerivType)
	if err != nil {
		return nil, err
	}

	var value, valueInPoints decimal.Decimal
	countDec := decimal.NewFromInt(count)
	switch strings.ToLower(strings.TrimSpace(contractType)) {
	case "опцион":
		price, err := row.Decimal(colDerivOptionPrice)
		if err != nil {
			return nil, err
		}
		quote, err := row.Decimal(colDerivOptionQuote)
		if err != nil {
			return nil, err
		}
		value = price.Mul(countDec)
		valueInPoints = quote.Mul(countDec)
	case "фьючерс":
		if value, err = row.Decimal(colDerivValue); err != nil {
			return nil, err
		}
		quote, err := row.Decimal(colDerivQuote)
		if err != nil {
			return nil, err
		}
		valueInPoints = quote.Mul(countDec)
	default:
		return nil, fmt.Errorf("unknown contract type %q", contractType)
	}
	if isBuy {
		value = value.Neg()
		valueInPoints = valueInPoints.Neg()
	}

	fee := row.DecimalOr(colDerivMarketFee, decimal.Zero).
		Add(row.DecimalOr(colDerivBrokerFee, decimal.Zero)).
		Neg()

	contract, err := row.String(colDerivContract)
	if err != nil {
		return nil, err
	}
	securityID, err := registrar.DeclareDerivative(contract)
	if err != nil {
		return nil, err
	}
	dateTime, err := row.String(colDerivDateTime)
	if err != nil {
		return nil, err
	}
	timestamp, err := utils.ParseReportDate(dateTime)
	if err != nil {
		return nil, err
	}
	tradeIDNum, err := row.Long(colDerivTradeID)
	if err != nil {
		return nil, err
	}

	sign := int64(1)
	if !isBuy {
		sign = -1
	}
	base := models.DerivativeTransaction{
		TradeID:     strconv.FormatInt(tradeIDNum, 10),
		Portfolio:   r.portfolio,
		Timestamp:   timestamp.Unix(),
		SecurityID:  securityID,
		Count:       sign * count,
		FeeCurrency: "RUB", // FORTS settles fees in RUB only
	}
	moneyLeg := base
	moneyLeg.Value = value
	moneyLeg.ValueCurrency = "RUB"
	moneyLeg.Fee = fee
	pointLeg := base
	pointLeg.Value = valueInPoints
	pointLeg.ValueCurrency = pointCurrency
	return []models.DerivativeTransaction{moneyLeg, pointLeg}, nil
}
