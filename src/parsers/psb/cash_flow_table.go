package psb

import (
	"strings"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Deposits, withdrawals and account-level taxes.
const cashFlowTableName = "Внешнее движение денежных средств в валюте счета"

const (
	colCashFlowDate        table.Column = "date"
	colCashFlowOperation   table.Column = "operation"
	colCashFlowValue       table.Column = "value"
	colCashFlowCurrency    table.Column = "currency"
	colCashFlowDescription table.Column = "description"
)

var cashFlowHeader = table.Header{
	colCashFlowDate:        table.Keywords("дата"),
	colCashFlowOperation:   table.Keywords("операция"),
	colCashFlowValue:       table.Keywords("сумма"),
	colCashFlowCurrency:    table.Keywords("валюта счета"),
	colCashFlowDescription: table.Keywords("комментарий"),
}

func extractEventCashFlows(r *Report) table.Extraction[models.EventCashFlow] {
	t, err := table.New(r.page, r.fileName, cashFlowTableName, cashFlowHeader, 1)
	if err != nil {
		return table.Extraction[models.EventCashFlow]{Errors: []table.RowError{{
			Table: cashFlowTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.ExtractMerging(t,
		func(row *table.RowRecord) ([]models.EventCashFlow, error) {
			return parseEventCashFlow(r, row)
		},
		models.EventCashFlow.CheckEquality,
		func(old, new models.EventCashFlow) []models.EventCashFlow {
			return []models.EventCashFlow{old.MergeDuplicates(new)}
		})
}

func parseEventCashFlow(r *Report, row *table.RowRecord) ([]models.EventCashFlow, error) {
	operation, err := row.String(colCashFlowOperation)
	if err != nil {
		return nil, err
	}
	description := row.StringOr(colCashFlowDescription, "")

	flowType := models.CashFlowCash
	var positive bool
	switch strings.ToLower(strings.TrimSpace(operation)) {
	case "зачислено на счет":
		positive = true
	case "списано со счета":
		positive = false
	case "налог удержанный":
		positive = false
		flowType = models.CashFlowTax
	default:
		return nil, nil
	}
	if flowType == models.CashFlowCash && description != "" {
		// Described movements are internal transfers, not deposits.
		return nil, nil
	}

	date, err := row.String(colCashFlowDate)
	if err != nil {
		return nil, err
	}
	timestamp, err := utils.ParseReportDate(date)
	if err != nil {
		return nil, err
	}
	value, err := row.Decimal(colCashFlowValue)
	if err != nil {
		return nil, err
	}
	if !positive {
		value = value.Neg()
	}
	return []models.EventCashFlow{{
		Portfolio:   r.portfolio,
		Timestamp:   timestamp.Unix(),
		Type:        flowType,
		Value:       value,
		Currency:    utils.NormalizeCurrency(row.StringOr(colCashFlowCurrency, "RUB")),
		Description: description,
	}}, nil
}
