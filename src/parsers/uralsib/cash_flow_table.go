package uralsib

import (
	"regexp"
	"strings"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Money movements table. Security payments land in the same table and
// are handled separately by the payments extraction.
const cashFlowTableName = "ДВИЖЕНИЕ ДЕНЕЖНЫХ СРЕДСТВ ЗА ОТЧЕТНЫЙ ПЕРИОД"

const (
	colFlowDate        table.Column = "date"
	colFlowOperation   table.Column = "operation"
	colFlowValue       table.Column = "value"
	colFlowCurrency    table.Column = "currency"
	colFlowDescription table.Column = "description"
)

var cashFlowHeader = table.Header{
	colFlowDate:        table.Keywords("дата"),
	colFlowOperation:   table.Keywords("тип", "операции"),
	colFlowValue:       table.Keywords("сумма"),
	colFlowCurrency:    table.Keywords("валюта"),
	colFlowDescription: table.Optional(table.Keywords("комментарий")),
}

// Transfer descriptions name the counterpart account after a
// preposition and a word like "счет": "... на счет NNN" / "... с счета NNN".
var (
	transferToAccount   = regexp.MustCompile(`\s+на\s+\S+\s+([^\s.]+)`)
	transferFromAccount = regexp.MustCompile(`\s+с\s+\S+\s+([^\s.]+)`)
)

func newCashFlowTable(r *Report) (*table.Table, error) {
	return table.New(r.page, r.fileName, cashFlowTableName, cashFlowHeader, 1)
}

func extractEventCashFlows(r *Report) table.Extraction[models.EventCashFlow] {
	t, err := newCashFlowTable(r)
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
	operation, err := row.String(colFlowOperation)
	if err != nil {
		return nil, err
	}
	operation = strings.ToLower(strings.TrimSpace(operation))
	description := strings.TrimSpace(row.StringOr(colFlowDescription, ""))

	var event models.CashFlowType
	outflow := false
	switch {
	case operation == "ввод дс":
		event = models.CashFlowCash
	case operation == "вывод дс":
		event = models.CashFlowCash
		outflow = true
	case operation == "перевод дс":
		counterpart, out := transferCounterpart(description)
		if counterpart == r.portfolio {
			// Shuffle between sections of the same account.
			return nil, nil
		}
		event = models.CashFlowCash
		outflow = out
	case strings.HasPrefix(operation, "налог"):
		event = models.CashFlowTax
		outflow = true
	case strings.HasPrefix(operation, "доначисление комиссии до размера минимальной"),
		strings.HasPrefix(operation, "депозитарные сборы"):
		event = models.CashFlowCommission
		outflow = true
	default:
		return nil, nil
	}

	date, err := row.String(colFlowDate)
	if err != nil {
		return nil, err
	}
	timestamp, err := utils.ParseReportDate(date)
	if err != nil {
		return nil, err
	}
	value, err := row.Decimal(colFlowValue)
	if err != nil {
		return nil, err
	}
	value = value.Abs()
	if outflow {
		value = value.Neg()
	}
	return []models.EventCashFlow{{
		Portfolio:   r.portfolio,
		Timestamp:   timestamp.Unix(),
		Type:        event,
		Value:       value,
		Currency:    utils.NormalizeCurrency(row.StringOr(colFlowCurrency, "RUB")),
		Description: description,
	}}, nil
}

// transferCounterpart extracts the counterpart account of a transfer
// description and whether money left this account. An unparseable
// description reads as an outgoing transfer to an unknown account.
func transferCounterpart(description string) (account string, outflow bool) {
	if m := transferToAccount.FindStringSubmatch(description); m != nil {
		return m[1], true
	}
	if m := transferFromAccount.FindStringSubmatch(description); m != nil {
		return m[1], false
	}
	return "", true
}
