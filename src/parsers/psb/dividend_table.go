package psb

import (
	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Dividend payments. A withheld tax produces a second record for the
// same instrument and instant.
const dividendTableName = "Выплата дивидендов"

const (
	colDividendDate     table.Column = "date"
	colDividendISIN     table.Column = "isin"
	colDividendCount    table.Column = "count"
	colDividendValue    table.Column = "value"
	colDividendCurrency table.Column = "currency"
	colDividendTax      table.Column = "tax"
)

var dividendHeader = table.Header{
	colDividendDate:     table.Keywords("дата"),
	colDividendISIN:     table.Keywords("isin"),
	colDividendCount:    table.Keywords("кол-во"),
	colDividendValue:    table.Keywords("сумма", "дивидендов"),
	colDividendCurrency: table.Keywords("валюта", "выплаты"),
	colDividendTax:      table.Keywords("сумма", "налога"),
}

var taxEpsilon = decimal.NewFromFloat(0.01)

func extractDividends(r *Report, registrar *parsers.SecurityRegistrar) table.Extraction[models.SecurityEventCashFlow] {
	t, err := table.New(r.page, r.fileName, dividendTableName, dividendHeader, 1)
	if err != nil {
		return table.Extraction[models.SecurityEventCashFlow]{Errors: []table.RowError{{
			Table: dividendTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.ExtractMerging(t,
		func(row *table.RowRecord) ([]models.SecurityEventCashFlow, error) {
			return parseDividend(r, registrar, row)
		},
		models.SecurityEventCashFlow.CheckEquality,
		func(old, new models.SecurityEventCashFlow) []models.SecurityEventCashFlow {
			return []models.SecurityEventCashFlow{old.MergeDuplicates(new)}
		})
}

func parseDividend(r *Report, registrar *parsers.SecurityRegistrar, row *table.RowRecord) ([]models.SecurityEventCashFlow, error) {
	isin, err := row.String(colDividendISIN)
	if err != nil {
		return nil, err
	}
	securityID, err := registrar.DeclareByISIN(isin, func() models.Security {
		return models.Security{ISIN: isin, Type: models.TypeStock}
	})
	if err != nil {
		return nil, err
	}
	date, err := row.String(colDividendDate)
	if err != nil {
		return nil, err
	}
	timestamp, err := utils.ParseReportDate(date)
	if err != nil {
		return nil, err
	}
	count, err := row.Long(colDividendCount)
	if err != nil {
		return nil, err
	}
	value, err := row.Decimal(colDividendValue)
	if err != nil {
		return nil, err
	}

	dividend := models.SecurityEventCashFlow{
		Portfolio:  r.portfolio,
		Timestamp:  timestamp.Unix(),
		Type:       models.CashFlowDividend,
		SecurityID: securityID,
		Count:      count,
		Value:      value,
		Currency:   utils.NormalizeCurrency(row.StringOr(colDividendCurrency, "RUB")),
	}
	records := []models.SecurityEventCashFlow{dividend}
	tax := row.DecimalOr(colDividendTax, decimal.Zero).Neg()
	if tax.Abs().GreaterThanOrEqual(taxEpsilon) {
		taxRecord := dividend
		taxRecord.Type = models.CashFlowTax
		taxRecord.Value = tax
		records = append(records, taxRecord)
	}
	return records, nil
}
