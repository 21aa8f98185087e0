package psb

import (
	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Free money per market section. The terminating marker is hidden text
// in the sheet's first column.
const (
	portfolioCashTableName   = "Позиция денежных средств по биржевым площадкам"
	portfolioCashTableEnd    = "КонецДС_Б"
	portfolioCashTotalsText  = "ИТОГО:"
	portfolioCashHeaderRows  = 2
)

const (
	colCashSection  table.Column = "section"
	colCashValue    table.Column = "value"
	colCashCurrency table.Column = "currency"
)

var portfolioCashHeader = table.Header{
	colCashSection:  table.Keywords("сектор"),
	colCashValue:    table.Keywords("плановый исходящий остаток"),
	colCashCurrency: table.Keywords("валюта"),
}

func extractPortfolioCash(r *Report) table.Extraction[models.PortfolioCash] {
	t, err := table.NewWithFooter(r.page, r.fileName, portfolioCashTableName, portfolioCashTableEnd, portfolioCashHeader, portfolioCashHeaderRows)
	if err != nil {
		return table.Extraction[models.PortfolioCash]{Errors: []table.RowError{{
			Table: portfolioCashTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.Extract(t, func(row *table.RowRecord) ([]models.PortfolioCash, error) {
		if row.Contains(portfolioCashTotalsText) {
			return nil, nil
		}
		value, err := row.Decimal(colCashValue)
		if err != nil {
			return nil, err
		}
		return []models.PortfolioCash{{
			Portfolio: r.portfolio,
			Timestamp: r.reportEnd.Unix(),
			Market:    row.StringOr(colCashSection, ""),
			Value:     value,
			Currency:  utils.NormalizeCurrency(row.StringOr(colCashCurrency, "RUB")),
		}}, nil
	})
}
