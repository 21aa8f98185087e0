package uralsib

import (
	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// End-of-period money balance per currency.
const (
	cashTableName       = "ПОЗИЦИЯ ПО ДЕНЕЖНЫМ СРЕДСТВАМ"
	cashTableHeaderRows = 2
)

const (
	colCashValue    table.Column = "value"
	colCashCurrency table.Column = "currency"
)

var cashHeader = table.Header{
	colCashValue:    table.Keywords("исходящий остаток"),
	colCashCurrency: table.Keywords("код валюты"),
}

func extractPortfolioCash(r *Report) table.Extraction[models.PortfolioCash] {
	t, err := table.New(r.page, r.fileName, cashTableName, cashHeader, cashTableHeaderRows)
	if err != nil {
		return table.Extraction[models.PortfolioCash]{Errors: []table.RowError{{
			Table: cashTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.Extract(t, func(row *table.RowRecord) ([]models.PortfolioCash, error) {
		value, err := row.Decimal(colCashValue)
		if err != nil {
			return nil, err
		}
		currency, err := row.String(colCashCurrency)
		if err != nil {
			return nil, err
		}
		return []models.PortfolioCash{{
			Portfolio: r.portfolio,
			Timestamp: r.reportEnd.Unix(),
			Market:    "all",
			Value:     value,
			Currency:  utils.NormalizeCurrency(currency),
		}}, nil
	})
}
