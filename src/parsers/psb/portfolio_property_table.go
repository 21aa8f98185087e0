package psb

import (
	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Account summary table. Its labeled rows carry the total assets
// estimate and the central bank exchange rates of the report end day.
const (
	summaryTableName    = "Сводная информация по счетам клиента в валюте счета"
	summaryAssetsRow    = "\"СУММА АКТИВОВ\" на конец дня"
	summaryRatesRow     = "Курс валют ЦБ РФ"
)

const (
	colSummaryDescription table.Column = "description"
	colSummaryRUB         table.Column = "RUB"
	colSummaryUSD         table.Column = "USD"
	colSummaryEUR         table.Column = "EUR"
	colSummaryGBP         table.Column = "GBP"
	colSummaryCHF         table.Column = "CHF"
)

var summaryHeader = table.Header{
	colSummaryDescription: table.FixedPosition(1),
	colSummaryRUB:         table.Keywords("RUB"),
	colSummaryUSD:         table.Optional(table.Keywords("USD")),
	colSummaryEUR:         table.Optional(table.Keywords("EUR")),
	colSummaryGBP:         table.Optional(table.Keywords("GBP")),
	colSummaryCHF:         table.Optional(table.Keywords("CHF")),
}

var rateEpsilon = decimal.NewFromFloat(0.01)

func newSummaryTable(r *Report) (*table.Table, error) {
	// The assets row doubles as the table's end marker.
	return table.NewWithFooter(r.page, r.fileName, summaryTableName, summaryAssetsRow, summaryHeader, 1)
}

func extractPortfolioProperties(r *Report) table.Extraction[models.PortfolioProperty] {
	t, err := newSummaryTable(r)
	if err != nil {
		return table.Extraction[models.PortfolioProperty]{Errors: []table.RowError{{
			Table: summaryTableName, File: r.fileName, Err: err,
		}}}
	}
	row := t.FindRow(summaryAssetsRow)
	if row == nil {
		return table.Extraction[models.PortfolioProperty]{}
	}
	assets, err := row.Decimal(colSummaryRUB)
	if err != nil {
		return table.Extraction[models.PortfolioProperty]{Errors: []table.RowError{{
			Table: summaryTableName, File: r.fileName, RowNum: row.RowNum(), Err: err,
		}}}
	}
	return table.Extraction[models.PortfolioProperty]{Records: []models.PortfolioProperty{{
		Portfolio: r.portfolio,
		Timestamp: r.reportEnd.Unix(),
		Property:  models.PropertyTotalAssetsRUB,
		Value:     assets.String(),
	}}}
}

func extractExchangeRates(r *Report) table.Extraction[models.ForeignExchangeRate] {
	t, err := newSummaryTable(r)
	if err != nil {
		return table.Extraction[models.ForeignExchangeRate]{Errors: []table.RowError{{
			Table: summaryTableName, File: r.fileName, Err: err,
		}}}
	}
	row := t.FindRow(summaryRatesRow)
	if row == nil {
		return table.Extraction[models.ForeignExchangeRate]{}
	}
	date := utils.FormatDate(r.reportEnd)
	var rates []models.ForeignExchangeRate
	for _, currency := range []table.Column{colSummaryUSD, colSummaryEUR, colSummaryGBP, colSummaryCHF} {
		rate := row.DecimalOr(currency, decimal.Zero)
		if rate.LessThanOrEqual(rateEpsilon) {
			continue
		}
		rates = append(rates, models.ForeignExchangeRate{
			Date:          date,
			BaseCurrency:  string(currency),
			QuoteCurrency: "RUB",
			Rate:          rate,
		})
	}
	return table.Extraction[models.ForeignExchangeRate]{Records: rates}
}
