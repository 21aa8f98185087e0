package uralsib

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Asset valuation table and the free-standing exchange rate line. The
// valuation header grew a row between report versions, so both shapes
// are tried.
const (
	assetsTableName = "ОЦЕНКА АКТИВОВ"
	assetsTotalRow  = "Общая стоимость активов:"

	exchangeRateMarker = "Официальный обменный курс"
)

const colAssetsRUB table.Column = "rub"

var assetsHeaderThreeRows = table.Header{
	colAssetsRUB: table.MultiLine(
		table.Keywords("на конец отчетного периода"),
		table.Keywords("по цене закрытия"),
		table.Keywords("руб")),
}

var assetsHeaderTwoRows = table.Header{
	colAssetsRUB: table.MultiLine(
		table.Keywords("по цене закрытия"),
		table.Keywords("руб")),
}

func extractPortfolioProperties(r *Report) table.Extraction[models.PortfolioProperty] {
	// With the older two-row header the total row lands inside the
	// would-be third header row and the first attempt resolves empty
	// rather than failing.
	t, err := table.NewWithFooter(r.page, r.fileName, assetsTableName, assetsTotalRow, assetsHeaderThreeRows, 3)
	if err != nil || t.Empty() {
		t, err = table.NewWithFooter(r.page, r.fileName, assetsTableName, assetsTotalRow, assetsHeaderTwoRows, 2)
	}
	if err != nil {
		return table.Extraction[models.PortfolioProperty]{Errors: []table.RowError{{
			Table: assetsTableName, File: r.fileName, Err: err,
		}}}
	}
	row := t.FindRow(assetsTotalRow)
	if row == nil {
		return table.Extraction[models.PortfolioProperty]{}
	}
	assets, err := row.Decimal(colAssetsRUB)
	if err != nil {
		return table.Extraction[models.PortfolioProperty]{Errors: []table.RowError{{
			Table: assetsTableName, File: r.fileName, RowNum: row.RowNum(), Err: err,
		}}}
	}
	return table.Extraction[models.PortfolioProperty]{Records: []models.PortfolioProperty{{
		Portfolio: r.portfolio,
		Timestamp: r.reportEnd.Unix(),
		Property:  models.PropertyTotalAssetsRUB,
		Value:     assets.String(),
	}}}
}

// extractExchangeRates parses the rate line printed below its marker:
// "USD = 89,70 EUR = 97,10". Rates carry the report end date.
func extractExchangeRates(r *Report) table.Extraction[models.ForeignExchangeRate] {
	addr := table.FindPrefix(r.page, exchangeRateMarker)
	if addr == table.NotFound {
		return table.Extraction[models.ForeignExchangeRate]{}
	}
	var text string
	for _, cell := range r.page.Row(addr.Row + 1) {
		if !cell.IsBlank() {
			text = cell.String()
			break
		}
	}
	date := utils.FormatDate(r.reportEnd)
	words := strings.Fields(text)
	var rates []models.ForeignExchangeRate
	for i := 0; i+2 < len(words); i++ {
		if words[i+1] != "=" {
			continue
		}
		rate, err := decimal.NewFromString(strings.ReplaceAll(words[i+2], ",", "."))
		if err != nil || !rate.IsPositive() {
			continue
		}
		rates = append(rates, models.ForeignExchangeRate{
			Date:          date,
			BaseCurrency:  utils.NormalizeCurrency(words[i]),
			QuoteCurrency: "RUB",
			Rate:          rate,
		})
	}
	return table.Extraction[models.ForeignExchangeRate]{Records: rates}
}
