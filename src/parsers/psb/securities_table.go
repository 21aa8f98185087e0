package psb

import (
	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
)

// End-of-day portfolio table. It carries both the instrument identities
// and their closing valuations, so it feeds the quote collection and
// declares every held instrument along the way.
const (
	securitiesTableName   = "Портфель на конец дня на биржевом рынке"
	securitiesTableFooter = "* цена последней сделки"
	securitiesTotalsText  = "Итого в валюте цены"
)

const (
	colSecurityName     table.Column = "name"
	colSecurityISIN     table.Column = "isin"
	colSecurityOutgoing table.Column = "outgoing"
	colSecurityQuote    table.Column = "quote"
	colSecurityAmount   table.Column = "amount"
	colSecurityAccrued  table.Column = "accruedInterest"
	colSecurityCurrency table.Column = "currency"
)

var securitiesHeader = table.Header{
	colSecurityName:     table.Keywords("наименование"),
	colSecurityISIN:     table.Keywords("isin"),
	colSecurityOutgoing: table.Keywords("исходящий", "остаток"),
	colSecurityQuote:    table.Keywords(`цена\*`, "для обл"),
	colSecurityAmount:   table.Keywords("оценочная стоимость в валюте цены"),
	colSecurityAccrued:  table.Keywords("нкд"),
	colSecurityCurrency: table.Keywords("валюта цены"),
}

var quoteEpsilon = decimal.NewFromFloat(0.01)

func extractSecurityQuotes(r *Report, registrar *parsers.SecurityRegistrar) table.Extraction[models.SecurityQuote] {
	t, err := table.NewWithFooter(r.page, r.fileName, securitiesTableName, securitiesTableFooter, securitiesHeader, 1)
	if err != nil {
		return table.Extraction[models.SecurityQuote]{Errors: []table.RowError{{
			Table: securitiesTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.Extract(t, func(row *table.RowRecord) ([]models.SecurityQuote, error) {
		// Per-currency subtotal rows carry no instrument.
		if row.Contains(securitiesTotalsText) {
			return nil, nil
		}
		count := row.LongOr(colSecurityOutgoing, 0)
		if count == 0 {
			return nil, nil
		}
		isin, err := row.String(colSecurityISIN)
		if err != nil {
			return nil, err
		}
		name := row.StringOr(colSecurityName, "")
		securityID, err := registrar.DeclareByISIN(isin, func() models.Security {
			return models.Security{ISIN: isin, Name: name, Type: models.TypeStockOrBond}
		})
		if err != nil {
			return nil, err
		}
		quote, err := row.Decimal(colSecurityQuote)
		if err != nil {
			return nil, err
		}
		amount, err := row.Decimal(colSecurityAmount)
		if err != nil {
			return nil, err
		}
		countDec := decimal.NewFromInt(count)
		price := amount.DivRound(countDec, 4)
		var pricePtr *decimal.Decimal
		if price.Sub(quote).Abs().GreaterThanOrEqual(quoteEpsilon) {
			// Percent-quoted bond: the money price differs from the quote.
			pricePtr = &price
		}
		var accruedPtr *decimal.Decimal
		accrued := row.DecimalOr(colSecurityAccrued, decimal.Zero).DivRound(countDec, 2)
		if accrued.GreaterThanOrEqual(quoteEpsilon) {
			accruedPtr = &accrued
		}
		return []models.SecurityQuote{{
			SecurityID:      securityID,
			Timestamp:       r.reportEnd.Unix(),
			Quote:           quote,
			Price:           pricePtr,
			AccruedInterest: accruedPtr,
			Currency:        row.StringOr(colSecurityCurrency, "RUB"),
		}}, nil
	})
}
