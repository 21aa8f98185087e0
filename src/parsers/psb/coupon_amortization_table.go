package psb

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Bond events: coupons, amortizations and redemptions.
const (
	couponTableName = "Погашение купонов и ЦБ"
	couponTableEnd  = "*Налог удерживается с рублевого брокерского счета"
)

const (
	colCouponDate     table.Column = "date"
	colCouponType     table.Column = "operationType"
	colCouponISIN     table.Column = "isin"
	colCouponCount    table.Column = "count"
	colCouponValue    table.Column = "couponValue"
	colCouponBodyValue table.Column = "amortizationValue"
	colCouponTax      table.Column = "tax"
	colCouponCurrency table.Column = "currency"
)

var couponHeader = table.Header{
	colCouponDate:      table.Keywords("дата"),
	colCouponType:      table.Keywords("вид операции"),
	colCouponISIN:      table.Keywords("isin"),
	colCouponCount:     table.Keywords("кол-во"),
	colCouponValue:     table.Keywords("нкд"),
	colCouponBodyValue: table.Keywords("сумма амортизации"),
	colCouponTax:       table.Keywords("удержанного налога"),
	colCouponCurrency:  table.Keywords("валюта выплаты"),
}

func extractCouponsAndAmortizations(r *Report, registrar *parsers.SecurityRegistrar) table.Extraction[models.SecurityEventCashFlow] {
	t, err := table.NewWithFooter(r.page, r.fileName, couponTableName, couponTableEnd, couponHeader, 1)
	if err != nil {
		return table.Extraction[models.SecurityEventCashFlow]{Errors: []table.RowError{{
			Table: couponTableName, File: r.fileName, Err: err,
		}}}
	}
	return table.ExtractMerging(t,
		func(row *table.RowRecord) ([]models.SecurityEventCashFlow, error) {
			return parseCouponOrAmortization(r, registrar, row)
		},
		models.SecurityEventCashFlow.CheckEquality,
		func(old, new models.SecurityEventCashFlow) []models.SecurityEventCashFlow {
			return []models.SecurityEventCashFlow{old.MergeDuplicates(new)}
		})
}

func parseCouponOrAmortization(r *Report, registrar *parsers.SecurityRegistrar, row *table.RowRecord) ([]models.SecurityEventCashFlow, error) {
	operation, err := row.String(colCouponType)
	if err != nil {
		return nil, err
	}
	var event models.CashFlowType
	switch strings.ToLower(strings.TrimSpace(operation)) {
	case "погашение купона":
		event = models.CashFlowCoupon
	case "амортизация":
		event = models.CashFlowAmortization
	case "погашение бумаг":
		event = models.CashFlowRedemption
	default:
		return nil, fmt.Errorf("unsupported bond event %q", operation)
	}

	isin, err := row.String(colCouponISIN)
	if err != nil {
		return nil, err
	}
	securityID, err := registrar.DeclareByISIN(isin, func() models.Security {
		return models.Security{ISIN: isin, Type: models.TypeBond}
	})
	if err != nil {
		return nil, err
	}
	date, err := row.String(colCouponDate)
	if err != nil {
		return nil, err
	}
	timestamp, err := utils.ParseReportDate(date)
	if err != nil {
		return nil, err
	}
	count, err := row.Long(colCouponCount)
	if err != nil {
		return nil, err
	}
	var value decimal.Decimal
	if event == models.CashFlowCoupon {
		value, err = row.Decimal(colCouponValue)
	} else {
		value, err = row.Decimal(colCouponBodyValue)
	}
	if err != nil {
		return nil, err
	}

	record := models.SecurityEventCashFlow{
		Portfolio:  r.portfolio,
		Timestamp:  timestamp.Unix(),
		Type:       event,
		SecurityID: securityID,
		Count:      count,
		Value:      value,
		Currency:   utils.NormalizeCurrency(row.StringOr(colCouponCurrency, "RUB")),
	}
	records := []models.SecurityEventCashFlow{record}
	tax := row.DecimalOr(colCouponTax, decimal.Zero).Neg()
	if tax.Abs().GreaterThanOrEqual(taxEpsilon) {
		taxRecord := record
		taxRecord.Type = models.CashFlowTax
		taxRecord.Value = tax
		records = append(records, taxRecord)
	}
	return records, nil
}
