package uralsib

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// Security payments live in the money movements table under one
// operation type; the free-text description names the instrument, the
// payment kind and the withheld tax.
const paymentOperation = "доход по финансовым инструментам"

var withheldTax = regexp.MustCompile(`(?i)налог в размере ([0-9.,]+) удержан`)

// payment carries a security cash flow together with the description it
// was parsed from, so a payment later reclassified as account-level
// keeps its text.
type payment struct {
	flow        models.SecurityEventCashFlow
	description string
}

func (p payment) toEvent() models.EventCashFlow {
	return models.EventCashFlow{
		Portfolio:   p.flow.Portfolio,
		Timestamp:   p.flow.Timestamp,
		Type:        p.flow.Type,
		Value:       p.flow.Value,
		Currency:    p.flow.Currency,
		Description: p.description,
	}
}

// paymentsResult splits the payment rows into flows attributable to a
// held security and account-level flows: payments whose instrument is
// unknown and payments duplicated by a linked account statement.
type paymentsResult struct {
	SecurityEvents []models.SecurityEventCashFlow
	EventCashFlows []models.EventCashFlow
	Errors         []table.RowError
}

func extractPayments(r *Report, securities []securityInfo, trades []models.SecurityTransaction) paymentsResult {
	t, err := newCashFlowTable(r)
	if err != nil {
		return paymentsResult{Errors: []table.RowError{{
			Table: cashFlowTableName, File: r.fileName, Err: err,
		}}}
	}
	var accountLevel []models.EventCashFlow
	extraction := table.ExtractMerging(t,
		func(row *table.RowRecord) ([]payment, error) {
			return parsePayment(r, securities, trades, row, &accountLevel)
		},
		func(a, b payment) bool { return a.flow.CheckEquality(b.flow) },
		func(old, new payment) []payment {
			// A statement may list a linked account's payment twice,
			// once per account. Both really happened, but neither can
			// be pinned to this portfolio's position, so both are
			// demoted to account-level flows.
			accountLevel = append(accountLevel, old.toEvent(), new.toEvent())
			return nil
		})

	result := paymentsResult{
		EventCashFlows: accountLevel,
		Errors:         extraction.Errors,
	}
	for _, p := range extraction.Records {
		result.SecurityEvents = append(result.SecurityEvents, p.flow)
	}
	return result
}

func parsePayment(r *Report, securities []securityInfo, trades []models.SecurityTransaction, row *table.RowRecord, accountLevel *[]models.EventCashFlow) ([]payment, error) {
	operation, err := row.String(colFlowOperation)
	if err != nil {
		return nil, nil
	}
	if strings.ToLower(strings.TrimSpace(operation)) != paymentOperation {
		return nil, nil
	}
	description, err := row.String(colFlowDescription)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(description)

	var event models.CashFlowType
	switch {
	case strings.Contains(lower, "дивиденд"):
		event = models.CashFlowDividend
	case strings.Contains(lower, "погашение купона"):
		event = models.CashFlowCoupon
	case strings.Contains(lower, "частичное погашение"):
		event = models.CashFlowAmortization
	case strings.Contains(lower, "погашение номинала"):
		event = models.CashFlowRedemption
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
	currency := utils.NormalizeCurrency(row.StringOr(colFlowCurrency, "RUB"))

	// The credited amount is net of tax; the description restores the
	// gross payment.
	tax := decimal.Zero
	if m := withheldTax.FindStringSubmatch(description); m != nil {
		if parsed, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ".")); err == nil {
			tax = parsed.Abs()
		}
	}
	gross := value.Add(tax)

	info, found := securityByDescription(securities, lower)
	if !found {
		*accountLevel = append(*accountLevel, models.EventCashFlow{
			Portfolio:   r.portfolio,
			Timestamp:   timestamp.Unix(),
			Type:        event,
			Value:       gross,
			Currency:    currency,
			Description: description,
		})
		if tax.IsPositive() {
			*accountLevel = append(*accountLevel, models.EventCashFlow{
				Portfolio:   r.portfolio,
				Timestamp:   timestamp.Unix(),
				Type:        models.CashFlowTax,
				Value:       tax.Neg(),
				Currency:    currency,
				Description: description,
			})
		}
		return nil, nil
	}

	record := models.SecurityEventCashFlow{
		Portfolio:  r.portfolio,
		Timestamp:  timestamp.Unix(),
		Type:       event,
		SecurityID: info.securityID,
		Count:      securityCount(info, timestamp, trades),
		Value:      gross,
		Currency:   currency,
	}
	records := []payment{{flow: record, description: description}}
	if tax.IsPositive() {
		taxRecord := record
		taxRecord.Type = models.CashFlowTax
		taxRecord.Value = tax.Neg()
		records = append(records, payment{flow: taxRecord, description: description})
	}
	return records, nil
}

// securityByDescription matches a payment description against the
// identifiers of the portfolio's instruments.
func securityByDescription(securities []securityInfo, lowerDescription string) (securityInfo, bool) {
	for _, info := range securities {
		if info.isin != "" && strings.Contains(lowerDescription, strings.ToLower(info.isin)) {
			return info, true
		}
		if info.name != "" && strings.Contains(lowerDescription, strings.ToLower(info.name)) {
			return info, true
		}
		if info.cfi != "" && strings.Contains(lowerDescription, strings.ToLower(info.cfi)) {
			return info, true
		}
	}
	return securityInfo{}, false
}

// securityCount reconstructs the position size the payment was accrued
// on: the incoming count adjusted by the trades settled before the
// payment. A payment arriving after the position was closed out is
// attributed to the last non-zero size.
func securityCount(info securityInfo, instant time.Time, trades []models.SecurityTransaction) int64 {
	var relevant []models.SecurityTransaction
	for _, trade := range trades {
		if trade.SecurityID == info.securityID && trade.Timestamp < instant.Unix() {
			relevant = append(relevant, trade)
		}
	}
	sort.Slice(relevant, func(i, j int) bool {
		return relevant[i].Timestamp < relevant[j].Timestamp
	})
	count := info.incomingCount
	last := count
	for _, trade := range relevant {
		count += trade.Count
		if count != 0 {
			last = count
		}
	}
	if count == 0 {
		return last
	}
	return count
}
