package uralsib

import (
	"sync"

	"github.com/spacious-team/investbook-sub001/src/logger"
	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/processors"
)

// ReportTables exposes every record collection of one Uralsib
// statement, each computed lazily and at most once. The payments
// extraction depends on the securities and trades collections, so those
// are shared rather than re-extracted.
type ReportTables struct {
	report *Report

	securities           *parsers.ReportTable[securityInfo]
	securityTransactions *parsers.ReportTable[models.SecurityTransaction]
	exchangeRates        *parsers.ReportTable[models.ForeignExchangeRate]
	eventCashFlows       *parsers.ReportTable[models.EventCashFlow]
	portfolioCash        *parsers.ReportTable[models.PortfolioCash]
	portfolioProperties  *parsers.ReportTable[models.PortfolioProperty]

	paymentsOnce sync.Once
	payments     paymentsResult
}

func NewReportTables(r *Report, registrar *parsers.SecurityRegistrar, reconciler *processors.FeeReconciler) *ReportTables {
	t := &ReportTables{report: r}
	t.securities = parsers.NewReportTable(func() table.Extraction[securityInfo] {
		return extractSecurities(r, registrar)
	})
	t.securityTransactions = parsers.NewReportTable(func() table.Extraction[models.SecurityTransaction] {
		return extractSecurityTransactions(r, registrar, reconciler)
	})
	t.exchangeRates = parsers.NewReportTable(func() table.Extraction[models.ForeignExchangeRate] {
		return extractExchangeRates(r)
	})
	t.eventCashFlows = parsers.NewReportTable(func() table.Extraction[models.EventCashFlow] {
		return extractEventCashFlows(r)
	})
	t.portfolioCash = parsers.NewReportTable(func() table.Extraction[models.PortfolioCash] {
		return extractPortfolioCash(r)
	})
	t.portfolioProperties = parsers.NewReportTable(func() table.Extraction[models.PortfolioProperty] {
		return extractPortfolioProperties(r)
	})
	return t
}

func (t *ReportTables) paymentsData() paymentsResult {
	t.paymentsOnce.Do(func() {
		t.payments = extractPayments(t.report, t.securities.Data(), t.securityTransactions.Data())
		for _, rowErr := range t.payments.Errors {
			logger.L.Error("skipping unparseable report row", "error", rowErr.Error())
		}
	})
	return t.payments
}

func (t *ReportTables) Portfolio() string { return t.report.Portfolio() }

func (t *ReportTables) ExchangeRates() []models.ForeignExchangeRate {
	return t.exchangeRates.Data()
}

func (t *ReportTables) SecurityTransactions() []models.SecurityTransaction {
	return t.securityTransactions.Data()
}

// DerivativeTransactions is empty: the derivatives section of this
// broker's statement is not parsed.
func (t *ReportTables) DerivativeTransactions() []models.DerivativeTransaction {
	return nil
}

func (t *ReportTables) EventCashFlows() []models.EventCashFlow {
	flows := t.eventCashFlows.Data()
	return append(flows[:len(flows):len(flows)], t.paymentsData().EventCashFlows...)
}

func (t *ReportTables) SecurityEventCashFlows() []models.SecurityEventCashFlow {
	return t.paymentsData().SecurityEvents
}

// SecurityQuotes is empty: this broker's statement prints position
// valuations without per-unit quotes.
func (t *ReportTables) SecurityQuotes() []models.SecurityQuote {
	return nil
}

func (t *ReportTables) PortfolioCash() []models.PortfolioCash {
	return t.portfolioCash.Data()
}

func (t *ReportTables) PortfolioProperties() []models.PortfolioProperty {
	return t.portfolioProperties.Data()
}
