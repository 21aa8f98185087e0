package psb

import (
	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/processors"
)

// ReportTables exposes every record collection of one PSB statement,
// each computed lazily and at most once.
type ReportTables struct {
	report *Report

	exchangeRates          *parsers.ReportTable[models.ForeignExchangeRate]
	securityTransactions   *parsers.ReportTable[models.SecurityTransaction]
	derivativeTransactions *parsers.ReportTable[models.DerivativeTransaction]
	eventCashFlows         *parsers.ReportTable[models.EventCashFlow]
	securityEventCashFlows *parsers.ReportTable[models.SecurityEventCashFlow]
	securityQuotes         *parsers.ReportTable[models.SecurityQuote]
	portfolioCash          *parsers.ReportTable[models.PortfolioCash]
	portfolioProperties    *parsers.ReportTable[models.PortfolioProperty]
}

func NewReportTables(r *Report, registrar *parsers.SecurityRegistrar, reconciler *processors.FeeReconciler) *ReportTables {
	return &ReportTables{
		report: r,
		exchangeRates: parsers.NewReportTable(func() table.Extraction[models.ForeignExchangeRate] {
			return extractExchangeRates(r)
		}),
		securityTransactions: parsers.NewReportTable(func() table.Extraction[models.SecurityTransaction] {
			return extractSecurityTransactions(r, registrar, reconciler)
		}),
		derivativeTransactions: parsers.NewReportTable(func() table.Extraction[models.DerivativeTransaction] {
			return extractDerivativeTransactions(r, registrar)
		}),
		eventCashFlows: parsers.NewReportTable(func() table.Extraction[models.EventCashFlow] {
			return extractEventCashFlows(r)
		}),
		securityEventCashFlows: parsers.NewReportTable(func() table.Extraction[models.SecurityEventCashFlow] {
			dividends := extractDividends(r, registrar)
			bonds := extractCouponsAndAmortizations(r, registrar)
			return table.Extraction[models.SecurityEventCashFlow]{
				Records: append(dividends.Records, bonds.Records...),
				Errors:  append(dividends.Errors, bonds.Errors...),
			}
		}),
		securityQuotes: parsers.NewReportTable(func() table.Extraction[models.SecurityQuote] {
			return extractSecurityQuotes(r, registrar)
		}),
		portfolioCash: parsers.NewReportTable(func() table.Extraction[models.PortfolioCash] {
			return extractPortfolioCash(r)
		}),
		portfolioProperties: parsers.NewReportTable(func() table.Extraction[models.PortfolioProperty] {
			return extractPortfolioProperties(r)
		}),
	}
}

func (t *ReportTables) Portfolio() string { return t.report.Portfolio() }

func (t *ReportTables) ExchangeRates() []models.ForeignExchangeRate {
	return t.exchangeRates.Data()
}

func (t *ReportTables) SecurityTransactions() []models.SecurityTransaction {
	return t.securityTransactions.Data()
}

func (t *ReportTables) DerivativeTransactions() []models.DerivativeTransaction {
	return t.derivativeTransactions.Data()
}

func (t *ReportTables) EventCashFlows() []models.EventCashFlow {
	return t.eventCashFlows.Data()
}

func (t *ReportTables) SecurityEventCashFlows() []models.SecurityEventCashFlow {
	return t.securityEventCashFlows.Data()
}

func (t *ReportTables) SecurityQuotes() []models.SecurityQuote {
	return t.securityQuotes.Data()
}

func (t *ReportTables) PortfolioCash() []models.PortfolioCash {
	return t.portfolioCash.Data()
}

func (t *ReportTables) PortfolioProperties() []models.PortfolioProperty {
	return t.portfolioProperties.Data()
}
