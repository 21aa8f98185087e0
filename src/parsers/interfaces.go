// Package parsers defines the contracts a broker statement parser
// fulfills and the shared machinery behind them: the memoized report
// table facade and the concurrent-safe security registrar.
package parsers

import (
	"errors"
	"time"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
)

// ErrWrongReportFormat reports a statement file that does not belong to
// the probed broker. Broker detection tries each opener in turn and
// treats this error as "try the next one".
var ErrWrongReportFormat = errors.New("unrecognized broker statement format")

// BrokerReport is one opened statement file: its page of cells plus the
// identity facts every table of the statement shares.
type BrokerReport interface {
	Page() table.ReportPage
	FileName() string
	Portfolio() string
	ReportEndDateTime() time.Time
}

// ReportTables exposes every record collection a parsed statement can
// produce. Each accessor computes its table at most once; a statement
// version lacking some table yields an empty collection.
type ReportTables interface {
	Portfolio() string
	ExchangeRates() []models.ForeignExchangeRate
	SecurityTransactions() []models.SecurityTransaction
	DerivativeTransactions() []models.DerivativeTransaction
	EventCashFlows() []models.EventCashFlow
	SecurityEventCashFlows() []models.SecurityEventCashFlow
	SecurityQuotes() []models.SecurityQuote
	PortfolioCash() []models.PortfolioCash
	PortfolioProperties() []models.PortfolioProperty
}
