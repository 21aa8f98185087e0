// Package services coordinates report upload: broker detection, table
// extraction, persistence and the upload result the API returns.
package services

import "github.com/spacious-team/investbook-sub001/src/models"

// UploadedFile is one statement file received from the client.
type UploadedFile struct {
	Name string
	Data []byte
}

// RecordCounts reports how many rows of each kind a statement added.
// Re-uploading the same statement yields zeroes everywhere.
type RecordCounts struct {
	ExchangeRates          int `json:"exchangeRates"`
	SecurityTransactions   int `json:"securityTransactions"`
	DerivativeTransactions int `json:"derivativeTransactions"`
	EventCashFlows         int `json:"eventCashFlows"`
	SecurityEventCashFlows int `json:"securityEventCashFlows"`
	SecurityQuotes         int `json:"securityQuotes"`
	PortfolioCash          int `json:"portfolioCash"`
	PortfolioProperties    int `json:"portfolioProperties"`
}

// FileResult is the outcome of importing one uploaded file.
type FileResult struct {
	FileName  string       `json:"fileName"`
	Broker    string       `json:"broker,omitempty"`
	Portfolio string       `json:"portfolio,omitempty"`
	Status    string       `json:"status"`
	Error     string       `json:"error,omitempty"`
	Imported  RecordCounts `json:"imported"`
}

const (
	StatusImported = "imported"
	StatusFailed   = "failed"
)

// UploadResult aggregates the per-file outcomes of one upload request.
type UploadResult struct {
	Files []FileResult `json:"files"`
}

// UploadService is the core upload processing logic the handlers call.
type UploadService interface {
	ProcessUpload(files []UploadedFile) *UploadResult
	LatestUploadResult() (*UploadResult, bool)
}

// RecordPersister stores the record collections extracted from a
// statement and reports how many rows were actually new.
type RecordPersister interface {
	SaveSecurityTransactions(records []models.SecurityTransaction) (int, error)
	SaveDerivativeTransactions(records []models.DerivativeTransaction) (int, error)
	SaveEventCashFlows(records []models.EventCashFlow) (int, error)
	SaveSecurityEventCashFlows(records []models.SecurityEventCashFlow) (int, error)
	SaveSecurityQuotes(records []models.SecurityQuote) (int, error)
	SavePortfolioCash(records []models.PortfolioCash) (int, error)
	SavePortfolioProperties(records []models.PortfolioProperty) (int, error)
}
