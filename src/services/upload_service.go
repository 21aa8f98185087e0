package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/spacious-team/investbook-sub001/src/logger"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/psb"
	"github.com/spacious-team/investbook-sub001/src/parsers/uralsib"
	"github.com/spacious-team/investbook-sub001/src/processors"
)

var ErrUnknownReportFormat = errors.New("report not recognized by any supported broker parser")

const (
	ckLatestUploadResult = "agg_latest_upload_result"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// brokerParser probes whether a file is one broker's statement and
// opens its tables. A wrong-broker file fails with
// parsers.ErrWrongReportFormat and the next parser gets its turn.
type brokerParser struct {
	name string
	open func(fileName string, data []byte) (parsers.ReportTables, error)
}

type uploadServiceImpl struct {
	brokers     []brokerParser
	rates       *processors.RateService
	persister   RecordPersister
	backupDir   string
	resultCache *cache.Cache
}

func NewUploadService(
	registrar *parsers.SecurityRegistrar,
	rates *processors.RateService,
	persister RecordPersister,
	backupDir string,
) UploadService {
	reconciler := processors.NewFeeReconciler(rates)
	return &uploadServiceImpl{
		brokers: []brokerParser{
			{name: "psb", open: func(fileName string, data []byte) (parsers.ReportTables, error) {
				report, err := psb.OpenReport(fileName, data)
				if err != nil {
					return nil, err
				}
				return psb.NewReportTables(report, registrar, reconciler), nil
			}},
			{name: "uralsib", open: func(fileName string, data []byte) (parsers.ReportTables, error) {
				report, err := uralsib.OpenReport(fileName, data)
				if err != nil {
					return nil, err
				}
				return uralsib.NewReportTables(report, registrar, reconciler), nil
			}},
		},
		rates:       rates,
		persister:   persister,
		backupDir:   backupDir,
		resultCache: cache.New(DefaultCacheExpiration, CacheCleanupInterval),
	}
}

// ProcessUpload imports every uploaded file, each in its own goroutine.
// Statements are independent; the security registrar and the database
// constraints arbitrate the shared rows.
func (s *uploadServiceImpl) ProcessUpload(files []UploadedFile) *UploadResult {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "files", len(files))

	results := make([]FileResult, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file UploadedFile) {
			defer wg.Done()
			results[i] = s.processFile(file)
		}(i, file)
	}
	wg.Wait()

	result := &UploadResult{Files: results}
	s.resultCache.Set(ckLatestUploadResult, result, cache.DefaultExpiration)
	logger.L.Info("ProcessUpload END", "files", len(files), "duration", time.Since(overallStartTime))
	return result
}

func (s *uploadServiceImpl) LatestUploadResult() (*UploadResult, bool) {
	cached, ok := s.resultCache.Get(ckLatestUploadResult)
	if !ok {
		return nil, false
	}
	return cached.(*UploadResult), true
}

func (s *uploadServiceImpl) processFile(file UploadedFile) FileResult {
	for _, broker := range s.brokers {
		tables, err := broker.open(file.Name, file.Data)
		if errors.Is(err, parsers.ErrWrongReportFormat) {
			continue
		}
		if err != nil {
			logger.L.Warn("Failed to open report", "file", file.Name, "broker", broker.name, "error", err)
			return FileResult{FileName: file.Name, Broker: broker.name, Status: StatusFailed, Error: err.Error()}
		}
		s.backupReport(broker.name, file)
		return s.importTables(broker.name, file.Name, tables)
	}
	logger.L.Warn("Report not recognized", "file", file.Name)
	return FileResult{FileName: file.Name, Status: StatusFailed, Error: ErrUnknownReportFormat.Error()}
}

// importTables persists every collection of one statement. Exchange
// rates go first: fee reconciliation of the trades that follow may need
// the rates this very report carries.
func (s *uploadServiceImpl) importTables(broker, fileName string, tables parsers.ReportTables) FileResult {
	result := FileResult{
		FileName:  fileName,
		Broker:    broker,
		Portfolio: tables.Portfolio(),
		Status:    StatusImported,
	}
	for _, rate := range tables.ExchangeRates() {
		if err := s.rates.Register(rate); err != nil {
			logger.L.Warn("Skipping invalid exchange rate", "file", fileName, "error", err)
			continue
		}
		result.Imported.ExchangeRates++
	}

	var err error
	imported := func(saved int, saveErr error) int {
		if saveErr != nil && err == nil {
			err = saveErr
		}
		return saved
	}
	result.Imported.SecurityTransactions = imported(s.persister.SaveSecurityTransactions(tables.SecurityTransactions()))
	result.Imported.DerivativeTransactions = imported(s.persister.SaveDerivativeTransactions(tables.DerivativeTransactions()))
	result.Imported.EventCashFlows = imported(s.persister.SaveEventCashFlows(tables.EventCashFlows()))
	result.Imported.SecurityEventCashFlows = imported(s.persister.SaveSecurityEventCashFlows(tables.SecurityEventCashFlows()))
	result.Imported.SecurityQuotes = imported(s.persister.SaveSecurityQuotes(tables.SecurityQuotes()))
	result.Imported.PortfolioCash = imported(s.persister.SavePortfolioCash(tables.PortfolioCash()))
	result.Imported.PortfolioProperties = imported(s.persister.SavePortfolioProperties(tables.PortfolioProperties()))
	if err != nil {
		logger.L.Error("Failed to persist report records", "file", fileName, "portfolio", result.Portfolio, "error", err)
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	logger.L.Info("Report imported",
		"file", fileName,
		"broker", broker,
		"portfolio", result.Portfolio,
		"trades", result.Imported.SecurityTransactions,
		"derivativeTrades", result.Imported.DerivativeTransactions)
	return result
}

// backupReport keeps a copy of the original file so the portfolio can
// be rebuilt after schema changes. Backup failure is logged but never
// fails the import.
func (s *uploadServiceImpl) backupReport(broker string, file UploadedFile) {
	if s.backupDir == "" {
		return
	}
	dir := filepath.Join(s.backupDir, broker)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.L.Warn("Failed to create report backup directory", "dir", dir, "error", err)
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Name))
	if ext == "" {
		ext = ".xlsx"
	}
	path := filepath.Join(dir, uuid.New().String()+ext)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		logger.L.Warn("Failed to back up report", "path", path, "error", err)
		return
	}
	logger.L.Debug("Report backed up", "file", file.Name, "path", path)
}
