package parsers

import (
	"sync"

	"github.com/spacious-team/investbook-sub001/src/logger"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
)

// ReportTable computes one record collection of a statement lazily and
// at most once. Row-level failures are logged on first computation and
// the affected rows skipped; later calls return the cached records.
type ReportTable[T any] struct {
	once    sync.Once
	compute func() table.Extraction[T]
	records []T
}

func NewReportTable[T any](compute func() table.Extraction[T]) *ReportTable[T] {
	return &ReportTable[T]{compute: compute}
}

func (t *ReportTable[T]) Data() []T {
	t.once.Do(func() {
		extraction := t.compute()
		for _, rowErr := range extraction.Errors {
			logger.L.Error("skipping unparseable report row", "error", rowErr.Error())
		}
		t.records = extraction.Records
		t.compute = nil
	})
	return t.records
}
