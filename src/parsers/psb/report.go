// Package psb parses Promsvyazbank broker statements.
package psb

import (
	"fmt"
	"strings"
	"time"

	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

const (
	brokerMarker     = "Брокер: ПАО \"Промсвязьбанк\""
	portfolioMarker  = "Договор №:"
	reportDateMarker = "ОТЧЕТ БРОКЕРА"

	// Trades of the report's last day settle before this hour, so the
	// report end instant is pushed to it.
	lastTradeHour = 19
)

// Report is one opened PSB statement.
type Report struct {
	page      *table.SlicePage
	fileName  string
	portfolio string
	reportEnd time.Time
}

// OpenReport reads a PSB statement workbook. A workbook of any other
// origin fails with ErrWrongReportFormat.
func OpenReport(fileName string, data []byte) (*Report, error) {
	page, err := table.OpenExcelPage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	if table.Find(page, brokerMarker, 0, 10, table.PrefixMatch) == table.NotFound {
		return nil, fmt.Errorf("%s: %w", fileName, parsers.ErrWrongReportFormat)
	}
	portfolio, err := findPortfolio(page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	reportEnd, err := findReportEnd(page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return &Report{
		page:      page,
		fileName:  fileName,
		portfolio: portfolio,
		reportEnd: reportEnd,
	}, nil
}

func (r *Report) Page() table.ReportPage        { return r.page }
func (r *Report) FileName() string              { return r.fileName }
func (r *Report) Portfolio() string             { return r.portfolio }
func (r *Report) ReportEndDateTime() time.Time  { return r.reportEnd }

// findPortfolio reads the contract number to the right of its marker.
// A joint contract "NNN/МО" keeps only the leading part.
func findPortfolio(page table.ReportPage) (string, error) {
	value, err := nextColumnValue(page, portfolioMarker)
	if err != nil {
		return "", fmt.Errorf("contract number not found after %q marker: %w", portfolioMarker, err)
	}
	if i := strings.Index(value, "/"); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value), nil
}

// findReportEnd reads the period end date from the report title, e.g.
// "за период с 01.06.2024 по 30.06.2024".
func findReportEnd(page table.ReportPage) (time.Time, error) {
	value, err := nextColumnValue(page, reportDateMarker)
	if err != nil {
		return time.Time{}, fmt.Errorf("report date not found after %q marker: %w", reportDateMarker, err)
	}
	words := strings.Fields(value)
	if len(words) < 4 {
		return time.Time{}, fmt.Errorf("unexpected report period text %q", value)
	}
	date, err := utils.ParseReportDate(words[3])
	if err != nil {
		return time.Time{}, err
	}
	return date.Add(lastTradeHour * time.Hour), nil
}

// nextColumnValue returns the first string cell to the right of the
// cell holding the marker text.
func nextColumnValue(page table.ReportPage, marker string) (string, error) {
	addr := table.FindPrefix(page, marker)
	if addr == table.NotFound {
		return "", fmt.Errorf("marker %q not found", marker)
	}
	for _, cell := range page.Row(addr.Row) {
		if cell.Column > addr.Column && cell.Type == table.CellString {
			return cell.Value, nil
		}
	}
	return "", fmt.Errorf("no value to the right of %q", marker)
}
