// Package uralsib parses Uralsib broker statements. The broker delivers
// them as a zip archive holding one workbook per account.
package uralsib

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

const (
	brokerMarker    = "ООО \"УРАЛСИБ Брокер\""
	portfolioMarker = "Номер счета Клиента:"
	periodMarker    = "за период"

	// Trades of the report's last day settle before this hour, so the
	// report end instant is pushed to it.
	lastTradeHour = 19
)

// Report is one opened Uralsib statement.
type Report struct {
	page      *table.SlicePage
	fileName  string
	portfolio string
	reportEnd time.Time
}

// OpenReport reads an Uralsib statement. A .zip file is unwrapped to
// its first workbook entry first. A workbook of any other origin fails
// with ErrWrongReportFormat.
func OpenReport(fileName string, data []byte) (*Report, error) {
	if strings.HasSuffix(strings.ToLower(fileName), ".zip") {
		unwrapped, err := unwrapZip(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fileName, err)
		}
		data = unwrapped
	}
	page, err := table.OpenExcelPage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	// The broker name sits inside a longer title cell, so the match is
	// by containment rather than by prefix.
	if table.Find(page, brokerMarker, 0, 3, containsMatch) == table.NotFound {
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

func (r *Report) Page() table.ReportPage       { return r.page }
func (r *Report) FileName() string             { return r.fileName }
func (r *Report) Portfolio() string            { return r.portfolio }
func (r *Report) ReportEndDateTime() time.Time { return r.reportEnd }

func unwrapZip(data []byte) ([]byte, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening report archive: %w", err)
	}
	for _, entry := range archive.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		f, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("reading archived report %q: %w", entry.Name, err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return nil, fmt.Errorf("report archive has no files")
}

func containsMatch(cell, value string) bool {
	return strings.Contains(strings.ToLower(cell), strings.ToLower(value))
}

// findPortfolio reads the account number to the right of its marker.
// Investment and joint-account suffixes are not part of the portfolio
// identity and are stripped.
func findPortfolio(page table.ReportPage) (string, error) {
	addr := table.FindPrefix(page, portfolioMarker)
	if addr == table.NotFound {
		return "", fmt.Errorf("account marker %q not found", portfolioMarker)
	}
	for _, cell := range page.Row(addr.Row) {
		if cell.Column <= addr.Column || cell.IsBlank() {
			continue
		}
		value := strings.TrimSpace(cell.String())
		value = strings.ReplaceAll(value, "_invest", "")
		value = strings.ReplaceAll(value, "SP", "")
		return value, nil
	}
	return "", fmt.Errorf("no account number to the right of %q", portfolioMarker)
}

// findReportEnd reads the period end date from the title, e.g.
// "БРОКЕР: отчет за период с 01.06.2024 по 30.06.2024". The end date is
// the title's last word.
func findReportEnd(page table.ReportPage) (time.Time, error) {
	addr := table.Find(page, periodMarker, 0, page.LastRowNum()+1, containsMatch)
	if addr == table.NotFound {
		return time.Time{}, fmt.Errorf("report period marker %q not found", periodMarker)
	}
	row := page.Row(addr.Row)
	var title string
	for _, cell := range row {
		if cell.Row == addr.Row && cell.Column == addr.Column {
			title = cell.Value
			break
		}
	}
	words := strings.Fields(title)
	if len(words) == 0 {
		return time.Time{}, fmt.Errorf("empty report period text")
	}
	date, err := utils.ParseReportDate(words[len(words)-1])
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected report period text %q: %w", title, err)
	}
	return date.Add(lastTradeHour * time.Hour), nil
}
