// Package table locates named tables on a broker report page, resolves
// logical columns from noisy multi-row headers and extracts data rows
// into domain records.
package table

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CellType classifies the value a report cell carries.
type CellType int

const (
	CellBlank CellType = iota
	CellString
	CellNumeric
	CellBoolean
)

// Cell is one typed cell of a report page. Numeric cells keep their raw
// text so decimal values survive re-typing untouched.
type Cell struct {
	Row    int
	Column int
	Type   CellType
	Value  string
}

func (c Cell) IsBlank() bool {
	return c.Type == CellBlank || strings.TrimSpace(c.Value) == ""
}

func (c Cell) String() string {
	if c.Type == CellBlank {
		return ""
	}
	return c.Value
}

func (c Cell) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(c.Value), " ", ""))
}

// Long parses an integer cell. Some reports carry trade numbers in
// string-typed cells, so numeric strings are accepted too.
func (c Cell) Long() (int64, error) {
	s := strings.TrimSpace(c.Value)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// CellAddress is a (row, column) position on a page.
type CellAddress struct {
	Row    int
	Column int
}

// NotFound is returned by page searches that matched nothing.
var NotFound = CellAddress{Row: -1, Column: -1}

// ReportPage is an immutable grid of typed cells. Row returns nil for a
// physically absent row; sparse sheets may omit fully blank rows.
type ReportPage interface {
	Row(num int) []Cell
	LastRowNum() int
}

// SlicePage is a ReportPage backed by an in-memory cell grid. It backs
// both the excelize adapter and test fixtures.
type SlicePage struct {
	rows [][]Cell
}

// NewSlicePage types every raw cell value: empty text becomes a blank
// cell, TRUE/FALSE a boolean, parseable numbers numeric, anything else
// a string.
func NewSlicePage(rows [][]string) *SlicePage {
	typed := make([][]Cell, len(rows))
	for r, row := range rows {
		if len(row) == 0 {
			continue // absent row
		}
		cells := make([]Cell, len(row))
		for c, value := range row {
			cells[c] = typeCell(r, c, value)
		}
		typed[r] = cells
	}
	return &SlicePage{rows: typed}
}

func typeCell(row, col int, value string) Cell {
	cell := Cell{Row: row, Column: col, Value: value}
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		cell.Type = CellBlank
	case strings.EqualFold(trimmed, "TRUE") || strings.EqualFold(trimmed, "FALSE"):
		cell.Type = CellBoolean
	default:
		if _, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, " ", ""), 64); err == nil {
			cell.Type = CellNumeric
		} else {
			cell.Type = CellString
		}
	}
	return cell
}

func (p *SlicePage) Row(num int) []Cell {
	if num < 0 || num >= len(p.rows) {
		return nil
	}
	return p.rows[num]
}

func (p *SlicePage) LastRowNum() int {
	return len(p.rows) - 1
}

// PrefixMatch reports whether the cell text starts with the searched
// value, ignoring case and surrounding whitespace. It is the default
// predicate for anchor and footer searches.
func PrefixMatch(cell, value string) bool {
	return strings.HasPrefix(
		strings.ToLower(strings.TrimSpace(cell)),
		strings.ToLower(strings.TrimSpace(value)))
}

// EqualMatch reports exact cell text equality.
func EqualMatch(cell, value string) bool {
	return cell == value
}

// Find scans rows [startRow, endRow) for a string cell satisfying the
// predicate and returns its address, or NotFound.
func Find(page ReportPage, value string, startRow, endRow int, match func(cell, value string) bool) CellAddress {
	last := page.LastRowNum()
	if last < 0 {
		return NotFound
	}
	if endRow > last+1 {
		endRow = last + 1
	}
	if startRow < 0 {
		startRow = 0
	}
	for rowNum := startRow; rowNum < endRow; rowNum++ {
		row := page.Row(rowNum)
		if row == nil {
			continue
		}
		for _, cell := range row {
			if cell.Type == CellString && match(cell.Value, value) {
				return CellAddress{Row: cell.Row, Column: cell.Column}
			}
		}
	}
	return NotFound
}

// FindPrefix searches the whole page for a cell starting with value.
func FindPrefix(page ReportPage, value string) CellAddress {
	return Find(page, value, 0, page.LastRowNum()+1, PrefixMatch)
}

// RowContains reports whether any string cell of the given physical row
// starts with the value.
func RowContains(page ReportPage, rowNum int, value string) bool {
	return Find(page, value, rowNum, rowNum+1, PrefixMatch) != NotFound
}
