package table

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Column is a logical column name declared by a broker table.
type Column string

// Header maps each logical column to the strategy that finds it.
type Header map[Column]ColumnStrategy

// Table is one named table located on a report page with its logical
// columns resolved. A zero-row or absent table is valid and empty.
type Table struct {
	page           ReportPage
	name           string
	fileName       string
	rng            Range
	headerRowCount int
	dataRowOffset  int
	lastRowIsTotals bool
	columns        map[Column]int
	empty          bool
}

// New locates a table terminated by the first blank row below its
// headers and resolves its columns. It returns an error only when a
// required column cannot be found; an absent table yields an empty one.
func New(page ReportPage, fileName, tableName string, header Header, headerRowCount int) (*Table, error) {
	rng := findRangeByEmptyRow(page, tableName, headerRowCount)
	return build(page, fileName, tableName, rng, header, headerRowCount, false)
}

// NewWithFooter locates a table bounded by a known footer row. The
// footer row is treated as a totals row and excluded from data.
func NewWithFooter(page ReportPage, fileName, tableName, footer string, header Header, headerRowCount int) (*Table, error) {
	rng := findRangeByFooter(page, tableName, footer, headerRowCount)
	return build(page, fileName, tableName, rng, header, headerRowCount, true)
}

func build(page ReportPage, fileName, tableName string, rng Range, header Header, headerRowCount int, totals bool) (*Table, error) {
	t := &Table{
		page:            page,
		name:            tableName,
		fileName:        fileName,
		rng:             rng,
		headerRowCount:  headerRowCount,
		dataRowOffset:   1 + headerRowCount,
		lastRowIsTotals: totals,
		columns:         make(map[Column]int, len(header)),
	}
	t.empty = rng.IsEmpty() || rng.LastRow-rng.FirstRow <= headerRowCount
	if t.empty {
		return t, nil
	}
	headers := make([][]Cell, 0, headerRowCount)
	for i := 1; i <= headerRowCount; i++ {
		row := page.Row(rng.FirstRow + i)
		if row == nil {
			row = []Cell{}
		}
		headers = append(headers, row)
	}
	for column, strategy := range header {
		index, err := strategy.Resolve(headers, rng.FirstColumn)
		if err != nil {
			return nil, fmt.Errorf("table %q in %q: column %q: %w", tableName, fileName, column, err)
		}
		t.columns[column] = index
	}
	return t, nil
}

// SetDataRowOffset overrides the default offset of the first data row
// from the table's anchor row. Used by tables that carry decorative
// rows between the headers and the data.
func (t *Table) SetDataRowOffset(offset int) {
	t.dataRowOffset = offset
}

func (t *Table) Name() string     { return t.name }
func (t *Table) FileName() string { return t.fileName }
func (t *Table) Empty() bool      { return t.empty }

// rowCount returns the number of data rows; the footer row of a
// footer-bounded table is not data.
func (t *Table) rowCount() int {
	if t.empty {
		return 0
	}
	count := t.rng.LastRow - t.rng.FirstRow - t.dataRowOffset
	if !t.lastRowIsTotals {
		count++
	}
	return count
}

// Row returns the i-th data row as a record, or nil for a physically
// absent row.
func (t *Table) Row(i int) *RowRecord {
	rowNum := t.rng.FirstRow + t.dataRowOffset + i
	row := t.page.Row(rowNum)
	if row == nil {
		return nil
	}
	return &RowRecord{table: t, rowNum: rowNum, cells: row}
}

// FindRow returns the record of the first data row whose leading cells
// contain the given text, or nil. Property-style tables are keyed by
// row label rather than read positionally.
func (t *Table) FindRow(value string) *RowRecord {
	if t.empty {
		return nil
	}
	addr := Find(t.page, value, t.rng.FirstRow+t.dataRowOffset, t.rng.LastRow+1, PrefixMatch)
	if addr == NotFound {
		return nil
	}
	return &RowRecord{table: t, rowNum: addr.Row, cells: t.page.Row(addr.Row)}
}

// RowRecord is one data row of a located table with typed accessors
// keyed by logical column.
type RowRecord struct {
	table  *Table
	rowNum int
	cells  []Cell
}

// RowNum is the 1-based sheet row number, matching what a person sees
// when the source file is opened in a spreadsheet program.
func (r *RowRecord) RowNum() int {
	return r.rowNum + 1
}

func (r *RowRecord) cell(column Column) (Cell, bool) {
	index, ok := r.table.columns[column]
	if !ok || index == NoColumnIndex {
		return Cell{}, false
	}
	if index < 0 || index >= len(r.cells) {
		return Cell{}, false
	}
	return r.cells[index], true
}

// Contains reports whether the row has any string cell starting with
// the given text.
func (r *RowRecord) Contains(value string) bool {
	for _, cell := range r.cells {
		if cell.Type == CellString && PrefixMatch(cell.Value, value) {
			return true
		}
	}
	return false
}

func (r *RowRecord) String(column Column) (string, error) {
	cell, ok := r.cell(column)
	if !ok || cell.IsBlank() {
		return "", fmt.Errorf("row %d: column %q has no value", r.RowNum(), column)
	}
	return cell.String(), nil
}

// StringOr returns the cell text or a default for an absent or blank
// cell.
func (r *RowRecord) StringOr(column Column, def string) string {
	cell, ok := r.cell(column)
	if !ok || cell.IsBlank() {
		return def
	}
	return cell.String()
}

func (r *RowRecord) Long(column Column) (int64, error) {
	cell, ok := r.cell(column)
	if !ok || cell.IsBlank() {
		return 0, fmt.Errorf("row %d: column %q has no value", r.RowNum(), column)
	}
	v, err := cell.Long()
	if err != nil {
		return 0, fmt.Errorf("row %d: column %q: %w", r.RowNum(), column, err)
	}
	return v, nil
}

func (r *RowRecord) LongOr(column Column, def int64) int64 {
	v, err := r.Long(column)
	if err != nil {
		return def
	}
	return v
}

func (r *RowRecord) Decimal(column Column) (decimal.Decimal, error) {
	cell, ok := r.cell(column)
	if !ok || cell.IsBlank() {
		return decimal.Zero, fmt.Errorf("row %d: column %q has no value", r.RowNum(), column)
	}
	v, err := cell.Decimal()
	if err != nil {
		return decimal.Zero, fmt.Errorf("row %d: column %q: %w", r.RowNum(), column, err)
	}
	return v, nil
}

func (r *RowRecord) DecimalOr(column Column, def decimal.Decimal) decimal.Decimal {
	v, err := r.Decimal(column)
	if err != nil {
		return def
	}
	return v
}

// RowError records a data row that could not be converted to a record.
// Row extraction never aborts on a bad row.
type RowError struct {
	Table  string
	File   string
	RowNum int
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("table %q in %q, row %d: %v", e.Table, e.File, e.RowNum, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Extraction is the outcome of walking a table: the records that
// converted cleanly and the rows that did not.
type Extraction[T any] struct {
	Records []T
	Errors  []RowError
}

// RowParser converts one table row to zero or more records. A nil
// result skips the row without error.
type RowParser[T any] func(row *RowRecord) ([]T, error)

// Extract walks every data row of the table through the parser,
// collecting records and per-row failures.
func Extract[T any](t *Table, parse RowParser[T]) Extraction[T] {
	return extract(t, parse, nil, nil)
}

// ExtractMerging extracts like Extract but resolves duplicate records:
// when a new record equals (per equal) an already collected one, the
// collected record is removed and replaced with merge's result. Merge
// returns one combined record, or both when the duplicate is
// legitimate and must be kept.
func ExtractMerging[T any](t *Table, parse RowParser[T], equal func(a, b T) bool, merge func(old, new T) []T) Extraction[T] {
	return extract(t, parse, equal, merge)
}

func extract[T any](t *Table, parse RowParser[T], equal func(a, b T) bool, merge func(old, new T) []T) Extraction[T] {
	var out Extraction[T]
	count := t.rowCount()
	for i := 0; i < count; i++ {
		row := t.Row(i)
		if row == nil {
			continue
		}
		records, err := parse(row)
		if err != nil {
			out.Errors = append(out.Errors, RowError{
				Table:  t.name,
				File:   t.fileName,
				RowNum: row.RowNum(),
				Err:    err,
			})
			continue
		}
		for _, record := range records {
			if equal == nil {
				out.Records = append(out.Records, record)
				continue
			}
			dup := -1
			for j, existing := range out.Records {
				if equal(existing, record) {
					dup = j
					break
				}
			}
			if dup == -1 {
				out.Records = append(out.Records, record)
				continue
			}
			old := out.Records[dup]
			out.Records = append(out.Records[:dup], out.Records[dup+1:]...)
			out.Records = append(out.Records, merge(old, record)...)
		}
	}
	return out
}
