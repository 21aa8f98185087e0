package table

// Range is a table's bounding box on a page, inclusive on all sides.
type Range struct {
	FirstRow    int
	LastRow     int
	FirstColumn int
	LastColumn  int
}

// EmptyRange marks a table whose anchor was not found on the page.
// Callers treat it as "table absent in this report version", not as an
// error. It is distinguishable from a valid one-row table.
var EmptyRange = Range{FirstRow: -1, LastRow: -1, FirstColumn: -1, LastColumn: -1}

func (r Range) IsEmpty() bool {
	return r == EmptyRange
}

// findRangeByFooter bounds a table that ends with a known footer text.
// The footer search starts below the header rows so a header cell never
// terminates its own table.
func findRangeByFooter(page ReportPage, tableName, footer string, headerRowCount int) Range {
	anchor := FindPrefix(page, tableName)
	if anchor == NotFound {
		return EmptyRange
	}
	end := Find(page, footer, anchor.Row+headerRowCount+1, page.LastRowNum()+1, PrefixMatch)
	if end == NotFound {
		return EmptyRange
	}
	first, last := columnSpan(page.Row(anchor.Row))
	return Range{FirstRow: anchor.Row, LastRow: end.Row, FirstColumn: first, LastColumn: last}
}

// findRangeByEmptyRow bounds a table that ends where the sheet's blank
// separator begins: the first fully absent or fully blank row below the
// headers. A deliberately blank data row inside one logical table will
// truncate it; tables followed immediately by another table must pass
// an explicit footer instead.
func findRangeByEmptyRow(page ReportPage, tableName string, headerRowCount int) Range {
	anchor := FindPrefix(page, tableName)
	if anchor == NotFound {
		return EmptyRange
	}
	lastRow := anchor.Row + headerRowCount + 1
scan:
	for ; lastRow <= page.LastRowNum(); lastRow++ {
		row := page.Row(lastRow)
		if row == nil {
			break
		}
		for _, cell := range row {
			if !cell.IsBlank() {
				continue scan
			}
		}
		break // every cell of the row is blank
	}
	lastRow-- // the blank row is not part of the table
	if lastRow < anchor.Row {
		lastRow = anchor.Row
	}
	first, last := columnSpan(page.Row(anchor.Row))
	return Range{FirstRow: anchor.Row, LastRow: lastRow, FirstColumn: first, LastColumn: last}
}

// columnSpan returns the first and last non-blank cell columns of the
// anchor row.
func columnSpan(row []Cell) (first, last int) {
	first, last = -1, -1
	for _, cell := range row {
		if cell.IsBlank() {
			continue
		}
		if first == -1 {
			first = cell.Column
		}
		last = cell.Column
	}
	return first, last
}
