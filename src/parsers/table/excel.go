package table

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// OpenExcelPage reads the first sheet of an xlsx workbook into a
// SlicePage. The whole sheet is materialized up front so no file handle
// outlives the page.
func OpenExcelPage(data []byte) (*SlicePage, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return NewSlicePage(rows), nil
}
