package table

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const (
	colDate  Column = "date"
	colPrice Column = "price"
)

var testHeader = Header{
	colDate:  Keywords("дата"),
	colPrice: Keywords("цена"),
}

type priceRow struct {
	Date  string
	Price decimal.Decimal
}

func parsePriceRow(row *RowRecord) ([]priceRow, error) {
	date, err := row.String(colDate)
	if err != nil {
		return nil, err
	}
	price, err := row.Decimal(colPrice)
	if err != nil {
		return nil, err
	}
	return []priceRow{{Date: date, Price: price}}, nil
}

func TestTableBoundedByEmptyRow(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Отчет брокера"},
		{},
		{"Сделки за период"},
		{"Дата", "Цена"},
		{"01.06.2024", "100.5"},
		{"02.06.2024", "101.25"},
		{"", ""},
		{"Другая таблица"},
	})
	tbl, err := New(page, "report.xlsx", "Сделки за период", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tbl.Empty() {
		t.Fatal("table reported empty")
	}
	got := Extract(tbl, parsePriceRow)
	if len(got.Errors) != 0 {
		t.Fatalf("unexpected row errors: %v", got.Errors)
	}
	if len(got.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(got.Records))
	}
	if got.Records[0].Date != "01.06.2024" || !got.Records[0].Price.Equal(decimal.RequireFromString("100.5")) {
		t.Errorf("first record = %+v", got.Records[0])
	}
}

func TestTableBoundedByFooterSkipsTotals(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Сделки"},
		{"Дата", "Цена"},
		{"01.06.2024", "100"},
		{"02.06.2024", "200"},
		{"Итого оборот", "300"},
	})
	tbl, err := NewWithFooter(page, "report.xlsx", "Сделки", "Итого оборот", testHeader, 1)
	if err != nil {
		t.Fatalf("NewWithFooter: %v", err)
	}
	got := Extract(tbl, parsePriceRow)
	if len(got.Records) != 2 {
		t.Fatalf("got %d records, want 2 (totals row excluded)", len(got.Records))
	}
}

func TestTableAbsentAnchorIsEmpty(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Отчет брокера"},
		{"Дата", "Цена"},
	})
	tbl, err := New(page, "report.xlsx", "Сделки за период", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !tbl.Empty() {
		t.Error("missing anchor must yield an empty table, not an error")
	}
	if got := Extract(tbl, parsePriceRow); len(got.Records) != 0 || len(got.Errors) != 0 {
		t.Errorf("empty table extraction = %+v", got)
	}
}

func TestTableHeaderOnlyIsEmpty(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Сделки"},
		{"Дата", "Цена"},
		{},
	})
	tbl, err := New(page, "report.xlsx", "Сделки", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !tbl.Empty() {
		t.Error("anchor plus headers with no data rows must be empty")
	}
}

func TestTableMissingColumnFails(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Сделки"},
		{"Дата", "Объем"},
		{"01.06.2024", "100"},
	})
	_, err := New(page, "report.xlsx", "Сделки", testHeader, 1)
	if err == nil {
		t.Fatal("missing required column must fail table construction")
	}
	if !strings.Contains(err.Error(), "Сделки") || !strings.Contains(err.Error(), "report.xlsx") {
		t.Errorf("error should name the table and file: %v", err)
	}
}

func TestExtractCollectsRowErrorsAndContinues(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Сделки"},
		{"Дата", "Цена"},
		{"01.06.2024", "100"},
		{"02.06.2024", "не число"},
		{"03.06.2024", "300"},
		{},
	})
	tbl, err := New(page, "report.xlsx", "Сделки", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := Extract(tbl, parsePriceRow)
	if len(got.Records) != 2 {
		t.Errorf("got %d records, want 2 (bad row skipped)", len(got.Records))
	}
	if len(got.Errors) != 1 {
		t.Fatalf("got %d row errors, want 1", len(got.Errors))
	}
	if got.Errors[0].RowNum != 4 {
		t.Errorf("RowNum = %d, want 4 (1-based sheet row)", got.Errors[0].RowNum)
	}
}

func TestExtractSkipsNilResultRows(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Сделки"},
		{"Дата", "Цена"},
		{"01.06.2024", "100"},
		{"ИТОГО:", "100"},
		{},
	})
	tbl, err := New(page, "report.xlsx", "Сделки", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := Extract(tbl, func(row *RowRecord) ([]priceRow, error) {
		if row.Contains("ИТОГО") {
			return nil, nil
		}
		return parsePriceRow(row)
	})
	if len(got.Records) != 1 || len(got.Errors) != 0 {
		t.Errorf("extraction = %+v, want exactly the one data record", got)
	}
}

func TestExtractMergingFoldsDuplicates(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Выплаты"},
		{"Дата", "Цена"},
		{"01.06.2024", "50"},
		{"01.06.2024", "50"},
		{"02.06.2024", "70"},
		{},
	})
	tbl, err := New(page, "report.xlsx", "Выплаты", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := ExtractMerging(tbl, parsePriceRow,
		func(a, b priceRow) bool { return a.Date == b.Date },
		func(old, new priceRow) []priceRow {
			return []priceRow{{Date: old.Date, Price: old.Price.Add(new.Price)}}
		})
	if len(got.Records) != 2 {
		t.Fatalf("got %d records, want 2 after merge", len(got.Records))
	}
	// The merged record replaces the removed one at the collection's end.
	merged := got.Records[1]
	if merged.Date != "01.06.2024" || !merged.Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("merged record = %+v, want date 01.06.2024 price 100", merged)
	}
}

func TestExtractMergingKeepsLegitimateDuplicates(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Выплаты"},
		{"Дата", "Цена"},
		{"01.06.2024", "50"},
		{"01.06.2024", "50"},
		{},
	})
	tbl, err := New(page, "report.xlsx", "Выплаты", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := ExtractMerging(tbl, parsePriceRow,
		func(a, b priceRow) bool { return a.Date == b.Date },
		func(old, new priceRow) []priceRow { return []priceRow{old, new} })
	if len(got.Records) != 2 {
		t.Errorf("got %d records, want both duplicates kept", len(got.Records))
	}
}

func TestFindRow(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Сводная информация"},
		{"Показатель", "Значение"},
		{"Оценка активов", "1000.5"},
		{"Курс USD", "90.25"},
		{},
	})
	header := Header{
		colPrice: FixedPosition(1),
	}
	tbl, err := New(page, "report.xlsx", "Сводная информация", header, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	row := tbl.FindRow("Курс USD")
	if row == nil {
		t.Fatal("FindRow returned nil")
	}
	v, err := row.Decimal(colPrice)
	if err != nil {
		t.Fatalf("Decimal: %v", err)
	}
	if !v.Equal(decimal.RequireFromString("90.25")) {
		t.Errorf("value = %s, want 90.25", v)
	}
	if tbl.FindRow("Курс CNY") != nil {
		t.Error("FindRow for absent label must return nil")
	}
}

func TestSetDataRowOffset(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Денежные средства"},
		{"Дата", "Цена"},
		{"примечание", "x"},
		{"01.06.2024", "100"},
		{},
	})
	tbl, err := New(page, "report.xlsx", "Денежные средства", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tbl.SetDataRowOffset(3)
	got := Extract(tbl, parsePriceRow)
	if len(got.Records) != 1 || got.Records[0].Date != "01.06.2024" {
		t.Errorf("extraction = %+v, want the single shifted data row", got)
	}
}

func TestRowRecordDefaults(t *testing.T) {
	page := NewSlicePage([][]string{
		{"Сделки"},
		{"Дата", "Цена", "НКД"},
		{"01.06.2024", "100", ""},
		{},
	})
	header := Header{
		colDate:  Keywords("дата"),
		colPrice: Keywords("цена"),
		"accrued": Optional(Keywords("нкд")),
		"missing": Optional(Keywords("налог")),
	}
	tbl, err := New(page, "report.xlsx", "Сделки", header, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	row := tbl.Row(0)
	if row == nil {
		t.Fatal("Row(0) is nil")
	}
	if got := row.DecimalOr("accrued", decimal.Zero); !got.IsZero() {
		t.Errorf("blank optional cell = %s, want 0", got)
	}
	if got := row.StringOr("missing", "none"); got != "none" {
		t.Errorf("unresolved optional column = %q, want default", got)
	}
	if got := row.LongOr(colPrice, 0); got != 100 {
		t.Errorf("LongOr = %d, want 100", got)
	}
}

func TestLargeTableExtraction(t *testing.T) {
	rows := [][]string{
		{"Сделки"},
		{"Дата", "Цена"},
	}
	for i := 0; i < 500; i++ {
		rows = append(rows, []string{fmt.Sprintf("%02d.06.2024", i%28+1), fmt.Sprintf("%d.5", i)})
	}
	rows = append(rows, []string{"", ""})
	tbl, err := New(NewSlicePage(rows), "report.xlsx", "Сделки", testHeader, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := Extract(tbl, parsePriceRow)
	if len(got.Records) != 500 {
		t.Errorf("got %d records, want 500", len(got.Records))
	}
}
