package uralsib

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/spacious-team/investbook-sub001/src/logger"
	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/parsers/table"
	"github.com/spacious-team/investbook-sub001/src/processors"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

type fakeSecurityStore struct {
	nextID int64
	rows   map[string]models.Security
}

func newFakeSecurityStore() *fakeSecurityStore {
	return &fakeSecurityStore{rows: make(map[string]models.Security)}
}

func (s *fakeSecurityStore) FindByISIN(isin string) (*models.Security, error) {
	for _, row := range s.rows {
		if row.ISIN == isin {
			found := row
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeSecurityStore) FindByTicker(ticker string) (*models.Security, error) {
	for _, row := range s.rows {
		if row.Ticker == ticker {
			found := row
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeSecurityStore) FindByName(name string) (*models.Security, error) {
	for _, row := range s.rows {
		if row.Name == name {
			found := row
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeSecurityStore) Insert(security models.Security) (int64, error) {
	s.nextID++
	security.ID = s.nextID
	s.rows[security.ISIN+"|"+security.Ticker+"|"+security.Name] = security
	return security.ID, nil
}

func testReport(rows [][]string) *Report {
	end, _ := utils.ParseReportDate("30.06.2024")
	return &Report{
		page:      table.NewSlicePage(rows),
		fileName:  "report.xlsx",
		portfolio: "123456",
		reportEnd: end.Add(lastTradeHour * time.Hour),
	}
}

func testDeps(t *testing.T) (*parsers.SecurityRegistrar, *processors.FeeReconciler) {
	t.Helper()
	registrar := parsers.NewSecurityRegistrar(newFakeSecurityStore())
	rates, err := processors.NewRateService(nil)
	if err != nil {
		t.Fatalf("NewRateService: %v", err)
	}
	return registrar, processors.NewFeeReconciler(rates)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestOpenReportFromZip(t *testing.T) {
	workbook := buildWorkbook(t, [][]interface{}{
		{"Отчет ООО \"УРАЛСИБ Брокер\" за период с 01.06.2024 по 30.06.2024"},
		{"Номер счета Клиента:", "123456_invest"},
	})
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	entry, err := zw.Create("report.xlsx")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := entry.Write(workbook); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	r, err := OpenReport("report.zip", archive.Bytes())
	if err != nil {
		t.Fatalf("OpenReport: %v", err)
	}
	if r.Portfolio() != "123456" {
		t.Errorf("portfolio = %q, want 123456 (suffix stripped)", r.Portfolio())
	}
	wantEnd, _ := utils.ParseReportDate("30.06.2024")
	wantEnd = wantEnd.Add(lastTradeHour * time.Hour)
	if !r.ReportEndDateTime().Equal(wantEnd) {
		t.Errorf("report end = %v, want %v", r.ReportEndDateTime(), wantEnd)
	}
}

func TestOpenReportWrongFormat(t *testing.T) {
	workbook := buildWorkbook(t, [][]interface{}{
		{"Отчет другого брокера за период с 01.06.2024 по 30.06.2024"},
	})
	if _, err := OpenReport("report.xlsx", workbook); !errors.Is(err, parsers.ErrWrongReportFormat) {
		t.Fatalf("err = %v, want ErrWrongReportFormat", err)
	}
}

func TestParseSecurityTransactions(t *testing.T) {
	r := testReport([][]string{
		{transactionTableName},
		{"Номер сделки", "Дата сделки", "ISIN", "Вид сделки", "Количество ЦБ, шт.", "Сумма сделки", "НКД", "Валюта суммы", "Комиссия ТС", "", "Комиссия брокера", ""},
		{"", "", "", "", "", "", "", "", "Всего", "Валюта списания", "", "Валюта списания"},
		{"200001", "03.06.2024 10:00:00", "RU000A0JX0J2", "Покупка", "10", "1000", "0", "RUB", "0.5", "RUB", "2.5", "RUB"},
		{"Фондовый рынок МБ", "", "", "", "", "", "", "", "", "", "", ""},
		{"200002", "04.06.2024 11:00:00", "RU000A0JX0J2", "Продажа", "5", "600", "0", "RUB", "0.3", "RUB", "1.2", "RUB"},
		{},
	})
	registrar, reconciler := testDeps(t)

	got := extractSecurityTransactions(r, registrar, reconciler)
	if len(got.Errors) != 0 {
		t.Fatalf("row errors: %v", got.Errors)
	}
	// The section caption row has no trade number and is skipped.
	if len(got.Records) != 2 {
		t.Fatalf("got %d trades, want 2", len(got.Records))
	}

	buy := got.Records[0]
	if buy.TradeID != "200001" || buy.Portfolio != "123456" {
		t.Errorf("identity = %s/%s", buy.TradeID, buy.Portfolio)
	}
	if buy.Count != 10 {
		t.Errorf("buy count = %d, want 10", buy.Count)
	}
	if !buy.Value.Equal(decimal.NewFromInt(-1000)) {
		t.Errorf("buy value = %s, want -1000", buy.Value)
	}
	if !buy.Fee.Equal(decimal.RequireFromString("-3")) {
		t.Errorf("buy fee = %s, want -3 (0.5+2.5 negated)", buy.Fee)
	}
	if buy.FeeCurrency != "RUB" {
		t.Errorf("fee currency = %s, want RUB", buy.FeeCurrency)
	}

	sell := got.Records[1]
	if sell.Count != -5 {
		t.Errorf("sell count = %d, want -5", sell.Count)
	}
	if !sell.Value.Equal(decimal.NewFromInt(600)) {
		t.Errorf("sell value = %s, want 600", sell.Value)
	}
	if buy.SecurityID != sell.SecurityID {
		t.Error("same ISIN must resolve to the same security id")
	}
}

func TestParseEventCashFlows(t *testing.T) {
	r := testReport([][]string{
		{cashFlowTableName},
		{"Дата", "Тип операции", "Сумма", "Валюта", "Комментарий"},
		{"03.06.2024", "Ввод ДС", "10000", "RUB", ""},
		{"05.06.2024", "Вывод ДС", "2000", "RUB", ""},
		{"06.06.2024", "Перевод ДС", "500", "RUB", "Перевод на счет 123456"},
		{"07.06.2024", "Перевод ДС", "700", "RUB", "Перевод на счет 123456I"},
		{"08.06.2024", "Налог", "130", "RUB", "НДФЛ"},
		{"09.06.2024", "Доход по финансовым инструментам", "50", "RUB", "Дивиденды"},
		{},
	})
	got := extractEventCashFlows(r)
	if len(got.Errors) != 0 {
		t.Fatalf("row errors: %v", got.Errors)
	}
	// The transfer to the account itself, the security payment and no
	// others are skipped.
	if len(got.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(got.Records))
	}
	if !got.Records[0].Value.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("deposit = %s, want 10000", got.Records[0].Value)
	}
	if !got.Records[1].Value.Equal(decimal.NewFromInt(-2000)) {
		t.Errorf("withdrawal = %s, want -2000", got.Records[1].Value)
	}
	transfer := got.Records[2]
	if transfer.Type != models.CashFlowCash || !transfer.Value.Equal(decimal.NewFromInt(-700)) {
		t.Errorf("linked account transfer = %+v, want -700 cash", transfer)
	}
	tax := got.Records[3]
	if tax.Type != models.CashFlowTax || !tax.Value.Equal(decimal.NewFromInt(-130)) {
		t.Errorf("tax = %+v", tax)
	}
}

func TestParsePayments(t *testing.T) {
	r := testReport([][]string{
		{cashFlowTableName},
		{"Дата", "Тип операции", "Сумма", "Валюта", "Комментарий"},
		{"10.06.2024", "Доход по финансовым инструментам", "261", "RUB", "Дивиденды Сбербанк; налог в размере 39 удержан"},
		{"11.06.2024", "Доход по финансовым инструментам", "100", "RUB", "Погашение купона по неизвестной бумаге"},
		{},
	})
	securities := []securityInfo{{
		securityID:    7,
		isin:          "RU0009029540",
		name:          "Сбербанк",
		cfi:           "ESVUFR",
		incomingCount: 30,
	}}
	buyInstant, _ := utils.ParseReportDate("05.06.2024")
	trades := []models.SecurityTransaction{{
		TradeID: "200001", Portfolio: "123456", Timestamp: buyInstant.Unix(),
		SecurityID: 7, Count: 10,
	}}

	got := extractPayments(r, securities, trades)
	if len(got.Errors) != 0 {
		t.Fatalf("row errors: %v", got.Errors)
	}
	if len(got.SecurityEvents) != 2 {
		t.Fatalf("got %d security events, want dividend + tax", len(got.SecurityEvents))
	}
	dividend, tax := got.SecurityEvents[0], got.SecurityEvents[1]
	if dividend.Type != models.CashFlowDividend || !dividend.Value.Equal(decimal.NewFromInt(300)) {
		t.Errorf("dividend = %+v, want gross 300 (261 + withheld 39)", dividend)
	}
	if dividend.Count != 40 {
		t.Errorf("dividend count = %d, want 40 (30 incoming + 10 bought)", dividend.Count)
	}
	if tax.Type != models.CashFlowTax || !tax.Value.Equal(decimal.NewFromInt(-39)) {
		t.Errorf("tax = %+v", tax)
	}

	// The coupon names no known instrument and degrades to an
	// account-level flow with its description kept.
	if len(got.EventCashFlows) != 1 {
		t.Fatalf("got %d account-level flows, want 1", len(got.EventCashFlows))
	}
	coupon := got.EventCashFlows[0]
	if coupon.Type != models.CashFlowCoupon || !coupon.Value.Equal(decimal.NewFromInt(100)) {
		t.Errorf("coupon fallback = %+v", coupon)
	}
	if coupon.Description == "" {
		t.Error("fallback flow must keep the payment description")
	}
}

func TestParsePaymentsLinkedAccountDuplicate(t *testing.T) {
	row := []string{"10.06.2024", "Доход по финансовым инструментам", "261", "RUB", "Дивиденды Сбербанк; налог в размере 39 удержан"}
	r := testReport([][]string{
		{cashFlowTableName},
		{"Дата", "Тип операции", "Сумма", "Валюта", "Комментарий"},
		row,
		append([]string(nil), row...),
		{},
	})
	securities := []securityInfo{{
		securityID: 7, isin: "RU0009029540", name: "Сбербанк", incomingCount: 30,
	}}

	got := extractPayments(r, securities, nil)
	if len(got.Errors) != 0 {
		t.Fatalf("row errors: %v", got.Errors)
	}
	if len(got.SecurityEvents) != 0 {
		t.Fatalf("duplicated payments must leave no security events, got %d", len(got.SecurityEvents))
	}
	// Both copies of the dividend and both copies of the tax survive as
	// account-level flows.
	if len(got.EventCashFlows) != 4 {
		t.Fatalf("got %d account-level flows, want 4", len(got.EventCashFlows))
	}
	for _, flow := range got.EventCashFlows {
		if flow.Description == "" {
			t.Error("demoted flow must keep the payment description")
		}
	}
}

func TestParseExchangeRates(t *testing.T) {
	r := testReport([][]string{
		{"Официальный обменный курс на дату окончания периода:"},
		{"USD = 89,70 EUR = 97,10"},
	})
	got := extractExchangeRates(r)
	if len(got.Records) != 2 {
		t.Fatalf("got %d rates, want USD and EUR", len(got.Records))
	}
	usd := got.Records[0]
	if usd.BaseCurrency != "USD" || usd.QuoteCurrency != "RUB" || !usd.Rate.Equal(decimal.RequireFromString("89.7")) {
		t.Errorf("usd rate = %+v", usd)
	}
	if usd.Date != "2024-06-30" {
		t.Errorf("rate date = %s, want 2024-06-30", usd.Date)
	}
}

func TestParseAssets(t *testing.T) {
	r := testReport([][]string{
		{assetsTableName},
		{"", "На конец отчетного периода"},
		{"", "по цене закрытия"},
		{"", "руб."},
		{assetsTotalRow, "1500000.50"},
	})
	got := extractPortfolioProperties(r)
	if len(got.Errors) != 0 {
		t.Fatalf("errors: %v", got.Errors)
	}
	if len(got.Records) != 1 {
		t.Fatalf("got %d properties, want 1", len(got.Records))
	}
	if got.Records[0].Property != models.PropertyTotalAssetsRUB || got.Records[0].Value != "1500000.5" {
		t.Errorf("assets = %+v", got.Records[0])
	}
}

func TestParseAssetsOlderReportShape(t *testing.T) {
	r := testReport([][]string{
		{assetsTableName},
		{"", "по цене закрытия"},
		{"", "руб."},
		{assetsTotalRow, "2000000"},
	})
	got := extractPortfolioProperties(r)
	if len(got.Errors) != 0 {
		t.Fatalf("errors: %v", got.Errors)
	}
	if len(got.Records) != 1 || got.Records[0].Value != "2000000" {
		t.Fatalf("records = %+v, want one 2000000 property", got.Records)
	}
}

func TestParsePortfolioCash(t *testing.T) {
	r := testReport([][]string{
		{cashTableName},
		{"Входящий остаток", "Исходящий остаток", "Код валюты"},
		{"руб.", "руб.", ""},
		{"1000", "1234.56", "RUR"},
		{},
	})
	got := extractPortfolioCash(r)
	if len(got.Errors) != 0 {
		t.Fatalf("row errors: %v", got.Errors)
	}
	if len(got.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(got.Records))
	}
	cash := got.Records[0]
	if !cash.Value.Equal(decimal.RequireFromString("1234.56")) || cash.Currency != "RUB" {
		t.Errorf("cash = %+v, want 1234.56 RUB", cash)
	}
}

func TestParseSecurities(t *testing.T) {
	r := testReport([][]string{
		{securitiesTableName},
		{"Наименование", "ISIN", "CFI", "Количество, шт. на начало периода"},
		{"Сбербанк", "RU0009029540", "ESVUFR", "30"},
		{securitiesTableFooter},
	})
	registrar, _ := testDeps(t)

	got := extractSecurities(r, registrar)
	if len(got.Errors) != 0 {
		t.Fatalf("row errors: %v", got.Errors)
	}
	if len(got.Records) != 1 {
		t.Fatalf("got %d securities, want 1", len(got.Records))
	}
	info := got.Records[0]
	if info.securityID == 0 {
		t.Error("security must be registered with a non-zero id")
	}
	if info.incomingCount != 30 || info.cfi != "ESVUFR" {
		t.Errorf("info = %+v", info)
	}
}
