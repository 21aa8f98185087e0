package database

import (
	"database/sql"
	"fmt"

	"github.com/spacious-team/investbook-sub001/src/models"
)

// RecordStore persists the record collections extracted from one
// statement. Every insert is INSERT OR IGNORE against the table's
// natural key, so overlapping report periods and repeated uploads fold
// into the rows already stored. Each save returns how many rows were
// actually new.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) SaveSecurityTransactions(records []models.SecurityTransaction) (int, error) {
	inserted := 0
	for _, r := range records {
		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO security_transactions
			(trade_id, portfolio, timestamp, security_id, count, value, accrued_interest, fee, value_currency, fee_currency)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.TradeID, r.Portfolio, r.Timestamp, r.SecurityID, r.Count,
			r.Value.String(), r.AccruedInterest.String(), r.Fee.String(),
			r.ValueCurrency, r.FeeCurrency)
		if err != nil {
			return inserted, fmt.Errorf("saving trade %s of %s: %w", r.TradeID, r.Portfolio, err)
		}
		inserted += affected(result)
	}
	return inserted, nil
}

func (s *RecordStore) SaveDerivativeTransactions(records []models.DerivativeTransaction) (int, error) {
	inserted := 0
	for _, r := range records {
		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO derivative_transactions
			(trade_id, portfolio, timestamp, security_id, count, value, fee, value_currency, fee_currency)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.TradeID, r.Portfolio, r.Timestamp, r.SecurityID, r.Count,
			r.Value.String(), r.Fee.String(), r.ValueCurrency, r.FeeCurrency)
		if err != nil {
			return inserted, fmt.Errorf("saving derivative trade %s of %s: %w", r.TradeID, r.Portfolio, err)
		}
		inserted += affected(result)
	}
	return inserted, nil
}

func (s *RecordStore) SaveEventCashFlows(records []models.EventCashFlow) (int, error) {
	inserted := 0
	for _, r := range records {
		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO event_cash_flows
			(portfolio, timestamp, type, value, currency, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.Portfolio, r.Timestamp, r.Type.String(), r.Value.String(), r.Currency, r.Description)
		if err != nil {
			return inserted, fmt.Errorf("saving cash flow of %s: %w", r.Portfolio, err)
		}
		inserted += affected(result)
	}
	return inserted, nil
}

func (s *RecordStore) SaveSecurityEventCashFlows(records []models.SecurityEventCashFlow) (int, error) {
	inserted := 0
	for _, r := range records {
		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO security_event_cash_flows
			(portfolio, timestamp, type, security_id, count, value, currency)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Portfolio, r.Timestamp, r.Type.String(), r.SecurityID, r.Count,
			r.Value.String(), r.Currency)
		if err != nil {
			return inserted, fmt.Errorf("saving security cash flow of %s: %w", r.Portfolio, err)
		}
		inserted += affected(result)
	}
	return inserted, nil
}

func (s *RecordStore) SaveSecurityQuotes(records []models.SecurityQuote) (int, error) {
	inserted := 0
	for _, r := range records {
		var price, accrued sql.NullString
		if r.Price != nil {
			price = sql.NullString{String: r.Price.String(), Valid: true}
		}
		if r.AccruedInterest != nil {
			accrued = sql.NullString{String: r.AccruedInterest.String(), Valid: true}
		}
		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO security_quotes
			(security_id, timestamp, quote, price, accrued_interest, currency)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.SecurityID, r.Timestamp, r.Quote.String(), price, accrued, r.Currency)
		if err != nil {
			return inserted, fmt.Errorf("saving quote of security %d: %w", r.SecurityID, err)
		}
		inserted += affected(result)
	}
	return inserted, nil
}

func (s *RecordStore) SavePortfolioCash(records []models.PortfolioCash) (int, error) {
	inserted := 0
	for _, r := range records {
		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO portfolio_cash
			(portfolio, timestamp, market, value, currency)
			VALUES (?, ?, ?, ?, ?)`,
			r.Portfolio, r.Timestamp, r.Market, r.Value.String(), r.Currency)
		if err != nil {
			return inserted, fmt.Errorf("saving cash balance of %s: %w", r.Portfolio, err)
		}
		inserted += affected(result)
	}
	return inserted, nil
}

func (s *RecordStore) SavePortfolioProperties(records []models.PortfolioProperty) (int, error) {
	inserted := 0
	for _, r := range records {
		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO portfolio_properties
			(portfolio, timestamp, property, value)
			VALUES (?, ?, ?, ?)`,
			r.Portfolio, r.Timestamp, r.Property, r.Value)
		if err != nil {
			return inserted, fmt.Errorf("saving property %s of %s: %w", r.Property, r.Portfolio, err)
		}
		inserted += affected(result)
	}
	return inserted, nil
}

func affected(result sql.Result) int {
	n, err := result.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
