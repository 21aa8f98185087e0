package database

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/models"
)

// SQLRateStore persists official exchange rates between runs so the
// rate service survives a restart without re-uploading reports.
type SQLRateStore struct {
	db *sql.DB
}

func NewSQLRateStore(db *sql.DB) *SQLRateStore {
	return &SQLRateStore{db: db}
}

// SaveRate stores one rate. Re-registering a day already stored is a
// no-op: the first uploaded report wins.
func (s *SQLRateStore) SaveRate(rate models.ForeignExchangeRate) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO exchange_rates (date, base_currency, quote_currency, rate) VALUES (?, ?, ?, ?)",
		rate.Date, rate.BaseCurrency, rate.QuoteCurrency, rate.Rate.String())
	if err != nil {
		return fmt.Errorf("saving %s/%s rate for %s: %w",
			rate.BaseCurrency, rate.QuoteCurrency, rate.Date, err)
	}
	return nil
}

func (s *SQLRateStore) LoadRates() ([]models.ForeignExchangeRate, error) {
	rows, err := s.db.Query("SELECT date, base_currency, quote_currency, rate FROM exchange_rates")
	if err != nil {
		return nil, fmt.Errorf("loading exchange rates: %w", err)
	}
	defer rows.Close()

	var rates []models.ForeignExchangeRate
	for rows.Next() {
		var rate models.ForeignExchangeRate
		var value string
		if err := rows.Scan(&rate.Date, &rate.BaseCurrency, &rate.QuoteCurrency, &value); err != nil {
			return nil, fmt.Errorf("scanning exchange rate: %w", err)
		}
		rate.Rate, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("stored %s/%s rate for %s is not a number: %w",
				rate.BaseCurrency, rate.QuoteCurrency, rate.Date, err)
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}
