package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/parsers"
)

// SQLSecurityStore persists instruments, implementing the lookup and
// insert contract of the security registrar. Absent keys are stored as
// NULL so the per-column UNIQUE constraints ignore them.
type SQLSecurityStore struct {
	db *sql.DB
}

func NewSQLSecurityStore(db *sql.DB) *SQLSecurityStore {
	return &SQLSecurityStore{db: db}
}

func (s *SQLSecurityStore) FindByISIN(isin string) (*models.Security, error) {
	return s.findBy("isin", isin)
}

func (s *SQLSecurityStore) FindByTicker(ticker string) (*models.Security, error) {
	return s.findBy("ticker", ticker)
}

func (s *SQLSecurityStore) FindByName(name string) (*models.Security, error) {
	return s.findBy("name", name)
}

func (s *SQLSecurityStore) findBy(column, key string) (*models.Security, error) {
	row := s.db.QueryRow(
		"SELECT id, isin, ticker, name, type FROM securities WHERE "+column+" = ?", key)
	var security models.Security
	var isin, ticker, name sql.NullString
	var securityType string
	err := row.Scan(&security.ID, &isin, &ticker, &name, &securityType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting security by %s: %w", column, err)
	}
	security.ISIN = isin.String
	security.Ticker = ticker.String
	security.Name = name.String
	security.Type = parseSecurityType(securityType)
	return &security, nil
}

func (s *SQLSecurityStore) Insert(security models.Security) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO securities (isin, ticker, name, type) VALUES (?, ?, ?, ?)",
		nullable(security.ISIN), nullable(security.Ticker), nullable(security.Name),
		security.Type.String())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("inserting security: %w", parsers.ErrUniqueViolation)
		}
		return 0, fmt.Errorf("inserting security: %w", err)
	}
	return result.LastInsertId()
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// isUniqueViolation recognizes the sqlite constraint error by message;
// the driver exposes no typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func parseSecurityType(value string) models.SecurityType {
	for _, t := range []models.SecurityType{
		models.TypeStock, models.TypeBond, models.TypeStockOrBond,
		models.TypeAsset, models.TypeDerivative, models.TypeCurrencyPair,
	} {
		if t.String() == value {
			return t
		}
	}
	return models.TypeUnspecified
}
