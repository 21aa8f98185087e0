// Package database owns the sqlite connection and the stores the
// parsers and processors persist their records through.
package database

import (
	"database/sql"
	stdlog "log"

	"github.com/spacious-team/investbook-sub001/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the database and ensures the schema. Natural-key UNIQUE
// constraints make every insert idempotent, so re-uploading a statement
// never duplicates records.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}
	DB = db

	// Money columns are TEXT: decimal amounts round-trip exactly.
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS securities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		isin TEXT UNIQUE,
		ticker TEXT UNIQUE,
		name TEXT UNIQUE,
		type TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS security_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id TEXT NOT NULL,
		portfolio TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		security_id INTEGER NOT NULL,
		count INTEGER NOT NULL,
		value TEXT NOT NULL,
		accrued_interest TEXT NOT NULL,
		fee TEXT NOT NULL,
		value_currency TEXT NOT NULL,
		fee_currency TEXT NOT NULL,
		FOREIGN KEY(security_id) REFERENCES securities(id),
		UNIQUE(trade_id, portfolio)
	);

	CREATE TABLE IF NOT EXISTS derivative_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id TEXT NOT NULL,
		portfolio TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		security_id INTEGER NOT NULL,
		count INTEGER NOT NULL,
		value TEXT NOT NULL,
		fee TEXT NOT NULL,
		value_currency TEXT NOT NULL,
		fee_currency TEXT NOT NULL,
		FOREIGN KEY(security_id) REFERENCES securities(id),
		UNIQUE(trade_id, portfolio, value_currency)
	);

	CREATE TABLE IF NOT EXISTS event_cash_flows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		currency TEXT NOT NULL,
		description TEXT,
		UNIQUE(portfolio, timestamp, type, value, currency)
	);

	CREATE TABLE IF NOT EXISTS security_event_cash_flows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		type TEXT NOT NULL,
		security_id INTEGER NOT NULL,
		count INTEGER NOT NULL,
		value TEXT NOT NULL,
		currency TEXT NOT NULL,
		FOREIGN KEY(security_id) REFERENCES securities(id),
		UNIQUE(portfolio, timestamp, type, security_id, count, currency)
	);

	CREATE TABLE IF NOT EXISTS security_quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		security_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		quote TEXT NOT NULL,
		price TEXT,
		accrued_interest TEXT,
		currency TEXT,
		FOREIGN KEY(security_id) REFERENCES securities(id),
		UNIQUE(security_id, timestamp)
	);

	CREATE TABLE IF NOT EXISTS exchange_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		base_currency TEXT NOT NULL,
		quote_currency TEXT NOT NULL,
		rate TEXT NOT NULL,
		UNIQUE(date, base_currency, quote_currency)
	);

	CREATE TABLE IF NOT EXISTS portfolio_cash (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		market TEXT NOT NULL,
		value TEXT NOT NULL,
		currency TEXT NOT NULL,
		UNIQUE(portfolio, timestamp, market, currency)
	);

	CREATE TABLE IF NOT EXISTS portfolio_properties (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		property TEXT NOT NULL,
		value TEXT NOT NULL,
		UNIQUE(portfolio, timestamp, property)
	);
	`

	if _, err = DB.Exec(createTableStatement); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}
