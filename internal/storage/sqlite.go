package storage

import (
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed width so text comparison orders chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05Z"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		source TEXT,
		person TEXT,
		chamber TEXT,
		ticker TEXT NOT NULL,
		side TEXT,
		amount INTEGER,
		transaction_date TEXT,
		disclosed_date TEXT,
		url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_ticker_disclosed ON trades(ticker, disclosed_date)`,
	`CREATE TABLE IF NOT EXISTS insider_trades (
		id TEXT PRIMARY KEY,
		insider TEXT,
		role TEXT,
		ticker TEXT NOT NULL,
		side TEXT,
		value INTEGER,
		transaction_date TEXT,
		filing_date TEXT,
		url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		ticker TEXT NOT NULL,
		award_date TEXT,
		amount INTEGER,
		agency TEXT,
		description TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_ticker_award ON contracts(ticker, award_date)`,
	`CREATE TABLE IF NOT EXISTS prices (
		ticker TEXT,
		date TEXT,
		close REAL,
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE TABLE IF NOT EXISTS alerts_sent (
		alert_hash TEXT PRIMARY KEY,
		sent_at TEXT NOT NULL
	)`,
}

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:smartmoney.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single writer keeps busy errors out of a run-to-completion job
	db.SetMaxOpenConns(1)
	return &sqliteStore{baseStore{db: db, d: dialect{
		name:   "sqlite",
		schema: sqliteSchema,
		bind:   questionMarks,
		ts: func(t time.Time) any {
			return t.UTC().Format(sqliteTimeLayout)
		},
	}}}, nil
}
