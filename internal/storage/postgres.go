package storage

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		source TEXT,
		person TEXT,
		chamber TEXT,
		ticker TEXT NOT NULL,
		side TEXT,
		amount BIGINT,
		transaction_date TIMESTAMPTZ,
		disclosed_date TIMESTAMPTZ,
		url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_ticker_disclosed ON trades(ticker, disclosed_date)`,
	`CREATE TABLE IF NOT EXISTS insider_trades (
		id TEXT PRIMARY KEY,
		insider TEXT,
		role TEXT,
		ticker TEXT NOT NULL,
		side TEXT,
		value BIGINT,
		transaction_date TIMESTAMPTZ,
		filing_date TIMESTAMPTZ,
		url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		ticker TEXT NOT NULL,
		award_date TIMESTAMPTZ,
		amount BIGINT,
		agency TEXT,
		description TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_ticker_award ON contracts(ticker, award_date)`,
	`CREATE TABLE IF NOT EXISTS prices (
		ticker TEXT,
		date DATE,
		close DOUBLE PRECISION,
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE TABLE IF NOT EXISTS alerts_sent (
		alert_hash TEXT PRIMARY KEY,
		sent_at TIMESTAMPTZ NOT NULL
	)`,
}

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/smartmoney?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db, d: dialect{
		name:   "postgres",
		schema: postgresSchema,
		bind:   dollarPlaceholders,
		ts: func(t time.Time) any {
			return t.UTC()
		},
	}}}, nil
}
