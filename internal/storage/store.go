package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartmoney/internal/config"
	"smartmoney/internal/model"
)

type Table string

const (
	TableTrades        Table = "trades"
	TableInsiderTrades Table = "insider_trades"
	TableContracts     Table = "contracts"
)

var ErrUnknownTable = errors.New("unknown table")

// Store is the persistence contract of the pipeline. Inserts never overwrite:
// a duplicate primary key is a no-op reported as inserted == false.
type Store interface {
	Init(ctx context.Context) error
	Close() error

	Exists(ctx context.Context, table Table, id string) (bool, error)
	InsertGovernmentTrade(ctx context.Context, t model.GovernmentTrade) (bool, error)
	InsertInsiderTrade(ctx context.Context, t model.InsiderTrade) (bool, error)
	InsertContract(ctx context.Context, c model.Contract) (bool, error)

	// CountGovernmentTradesSince counts trades for ticker disclosed at or after
	// since, leaving out excludeID when it is non-empty.
	CountGovernmentTradesSince(ctx context.Context, ticker string, since time.Time, excludeID string) (int, error)
	// CountContractsBetween counts awards for ticker within [start, end].
	CountContractsBetween(ctx context.Context, ticker string, start, end time.Time) (int, error)

	AlertExists(ctx context.Context, alertHash string) (bool, error)
	RecordAlert(ctx context.Context, rec model.AlertRecord) (bool, error)
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}

// dialect captures what differs between the SQL backends.
type dialect struct {
	name   string
	schema []string
	// bind rewrites "?" placeholders for the backend.
	bind func(query string) string
	// ts encodes a timestamp parameter.
	ts func(t time.Time) any
}

type baseStore struct {
	db *sql.DB
	d  dialect
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *baseStore) Init(ctx context.Context) error {
	for _, stmt := range b.d.schema {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s init: %w", b.d.name, err)
		}
	}
	return nil
}

func (b *baseStore) Exists(ctx context.Context, table Table, id string) (bool, error) {
	switch table {
	case TableTrades, TableInsiderTrades, TableContracts:
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return b.exists(ctx, `SELECT 1 FROM `+string(table)+` WHERE id = ?`, id)
}

func (b *baseStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := b.db.QueryRowContext(ctx, b.d.bind(query), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *baseStore) insert(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := b.db.ExecContext(ctx, b.d.bind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *baseStore) InsertGovernmentTrade(ctx context.Context, t model.GovernmentTrade) (bool, error) {
	return b.insert(ctx,
		`INSERT INTO trades (id, source, person, chamber, ticker, side, amount, transaction_date, disclosed_date, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		t.ID,
		"government",
		t.Representative,
		t.Chamber,
		t.Ticker,
		string(t.Side),
		t.Amount,
		b.d.ts(t.TransactionDate),
		b.d.ts(t.DisclosureDate),
		t.Link,
	)
}

func (b *baseStore) InsertInsiderTrade(ctx context.Context, t model.InsiderTrade) (bool, error) {
	return b.insert(ctx,
		`INSERT INTO insider_trades (id, insider, role, ticker, side, value, transaction_date, filing_date, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		t.ID,
		t.Insider,
		t.Role,
		t.Ticker,
		string(t.Side),
		t.Value,
		b.d.ts(t.TransactionDate),
		b.d.ts(t.FilingDate),
		t.Link,
	)
}

func (b *baseStore) InsertContract(ctx context.Context, c model.Contract) (bool, error) {
	return b.insert(ctx,
		`INSERT INTO contracts (id, ticker, award_date, amount, agency, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		c.ID,
		c.Ticker,
		b.d.ts(c.AwardDate),
		c.Amount,
		c.Agency,
		c.Description,
	)
}

func (b *baseStore) CountGovernmentTradesSince(ctx context.Context, ticker string, since time.Time, excludeID string) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx,
		b.d.bind(`SELECT COUNT(*) FROM trades WHERE ticker = ? AND disclosed_date >= ? AND id <> ?`),
		ticker, b.d.ts(since), excludeID,
	).Scan(&n)
	return n, err
}

func (b *baseStore) CountContractsBetween(ctx context.Context, ticker string, start, end time.Time) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx,
		b.d.bind(`SELECT COUNT(*) FROM contracts WHERE ticker = ? AND award_date BETWEEN ? AND ?`),
		ticker, b.d.ts(start), b.d.ts(end),
	).Scan(&n)
	return n, err
}

func (b *baseStore) AlertExists(ctx context.Context, alertHash string) (bool, error) {
	return b.exists(ctx, `SELECT 1 FROM alerts_sent WHERE alert_hash = ?`, alertHash)
}

func (b *baseStore) RecordAlert(ctx context.Context, rec model.AlertRecord) (bool, error) {
	return b.insert(ctx,
		`INSERT INTO alerts_sent (alert_hash, sent_at) VALUES (?, ?) ON CONFLICT (alert_hash) DO NOTHING`,
		rec.Hash, b.d.ts(rec.SentAt),
	)
}

func questionMarks(query string) string {
	return query
}

// dollarPlaceholders turns "?" into "$1", "$2", ...
func dollarPlaceholders(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
