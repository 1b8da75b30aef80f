package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"smartmoney/internal/config"
	"smartmoney/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func TestInsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tr := model.GovernmentTrade{
		ID:             "trade-1",
		Ticker:         "ABC",
		Side:           model.SideBuy,
		Amount:         50001,
		Representative: "Jane Doe",
		DisclosureDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	inserted, err := s.InsertGovernmentTrade(ctx, tr)
	if err != nil || !inserted {
		t.Fatalf("first insert: %v %v", inserted, err)
	}
	inserted, err = s.InsertGovernmentTrade(ctx, tr)
	if err != nil {
		t.Fatalf("duplicate insert must not error: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate insert must report not inserted")
	}
	ok, err := s.Exists(ctx, TableTrades, "trade-1")
	if err != nil || !ok {
		t.Fatalf("exists: %v %v", ok, err)
	}
	ok, err = s.Exists(ctx, TableInsiderTrades, "trade-1")
	if err != nil || ok {
		t.Fatalf("tables must be independent: %v %v", ok, err)
	}
}

func TestExistsRejectsUnknownTable(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Exists(context.Background(), Table("alerts_sent; DROP TABLE trades"), "x")
	if !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestCountGovernmentTradesSince(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, age := range []time.Duration{time.Hour, 3 * 24 * time.Hour, 9 * 24 * time.Hour, 11 * 24 * time.Hour} {
		_, err := s.InsertGovernmentTrade(ctx, model.GovernmentTrade{
			ID:             "t" + string(rune('a'+i)),
			Ticker:         "ABC",
			DisclosureDate: now.Add(-age),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	since := now.Add(-10 * 24 * time.Hour)
	n, err := s.CountGovernmentTradesSince(ctx, "ABC", since, "")
	if err != nil || n != 3 {
		t.Fatalf("count: %d %v", n, err)
	}
	n, err = s.CountGovernmentTradesSince(ctx, "ABC", since, "ta")
	if err != nil || n != 2 {
		t.Fatalf("count excluding: %d %v", n, err)
	}
	n, err = s.CountGovernmentTradesSince(ctx, "XYZ", since, "")
	if err != nil || n != 0 {
		t.Fatalf("other ticker: %d %v", n, err)
	}
}

func TestCountContractsBetweenInclusive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ref := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	edge := ref.Add(14 * 24 * time.Hour)
	if _, err := s.InsertContract(ctx, model.Contract{ID: "c1", Ticker: "LMT", AwardDate: edge}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	n, err := s.CountContractsBetween(ctx, "LMT", ref.Add(-14*24*time.Hour), edge)
	if err != nil || n != 1 {
		t.Fatalf("inclusive upper bound: %d %v", n, err)
	}
	n, err = s.CountContractsBetween(ctx, "LMT", ref.Add(-14*24*time.Hour), edge.Add(-time.Second))
	if err != nil || n != 0 {
		t.Fatalf("outside window: %d %v", n, err)
	}
}

func TestAlertLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ok, err := s.AlertExists(ctx, "h1")
	if err != nil || ok {
		t.Fatalf("fresh store: %v %v", ok, err)
	}
	rec := model.AlertRecord{Hash: "h1", SentAt: time.Now()}
	if inserted, err := s.RecordAlert(ctx, rec); err != nil || !inserted {
		t.Fatalf("record: %v %v", inserted, err)
	}
	if inserted, err := s.RecordAlert(ctx, rec); err != nil || inserted {
		t.Fatalf("second record must be a no-op: %v %v", inserted, err)
	}
	ok, err = s.AlertExists(ctx, "h1")
	if err != nil || !ok {
		t.Fatalf("after record: %v %v", ok, err)
	}
}

func TestDollarPlaceholders(t *testing.T) {
	got := dollarPlaceholders(`SELECT 1 FROM t WHERE a = ? AND b BETWEEN ? AND ?`)
	want := `SELECT 1 FROM t WHERE a = $1 AND b BETWEEN $2 AND $3`
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestNewStoreUnsupportedDriver(t *testing.T) {
	if _, err := NewStore(config.StorageConfig{Driver: "mysql"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
