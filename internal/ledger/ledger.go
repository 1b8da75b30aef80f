// Package ledger keeps the two idempotency layers of the pipeline: which
// trades have been ingested, and which alerts have been sent.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartmoney/internal/model"
	"smartmoney/internal/normalize"
	"smartmoney/internal/storage"
)

type Store interface {
	Exists(ctx context.Context, table storage.Table, id string) (bool, error)
	AlertExists(ctx context.Context, alertHash string) (bool, error)
	RecordAlert(ctx context.Context, rec model.AlertRecord) (bool, error)
}

type Sender interface {
	Send(ctx context.Context, text string) error
}

type Outcome int

const (
	AlertSent Outcome = iota
	AlertSuppressed
	AlertFailed
)

func (o Outcome) String() string {
	switch o {
	case AlertSent:
		return "sent"
	case AlertSuppressed:
		return "suppressed"
	default:
		return "failed"
	}
}

type Ledger struct {
	store  Store
	sender Sender
	logger *slog.Logger
	seen   *seenSet
	clock  func() time.Time
}

func New(store Store, sender Sender, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		sender: sender,
		logger: logger,
		seen:   newSeenSet(),
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the sent_at clock.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// Ingest persists a record through insert unless its identity is already on
// record, and reports whether the record is new. A known identity is never
// rescored or re-alerted by the caller. An identity is only remembered for
// the rest of the run once the store answered, so a repeat after a store
// error is tried again.
func (l *Ledger) Ingest(ctx context.Context, table storage.Table, id string, insert func(context.Context) (bool, error)) (bool, error) {
	key := string(table) + "|" + id
	if l.seen.Has(key) {
		return false, nil
	}
	exists, err := l.store.Exists(ctx, table, id)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	if exists {
		l.seen.Mark(key)
		return false, nil
	}
	inserted, err := insert(ctx)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", table, err)
	}
	l.seen.Mark(key)
	return inserted, nil
}

// AlertHash keys an alert by kind and trade identity; it never equals the
// trade identity itself.
func AlertHash(kind model.Kind, tradeID string) string {
	return normalize.IdentityHash("alert", string(kind), tradeID)
}

// Notify sends text at most once per (kind, trade). The alert is recorded
// only after the sender reports success; a failed send leaves it unrecorded,
// so only a later Notify for the same identity would send it again. A
// delivered alert is never repeated.
func (l *Ledger) Notify(ctx context.Context, kind model.Kind, tradeID, text string) (Outcome, error) {
	hash := AlertHash(kind, tradeID)
	sent, err := l.store.AlertExists(ctx, hash)
	if err != nil {
		return AlertFailed, fmt.Errorf("check alert: %w", err)
	}
	if sent {
		return AlertSuppressed, nil
	}
	if err := l.sender.Send(ctx, text); err != nil {
		if l.logger != nil {
			l.logger.Warn("alert send failed", "alert_kind", kind, "trade_id", tradeID, "err", err)
		}
		return AlertFailed, err
	}
	if _, err := l.store.RecordAlert(ctx, model.AlertRecord{Hash: hash, SentAt: l.clock()}); err != nil {
		if l.logger != nil {
			l.logger.Error("alert sent but not recorded", "alert_kind", kind, "trade_id", tradeID, "err", err)
		}
		return AlertSent, fmt.Errorf("record alert: %w", err)
	}
	return AlertSent, nil
}
