// Package patterns answers the historical questions the government scorer
// asks about a ticker: clustered disclosures and nearby contract awards.
package patterns

import (
	"context"
	"log/slog"
	"time"

	"smartmoney/internal/config"
	"smartmoney/internal/model"
)

const day = 24 * time.Hour

// Counter is the slice of storage.Store the detector reads.
type Counter interface {
	CountGovernmentTradesSince(ctx context.Context, ticker string, since time.Time, excludeID string) (int, error)
	CountContractsBetween(ctx context.Context, ticker string, start, end time.Time) (int, error)
}

type Detector struct {
	store  Counter
	cfg    config.PatternsConfig
	logger *slog.Logger
}

func NewDetector(store Counter, cfg config.PatternsConfig, logger *slog.Logger) *Detector {
	return &Detector{store: store, cfg: cfg, logger: logger}
}

// DetectCluster reports whether ticker has at least ClusterMinCount persisted
// government disclosures in the trailing window ending at now. The trade
// identified by currentID is counted unless ClusterExcludeCurrent is set.
func (d *Detector) DetectCluster(ctx context.Context, ticker, currentID string, now time.Time) bool {
	if ticker == "" || d.store == nil {
		return false
	}
	exclude := ""
	if d.cfg.ClusterExcludeCurrent {
		exclude = currentID
	}
	since := now.UTC().Add(-time.Duration(d.cfg.ClusterWindowDays) * day)
	n, err := d.store.CountGovernmentTradesSince(ctx, ticker, since, exclude)
	if err != nil {
		d.debug("cluster query failed", ticker, err)
		return false
	}
	return n >= d.cfg.ClusterMinCount
}

// DetectContractTiming reports whether ticker has a contract award within
// ContractWindowDays of ref, both ends inclusive.
func (d *Detector) DetectContractTiming(ctx context.Context, ticker string, ref time.Time) bool {
	if ticker == "" || d.store == nil {
		return false
	}
	w := time.Duration(d.cfg.ContractWindowDays) * day
	ref = ref.UTC()
	n, err := d.store.CountContractsBetween(ctx, ticker, ref.Add(-w), ref.Add(w))
	if err != nil {
		// an absent contracts table reads as "no contracts"
		d.debug("contract timing query failed", ticker, err)
		return false
	}
	return n > 0
}

// Signals runs both detectors for a persisted government trade.
func (d *Detector) Signals(ctx context.Context, t model.GovernmentTrade, now time.Time) model.Signals {
	return model.Signals{
		Cluster:        d.DetectCluster(ctx, t.Ticker, t.ID, now),
		ContractTiming: d.DetectContractTiming(ctx, t.Ticker, t.DisclosureDate),
	}
}

func (d *Detector) debug(msg, ticker string, err error) {
	if d.logger != nil {
		d.logger.Debug(msg, "ticker", ticker, "err", err)
	}
}
