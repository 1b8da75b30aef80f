// Package pipeline runs one fetch, score, alert and digest cycle to completion.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"smartmoney/internal/config"
	"smartmoney/internal/digest"
	"smartmoney/internal/ledger"
	"smartmoney/internal/metrics"
	"smartmoney/internal/model"
	"smartmoney/internal/normalize"
	"smartmoney/internal/patterns"
	"smartmoney/internal/scoring"
	"smartmoney/internal/storage"
	"smartmoney/internal/upstream"
)

type Report struct {
	RunID      string                       `json:"run_id"`
	Started    time.Time                    `json:"started"`
	Finished   time.Time                    `json:"finished"`
	Stats      map[string]metrics.FeedStats `json:"stats"`
	Picks      []model.Pick                 `json:"picks"`
	AlertsSent int                          `json:"alerts_sent"`
	DigestSent bool                         `json:"digest_sent"`
}

type Pipeline struct {
	cfg     *config.Config
	store   storage.Store
	fetcher upstream.Fetcher
	sender  ledger.Sender
	logger  *slog.Logger
	clock   func() time.Time
}

func New(cfg *config.Config, store storage.Store, fetcher upstream.Fetcher, sender ledger.Sender, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		sender:  sender,
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock fixes the reference time of a run.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// run holds the state of one cycle.
type run struct {
	*Pipeline
	id       string
	now      time.Time
	logger   *slog.Logger
	stats    *metrics.Store
	ledger   *ledger.Ledger
	detector *patterns.Detector
	scorer   *scoring.Scorer
	picks    []model.Pick
}

// Run executes one cycle. Feed and store failures on individual records
// degrade the cycle rather than abort it; the digest is always attempted
// exactly once. The returned error reports a cancelled context or a failed
// digest delivery.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	r := &run{
		Pipeline: p,
		id:       uuid.NewString(),
		now:      p.clock(),
		stats:    metrics.NewStore(),
		scorer:   scoring.NewScorer(p.cfg.Scoring),
	}
	r.logger = p.logger.With("run_id", r.id)
	r.ledger = ledger.New(p.store, p.sender, r.logger).WithClock(p.clock)
	r.detector = patterns.NewDetector(p.store, p.cfg.Patterns, r.logger)

	report := Report{RunID: r.id, Started: r.now}
	r.logger.Info("run started")

	feeds := r.fetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return r.finish(report), err
	}

	r.ingestContracts(ctx, feeds[upstream.FeedContracts])
	r.processGovernment(ctx, feeds[upstream.FeedGovernment])
	r.processInsider(ctx, feeds[upstream.FeedInsider])
	if err := ctx.Err(); err != nil {
		return r.finish(report), err
	}

	selected := digest.NewRanker(p.cfg).Select(r.picks, r.now)
	report.Picks = selected
	err := p.sender.Send(ctx, digest.Format(selected, r.now))
	if err != nil {
		r.logger.Error("digest send failed", "err", err)
		err = fmt.Errorf("send digest: %w", err)
	} else {
		report.DigestSent = true
	}
	report = r.finish(report)
	r.logger.Info("run finished",
		append([]any{"alerts_sent", report.AlertsSent, "picks", len(selected), "digest_sent", report.DigestSent}, r.stats.LogAttrs()...)...)
	return report, err
}

func (r *run) finish(report Report) Report {
	report.Finished = r.clock()
	report.Stats = r.stats.GetAll()
	report.AlertsSent = r.stats.Total(metrics.Alerted)
	return report
}

// fetchAll downloads the three feeds concurrently. A failed feed is logged,
// counted, and treated as empty.
func (r *run) fetchAll(ctx context.Context) map[upstream.Feed][]map[string]any {
	feeds := []upstream.Feed{upstream.FeedContracts, upstream.FeedGovernment, upstream.FeedInsider}
	results := make([][]map[string]any, len(feeds))
	var g errgroup.Group
	for i, feed := range feeds {
		g.Go(func() error {
			records, err := r.fetcher.Fetch(ctx, feed)
			if err != nil {
				r.logger.Error("feed fetch failed", "feed", feed, "err", err)
				r.stats.Inc(string(feed), metrics.FetchErrors)
				return nil
			}
			results[i] = records
			r.stats.Add(string(feed), metrics.Fetched, len(records))
			return nil
		})
	}
	_ = g.Wait()
	out := make(map[upstream.Feed][]map[string]any, len(feeds))
	for i, feed := range feeds {
		out[feed] = results[i]
	}
	return out
}

func (r *run) ingest(ctx context.Context, feed upstream.Feed, table storage.Table, id string, insert func(context.Context) (bool, error)) bool {
	isNew, err := r.ledger.Ingest(ctx, table, id, insert)
	if err != nil {
		r.logger.Error("persist failed", "feed", feed, "trade_id", id, "err", err)
		r.stats.Inc(string(feed), metrics.StoreErrors)
		return false
	}
	if !isNew {
		r.stats.Inc(string(feed), metrics.Duplicates)
		return false
	}
	r.stats.Inc(string(feed), metrics.Inserted)
	return true
}

func (r *run) ingestContracts(ctx context.Context, records []map[string]any) {
	feed := upstream.FeedContracts
	for _, raw := range records {
		if ctx.Err() != nil {
			return
		}
		c, ok := normalize.Contract(raw, r.now)
		if !ok {
			r.stats.Inc(string(feed), metrics.Discarded)
			continue
		}
		r.ingest(ctx, feed, storage.TableContracts, c.ID, func(ctx context.Context) (bool, error) {
			return r.store.InsertContract(ctx, c)
		})
	}
}

func (r *run) processGovernment(ctx context.Context, records []map[string]any) {
	feed := upstream.FeedGovernment
	for _, raw := range records {
		if ctx.Err() != nil {
			return
		}
		t, ok := normalize.Government(raw, r.now)
		if !ok {
			r.stats.Inc(string(feed), metrics.Discarded)
			continue
		}
		isNew := r.ingest(ctx, feed, storage.TableTrades, t.ID, func(ctx context.Context) (bool, error) {
			return r.store.InsertGovernmentTrade(ctx, t)
		})
		if !isNew {
			continue
		}
		res := r.scorer.Government(t, r.detector.Signals(ctx, t, r.now), r.now)
		r.consider(ctx, feed, model.GovernmentPick(t, res))
	}
}

func (r *run) processInsider(ctx context.Context, records []map[string]any) {
	feed := upstream.FeedInsider
	for _, raw := range records {
		if ctx.Err() != nil {
			return
		}
		t, ok := normalize.Insider(raw, r.now)
		if !ok {
			r.stats.Inc(string(feed), metrics.Discarded)
			continue
		}
		isNew := r.ingest(ctx, feed, storage.TableInsiderTrades, t.ID, func(ctx context.Context) (bool, error) {
			return r.store.InsertInsiderTrade(ctx, t)
		})
		if !isNew {
			continue
		}
		r.consider(ctx, feed, model.InsiderPick(t, r.scorer.Insider(t, r.now)))
	}
}

// consider alerts on a high-conviction pick and keeps it as a digest candidate.
func (r *run) consider(ctx context.Context, feed upstream.Feed, pick model.Pick) {
	r.logger.Debug("trade scored", "feed", feed, "ticker", pick.Ticker, "trade_id", pick.TradeID, "score", pick.Score)
	if pick.Score >= r.cfg.Thresholds.HighConviction {
		out, err := r.ledger.Notify(ctx, pick.Kind, pick.TradeID, digest.FormatAlert(pick))
		switch {
		case out == ledger.AlertSent:
			r.stats.Inc(string(feed), metrics.Alerted)
			r.logger.Info("alert sent", "alert_kind", pick.Kind, "ticker", pick.Ticker, "trade_id", pick.TradeID, "score", pick.Score)
		case out == ledger.AlertFailed:
			r.stats.Inc(string(feed), metrics.AlertFailures)
			r.logger.Warn("alert not delivered", "alert_kind", pick.Kind, "trade_id", pick.TradeID, "err", err)
		}
	}
	r.picks = append(r.picks, pick)
}
