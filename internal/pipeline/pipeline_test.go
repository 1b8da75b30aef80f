package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smartmoney/internal/config"
	"smartmoney/internal/logging"
	"smartmoney/internal/metrics"
	"smartmoney/internal/model"
	"smartmoney/internal/storage"
	"smartmoney/internal/upstream"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	feeds map[upstream.Feed][]map[string]any
	errs  map[upstream.Feed]error
}

func (f *stubFetcher) Fetch(_ context.Context, feed upstream.Feed) ([]map[string]any, error) {
	if err := f.errs[feed]; err != nil {
		return nil, err
	}
	return f.feeds[feed], nil
}

type recordingSender struct {
	sent     []string
	failWhen func(text string) bool
}

func (s *recordingSender) Send(_ context.Context, text string) error {
	if s.failWhen != nil && s.failWhen(text) {
		return errors.New("channel down")
	}
	s.sent = append(s.sent, text)
	return nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Thresholds = config.ThresholdsConfig{HighConviction: 80, DigestMinScore: 50}
	cfg.Windows = config.WindowsConfig{LookbackDays: 3}
	cfg.Digest = config.DigestConfig{TopN: 5}
	cfg.Scoring = config.ScoringConfig{
		BuyBase:         40,
		SellPenalty:     -20,
		LargeTradeBonus: 15,
		RecencyBonus:    10,
		ClusterBonus:    15,
		ContractBonus:   20,
		InsiderBuyBonus: 35,
		ExecRoleBonus:   15,
	}
	return cfg
}

func openStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewSQLite("file:" + filepath.Join(t.TempDir(), "pipeline.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func fixtureFeeds() map[upstream.Feed][]map[string]any {
	return map[upstream.Feed][]map[string]any{
		upstream.FeedContracts: {
			{"Ticker": "NVDA", "Date": "2026-03-01", "Amount": 1000000.0, "Agency": "DoD"},
		},
		upstream.FeedGovernment: {
			{
				"Ticker":          "NVDA",
				"Transaction":     "Purchase",
				"Amount":          "$50,001 - $100,000",
				"Representative":  "Jane Doe",
				"House":           "Senate",
				"TransactionDate": "2026-03-01",
				"ReportDate":      "2026-03-09",
			},
			{"Ticker": "", "Transaction": "Purchase", "Representative": "Nobody"},
			{
				"Symbol":         "msft",
				"Transaction":    "Sale",
				"Amount":         "1,001 - 15,000",
				"Representative": "Bob Roe",
				"ReportDate":     "2026-03-08",
			},
		},
		upstream.FeedInsider: {
			{
				"Ticker":          "XYZ",
				"TransactionType": "Buy",
				"Value":           250000.0,
				"InsiderName":     "John Roe",
				"Title":           "CEO",
				"TransactionDate": "2026-03-09",
				"FilingDate":      "2026-03-10",
			},
		},
	}
}

func newPipeline(store storage.Store, fetcher upstream.Fetcher, sender *recordingSender) *Pipeline {
	return New(testConfig(), store, fetcher, sender, logging.Discard()).WithClock(func() time.Time { return now })
}

func TestRunEndToEnd(t *testing.T) {
	store := openStore(t)
	sender := &recordingSender{}
	report, err := newPipeline(store, &stubFetcher{feeds: fixtureFeeds()}, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.RunID == "" || !report.DigestSent {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.AlertsSent != 1 {
		t.Fatalf("expected 1 alert, got %d", report.AlertsSent)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected alert + digest, got %d messages", len(sender.sent))
	}
	if !strings.HasPrefix(sender.sent[0], "HIGH CONVICTION (Gov)") || !strings.Contains(sender.sent[0], "NVDA - 85") {
		t.Fatalf("unexpected alert:\n%s", sender.sent[0])
	}
	if len(report.Picks) != 2 || report.Picks[0].Ticker != "NVDA" || report.Picks[1].Ticker != "XYZ" {
		t.Fatalf("unexpected picks: %+v", report.Picks)
	}
	if report.Picks[1].Score != 75 {
		t.Fatalf("insider score = %d", report.Picks[1].Score)
	}
	gov := report.Stats[string(upstream.FeedGovernment)]
	if gov[metrics.Fetched] != 3 || gov[metrics.Discarded] != 1 || gov[metrics.Inserted] != 2 || gov[metrics.Alerted] != 1 {
		t.Fatalf("government stats: %v", gov)
	}
	if report.Stats[string(upstream.FeedContracts)][metrics.Inserted] != 1 {
		t.Fatalf("contract not persisted: %v", report.Stats)
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	store := openStore(t)
	sender := &recordingSender{}
	fetcher := &stubFetcher{feeds: fixtureFeeds()}
	ctx := context.Background()
	if _, err := newPipeline(store, fetcher, sender).Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := newPipeline(store, fetcher, sender).Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.AlertsSent != 0 || len(report.Picks) != 0 {
		t.Fatalf("second run must not rescore known trades: %+v", report)
	}
	if got := report.Stats[string(upstream.FeedGovernment)][metrics.Duplicates]; got != 2 {
		t.Fatalf("government duplicates = %d", got)
	}
	if got := report.Stats[string(upstream.FeedGovernment)][metrics.Inserted]; got != 0 {
		t.Fatalf("government inserted = %d", got)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("expected alert + two digests, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[2], "No qualifying trades") {
		t.Fatalf("second digest must still be sent:\n%s", sender.sent[2])
	}
	n, err := store.CountGovernmentTradesSince(ctx, "NVDA", now.AddDate(-1, 0, 0), "")
	if err != nil || n != 1 {
		t.Fatalf("expected a single NVDA row, got %d %v", n, err)
	}
}

func TestRunRepeatedPayloadWithinBatch(t *testing.T) {
	feeds := fixtureFeeds()
	feeds[upstream.FeedGovernment] = append(feeds[upstream.FeedGovernment], feeds[upstream.FeedGovernment][0])
	sender := &recordingSender{}
	report, err := newPipeline(openStore(t), &stubFetcher{feeds: feeds}, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.AlertsSent != 1 || len(report.Picks) != 2 {
		t.Fatalf("repeated payload must be processed once: %+v", report)
	}
}

func TestRunFeedFailureDegrades(t *testing.T) {
	sender := &recordingSender{}
	fetcher := &stubFetcher{
		feeds: fixtureFeeds(),
		errs:  map[upstream.Feed]error{upstream.FeedInsider: errors.New("502")},
	}
	report, err := newPipeline(openStore(t), fetcher, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Stats[string(upstream.FeedInsider)][metrics.FetchErrors] != 1 {
		t.Fatalf("fetch error not counted: %v", report.Stats)
	}
	if len(report.Picks) != 1 || report.Picks[0].Kind != model.KindGovernment || !report.DigestSent {
		t.Fatalf("government feed must still be processed: %+v", report)
	}
}

func TestRunAlertFailureIsNotFatal(t *testing.T) {
	store := openStore(t)
	sender := &recordingSender{failWhen: func(text string) bool { return strings.HasPrefix(text, "HIGH CONVICTION") }}
	report, err := newPipeline(store, &stubFetcher{feeds: fixtureFeeds()}, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.AlertsSent != 0 || report.Stats[string(upstream.FeedGovernment)][metrics.AlertFailures] != 1 {
		t.Fatalf("alert failure not reported: %+v", report)
	}
	if !report.DigestSent || len(report.Picks) != 2 {
		t.Fatalf("digest must still carry the pick: %+v", report)
	}
}

func TestRunDigestFailureIsReported(t *testing.T) {
	sender := &recordingSender{failWhen: func(text string) bool { return strings.HasPrefix(text, "Smart Money Digest") }}
	report, err := newPipeline(openStore(t), &stubFetcher{}, sender).Run(context.Background())
	if err == nil || report.DigestSent {
		t.Fatalf("expected digest failure, got %v %+v", err, report)
	}
}

func TestRunTiesKeepGovernmentFirst(t *testing.T) {
	feeds := map[upstream.Feed][]map[string]any{
		upstream.FeedGovernment: {
			{"Ticker": "AAA", "Transaction": "Purchase", "Amount": "100,000", "Representative": "A", "ReportDate": "2026-03-09"},
		},
		upstream.FeedInsider: {
			{"Ticker": "BBB", "TransactionType": "Buy", "Value": 500000.0, "InsiderName": "B", "Title": "President", "TransactionDate": "2026-02-01", "FilingDate": "2026-03-09"},
		},
	}
	report, err := newPipeline(openStore(t), &stubFetcher{feeds: feeds}, &recordingSender{}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Picks) != 2 || report.Picks[0].Score != report.Picks[1].Score {
		t.Fatalf("expected a tie: %+v", report.Picks)
	}
	if report.Picks[0].Kind != model.KindGovernment {
		t.Fatalf("government pick must rank first on ties: %+v", report.Picks)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender := &recordingSender{}
	_, err := newPipeline(openStore(t), &stubFetcher{feeds: fixtureFeeds()}, sender).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("cancelled run must not notify")
	}
}
