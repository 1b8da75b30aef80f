// Package upstream fetches raw disclosure records from the data provider or
// from local JSON files. Records are returned undecoded into domain types; the
// normalize package owns field resolution.
package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"smartmoney/internal/config"
)

type Feed string

const (
	FeedGovernment Feed = "government"
	FeedInsider    Feed = "insider"
	FeedContracts  Feed = "contracts"
)

var feedPaths = map[Feed]string{
	FeedGovernment: "/historical/congresstrading",
	FeedInsider:    "/insidertrading",
	FeedContracts:  "/governmentcontracts",
}

// Fetcher returns the raw records of one feed.
type Fetcher interface {
	Fetch(ctx context.Context, feed Feed) ([]map[string]any, error)
}

// Client talks to the provider's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

type ClientOption func(*Client)

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Fetch downloads one feed. A plan-restricted endpoint yields an empty result
// rather than an error so the other feeds still run.
func (c *Client) Fetch(ctx context.Context, feed Feed) ([]map[string]any, error) {
	path, ok := feedPaths[feed]
	if !ok {
		return nil, fmt.Errorf("unknown feed %q", feed)
	}
	body, err := c.doWithRetry(ctx, http.MethodGet, path)
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.IsPlanRestricted() {
			c.logger.Warn("feed not available on current plan", "feed", feed, "status", apiErr.StatusCode)
			return []map[string]any{}, nil
		}
		return nil, fmt.Errorf("fetch %s: %w", feed, err)
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", feed, err)
	}
	c.logger.Debug("feed fetched", "feed", feed, "records", len(records))
	return records, nil
}

// NewFromConfig builds the fetcher selected by upstream.source.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	up := cfg.Upstream
	switch up.Source {
	case config.SourceQuiver:
		return NewClient(up.BaseURL, cfg.Secrets.QuiverAPIKey,
			WithTimeout(up.Timeout),
			WithRetries(up.MaxRetries, up.RetryBackoff),
			WithLogger(logger),
		), nil
	case config.SourceFile:
		return NewFileFetcher(map[Feed]string{
			FeedGovernment: config.ResolvePath(up.Files.Government),
			FeedInsider:    config.ResolvePath(up.Files.Insider),
			FeedContracts:  config.ResolvePath(up.Files.Contracts),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported upstream source: %s", up.Source)
	}
}
