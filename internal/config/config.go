package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	LogFormat  string           `json:"log_format" yaml:"log_format"`
	Thresholds ThresholdsConfig `json:"thresholds" yaml:"thresholds"`
	Windows    WindowsConfig    `json:"windows" yaml:"windows"`
	Digest     DigestConfig     `json:"digest" yaml:"digest"`
	Scoring    ScoringConfig    `json:"scoring" yaml:"scoring"`
	Patterns   PatternsConfig   `json:"patterns" yaml:"patterns"`
	Upstream   UpstreamConfig   `json:"upstream" yaml:"upstream"`
	Notify     NotifyConfig     `json:"notify" yaml:"notify"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Secrets    Secrets          `json:"-" yaml:"-"`
}

type ThresholdsConfig struct {
	HighConviction int `json:"high_conviction" yaml:"high_conviction"`
	DigestMinScore int `json:"digest_min_score" yaml:"digest_min_score"`
}

type WindowsConfig struct {
	LookbackDays  int `json:"lookback_days" yaml:"lookback_days"`
	LookbackHours int `json:"lookback_hours" yaml:"lookback_hours"`
}

// Lookback is the digest window, days and hours combined.
func (w WindowsConfig) Lookback() time.Duration {
	return time.Duration(w.LookbackDays)*24*time.Hour + time.Duration(w.LookbackHours)*time.Hour
}

type DigestConfig struct {
	TopN int `json:"top_n" yaml:"top_n"`
}

type ScoringConfig struct {
	BuyBase         int `json:"buy_base" yaml:"buy_base"`
	SellPenalty     int `json:"sell_penalty" yaml:"sell_penalty"`
	LargeTradeBonus int `json:"large_trade_bonus" yaml:"large_trade_bonus"`
	RecencyBonus    int `json:"recency_bonus" yaml:"recency_bonus"`
	ClusterBonus    int `json:"cluster_bonus" yaml:"cluster_bonus"`
	ContractBonus   int `json:"contract_bonus" yaml:"contract_bonus"`
	InsiderBuyBonus int `json:"insider_buy_bonus" yaml:"insider_buy_bonus"`
	ExecRoleBonus   int `json:"exec_role_bonus" yaml:"exec_role_bonus"`
}

type PatternsConfig struct {
	ClusterWindowDays  int `json:"cluster_window_days" yaml:"cluster_window_days"`
	ClusterMinCount    int `json:"cluster_min_count" yaml:"cluster_min_count"`
	ContractWindowDays int `json:"contract_window_days" yaml:"contract_window_days"`
	// ClusterExcludeCurrent drops the trade being scored from its own cluster count.
	ClusterExcludeCurrent bool `json:"cluster_exclude_current" yaml:"cluster_exclude_current"`
}

type UpstreamConfig struct {
	Source       string        `json:"source" yaml:"source"`
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
	Files        FeedFiles     `json:"files" yaml:"files"`
}

type FeedFiles struct {
	Government string `json:"government" yaml:"government"`
	Insider    string `json:"insider" yaml:"insider"`
	Contracts  string `json:"contracts" yaml:"contracts"`
}

type NotifyConfig struct {
	Channels []string       `json:"channels" yaml:"channels"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Kafka    KafkaConfig    `json:"kafka" yaml:"kafka"`
}

type TelegramConfig struct {
	APIURL  string        `json:"api_url" yaml:"api_url"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

const (
	SourceQuiver = "quiver"
	SourceFile   = "file"

	ChannelTelegram = "telegram"
	ChannelKafka    = "kafka"
	ChannelLog      = "log"
)

// requiredKeys must be present in the document itself; a zero value from a
// missing key would silently miscalibrate every score.
var requiredKeys = []string{
	"thresholds.high_conviction",
	"thresholds.digest_min_score",
	"digest.top_n",
	"scoring.buy_base",
	"scoring.sell_penalty",
	"scoring.large_trade_bonus",
	"scoring.recency_bonus",
	"scoring.cluster_bonus",
	"scoring.contract_bonus",
	"scoring.insider_buy_bonus",
	"scoring.exec_role_bonus",
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Patterns: PatternsConfig{
			ClusterWindowDays:  10,
			ClusterMinCount:    3,
			ContractWindowDays: 14,
		},
		Upstream: UpstreamConfig{
			Source:       SourceQuiver,
			BaseURL:      "https://api.quiverquant.com/beta",
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			RetryBackoff: time.Second,
		},
		Notify: NotifyConfig{
			Channels: []string{ChannelTelegram},
			Telegram: TelegramConfig{APIURL: "https://api.telegram.org", Timeout: 15 * time.Second},
		},
		Storage: StorageConfig{Driver: "sqlite", DSN: "file:smartmoney.db?_pragma=busy_timeout(5000)"},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

// Parse decodes a YAML or JSON document on top of the defaults and rejects it
// when any required key is absent.
func Parse(content []byte) (*Config, error) {
	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	cfg := DefaultConfig()
	doc := map[string]any{}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		if decodeErr = json.Unmarshal([]byte(trimmed), &doc); decodeErr == nil {
			decodeErr = json.Unmarshal([]byte(trimmed), cfg)
		}
	} else {
		if decodeErr = yaml.Unmarshal([]byte(trimmed), &doc); decodeErr == nil {
			decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode config: %w", decodeErr)
	}
	if err := checkRequired(doc); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkRequired(doc map[string]any) error {
	var missing []string
	for _, key := range requiredKeys {
		if !hasKey(doc, key) {
			missing = append(missing, key)
		}
	}
	if !hasKey(doc, "windows.lookback_days") && !hasKey(doc, "windows.lookback_hours") {
		missing = append(missing, "windows.lookback_days|windows.lookback_hours")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required config keys missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func hasKey(doc map[string]any, dotted string) bool {
	var cur any = doc
	for _, part := range strings.Split(dotted, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		v, ok := m[part]
		if !ok || v == nil {
			return false
		}
		cur = v
	}
	return true
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.Patterns.ClusterWindowDays <= 0 {
		cfg.Patterns.ClusterWindowDays = 10
	}
	if cfg.Patterns.ClusterMinCount <= 0 {
		cfg.Patterns.ClusterMinCount = 3
	}
	if cfg.Patterns.ContractWindowDays <= 0 {
		cfg.Patterns.ContractWindowDays = 14
	}
	if cfg.Upstream.Source == "" {
		cfg.Upstream.Source = SourceQuiver
	}
	if cfg.Upstream.Timeout <= 0 {
		cfg.Upstream.Timeout = 30 * time.Second
	}
	if cfg.Upstream.RetryBackoff <= 0 {
		cfg.Upstream.RetryBackoff = time.Second
	}
	if cfg.Notify.Telegram.APIURL == "" {
		cfg.Notify.Telegram.APIURL = "https://api.telegram.org"
	}
	if cfg.Notify.Telegram.Timeout <= 0 {
		cfg.Notify.Telegram.Timeout = 15 * time.Second
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
}

func Validate(cfg *Config) error {
	if cfg.Digest.TopN < 1 {
		return errors.New("digest.top_n must be >= 1")
	}
	if cfg.Thresholds.HighConviction < 0 || cfg.Thresholds.HighConviction > 100 {
		return errors.New("thresholds.high_conviction must be within 0..100")
	}
	if cfg.Thresholds.DigestMinScore < 0 || cfg.Thresholds.DigestMinScore > 100 {
		return errors.New("thresholds.digest_min_score must be within 0..100")
	}
	if cfg.Windows.LookbackDays < 0 || cfg.Windows.LookbackHours < 0 {
		return errors.New("windows.lookback_days and windows.lookback_hours must be >= 0")
	}
	if cfg.Windows.Lookback() <= 0 {
		return errors.New("windows lookback must be > 0")
	}
	if cfg.Upstream.MaxRetries < 0 {
		return errors.New("upstream.max_retries must be >= 0")
	}
	switch cfg.Upstream.Source {
	case SourceQuiver:
		if cfg.Upstream.BaseURL == "" {
			return errors.New("upstream.base_url required when upstream.source is quiver")
		}
	case SourceFile:
		f := cfg.Upstream.Files
		if f.Government == "" && f.Insider == "" && f.Contracts == "" {
			return errors.New("upstream.files requires at least one feed path when upstream.source is file")
		}
	default:
		return fmt.Errorf("unsupported upstream.source: %q", cfg.Upstream.Source)
	}
	for _, ch := range cfg.Notify.Channels {
		switch strings.ToLower(ch) {
		case ChannelTelegram, ChannelLog:
		case ChannelKafka:
			if len(cfg.Notify.Kafka.Brokers) == 0 || cfg.Notify.Kafka.Topic == "" {
				return errors.New("notify.kafka requires brokers and topic")
			}
		default:
			return fmt.Errorf("unsupported notify channel: %q", ch)
		}
	}
	return nil
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
