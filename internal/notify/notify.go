// Package notify delivers alert and digest texts to the configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"smartmoney/internal/config"
)

type Notifier interface {
	Send(ctx context.Context, text string) error
	Close() error
}

// Multi fans a message out to every channel. Delivery counts as successful
// when at least one channel accepted it; failures on the others are logged.
type Multi struct {
	names  []string
	sinks  []Notifier
	logger *slog.Logger
}

func NewMulti(logger *slog.Logger) *Multi {
	return &Multi{logger: logger}
}

func (m *Multi) Add(name string, n Notifier) {
	m.names = append(m.names, name)
	m.sinks = append(m.sinks, n)
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Send(ctx context.Context, text string) error {
	if len(m.sinks) == 0 {
		return errors.New("no notification channels configured")
	}
	var errs []error
	for i, n := range m.sinks {
		if err := n.Send(ctx, text); err != nil {
			if m.logger != nil {
				m.logger.Warn("notification channel failed", "channel", m.names[i], "err", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", m.names[i], err))
		}
	}
	if len(errs) == len(m.sinks) {
		return errors.Join(errs...)
	}
	return nil
}

func (m *Multi) Close() error {
	var errs []error
	for _, n := range m.sinks {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewFromConfig builds the fan-out for notify.channels.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Multi, error) {
	m := NewMulti(logger)
	for _, ch := range cfg.Notify.Channels {
		switch name := strings.ToLower(ch); name {
		case config.ChannelTelegram:
			if cfg.Secrets.TelegramToken == "" || cfg.Secrets.TelegramChatID == "" {
				_ = m.Close()
				return nil, errors.New("telegram channel requires TELEGRAM_TOKEN and TELEGRAM_CHAT_ID")
			}
			m.Add(name, NewTelegram(cfg.Notify.Telegram, cfg.Secrets.TelegramToken, cfg.Secrets.TelegramChatID))
		case config.ChannelKafka:
			m.Add(name, NewKafka(cfg.Notify.Kafka))
		case config.ChannelLog:
			m.Add(name, NewLog(logger))
		default:
			_ = m.Close()
			return nil, fmt.Errorf("unsupported notify channel: %q", ch)
		}
	}
	return m, nil
}
