package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Log writes notifications to the structured log.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, text string) error {
	l.logger.InfoContext(ctx, "notification", "text", text)
	return nil
}

func (l *Log) Close() error { return nil }

// Buffer keeps the most recent notifications in memory. It backs dry runs.
type Buffer struct {
	mu    sync.RWMutex
	buf   []string
	limit int
}

func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = 1000
	}
	return &Buffer{limit: limit}
}

func (b *Buffer) Send(_ context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) < b.limit {
		b.buf = append(b.buf, text)
		return nil
	}
	copy(b.buf, b.buf[1:])
	b.buf[len(b.buf)-1] = text
	return nil
}

// Messages returns the buffered texts, oldest first.
func (b *Buffer) Messages() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.buf))
	copy(out, b.buf)
	return out
}

func (b *Buffer) Close() error { return nil }
