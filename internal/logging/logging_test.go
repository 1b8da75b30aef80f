package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerToFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "info", "json").Info("trade persisted", "ticker", "ABC")
	if !strings.Contains(buf.String(), `"ticker":"ABC"`) {
		t.Fatalf("json output: %s", buf.String())
	}
	buf.Reset()
	NewLoggerTo(&buf, "info", "text").Info("trade persisted", "ticker", "ABC")
	if !strings.Contains(buf.String(), "ticker=ABC") {
		t.Fatalf("text output: %s", buf.String())
	}
	buf.Reset()
	NewLoggerTo(&buf, "warn", "json").Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
}
