package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"smartmoney/internal/model"
)

var reDigits = regexp.MustCompile(`\d+`)

// ParseMoney turns a disclosed amount into a non-negative integer proxy.
// Ranges resolve to the lower bound, "+" suffixed values to their prefix and
// anything without digits to 0.
func ParseMoney(value any) int64 {
	switch x := value.(type) {
	case nil:
		return 0
	case int:
		return clampMoney(float64(x))
	case int64:
		return clampMoney(float64(x))
	case float64:
		return clampMoney(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return clampMoney(f)
		}
		return 0
	}
	s := strings.ReplaceAll(strings.TrimSpace(asString(value)), ",", "")
	if s == "" {
		return 0
	}
	switch {
	case strings.Contains(s, "-"):
		left, _, _ := strings.Cut(s, "-")
		return leadingDigits(left)
	case strings.Contains(s, "+"):
		left, _, _ := strings.Cut(s, "+")
		return leadingDigits(left)
	}
	return leadingDigits(s)
}

func leadingDigits(s string) int64 {
	m := reDigits.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func clampMoney(f float64) int64 {
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
}

// ParseDate accepts plain dates and ISO-8601 date-times; naive values are UTC.
// Bare numbers are not dates.
// The boolean reports whether a date was actually recovered from value; when
// it is false the result is now.
func ParseDate(value any, now time.Time) (time.Time, bool) {
	now = now.UTC()
	if value == nil {
		return now, false
	}
	s := strings.TrimSpace(asString(value))
	if s == "" {
		return now, false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t.UTC(), true
		}
	}
	return now, false
}

// ParseSide maps free-text transaction descriptions onto BUY/SELL/UNKNOWN.
func ParseSide(value any) model.Side {
	if value == nil {
		return model.SideUnknown
	}
	s := strings.ToLower(strings.TrimSpace(asString(value)))
	for _, k := range []string{"buy", "purchase", "acquire"} {
		if strings.Contains(s, k) {
			return model.SideBuy
		}
	}
	for _, k := range []string{"sell", "sale", "dispose"} {
		if strings.Contains(s, k) {
			return model.SideSell
		}
	}
	return model.SideUnknown
}
