// Package digest ranks a cycle's scored trades and renders the notification
// texts: the periodic digest and the immediate high-conviction alert.
package digest

import (
	"sort"
	"time"

	"smartmoney/internal/config"
	"smartmoney/internal/model"
)

type Ranker struct {
	minScore int
	topN     int
	lookback time.Duration
}

func NewRanker(cfg *config.Config) *Ranker {
	return &Ranker{
		minScore: cfg.Thresholds.DigestMinScore,
		topN:     cfg.Digest.TopN,
		lookback: cfg.Windows.Lookback(),
	}
}

// Select keeps picks scoring at least the digest minimum whose filing date
// falls inside the lookback window, orders them by score descending with ties
// left in discovery order, and returns the first topN.
func (r *Ranker) Select(picks []model.Pick, now time.Time) []model.Pick {
	cutoff := now.UTC().Add(-r.lookback)
	out := make([]model.Pick, 0, len(picks))
	for _, p := range picks {
		if p.Score < r.minScore {
			continue
		}
		if r.lookback > 0 && p.FilingDate.Before(cutoff) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if r.topN > 0 && len(out) > r.topN {
		out = out[:r.topN]
	}
	return out
}
