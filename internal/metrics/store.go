// Package metrics counts what happened to each feed during one run.
package metrics

import (
	"sort"
	"sync"
)

type Counter string

const (
	Fetched       Counter = "fetched"
	Discarded     Counter = "discarded"
	Duplicates    Counter = "duplicates"
	Inserted      Counter = "inserted"
	Alerted       Counter = "alerted"
	AlertFailures Counter = "alert_failures"
	FetchErrors   Counter = "fetch_errors"
	StoreErrors   Counter = "store_errors"
)

// FeedStats is a snapshot of one feed's counters.
type FeedStats map[Counter]int

type Store struct {
	mu     sync.RWMutex
	byFeed map[string]FeedStats
}

func NewStore() *Store {
	return &Store{byFeed: make(map[string]FeedStats)}
}

func (s *Store) Add(feed string, c Counter, n int) {
	if feed == "" || n == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byFeed[feed]
	if !ok {
		m = make(FeedStats)
		s.byFeed[feed] = m
	}
	m[c] += n
}

func (s *Store) Inc(feed string, c Counter) {
	s.Add(feed, c, 1)
}

// GetAll returns a copy of every feed's counters.
func (s *Store) GetAll() map[string]FeedStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]FeedStats, len(s.byFeed))
	for feed, m := range s.byFeed {
		cp := make(FeedStats, len(m))
		for c, n := range m {
			cp[c] = n
		}
		out[feed] = cp
	}
	return out
}

// Total sums one counter across feeds.
func (s *Store) Total(c Counter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, m := range s.byFeed {
		total += m[c]
	}
	return total
}

// LogAttrs flattens the counters into slog key/value pairs, feeds in name order.
func (s *Store) LogAttrs() []any {
	all := s.GetAll()
	feeds := make([]string, 0, len(all))
	for feed := range all {
		feeds = append(feeds, feed)
	}
	sort.Strings(feeds)
	out := make([]any, 0, len(feeds)*2)
	for _, feed := range feeds {
		out = append(out, feed, map[Counter]int(all[feed]))
	}
	return out
}
