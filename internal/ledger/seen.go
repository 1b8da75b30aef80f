package ledger

import "sync"

// seenSet remembers identities handled during one run, per table, so that a
// payload repeated inside a single batch is skipped without a store round trip.
type seenSet struct {
	mu    sync.Mutex
	items map[string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{items: make(map[string]struct{})}
}

func (s *seenSet) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok
}

// Mark records key once the store has settled its fate.
func (s *seenSet) Mark(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = struct{}{}
}
