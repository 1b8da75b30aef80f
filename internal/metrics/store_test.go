package metrics

import (
	"sync"
	"testing"
)

func TestStoreCounts(t *testing.T) {
	s := NewStore()
	s.Add("government", Fetched, 5)
	s.Inc("government", Inserted)
	s.Inc("insider", Inserted)
	s.Add("", Fetched, 3)
	s.Add("insider", Discarded, 0)

	if got := s.GetAll()["government"][Fetched]; got != 5 {
		t.Fatalf("fetched = %d", got)
	}
	if got := s.Total(Inserted); got != 2 {
		t.Fatalf("inserted total = %d", got)
	}
	all := s.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 feeds, got %v", all)
	}
	if _, ok := all["insider"][Discarded]; ok {
		t.Fatalf("zero adds must not create counters")
	}
	all["government"][Fetched] = 100
	if s.GetAll()["government"][Fetched] != 5 {
		t.Fatalf("GetAll must return a copy")
	}
}

func TestStoreConcurrentAdds(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Inc("contracts", Fetched)
		}()
	}
	wg.Wait()
	if got := s.GetAll()["contracts"][Fetched]; got != 50 {
		t.Fatalf("fetched = %d", got)
	}
}

func TestLogAttrsOrdered(t *testing.T) {
	s := NewStore()
	s.Inc("insider", Fetched)
	s.Inc("contracts", Fetched)
	attrs := s.LogAttrs()
	if len(attrs) != 4 || attrs[0] != "contracts" || attrs[2] != "insider" {
		t.Fatalf("unexpected attrs: %v", attrs)
	}
}
