package cache

import "sync/atomic"

// metrics holds the process-wide cache counters. Counters are monotonic and
// updated atomically; they reset only via Reset (operator action), never on
// reconnect.
type metrics struct {
	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
	errors  atomic.Int64
}

// Stats is a point-in-time snapshot of the cache counters plus the store
// connection state.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Sets      int64   `json:"sets"`
	Deletes   int64   `json:"deletes"`
	Errors    int64   `json:"errors"`
	HitRate   float64 `json:"hitRate"`
	Connected bool    `json:"connected"`
}

func (m *metrics) snapshot(connected bool) Stats {
	s := Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Sets:      m.sets.Load(),
		Deletes:   m.deletes.Load(),
		Errors:    m.errors.Load(),
		Connected: connected,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func (m *metrics) reset() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.sets.Store(0)
	m.deletes.Store(0)
	m.errors.Store(0)
}
