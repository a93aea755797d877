package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryStore is an in-process Store used for development and tests when no
// Redis endpoint is available. Expiry is enforced lazily on read and scan.
type MemoryStore struct {
	mu        sync.RWMutex
	items     map[string]memoryItem
	available atomic.Bool
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an empty, connected memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{items: make(map[string]memoryItem)}
	s.available.Store(true)
	return s
}

// SetAvailable toggles simulated connectivity. While unavailable every
// operation fails with ErrNotConnected, mirroring a dead Redis endpoint.
func (s *MemoryStore) SetAvailable(v bool) {
	s.available.Store(v)
}

// Connected reports simulated connectivity.
func (s *MemoryStore) Connected() bool {
	return s.available.Load()
}

// Get returns the bytes stored under key, or ErrMiss.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if !s.Connected() {
		return nil, ErrNotConnected
	}
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || item.expired(time.Now()) {
		return nil, ErrMiss
	}
	return item.value, nil
}

// Set writes value under key with the given TTL.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}

// Delete removes keys; absent keys are not an error.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	s.mu.Lock()
	for _, k := range keys {
		delete(s.items, k)
	}
	s.mu.Unlock()
	return nil
}

// Exists reports whether key is present and unexpired.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if err == ErrMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Scan streams live keys matching the glob pattern to fn in one batch per
// call. Patterns use path.Match syntax, which covers the '*' globs the key
// namespace produces.
func (s *MemoryStore) Scan(_ context.Context, pattern string, fn func(keys []string) error) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	now := time.Now()
	s.mu.RLock()
	var matched []string
	for key, item := range s.items {
		if item.expired(now) {
			continue
		}
		ok, err := path.Match(pattern, key)
		if err != nil {
			s.mu.RUnlock()
			return err
		}
		if ok {
			matched = append(matched, key)
		}
	}
	s.mu.RUnlock()
	if len(matched) == 0 {
		return nil
	}
	return fn(matched)
}

// FlushAll drops every entry.
func (s *MemoryStore) FlushAll(context.Context) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	s.mu.Lock()
	s.items = make(map[string]memoryItem)
	s.mu.Unlock()
	return nil
}

// Ping reports simulated connectivity.
func (s *MemoryStore) Ping(context.Context) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	return nil
}

// Close marks the store unavailable.
func (s *MemoryStore) Close() error {
	s.available.Store(false)
	return nil
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}
