// Package cache implements the fault-tolerant cache-aside layer in front of
// the primary data store.
//
// The single most important contract here is fail-open: every Service
// operation is safe to call while the store is unreachable. A failed read is
// indistinguishable from a miss, a failed write is at most logged, and no
// error originating in this package ever alters the outcome of a request the
// primary store has already decided.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Service layers the cache-aside contract over a Store: typed get/set/delete,
// TTL application, pattern invalidation, and hit/miss accounting.
type Service struct {
	store   Store
	logger  *zap.Logger
	metrics metrics
}

// NewService creates a cache service over the given store.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Get loads the value under key into dest and reports whether it was found.
// A store failure and a decode failure both count as a miss: cache-aside
// callers fall through to the primary store either way, and must never branch
// on "cache down" versus "key not present".
func (s *Service) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, err := s.store.Get(ctx, key)
	if err == ErrMiss {
		s.metrics.misses.Add(1)
		return false
	}
	if err != nil {
		s.metrics.misses.Add(1)
		s.metrics.errors.Add(1)
		s.logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.metrics.misses.Add(1)
		s.metrics.errors.Add(1)
		s.logger.Warn("cache entry undecodable, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	s.metrics.hits.Add(1)
	return true
}

// Set serializes value and writes it under key with the given TTL. Callers
// must not treat a returned error as fatal; at most they log it.
//
// A Set racing a concurrent Invalidate for the same entity can land after the
// invalidation and leave a stale entry until the next write or TTL expiry.
// That staleness is accepted and bounded by the TTL.
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		s.metrics.errors.Add(1)
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	if err := s.store.Set(ctx, key, raw, ttl); err != nil {
		s.metrics.errors.Add(1)
		s.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	s.metrics.sets.Add(1)
	return nil
}

// Delete removes a single key. Deleting an absent key is success.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		s.metrics.errors.Add(1)
		s.logger.Debug("cache delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	s.metrics.deletes.Add(1)
	return nil
}

// Exists reports whether key is present. False on any store failure.
func (s *Service) Exists(ctx context.Context, key string) bool {
	found, err := s.store.Exists(ctx, key)
	if err != nil {
		s.metrics.errors.Add(1)
		return false
	}
	return found
}

// Invalidate deletes every key matching the glob pattern and returns the
// number deleted. It returns 0 both when nothing matched and when the scan
// failed; callers cannot and must not distinguish the two.
func (s *Service) Invalidate(ctx context.Context, pattern string) int {
	deleted := 0
	err := s.store.Scan(ctx, pattern, func(keys []string) error {
		if err := s.store.Delete(ctx, keys...); err != nil {
			return err
		}
		deleted += len(keys)
		s.metrics.deletes.Add(int64(len(keys)))
		return nil
	})
	if err != nil {
		s.metrics.errors.Add(1)
		s.logger.Warn("cache invalidation aborted",
			zap.String("pattern", pattern),
			zap.Int("deletedSoFar", deleted),
			zap.Error(err),
		)
		return deleted
	}
	if deleted > 0 {
		s.logger.Debug("cache invalidated",
			zap.String("pattern", pattern),
			zap.Int("deleted", deleted),
		)
	}
	return deleted
}

// FlushAll wipes the entire keyspace. Environment policy (production refusal)
// is enforced at the admin layer, not here.
func (s *Service) FlushAll(ctx context.Context) error {
	if err := s.store.FlushAll(ctx); err != nil {
		s.metrics.errors.Add(1)
		return err
	}
	s.logger.Info("cache flushed")
	return nil
}

// Stats returns a point-in-time counter snapshot. It never blocks: when the
// store is down it simply reports connected=false.
func (s *Service) Stats() Stats {
	return s.metrics.snapshot(s.store.Connected())
}

// ResetStats zeroes the counters. Operator action only.
func (s *Service) ResetStats() {
	s.metrics.reset()
}

// Connected reports current store reachability.
func (s *Service) Connected() bool {
	return s.store.Connected()
}
