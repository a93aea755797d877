package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Store abstracts the external cache endpoint. The Service depends on this
// interface so the backend can be swapped (and faked in tests).
type Store interface {
	// Get returns the raw bytes stored under key, or ErrMiss if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key with the given TTL. A zero TTL means no
	// expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Deleting absent keys is not an error.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Scan streams all keys matching the glob pattern to fn in batches,
	// using an incremental cursor so large keyspaces are never materialized
	// in memory at once.
	Scan(ctx context.Context, pattern string, fn func(keys []string) error) error

	// FlushAll wipes the entire keyspace.
	FlushAll(ctx context.Context) error

	// Ping checks store reachability.
	Ping(ctx context.Context) error

	// Connected reports whether the store is currently usable.
	Connected() bool

	// Close releases the connection and stops background reconnection.
	Close() error
}

// ConnState is the connection state machine of the store client.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateReady
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// StoreConfig configures the Redis store client.
type StoreConfig struct {
	Addr         string
	Password     string
	DB           int
	OpTimeout    time.Duration // bound on every synchronous operation
	PingInterval time.Duration // health check period while connected
	BackoffBase  time.Duration // reconnect backoff: min(attempt*base, cap)
	BackoffCap   time.Duration
	ScanCount    int64 // SCAN batch size hint
}

func (c *StoreConfig) withDefaults() StoreConfig {
	out := *c
	if out.OpTimeout <= 0 {
		out.OpTimeout = 500 * time.Millisecond
	}
	if out.PingInterval <= 0 {
		out.PingInterval = 5 * time.Second
	}
	if out.BackoffBase <= 0 {
		out.BackoffBase = time.Second
	}
	if out.BackoffCap <= 0 {
		out.BackoffCap = 30 * time.Second
	}
	if out.ScanCount <= 0 {
		out.ScanCount = 100
	}
	return out
}

// RedisStore owns the single Redis connection. go-redis provides the
// connection pool and request pipelining; this layer adds the connection
// state machine, bounded operation timeouts, and a circuit breaker so that a
// dead store fails requests fast instead of stacking them up behind the pool.
type RedisStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	cfg     StoreConfig
	logger  *zap.Logger

	state  atomic.Int32
	stop   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewRedisStore creates the store client and starts the background monitor.
// It never blocks waiting for Redis: if the store is unreachable at startup
// the client begins in Disconnected and the monitor retries with capped
// backoff until it succeeds.
func NewRedisStore(cfg StoreConfig, logger *zap.Logger) *RedisStore {
	cfg = cfg.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.OpTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})

	s := &RedisStore{
		client: client,
		cfg:    cfg,
		logger: logger,
		stop:   make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Timeout:     cfg.BackoffBase,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				s.setState(StateDisconnected)
			}
			logger.Debug("cache breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	s.wg.Add(1)
	go s.monitor()

	return s
}

// Connected reports whether the client considers the store usable.
func (s *RedisStore) Connected() bool {
	return s.State() == StateReady
}

// State returns the current connection state.
func (s *RedisStore) State() ConnState {
	return ConnState(s.state.Load())
}

func (s *RedisStore) setState(next ConnState) {
	prev := ConnState(s.state.Swap(int32(next)))
	if prev != next {
		s.logger.Info("cache store state change",
			zap.String("from", prev.String()),
			zap.String("to", next.String()),
		)
	}
}

// Get returns the bytes stored under key, or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	missed := false
	err := s.do(ctx, func(ctx context.Context) error {
		b, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			missed = true
			return nil
		}
		if err != nil {
			return err
		}
		val = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if missed {
		return nil, ErrMiss
	}
	return val, nil
}

// Set writes value under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, key, value, ttl).Err()
	})
}

// Delete removes keys. Redis DEL on absent keys succeeds with count 0, which
// gives the idempotent-delete contract for free.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.do(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, keys...).Err()
	})
}

// Exists reports whether key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := s.do(ctx, func(ctx context.Context) error {
		n, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	return found, err
}

// Scan streams matching keys to fn in batches of ScanCount using the
// incremental SCAN cursor. fn returning an error aborts the scan.
func (s *RedisStore) Scan(ctx context.Context, pattern string, fn func(keys []string) error) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if s.closed.Load() {
		return ErrClosed
	}

	// Scans iterate the whole keyspace, so they get a more generous bound
	// than single-key operations.
	ctx, cancel := context.WithTimeout(ctx, 10*s.cfg.OpTimeout)
	defer cancel()

	batch := make([]string, 0, s.cfg.ScanCount)
	iter := s.client.Scan(ctx, 0, pattern, s.cfg.ScanCount).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= s.cfg.ScanCount {
			if err := fn(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// FlushAll wipes the whole logical database.
func (s *RedisStore) FlushAll(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.client.FlushDB(ctx).Err()
	})
}

// Ping checks reachability within the operation timeout.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close stops the monitor and releases the connection. Safe to call once on
// every shutdown path.
func (s *RedisStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stop)
	s.wg.Wait()
	s.setState(StateDisconnected)
	return s.client.Close()
}

// do runs op through the circuit breaker with a bounded timeout. It fails
// immediately when the store is disconnected so the request path never waits
// on a dead connection.
func (s *RedisStore) do(ctx context.Context, op func(ctx context.Context) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.Connected() {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrNotConnected
	}
	return err
}

// monitor owns reconnection. While connected it health-checks on a fixed
// interval; once the connection drops it retries with min(attempt*base, cap)
// backoff, indefinitely, on its own goroutine so no request ever carries the
// reconnect cost.
func (s *RedisStore) monitor() {
	defer s.wg.Done()

	attempt := 1
	for {
		if s.Connected() {
			if !s.sleep(s.cfg.PingInterval) {
				return
			}
			if err := s.Ping(context.Background()); err != nil {
				s.setState(StateDisconnected)
				s.logger.Warn("cache store connection lost", zap.Error(err))
				attempt = 1
			}
			continue
		}

		s.setState(StateConnecting)
		if err := s.Ping(context.Background()); err != nil {
			s.setState(StateDisconnected)
			delay := time.Duration(attempt) * s.cfg.BackoffBase
			if delay > s.cfg.BackoffCap {
				delay = s.cfg.BackoffCap
			}
			s.logger.Warn("cache store unreachable",
				zap.Int("attempt", attempt),
				zap.Duration("retryIn", delay),
				zap.Error(err),
			)
			attempt++
			if !s.sleep(delay) {
				return
			}
			continue
		}

		s.setState(StateReady)
		attempt = 1
	}
}

// sleep waits for d or until Close; it reports false when closing.
func (s *RedisStore) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.stop:
		return false
	case <-timer.C:
		return true
	}
}
