package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreConfigDefaults(t *testing.T) {
	cfg := (&StoreConfig{Addr: "localhost:6379"}).withDefaults()

	assert.Equal(t, 500*time.Millisecond, cfg.OpTimeout)
	assert.Equal(t, 5*time.Second, cfg.PingInterval)
	assert.Equal(t, time.Second, cfg.BackoffBase)
	assert.Equal(t, 30*time.Second, cfg.BackoffCap)
	assert.Equal(t, int64(100), cfg.ScanCount)
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "ready", StateReady.String())
}

// With no Redis listening, every operation must fail immediately with
// ErrNotConnected instead of blocking behind the reconnect loop.
func TestRedisStoreFailsFastWhenUnreachable(t *testing.T) {
	store := NewRedisStore(StoreConfig{
		Addr:        "127.0.0.1:1",
		OpTimeout:   100 * time.Millisecond,
		BackoffBase: 50 * time.Millisecond,
		BackoffCap:  100 * time.Millisecond,
	}, zap.NewNop())
	defer store.Close()

	ctx := context.Background()

	start := time.Now()
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Less(t, time.Since(start), 50*time.Millisecond, "disconnected ops must not wait on I/O")

	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v"), time.Minute), ErrNotConnected)
	assert.ErrorIs(t, store.Delete(ctx, "k"), ErrNotConnected)
	_, err = store.Exists(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, store.Scan(ctx, "*", func([]string) error { return nil }), ErrNotConnected)
	assert.ErrorIs(t, store.FlushAll(ctx), ErrNotConnected)
	assert.False(t, store.Connected())
}

func TestRedisStoreCloseIsIdempotent(t *testing.T) {
	store := NewRedisStore(StoreConfig{
		Addr:        "127.0.0.1:1",
		OpTimeout:   50 * time.Millisecond,
		BackoffBase: 20 * time.Millisecond,
	}, zap.NewNop())

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStoreDeleteEmptyKeySet(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Delete(context.Background()))
}
