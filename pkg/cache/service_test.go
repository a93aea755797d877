package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testValue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store, zap.NewNop()), store
}

func TestRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := testValue{ID: "p1", Name: "Road Trip"}
	require.NoError(t, svc.Set(ctx, "playlist:p1", in, time.Minute))

	var out testValue
	require.True(t, svc.Get(ctx, "playlist:p1", &out))
	assert.Equal(t, in, out)

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestGetMissIsNotAnError(t *testing.T) {
	svc, _ := newTestService()

	var out testValue
	assert.False(t, svc.Get(context.Background(), "playlist:absent", &out))

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(0), stats.Errors, "a genuine miss is not an error")
}

func TestExpiry(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "playlist:p1", testValue{ID: "p1"}, 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	var out testValue
	assert.False(t, svc.Get(ctx, "playlist:p1", &out))
}

func TestIdempotentDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	assert.NoError(t, svc.Delete(ctx, "playlist:absent"))
	assert.NoError(t, svc.Delete(ctx, "playlist:absent"))
}

func TestUndecodableEntryIsAMiss(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "playlist:p1", []byte("{not json"), time.Minute))

	var out testValue
	assert.False(t, svc.Get(ctx, "playlist:p1", &out))

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Errors)
}

func TestFailOpen(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "playlist:p1", testValue{ID: "p1"}, time.Minute))
	store.SetAvailable(false)

	var out testValue
	assert.False(t, svc.Get(ctx, "playlist:p1", &out), "get must report absent, not panic or block")
	assert.Error(t, svc.Set(ctx, "playlist:p2", testValue{ID: "p2"}, time.Minute))
	assert.Error(t, svc.Delete(ctx, "playlist:p1"))
	assert.False(t, svc.Exists(ctx, "playlist:p1"))
	assert.Equal(t, 0, svc.Invalidate(ctx, "playlist:*"))

	stats := svc.Stats()
	assert.False(t, stats.Connected)
	assert.Greater(t, stats.Errors, int64(0))

	// Recovery: same service keeps working once the store is back.
	store.SetAvailable(true)
	require.NoError(t, svc.Set(ctx, "playlist:p3", testValue{ID: "p3"}, time.Minute))
	assert.True(t, svc.Get(ctx, "playlist:p3", &out))
}

func TestInvalidatePatternScope(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	populate := map[string]testValue{
		"playlist:p1":       {ID: "p1"},
		"playlist:p1:songs": {ID: "p1"},
		"playlist:p2":       {ID: "p2"},
		"user:p1":           {ID: "p1"}, // same identifier, different kind
		"user:u1:playlists": {ID: "u1"},
		"public:playlists:1:20": {},
	}
	for k, v := range populate {
		require.NoError(t, svc.Set(ctx, k, v, time.Minute))
	}

	deleted := svc.Invalidate(ctx, "playlist:*")
	assert.Equal(t, 3, deleted)

	var out testValue
	assert.False(t, svc.Get(ctx, "playlist:p1", &out))
	assert.False(t, svc.Get(ctx, "playlist:p2", &out))
	assert.True(t, svc.Get(ctx, "user:p1", &out), "other kinds must be untouched")
	assert.True(t, svc.Get(ctx, "user:u1:playlists", &out))
}

func TestInvalidateWithResolvedPlaceholder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, k := range []string{"playlist:p1", "playlist:p1:songs", "playlist:p2"} {
		require.NoError(t, svc.Set(ctx, k, testValue{}, time.Minute))
	}

	// playlist::id:* with id=p1 resolves to playlist:p1*
	deleted := svc.Invalidate(ctx, "playlist:p1*")
	assert.Equal(t, 2, deleted)

	var out testValue
	assert.True(t, svc.Get(ctx, "playlist:p2", &out))
}

func TestInvalidateNoMatches(t *testing.T) {
	svc, _ := newTestService()
	assert.Equal(t, 0, svc.Invalidate(context.Background(), "playlist:*"))
}

func TestFlushAll(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "playlist:p1", testValue{}, time.Minute))
	require.NoError(t, svc.FlushAll(ctx))

	var out testValue
	assert.False(t, svc.Get(ctx, "playlist:p1", &out))
}

func TestStatsHitRate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", testValue{}, time.Minute))
	var out testValue
	svc.Get(ctx, "k", &out)
	svc.Get(ctx, "k", &out)
	svc.Get(ctx, "absent", &out)

	stats := svc.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.True(t, stats.Connected)

	svc.ResetStats()
	stats = svc.Stats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
}
