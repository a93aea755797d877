package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"playlist-backend/pkg/auth"
	"playlist-backend/pkg/cache"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func populateKeys(t *testing.T, svc *cache.Service, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, svc.Set(context.Background(), k, "cached", time.Minute))
	}
}

func TestInvalidateAfterSuccessfulMutation(t *testing.T) {
	svc, _ := newCacheTestService()
	populateKeys(t, svc, "playlist:p1", "playlist:p1:songs", "playlist:p2")

	r := chi.NewRouter()
	r.With(Invalidate(svc, zap.NewNop(), "playlist::playlistID*")).
		Put("/playlists/{playlistID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/playlists/p1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()
	require.Eventually(t, func() bool {
		return !svc.Exists(ctx, "playlist:p1") && !svc.Exists(ctx, "playlist:p1:songs")
	}, time.Second, 5*time.Millisecond, "pattern playlist:p1* must be invalidated")

	assert.True(t, svc.Exists(ctx, "playlist:p2"), "sibling entities must be untouched")
}

func TestInvalidateSkippedOnFailedMutation(t *testing.T) {
	svc, _ := newCacheTestService()
	populateKeys(t, svc, "playlist:p1")

	r := chi.NewRouter()
	r.With(Invalidate(svc, zap.NewNop(), "playlist::playlistID*")).
		Put("/playlists/{playlistID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/playlists/p1", nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, svc.Exists(context.Background(), "playlist:p1"),
		"a failed mutation must not invalidate anything")
}

func TestInvalidateResolvesUserPlaceholder(t *testing.T) {
	svc, _ := newCacheTestService()
	populateKeys(t, svc, "user:u1:playlists", "user:u2:playlists")

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.SetUserInContext(req.Context(), &auth.UserContext{UserID: "u1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.With(Invalidate(svc, zap.NewNop(), "user::userID:playlists*")).
		Post("/playlists", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/playlists", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	ctx := context.Background()
	require.Eventually(t, func() bool {
		return !svc.Exists(ctx, "user:u1:playlists")
	}, time.Second, 5*time.Millisecond)
	assert.True(t, svc.Exists(ctx, "user:u2:playlists"))
}

func TestInvalidateMultiplePatterns(t *testing.T) {
	svc, _ := newCacheTestService()
	populateKeys(t, svc,
		"playlist:p1",
		"public:playlists:1:20",
		"public:playlists:2:20",
		"user:u1:playlists",
	)

	r := chi.NewRouter()
	r.With(Invalidate(svc, zap.NewNop(), "playlist::playlistID*", "public:playlists*")).
		Delete("/playlists/{playlistID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/playlists/p1", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx := context.Background()
	require.Eventually(t, func() bool {
		return !svc.Exists(ctx, "playlist:p1") &&
			!svc.Exists(ctx, "public:playlists:1:20") &&
			!svc.Exists(ctx, "public:playlists:2:20")
	}, time.Second, 5*time.Millisecond)
	assert.True(t, svc.Exists(ctx, "user:u1:playlists"))
}

func TestResolvePatternLeavesUnresolvablePlaceholders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/playlists/p1", nil)

	// Without route context or user, nothing resolves; the segment behaves
	// as literal pattern text.
	assert.Equal(t, "user::userID:playlists*", resolvePattern(req, "user::userID:playlists*"))
}

func TestInvalidateFailOpen(t *testing.T) {
	svc, store := newCacheTestService()
	store.SetAvailable(false)

	r := chi.NewRouter()
	r.With(Invalidate(svc, zap.NewNop(), "playlist::playlistID*")).
		Put("/playlists/{playlistID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	// The mutation response must be unaffected by the dead cache.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/playlists/p1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
