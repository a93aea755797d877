package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"playlist-backend/application/services"
	"playlist-backend/infrastructure/persistence/memory"
	"playlist-backend/pkg/auth"
	"playlist-backend/pkg/cache"
	"playlist-backend/pkg/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

type testEnv struct {
	handler http.Handler
	store   *cache.MemoryStore
	cache   *cache.Service
}

func newTestEnv(t *testing.T, production bool) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	store := cache.NewMemoryStore()
	cacheSvc := cache.NewService(store, logger)

	playlists := services.NewPlaylistService(
		memory.NewPlaylistRepository(),
		cacheSvc,
		services.PlaylistTTLs{Entity: time.Minute, List: time.Minute},
		logger,
	)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: testSecret})
	require.NoError(t, err)

	router := NewRouter(
		playlists,
		cacheSvc,
		validator,
		observability.NewCollector(fmt.Sprintf("router_test_%d", time.Now().UnixNano()), cacheSvc),
		RouterConfig{
			Production:     production,
			AllowedOrigins: []string{"http://localhost:3000"},
			EntityTTL:      time.Minute,
			ListTTL:        time.Minute,
			SearchTTL:      time.Minute,
		},
		logger,
	)

	return &testEnv{handler: router.Setup(), store: store, cache: cacheSvc}
}

func mintToken(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	claims := auth.Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func createPlaylist(t *testing.T, env *testEnv, token, name string, public bool) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/playlists",
		token, fmt.Sprintf(`{"name":%q,"public":%v}`, name, public))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.ID)
	return envelope.Data.ID
}

func TestGetPlaylistMissThenHit(t *testing.T) {
	env := newTestEnv(t, false)
	token := mintToken(t, "u1")

	id := createPlaylist(t, env, token, "Road Trip", true)
	path := "/api/v1/playlists/" + id

	rec := env.do(t, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	// Population is asynchronous; the entry appears shortly after the miss.
	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, path, "", "")
		return rec.Header().Get("X-Cache") == "HIT"
	}, time.Second, 5*time.Millisecond)

	rec = env.do(t, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Road Trip")
}

func TestUpdateInvalidatesCachedResponses(t *testing.T) {
	env := newTestEnv(t, false)
	token := mintToken(t, "u1")

	id := createPlaylist(t, env, token, "Road Trip", true)
	path := "/api/v1/playlists/" + id

	// Warm the response cache.
	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, path, "", "")
		return rec.Header().Get("X-Cache") == "HIT"
	}, time.Second, 5*time.Millisecond)

	rec := env.do(t, http.MethodPut, path, token, `{"name":"Summer Mix"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Invalidation runs after the response; the stale view disappears and
	// subsequent reads serve the new name.
	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, path, "", "")
		return strings.Contains(rec.Body.String(), "Summer Mix")
	}, time.Second, 5*time.Millisecond)
}

func TestPrivatePlaylistViewsAreCallerScoped(t *testing.T) {
	env := newTestEnv(t, false)
	owner := mintToken(t, "u1")
	other := mintToken(t, "u2")

	id := createPlaylist(t, env, owner, "Secret", false)
	path := "/api/v1/playlists/" + id

	// Owner reads (and caches) their private playlist.
	rec := env.do(t, http.MethodGet, path, owner, "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, path, owner, "")
		return rec.Header().Get("X-Cache") == "HIT"
	}, time.Second, 5*time.Millisecond)

	// The owner's cached view must not serve another caller or anonymous.
	rec = env.do(t, http.MethodGet, path, other, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMutationsRequireAuthentication(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/v1/playlists", "", `{"name":"X","public":true}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFailOpenEndToEnd(t *testing.T) {
	env := newTestEnv(t, false)
	token := mintToken(t, "u1")

	id := createPlaylist(t, env, token, "Road Trip", true)
	env.store.SetAvailable(false)

	// Reads and writes keep working without the cache.
	rec := env.do(t, http.MethodGet, "/api/v1/playlists/"+id, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = env.do(t, http.MethodPut, "/api/v1/playlists/"+id, token, `{"name":"Still Works"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/playlists/public", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchNormalizesIntoOneEntry(t *testing.T) {
	env := newTestEnv(t, false)
	token := mintToken(t, "u1")
	createPlaylist(t, env, token, "Jazz Evenings", true)

	rec := env.do(t, http.MethodGet, "/api/v1/search?q=jazz&page=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Same query with reordered parameters hits the same cached entry.
	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/api/v1/search?page=1&q=jazz", "", "")
		return rec.Header().Get("X-Cache") == "HIT"
	}, time.Second, 5*time.Millisecond)
}

func TestAdminStatsAndRoleGate(t *testing.T) {
	env := newTestEnv(t, false)
	admin := mintToken(t, "ops", "admin")
	user := mintToken(t, "u1")

	rec := env.do(t, http.MethodGet, "/api/v1/admin/cache/stats", user, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/cache/stats", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected":true`)

	env.store.SetAvailable(false)
	rec = env.do(t, http.MethodGet, "/api/v1/admin/cache/stats", admin, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected":false`)
}

func TestAdminInvalidate(t *testing.T) {
	env := newTestEnv(t, false)
	admin := mintToken(t, "ops", "admin")
	token := mintToken(t, "u1")

	id := createPlaylist(t, env, token, "Road Trip", true)
	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/api/v1/playlists/"+id, "", "")
		return rec.Header().Get("X-Cache") == "HIT"
	}, time.Second, 5*time.Millisecond)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/cache/invalidate", admin,
		fmt.Sprintf(`{"pattern":"playlist:%s*"}`, id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted"`)

	rec = env.do(t, http.MethodGet, "/api/v1/playlists/"+id, "", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestAdminFlushRefusedInProduction(t *testing.T) {
	env := newTestEnv(t, true)
	admin := mintToken(t, "ops", "admin")

	rec := env.do(t, http.MethodPost, "/api/v1/admin/cache/flush", admin, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	dev := newTestEnv(t, false)
	rec = dev.do(t, http.MethodPost, "/api/v1/admin/cache/flush", admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t, false)
	token := mintToken(t, "u1")

	rec := env.do(t, http.MethodPost, "/api/v1/playlists", token, `{"public":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")

	rec = env.do(t, http.MethodPost, "/api/v1/playlists", token, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := createPlaylist(t, env, token, "Road Trip", true)
	rec = env.do(t, http.MethodPost, "/api/v1/playlists/"+id+"/songs", token, `{"title":"Song A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "artist is required")
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Readiness ignores cache state entirely.
	env.store.SetAvailable(false)
	rec = env.do(t, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cache_hits_total")
}
