// Package rest wires the HTTP surface: routes, caching, invalidation, auth.
package rest

import (
	"net/http"
	"time"

	"playlist-backend/application/services"
	"playlist-backend/pkg/auth"
	"playlist-backend/pkg/cache"
	"playlist-backend/pkg/cache/keys"
	"playlist-backend/pkg/common"
	"playlist-backend/pkg/observability"

	"playlist-backend/interfaces/http/rest/handlers"
	"playlist-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig carries the routing-level knobs.
type RouterConfig struct {
	Production     bool
	AllowedOrigins []string

	// TTL classes. Entity views live longest; listings and search pages
	// churn faster and expire sooner.
	EntityTTL time.Duration
	ListTTL   time.Duration
	SearchTTL time.Duration
}

// Router creates and configures the HTTP router
type Router struct {
	playlists *services.PlaylistService
	cache     *cache.Service
	validator *auth.JWTValidator
	collector *observability.Collector
	config    RouterConfig
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	playlists *services.PlaylistService,
	cacheSvc *cache.Service,
	validator *auth.JWTValidator,
	collector *observability.Collector,
	config RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		playlists: playlists,
		cache:     cacheSvc,
		validator: validator,
		collector: collector,
		config:    config,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(rt.collector.Instrument)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and scrape endpoints sit outside the API tree: no auth, no
	// caching, no invalidation.
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", rt.collector.Handler())

	playlistHandler := handlers.NewPlaylistHandler(rt.playlists, rt.logger)
	adminHandler := handlers.NewAdminHandler(rt.cache, rt.config.Production, rt.logger)

	// Mutations share one invalidation scope: the entity's own keys plus
	// every listing that could have included it. Placeholders resolve from
	// the route and the authenticated caller.
	invalidatePlaylist := middleware.Invalidate(rt.cache, rt.logger,
		keys.PlaylistPattern(":playlistID"),
		keys.UserPlaylistsPattern(":userID"),
		keys.PublicPlaylistsPattern(),
		keys.SearchPattern(),
	)

	router.Route("/api/v1", func(r chi.Router) {
		// Public reads: anonymous allowed, caller identity used when present.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthenticateOptional(rt.validator, rt.logger))

			r.With(rt.cacheResponses(rt.config.ListTTL, rt.publicListKey)).
				Get("/playlists/public", playlistHandler.ListPublicPlaylists)

			r.With(rt.cacheResponses(rt.config.SearchTTL, rt.searchKey)).
				Get("/search", playlistHandler.SearchPlaylists)

			r.With(rt.cacheResponses(rt.config.EntityTTL, rt.playlistViewKey)).
				Get("/playlists/{playlistID}", playlistHandler.GetPlaylist)

			r.With(rt.cacheResponses(rt.config.EntityTTL, rt.playlistSongsViewKey)).
				Get("/playlists/{playlistID}/songs", playlistHandler.GetPlaylistSongs)
		})

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.validator, rt.logger))

			r.With(rt.cacheResponses(rt.config.ListTTL, rt.userPlaylistsKey)).
				Get("/users/me/playlists", playlistHandler.ListMyPlaylists)

			r.With(invalidatePlaylist).Post("/playlists", playlistHandler.CreatePlaylist)
			r.With(invalidatePlaylist).Put("/playlists/{playlistID}", playlistHandler.UpdatePlaylist)
			r.With(invalidatePlaylist).Post("/playlists/{playlistID}/songs", playlistHandler.AddSong)
			r.With(invalidatePlaylist).Delete("/playlists/{playlistID}", playlistHandler.DeletePlaylist)

			// Admin surface.
			r.Route("/admin/cache", func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))
				r.Get("/stats", adminHandler.GetStats)
				r.Post("/stats/reset", adminHandler.ResetStats)
				r.Post("/invalidate", adminHandler.Invalidate)
				r.Post("/flush", adminHandler.Flush)
			})
		})
	})

	return router
}

// cacheResponses builds a response-cache middleware for one route.
func (rt *Router) cacheResponses(ttl time.Duration, keyFunc func(r *http.Request) string) func(http.Handler) http.Handler {
	return middleware.ResponseCache(rt.cache, rt.logger, middleware.CacheConfig{
		TTL:     ttl,
		KeyFunc: keyFunc,
	})
}

// Route-specific key generators. Each delegates to the keys package so the
// generated keys stay inside the invalidation patterns configured above.

func (rt *Router) publicListKey(r *http.Request) string {
	params := common.ExtractPaginationParams(r)
	return keys.PublicPlaylists(params.Page, params.Limit)
}

func (rt *Router) searchKey(r *http.Request) string {
	params := common.ExtractPaginationParams(r)
	return keys.Search(r.URL.Query().Get("q"), params.Page, params.Limit)
}

func (rt *Router) playlistViewKey(r *http.Request) string {
	callerID := auth.UserIDFromContext(r.Context(), "anon")
	return keys.PlaylistView(chi.URLParam(r, "playlistID"), callerID)
}

func (rt *Router) playlistSongsViewKey(r *http.Request) string {
	callerID := auth.UserIDFromContext(r.Context(), "anon")
	return keys.PlaylistSongsView(chi.URLParam(r, "playlistID"), callerID)
}

func (rt *Router) userPlaylistsKey(r *http.Request) string {
	return keys.UserPlaylists(auth.UserIDFromContext(r.Context(), "anon"))
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests. Cache reachability never
// gates readiness: the service degrades to primary-store performance when the
// cache is down, it does not stop serving.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
