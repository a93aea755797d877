package di

import (
	"playlist-backend/application/ports"
	"playlist-backend/application/services"
	"playlist-backend/infrastructure/config"
	"playlist-backend/infrastructure/persistence/memory"
	"playlist-backend/interfaces/http/rest"
	"playlist-backend/pkg/auth"
	"playlist-backend/pkg/cache"
	"playlist-backend/pkg/observability"

	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideStore creates the Redis store client. The client starts its own
// reconnect loop and never blocks startup on an unreachable store.
func ProvideStore(cfg *config.Config, logger *zap.Logger) cache.Store {
	return cache.NewRedisStore(cache.StoreConfig{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		OpTimeout:    cfg.CacheOpTimeout,
		PingInterval: cfg.CachePingInterval,
	}, logger)
}

// ProvideCacheService creates the cache service over the store
func ProvideCacheService(store cache.Store, logger *zap.Logger) *cache.Service {
	return cache.NewService(store, logger)
}

// ProvideJWTValidator creates the token validator. Outside production a
// missing secret falls back to a fixed development key so local setups work
// without configuration; config.Validate refuses that combination in
// production before this provider ever runs.
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "development-secret"
		logger.Warn("JWT_SECRET not set, using development key")
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvidePlaylistRepository creates the playlist primary-store adapter
func ProvidePlaylistRepository() ports.PlaylistRepository {
	return memory.NewPlaylistRepository()
}

// ProvideUserRepository creates the user primary-store adapter
func ProvideUserRepository() ports.UserRepository {
	return memory.NewUserRepository()
}

// ProvidePlaylistService creates the playlist application service
func ProvidePlaylistService(
	playlists ports.PlaylistRepository,
	cacheSvc *cache.Service,
	cfg *config.Config,
	logger *zap.Logger,
) *services.PlaylistService {
	return services.NewPlaylistService(playlists, cacheSvc, services.PlaylistTTLs{
		Entity: cfg.CacheEntityTTL,
		List:   cfg.CacheListTTL,
	}, logger)
}

// ProvideCollector creates the Prometheus metrics collector
func ProvideCollector(cfg *config.Config, cacheSvc *cache.Service) *observability.Collector {
	return observability.NewCollector(cfg.MetricsNamespace, cacheSvc)
}

// ProvideRouter creates the configured HTTP router
func ProvideRouter(
	playlists *services.PlaylistService,
	cacheSvc *cache.Service,
	validator *auth.JWTValidator,
	collector *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(playlists, cacheSvc, validator, collector, rest.RouterConfig{
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOrigins,
		EntityTTL:      cfg.CacheEntityTTL,
		ListTTL:        cfg.CacheListTTL,
		SearchTTL:      cfg.CacheSearchTTL,
	}, logger)
}
