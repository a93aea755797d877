//go:build wireinject
// +build wireinject

package di

import (
	"playlist-backend/application/ports"
	"playlist-backend/application/services"
	"playlist-backend/infrastructure/config"
	"playlist-backend/interfaces/http/rest"
	"playlist-backend/pkg/auth"
	"playlist-backend/pkg/cache"
	"playlist-backend/pkg/observability"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        cache.Store
	Cache        *cache.Service
	PlaylistRepo ports.PlaylistRepository
	UserRepo     ports.UserRepository
	Playlists    *services.PlaylistService
	Validator    *auth.JWTValidator
	Collector    *observability.Collector
	Router       *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideStore,
	ProvideCacheService,
	ProvideJWTValidator,
	ProvidePlaylistRepository,
	ProvideUserRepository,
	ProvidePlaylistService,
	ProvideCollector,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
