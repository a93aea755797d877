package ports

import (
	"context"

	"playlist-backend/domain"
)

// PlaylistRepository is the primary-store port for playlists. The caching
// layer only relies on two things: lookups by id, and mutations that report
// success or failure.
type PlaylistRepository interface {
	// Save persists a playlist (create or update)
	Save(ctx context.Context, playlist *domain.Playlist) error

	// GetByID retrieves a playlist by its ID
	GetByID(ctx context.Context, id string) (*domain.Playlist, error)

	// GetByUserID retrieves all playlists owned by a user
	GetByUserID(ctx context.Context, userID string) ([]*domain.Playlist, error)

	// GetPublic retrieves one page of public playlists plus the total count
	GetPublic(ctx context.Context, offset, limit int) ([]*domain.Playlist, int, error)

	// Search finds public playlists whose name matches the query
	Search(ctx context.Context, query string, offset, limit int) ([]*domain.Playlist, int, error)

	// Delete removes a playlist
	Delete(ctx context.Context, id string) error
}

// UserRepository is the primary-store port for users.
type UserRepository interface {
	// Save persists a user (create or update)
	Save(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by its ID
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
