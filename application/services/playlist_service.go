package services

import (
	"context"
	"time"

	"playlist-backend/application/ports"
	"playlist-backend/domain"
	"playlist-backend/pkg/cache"
	"playlist-backend/pkg/cache/keys"
	apperrors "playlist-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaylistTTLs carries the per-class TTLs for playlist caching. Defaults are
// defined per call site in configuration, not globally.
type PlaylistTTLs struct {
	Entity time.Duration
	List   time.Duration
}

// PlaylistService implements playlist operations over the primary store with
// fine-grained cache-aside on entity lookups. List and search responses are
// cached one level up, by the response-caching middleware.
type PlaylistService struct {
	playlists ports.PlaylistRepository
	cache     *cache.Service
	ttls      PlaylistTTLs
	logger    *zap.Logger
}

// NewPlaylistService creates a playlist service.
func NewPlaylistService(
	playlists ports.PlaylistRepository,
	cacheSvc *cache.Service,
	ttls PlaylistTTLs,
	logger *zap.Logger,
) *PlaylistService {
	return &PlaylistService{
		playlists: playlists,
		cache:     cacheSvc,
		ttls:      ttls,
		logger:    logger,
	}
}

// CreatePlaylistInput carries the caller-supplied fields for Create.
type CreatePlaylistInput struct {
	Name        string
	Description string
	Public      bool
}

// Create persists a new playlist for the owner.
func (s *PlaylistService) Create(ctx context.Context, ownerID string, in CreatePlaylistInput) (*domain.Playlist, error) {
	now := time.Now().UTC()
	playlist := &domain.Playlist{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Name:        in.Name,
		Description: in.Description,
		Public:      in.Public,
		Songs:       []domain.Song{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.playlists.Save(ctx, playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// GetByID returns a playlist, cache-aside: cache first, primary store on
// miss, populate after. A cache failure is a miss; the primary store always
// decides the outcome. Access control runs on the loaded entity regardless
// of where it came from.
func (s *PlaylistService) GetByID(ctx context.Context, callerID, id string) (*domain.Playlist, error) {
	key := keys.Playlist(id)

	var playlist domain.Playlist
	if !s.cache.Get(ctx, key, &playlist) {
		loaded, err := s.playlists.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		playlist = *loaded
		// Best effort: a population failure only costs the next reader a
		// primary-store round trip.
		s.cache.Set(ctx, key, playlist, s.ttls.Entity)
	}

	if err := authorizeRead(&playlist, callerID); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// GetSongs returns a playlist's songs, cache-aside under its own key so song
// reads skip deserializing the whole entity.
func (s *PlaylistService) GetSongs(ctx context.Context, callerID, id string) ([]domain.Song, error) {
	key := keys.PlaylistSongs(id)

	var songs []domain.Song
	if s.cache.Get(ctx, key, &songs) {
		// Ownership still gates private playlists even on a hit.
		if _, err := s.GetByID(ctx, callerID, id); err != nil {
			return nil, err
		}
		return songs, nil
	}

	playlist, err := s.GetByID(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	songs = playlist.Songs
	s.cache.Set(ctx, key, songs, s.ttls.Entity)
	return songs, nil
}

// UpdatePlaylistInput carries the optional fields for Update.
type UpdatePlaylistInput struct {
	Name        *string
	Description *string
	Public      *bool
}

// Update applies the given fields and saves. The entity's cache keys are
// deleted only after the save succeeded (mutate-then-invalidate); pattern
// level invalidation of listings is handled by the invalidation middleware.
func (s *PlaylistService) Update(ctx context.Context, callerID, id string, in UpdatePlaylistInput) (*domain.Playlist, error) {
	playlist, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		playlist.Name = *in.Name
	}
	if in.Description != nil {
		playlist.Description = *in.Description
	}
	if in.Public != nil {
		playlist.Public = *in.Public
	}
	playlist.UpdatedAt = time.Now().UTC()

	if err := s.playlists.Save(ctx, playlist); err != nil {
		return nil, err
	}
	s.dropEntityKeys(ctx, id)
	return playlist, nil
}

// AddSong appends a song to an owned playlist.
func (s *PlaylistService) AddSong(ctx context.Context, callerID, id string, song domain.Song) (*domain.Playlist, error) {
	playlist, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if song.ID == "" {
		song.ID = uuid.New().String()
	}
	playlist.Songs = append(playlist.Songs, song)
	playlist.UpdatedAt = time.Now().UTC()

	if err := s.playlists.Save(ctx, playlist); err != nil {
		return nil, err
	}
	s.dropEntityKeys(ctx, id)
	return playlist, nil
}

// Delete removes an owned playlist.
func (s *PlaylistService) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.loadOwned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.playlists.Delete(ctx, id); err != nil {
		return err
	}
	s.dropEntityKeys(ctx, id)
	return nil
}

// ListByUser returns all playlists owned by a user.
func (s *PlaylistService) ListByUser(ctx context.Context, userID string) ([]*domain.Playlist, error) {
	return s.playlists.GetByUserID(ctx, userID)
}

// ListPublic returns one page of public playlists and the total count.
func (s *PlaylistService) ListPublic(ctx context.Context, page, limit int) ([]*domain.Playlist, int, error) {
	return s.playlists.GetPublic(ctx, (page-1)*limit, limit)
}

// Search returns one page of matching public playlists and the total count.
func (s *PlaylistService) Search(ctx context.Context, query string, page, limit int) ([]*domain.Playlist, int, error) {
	return s.playlists.Search(ctx, query, (page-1)*limit, limit)
}

// loadOwned loads directly from the primary store, never the cache, so a
// mutation can't act on a stale entity, and verifies ownership.
func (s *PlaylistService) loadOwned(ctx context.Context, callerID, id string) (*domain.Playlist, error) {
	playlist, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist.UserID != callerID {
		return nil, apperrors.NewForbiddenError("playlist does not belong to caller")
	}
	return playlist, nil
}

// dropEntityKeys removes the entity-level cache keys after a confirmed
// mutation. Failures are already counted and logged by the cache service.
func (s *PlaylistService) dropEntityKeys(ctx context.Context, id string) {
	s.cache.Delete(ctx, keys.Playlist(id))
	s.cache.Delete(ctx, keys.PlaylistSongs(id))
}

func authorizeRead(playlist *domain.Playlist, callerID string) error {
	if playlist.Public || playlist.UserID == callerID {
		return nil
	}
	return apperrors.NewForbiddenError("playlist is private")
}
