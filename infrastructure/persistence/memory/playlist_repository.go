// Package memory provides in-memory implementations of the persistence
// ports. The primary datastore is an external collaborator to this service;
// these adapters stand in for it in development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"playlist-backend/domain"
	apperrors "playlist-backend/pkg/errors"
)

// PlaylistRepository is a thread-safe in-memory playlist store.
type PlaylistRepository struct {
	mu        sync.RWMutex
	playlists map[string]domain.Playlist
}

// NewPlaylistRepository creates an empty playlist repository.
func NewPlaylistRepository() *PlaylistRepository {
	return &PlaylistRepository{playlists: make(map[string]domain.Playlist)}
}

// Save persists a playlist (create or update).
func (r *PlaylistRepository) Save(_ context.Context, playlist *domain.Playlist) error {
	if playlist.ID == "" {
		return apperrors.NewValidationError("playlist id is required")
	}
	r.mu.Lock()
	r.playlists[playlist.ID] = clone(playlist)
	r.mu.Unlock()
	return nil
}

// GetByID retrieves a playlist by its ID.
func (r *PlaylistRepository) GetByID(_ context.Context, id string) (*domain.Playlist, error) {
	r.mu.RLock()
	p, ok := r.playlists[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("playlist")
	}
	out := clone(&p)
	return &out, nil
}

// GetByUserID retrieves all playlists owned by a user, newest first.
func (r *PlaylistRepository) GetByUserID(_ context.Context, userID string) ([]*domain.Playlist, error) {
	r.mu.RLock()
	var out []*domain.Playlist
	for _, p := range r.playlists {
		if p.UserID == userID {
			c := clone(&p)
			out = append(out, &c)
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

// GetPublic retrieves one page of public playlists plus the total count.
func (r *PlaylistRepository) GetPublic(_ context.Context, offset, limit int) ([]*domain.Playlist, int, error) {
	r.mu.RLock()
	var all []*domain.Playlist
	for _, p := range r.playlists {
		if p.Public {
			c := clone(&p)
			all = append(all, &c)
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(all)
	return page(all, offset, limit), len(all), nil
}

// Search finds public playlists whose name contains the query,
// case-insensitively.
func (r *PlaylistRepository) Search(_ context.Context, query string, offset, limit int) ([]*domain.Playlist, int, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	r.mu.RLock()
	var all []*domain.Playlist
	for _, p := range r.playlists {
		if p.Public && strings.Contains(strings.ToLower(p.Name), needle) {
			c := clone(&p)
			all = append(all, &c)
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(all)
	return page(all, offset, limit), len(all), nil
}

// Delete removes a playlist.
func (r *PlaylistRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.playlists[id]; !ok {
		return apperrors.NewNotFoundError("playlist")
	}
	delete(r.playlists, id)
	return nil
}

func clone(p *domain.Playlist) domain.Playlist {
	c := *p
	c.Songs = append([]domain.Song(nil), p.Songs...)
	return c
}

func sortNewestFirst(playlists []*domain.Playlist) {
	sort.Slice(playlists, func(i, j int) bool {
		if playlists[i].CreatedAt.Equal(playlists[j].CreatedAt) {
			return playlists[i].ID < playlists[j].ID
		}
		return playlists[i].CreatedAt.After(playlists[j].CreatedAt)
	})
}

func page(items []*domain.Playlist, offset, limit int) []*domain.Playlist {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
