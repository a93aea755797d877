// Package handlers contains the REST handlers for the playlist API.
package handlers

import (
	"encoding/json"
	"net/http"

	"playlist-backend/application/services"
	"playlist-backend/domain"
	"playlist-backend/pkg/auth"
	"playlist-backend/pkg/common"
	apperrors "playlist-backend/pkg/errors"
	"playlist-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PlaylistHandler handles playlist-related HTTP requests
type PlaylistHandler struct {
	playlists *services.PlaylistService
	logger    *zap.Logger
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(playlists *services.PlaylistService, logger *zap.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		playlists: playlists,
		logger:    logger,
	}
}

// CreatePlaylistRequest represents the request body for creating a playlist
type CreatePlaylistRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Public      bool   `json:"public"`
}

// UpdatePlaylistRequest represents the request body for updating a playlist
type UpdatePlaylistRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Public      *bool   `json:"public,omitempty"`
}

// AddSongRequest represents the request body for adding a song
type AddSongRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=200"`
	Artist   string `json:"artist" validate:"required,min=1,max=200"`
	Duration int    `json:"duration,omitempty" validate:"omitempty,min=0"`
}

// CreatePlaylist handles POST /playlists
func (h *PlaylistHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	playlist, err := h.playlists.Create(r.Context(), userCtx.UserID, services.CreatePlaylistInput{
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
	})
	if err != nil {
		h.logger.Error("Failed to create playlist",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, playlist)
}

// GetPlaylist handles GET /playlists/{playlistID}
func (h *PlaylistHandler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	if playlistID == "" {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Playlist ID is required")
		return
	}

	callerID := auth.UserIDFromContext(r.Context(), "")

	playlist, err := h.playlists.GetByID(r.Context(), callerID, playlistID)
	if err != nil {
		if !apperrors.IsNotFound(err) && !apperrors.IsForbidden(err) {
			h.logger.Error("Failed to get playlist",
				zap.String("playlistID", playlistID),
				zap.Error(err),
			)
		}
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, playlist)
}

// GetPlaylistSongs handles GET /playlists/{playlistID}/songs
func (h *PlaylistHandler) GetPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	if playlistID == "" {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Playlist ID is required")
		return
	}

	callerID := auth.UserIDFromContext(r.Context(), "")

	songs, err := h.playlists.GetSongs(r.Context(), callerID, playlistID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if songs == nil {
		songs = []domain.Song{}
	}

	common.RespondJSON(w, http.StatusOK, songs)
}

// UpdatePlaylist handles PUT /playlists/{playlistID}
func (h *PlaylistHandler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	if playlistID == "" {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Playlist ID is required")
		return
	}

	var req UpdatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	playlist, err := h.playlists.Update(r.Context(), userCtx.UserID, playlistID, services.UpdatePlaylistInput{
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, playlist)
}

// AddSong handles POST /playlists/{playlistID}/songs
func (h *PlaylistHandler) AddSong(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	if playlistID == "" {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Playlist ID is required")
		return
	}

	var req AddSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	playlist, err := h.playlists.AddSong(r.Context(), userCtx.UserID, playlistID, domain.Song{
		Title:    req.Title,
		Artist:   req.Artist,
		Duration: req.Duration,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, playlist)
}

// DeletePlaylist handles DELETE /playlists/{playlistID}
func (h *PlaylistHandler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	if playlistID == "" {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Playlist ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	if err := h.playlists.Delete(r.Context(), userCtx.UserID, playlistID); err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMyPlaylists handles GET /users/me/playlists
func (h *PlaylistHandler) ListMyPlaylists(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	playlists, err := h.playlists.ListByUser(r.Context(), userCtx.UserID)
	if err != nil {
		h.logger.Error("Failed to list playlists",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}
	if playlists == nil {
		playlists = []*domain.Playlist{}
	}

	common.RespondJSON(w, http.StatusOK, playlists)
}

// ListPublicPlaylists handles GET /playlists/public
func (h *PlaylistHandler) ListPublicPlaylists(w http.ResponseWriter, r *http.Request) {
	params := common.ExtractPaginationParams(r)

	playlists, total, err := h.playlists.ListPublic(r.Context(), params.Page, params.Limit)
	if err != nil {
		h.logger.Error("Failed to list public playlists", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	if playlists == nil {
		playlists = []*domain.Playlist{}
	}

	common.RespondWithMeta(w, http.StatusOK, playlists, &common.MetaInfo{
		Pagination: common.BuildPaginationMeta(params.Page, params.Limit, total),
	})
}

// SearchPlaylists handles GET /search
func (h *PlaylistHandler) SearchPlaylists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Query parameter 'q' is required")
		return
	}

	params := common.ExtractPaginationParams(r)

	playlists, total, err := h.playlists.Search(r.Context(), query, params.Page, params.Limit)
	if err != nil {
		h.logger.Error("Failed to search playlists", zap.String("query", query), zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	if playlists == nil {
		playlists = []*domain.Playlist{}
	}

	common.RespondWithMeta(w, http.StatusOK, playlists, &common.MetaInfo{
		Pagination: common.BuildPaginationMeta(params.Page, params.Limit, total),
	})
}
