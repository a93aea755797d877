package handlers

import (
	"encoding/json"
	"net/http"

	"playlist-backend/pkg/cache"
	"playlist-backend/pkg/common"
	apperrors "playlist-backend/pkg/errors"
	"playlist-backend/pkg/utils"

	"go.uber.org/zap"
)

// AdminHandler exposes the operator surface of the cache: counters, manual
// invalidation, and a full flush.
type AdminHandler struct {
	cache      *cache.Service
	production bool
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler. production gates destructive
// operations.
func NewAdminHandler(cacheSvc *cache.Service, production bool, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		cache:      cacheSvc,
		production: production,
		logger:     logger,
	}
}

// InvalidateRequest represents the request body for manual invalidation
type InvalidateRequest struct {
	Pattern string `json:"pattern" validate:"required,min=1,max=512"`
}

// InvalidateResponse reports how many keys an invalidation removed
type InvalidateResponse struct {
	Pattern string `json:"pattern"`
	Deleted int    `json:"deleted"`
}

// GetStats handles GET /admin/cache/stats. The counters are always served;
// the status code signals reachability so probes don't have to parse the body.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.cache.Stats()
	status := http.StatusOK
	if !stats.Connected {
		status = http.StatusServiceUnavailable
	}
	common.RespondJSON(w, status, stats)
}

// ResetStats handles POST /admin/cache/stats/reset
func (h *AdminHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	h.cache.ResetStats()
	h.logger.Info("cache counters reset by operator")
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "Counters reset"})
}

// Invalidate handles POST /admin/cache/invalidate
func (h *AdminHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	deleted := h.cache.Invalidate(r.Context(), req.Pattern)
	h.logger.Info("manual cache invalidation",
		zap.String("pattern", req.Pattern),
		zap.Int("deleted", deleted),
	)

	common.RespondJSON(w, http.StatusOK, InvalidateResponse{
		Pattern: req.Pattern,
		Deleted: deleted,
	})
}

// Flush handles POST /admin/cache/flush. Refused in production; a full wipe
// of a shared keyspace is a development and staging tool only.
func (h *AdminHandler) Flush(w http.ResponseWriter, r *http.Request) {
	if h.production {
		common.RespondError(w, http.StatusForbidden, string(apperrors.ErrorTypeForbidden), "Cache flush is disabled in production")
		return
	}

	if err := h.cache.FlushAll(r.Context()); err != nil {
		h.logger.Error("cache flush failed", zap.Error(err))
		common.RespondError(w, http.StatusServiceUnavailable, string(apperrors.ErrorTypeCacheConnection), "Cache store unreachable")
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "Cache flushed"})
}
