package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"playlist-backend/pkg/auth"
	"playlist-backend/pkg/cache"
	"playlist-backend/pkg/cache/keys"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// CacheConfig controls the response-caching middleware.
type CacheConfig struct {
	// TTL applied to captured responses. Required.
	TTL time.Duration

	// KeyPrefix namespaces the default-generated keys. Default "response".
	KeyPrefix string

	// KeyFunc computes the cache key for a request. Preferred over the
	// default generator because it can produce entity-aware keys; when nil,
	// the key combines KeyPrefix, caller identity, path, and normalized
	// query parameters.
	KeyFunc func(r *http.Request) string

	// ExcludedMethods lists request methods that bypass the cache entirely.
	// Defaults to every method with side effects (POST, PUT, PATCH,
	// DELETE); GET and HEAD are never cached regardless unless listed here.
	ExcludedMethods []string

	// PopulateTimeout bounds the background population write. Default 2s.
	PopulateTimeout time.Duration
}

// cachedResponse is the payload stored for a captured response.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// ResponseCache serves read requests from the cache and transparently
// captures successful responses into it.
//
// Hit: the handler never runs; the stored payload is written with
// X-Cache: HIT. Miss: the downstream response is teed into a buffer and, only
// when the handler reported success, stored in the background. A population
// failure can neither delay nor alter the response already sent.
func ResponseCache(svc *cache.Service, logger *zap.Logger, cfg CacheConfig) func(next http.Handler) http.Handler {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "response"
	}
	if cfg.PopulateTimeout <= 0 {
		cfg.PopulateTimeout = 2 * time.Second
	}

	excluded := make(map[string]struct{})
	if len(cfg.ExcludedMethods) > 0 {
		for _, m := range cfg.ExcludedMethods {
			excluded[m] = struct{}{}
		}
	} else {
		for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			excluded[m] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := excluded[r.Method]; skip {
				next.ServeHTTP(w, r)
				return
			}

			key := cfg.KeyPrefix
			if cfg.KeyFunc != nil {
				key = cfg.KeyFunc(r)
			} else {
				callerID := auth.UserIDFromContext(r.Context(), "anon")
				key = keys.RequestKey(cfg.KeyPrefix, callerID, r.URL.Path, r.URL.Query())
			}

			var cached cachedResponse
			if svc.Get(r.Context(), key, &cached) {
				if cached.ContentType != "" {
					w.Header().Set("Content-Type", cached.ContentType)
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(cached.Status)
				w.Write(cached.Body)
				return
			}

			// Miss: run the handler, teeing the response body.
			w.Header().Set("X-Cache", "MISS")
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			var buf bytes.Buffer
			ww.Tee(&buf)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status < 200 || status >= 300 {
				return
			}

			entry := cachedResponse{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
			}

			// Fire-and-forget population on a detached context: the
			// response is already on the wire, and a cancelled request
			// must not abort the write.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.PopulateTimeout)
				defer cancel()
				if err := svc.Set(ctx, key, entry, cfg.TTL); err != nil {
					logger.Debug("response cache population failed",
						zap.String("key", key),
						zap.Error(err),
					)
				}
			}()
		})
	}
}
