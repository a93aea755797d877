package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"playlist-backend/pkg/auth"
	"playlist-backend/pkg/cache"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// invalidateTimeout bounds each background invalidation pass.
const invalidateTimeout = 5 * time.Second

var placeholderPattern = regexp.MustCompile(`:([a-zA-Z][a-zA-Z0-9]*)`)

// Invalidate wraps mutating handlers. After the wrapped handler completes
// with a success status, meaning the mutation is confirmed durable in the
// primary store, each configured pattern has its placeholders resolved from
// the request and is invalidated. Ordering is always mutate-then-invalidate;
// invalidation failures are logged and never surfaced to the caller, whose
// response has already succeeded.
//
// Patterns may contain :param placeholders (e.g. "playlist::playlistID*",
// "user::userID:playlists*"). A placeholder is substituted from the chi route
// parameters, or from the authenticated caller for :userID; unresolvable
// placeholders are left verbatim so they behave as literal pattern text.
func Invalidate(svc *cache.Service, logger *zap.Logger, patterns ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status < 200 || status >= 300 {
				return
			}

			resolved := make([]string, 0, len(patterns))
			for _, p := range patterns {
				resolved = append(resolved, resolvePattern(r, p))
			}

			// The response is already committed; invalidation runs to
			// completion on its own context regardless of later request
			// cancellation.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
				defer cancel()
				for _, pattern := range resolved {
					deleted := svc.Invalidate(ctx, pattern)
					logger.Debug("invalidated after mutation",
						zap.String("pattern", pattern),
						zap.Int("deleted", deleted),
						zap.String("path", r.URL.Path),
					)
				}
			}()
		})
	}
}

// resolvePattern substitutes :param placeholders from route parameters and
// the authenticated caller.
func resolvePattern(r *http.Request, pattern string) string {
	return placeholderPattern.ReplaceAllStringFunc(pattern, func(match string) string {
		name := match[1:]
		if name == "userID" || name == "userId" {
			if user, err := auth.GetUserFromContext(r.Context()); err == nil {
				return user.UserID
			}
			return match
		}
		if v := chi.URLParam(r, name); v != "" {
			return v
		}
		return match
	})
}
