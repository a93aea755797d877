package auth

import (
	"context"
	"errors"
)

// UserContext carries the authenticated caller through the request context.
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

type contextKey string

const userContextKey contextKey = "user"

// ErrNoUserInContext is returned when no authenticated user is present.
var ErrNoUserInContext = errors.New("no user in context")

// SetUserInContext stores the authenticated user on the context.
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated user, if any.
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUserInContext
	}
	return user, nil
}

// UserIDFromContext returns the authenticated user's ID, or fallback when no
// user is present. Used by cache key generators, which must always produce a
// caller segment.
func UserIDFromContext(ctx context.Context, fallback string) string {
	if user, err := GetUserFromContext(ctx); err == nil {
		return user.UserID
	}
	return fallback
}
