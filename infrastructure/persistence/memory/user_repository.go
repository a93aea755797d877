package memory

import (
	"context"
	"sync"

	"playlist-backend/domain"
	apperrors "playlist-backend/pkg/errors"
)

// UserRepository is a thread-safe in-memory user store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository creates an empty user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

// Save persists a user (create or update).
func (r *UserRepository) Save(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		return apperrors.NewValidationError("user id is required")
	}
	r.mu.Lock()
	r.users[user.ID] = *user
	r.mu.Unlock()
	return nil
}

// GetByID retrieves a user by its ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	u, ok := r.users[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("user")
	}
	return &u, nil
}
