// Package memory provides in-process store implementations for development
// and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"norelock.dev/tunegate/backend/internal/db/mongo/repositories"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// UserRepository is an in-memory implementation of repositories.UserRepository.
// It honors the same contract as the MongoDB implementation, including the
// unique chat id constraint, but never fails transiently so it carries no
// retry policy.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	logger *utils.Logger
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository(logger *utils.Logger) *UserRepository {
	return &UserRepository{
		users:  make(map[int64]*models.User),
		logger: logger.Named("memory_user_repository"),
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// Create creates a new user.
func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ChatID]; ok {
		return models.ErrUserAlreadyExists
	}

	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.TimeCreate(time.Now())

	stored := *user
	r.users[user.ChatID] = &stored
	return nil
}

// FindByChatID finds a user by their chat id.
func (r *UserRepository) FindByChatID(_ context.Context, chatID int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[chatID]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	found := *user
	return &found, nil
}

// Exists reports whether a user with the given chat id is registered.
func (r *UserRepository) Exists(_ context.Context, chatID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[chatID]
	return ok, nil
}

// Len returns the number of registered users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
