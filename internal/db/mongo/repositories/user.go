// Package repositories contains MongoDB repository implementations.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"norelock.dev/tunegate/backend/internal/config"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// Collection name
const (
	userCollection = "users"
)

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Create creates a new user. A user with the same chat id already in the
	// store yields ErrUserAlreadyExists.
	Create(ctx context.Context, user *models.User) error

	// FindByChatID finds a user by their chat id.
	FindByChatID(ctx context.Context, chatID int64) (*models.User, error)

	// Exists reports whether a user with the given chat id is registered.
	Exists(ctx context.Context, chatID int64) (bool, error)
}

// userRepository is the MongoDB implementation of UserRepository.
type userRepository struct {
	collection *mongo.Collection
	retry      retryPolicy
	logger     *utils.Logger
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database, cfg *config.Config, logger *utils.Logger) UserRepository {
	logger = logger.Named("user_repository")
	return &userRepository{
		collection: db.Collection(userCollection),
		retry:      newRetryPolicy(cfg.Persistence.RetryAttempts, cfg.Persistence.RetryBackoff, logger),
		logger:     logger,
	}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}

	user.TimeCreate(time.Now())

	err := r.retry.do(ctx, "create user", func(ctx context.Context) error {
		_, err := r.collection.InsertOne(ctx, user)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create user", err, "chatId", user.ChatID)
		return err
	}

	return nil
}

// FindByChatID finds a user by their chat id.
func (r *userRepository) FindByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	var user models.User

	err := r.retry.do(ctx, "find user", func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"chatId": chatID}).Decode(&user)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to find user", err, "chatId", chatID)
		return nil, err
	}

	return &user, nil
}

// Exists reports whether a user with the given chat id is registered.
func (r *userRepository) Exists(ctx context.Context, chatID int64) (bool, error) {
	var count int64

	err := r.retry.do(ctx, "count users", func(ctx context.Context) error {
		var err error
		count, err = r.collection.CountDocuments(ctx, bson.M{"chatId": chatID})
		return err
	})
	if err != nil {
		r.logger.Error("Failed to count users", err, "chatId", chatID)
		return false, err
	}

	return count > 0, nil
}
