package cache

import (
	"context"
	"time"

	"norelock.dev/tunegate/backend/internal/db/redis"
)

const redisKeyPrefix = "resolution"

// RedisStore is a Redis-backed implementation of the Store interface.
// Expiry is delegated to Redis TTLs, so no sweeper is needed.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves a value by key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.client.GetBytes(ctx, redis.FormatKey(redisKeyPrefix, key))
}

// Set stores a value under key with the given time-to-live.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.SetBytes(ctx, redis.FormatKey(redisKeyPrefix, key), value, ttl)
}

// Delete removes a key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redis.FormatKey(redisKeyPrefix, key))
}
