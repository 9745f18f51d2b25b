package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// ResolutionCache is the cache-aside layer over provider calls. For a given
// key at most one resolver invocation is in flight at a time; concurrent
// callers for the same key share its result or its error. Nothing is cached
// on failure, so the next call after an error resolves fresh.
type ResolutionCache struct {
	store     Store
	group     singleflight.Group
	urlTTL    time.Duration
	searchTTL time.Duration
	logger    *utils.Logger
}

// NewResolutionCache creates a resolution cache over the given store.
func NewResolutionCache(store Store, urlTTL, searchTTL time.Duration, logger *utils.Logger) *ResolutionCache {
	return &ResolutionCache{
		store:     store,
		urlTTL:    urlTTL,
		searchTTL: searchTTL,
		logger:    logger.Named("resolution_cache"),
	}
}

// GetOrResolveItem returns the cached item for key, or invokes resolve once
// and caches the result under the class TTL.
func (c *ResolutionCache) GetOrResolveItem(ctx context.Context, key string, class RequestClass, resolve func(context.Context) (*models.MediaItem, error)) (*models.MediaItem, error) {
	return getOrResolve(ctx, c, key, class, resolve)
}

// GetOrResolveList is GetOrResolveItem for search-style multi-item results.
func (c *ResolutionCache) GetOrResolveList(ctx context.Context, key string, class RequestClass, resolve func(context.Context) ([]*models.MediaItem, error)) ([]*models.MediaItem, error) {
	return getOrResolve(ctx, c, key, class, resolve)
}

func (c *ResolutionCache) ttl(class RequestClass) time.Duration {
	if class == ClassURL {
		return c.urlTTL
	}
	return c.searchTTL
}

// lookup decodes a stored entry. A corrupt entry is dropped and treated as a
// miss rather than failing the request.
func lookup[T any](ctx context.Context, c *ResolutionCache, key string) (T, bool) {
	var value T

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed, resolving fresh", "key", key, "error", err)
		return value, false
	}
	if !ok {
		return value, false
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		_ = c.store.Delete(ctx, key)
		return value, false
	}

	return value, true
}

func getOrResolve[T any](ctx context.Context, c *ResolutionCache, key string, class RequestClass, resolve func(context.Context) (T, error)) (T, error) {
	if value, ok := lookup[T](ctx, c, key); ok {
		cacheHits.WithLabelValues(class.String()).Inc()
		return value, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have populated the entry while we waited for
		// the flight, so check again before resolving.
		if value, ok := lookup[T](ctx, c, key); ok {
			cacheHits.WithLabelValues(class.String()).Inc()
			return value, nil
		}

		cacheMisses.WithLabelValues(class.String()).Inc()

		value, err := resolve(ctx)
		if err != nil {
			resolutionErrors.WithLabelValues(class.String()).Inc()
			return nil, err
		}

		raw, err := json.Marshal(value)
		if err != nil {
			c.logger.Warn("Failed to encode resolution for caching", "key", key, "error", err)
			return value, nil
		}

		if err := c.store.Set(ctx, key, raw, c.ttl(class)); err != nil {
			c.logger.Warn("Failed to store resolution in cache", "key", key, "error", err)
		}

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result.(T), nil
}
