// Package cache provides the resolution cache and its pluggable backends.
package cache

import (
	"context"
	"fmt"
	"time"

	"norelock.dev/tunegate/backend/internal/models"
)

// Store is a TTL'd byte store backing the resolution cache. An entry is
// visible to readers only while its time-to-live has not elapsed.
type Store interface {
	// Get retrieves a value by key. The second return value reports whether
	// an unexpired entry was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error
}

// RequestClass selects the TTL applied to a cached resolution. Direct URL
// results live longer than search results, which are re-ranked upstream.
type RequestClass int

const (
	// ClassURL is a direct URL resolution.
	ClassURL RequestClass = iota

	// ClassSearch is a search-style resolution.
	ClassSearch
)

// String returns the class label used in keys and metrics.
func (c RequestClass) String() string {
	if c == ClassURL {
		return "url"
	}
	return "search"
}

// URLKey builds the canonical cache key for a direct URL resolution.
// Fixed-vocabulary fields come first so distinct canonicalizations cannot
// collide; the variable-length URL is always last.
func URLKey(source string, format models.MediaFormat, url string) string {
	return fmt.Sprintf("url:%s:%s:%s", source, format, url)
}

// SearchKey builds the canonical cache key for a search resolution.
func SearchKey(source string, format models.MediaFormat, amount int, query string) string {
	return fmt.Sprintf("search:%s:%s:%d:%s", source, format, amount, query)
}
