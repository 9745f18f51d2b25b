// Package media provides the provider contract, URL classification and the
// built-in content source implementations.
package media

import (
	"context"

	"norelock.dev/tunegate/backend/internal/models"
)

// Provider is the fixed capability contract for an external content source.
type Provider interface {
	// Name returns the provider name (e.g., "youtube").
	Name() string

	// Formats returns the payload formats the provider can deliver. A
	// provider with more than one format requires a format choice during
	// disambiguation.
	Formats() []models.MediaFormat

	// ResolveByURL resolves a URL into a media item in the given format.
	ResolveByURL(ctx context.Context, url string, format models.MediaFormat) (*models.MediaItem, error)

	// Search returns up to limit items matching the query, in provider
	// order. An empty result is not an error.
	Search(ctx context.Context, query string, format models.MediaFormat, limit int) ([]*models.MediaItem, error)
}

// MetadataProvider is implemented by providers that can report duration and
// titles without fetching the payload. The duration policy uses it to reject
// over-long media before the expensive fetch.
type MetadataProvider interface {
	ResolveMetadata(ctx context.Context, url string) (*models.MediaMetadata, error)
}
