package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/samber/lo"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// CatalogProvider implements the Provider interface for an album/track music
// catalog API. Tracks are audio-only, so the provider resolves directly after
// a source choice with no format step.
type CatalogProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *utils.Logger
}

// NewCatalogProvider creates a new catalog provider.
func NewCatalogProvider(baseURL, apiKey string, logger *utils.Logger) *CatalogProvider {
	return &CatalogProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		logger:     logger.Named("catalog_provider"),
	}
}

// catalogTrack is the provider's wire representation of a track.
type catalogTrack struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	DurationMs  int      `json:"durationMs"`
	Artists     []string `json:"artists"`
	DownloadURL string   `json:"downloadUrl"`
	CoverURL    string   `json:"coverUrl"`
}

// catalogSearchResponse is the wire shape of a search call.
type catalogSearchResponse struct {
	Tracks []catalogTrack `json:"tracks"`
}

// Name returns the provider name.
func (p *CatalogProvider) Name() string {
	return "catalog"
}

// Formats returns the payload formats the catalog can deliver.
func (p *CatalogProvider) Formats() []models.MediaFormat {
	return []models.MediaFormat{models.FormatAudio}
}

// ResolveByURL resolves an album/track URL into an audio item.
func (p *CatalogProvider) ResolveByURL(ctx context.Context, trackURL string, format models.MediaFormat) (*models.MediaItem, error) {
	trackID, ok := CatalogTrackID(trackURL)
	if !ok {
		return nil, fmt.Errorf("unrecognized catalog URL: %s", trackURL)
	}

	p.logger.Debug("Resolving catalog track", "trackId", trackID)

	var track catalogTrack
	endpoint := fmt.Sprintf("%s/tracks/%s", p.baseURL, url.PathEscape(trackID))
	if err := p.getJSON(ctx, endpoint, &track); err != nil {
		return nil, err
	}

	return p.toMediaItem(ctx, track), nil
}

// Search returns up to limit tracks matching the query.
func (p *CatalogProvider) Search(ctx context.Context, query string, format models.MediaFormat, limit int) ([]*models.MediaItem, error) {
	p.logger.Debug("Searching catalog", "query", query, "limit", limit)

	endpoint := fmt.Sprintf("%s/search?type=track&limit=%d&text=%s", p.baseURL, limit, url.QueryEscape(query))

	var response catalogSearchResponse
	if err := p.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := response.Tracks
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}

	return lo.Map(tracks, func(t catalogTrack, _ int) *models.MediaItem {
		return p.toMediaItem(ctx, t)
	}), nil
}

// toMediaItem converts a wire track into an immutable media item.
func (p *CatalogProvider) toMediaItem(ctx context.Context, track catalogTrack) *models.MediaItem {
	var thumbnail []byte
	if track.CoverURL != "" {
		thumbnail = p.fetchCover(ctx, track.CoverURL)
	}

	return &models.MediaItem{
		Source:    p.Name(),
		SourceID:  track.ID,
		Title:     track.Title,
		Duration:  track.DurationMs / 1000,
		Artists:   track.Artists,
		Thumbnail: thumbnail,
		Format:    models.FormatAudio,
		StreamURL: track.DownloadURL,
	}
}

// getJSON performs an authenticated GET and decodes the JSON body.
func (p *CatalogProvider) getJSON(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "OAuth "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrMediaNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

// fetchCover downloads the cover image; failures degrade to no thumbnail.
func (p *CatalogProvider) fetchCover(ctx context.Context, coverURL string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug("Cover fetch failed", "url", coverURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return data
}
