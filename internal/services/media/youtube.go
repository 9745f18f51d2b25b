package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// YouTubeProvider implements the Provider interface for YouTube. It supports
// both audio and video delivery and can report duration from metadata alone.
type YouTubeProvider struct {
	apiKey     string
	httpClient *http.Client
	logger     *utils.Logger
}

// NewYouTubeProvider creates a new YouTube provider.
func NewYouTubeProvider(apiKey string, logger *utils.Logger) *YouTubeProvider {
	return &YouTubeProvider{
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		logger:     logger.Named("youtube_provider"),
	}
}

// Name returns the provider name.
func (p *YouTubeProvider) Name() string {
	return "youtube"
}

// Formats returns the payload formats YouTube can deliver.
func (p *YouTubeProvider) Formats() []models.MediaFormat {
	return []models.MediaFormat{models.FormatAudio, models.FormatVideo}
}

// ResolveMetadata retrieves duration and titles for a video URL without
// touching the payload.
func (p *YouTubeProvider) ResolveMetadata(ctx context.Context, url string) (*models.MediaMetadata, error) {
	videoID, ok := YouTubeVideoID(url)
	if !ok {
		return nil, fmt.Errorf("unrecognized YouTube URL: %s", url)
	}

	video, err := p.videoDetails(ctx, videoID)
	if err != nil {
		return nil, err
	}

	duration, err := parseISODuration(video.ContentDetails.Duration)
	if err != nil {
		p.logger.Warn("Failed to parse video duration", "videoId", videoID, "raw", video.ContentDetails.Duration)
		duration = 0
	}

	return &models.MediaMetadata{
		Source:   p.Name(),
		SourceID: videoID,
		Title:    video.Snippet.Title,
		Duration: duration,
		Artists:  []string{video.Snippet.ChannelTitle},
	}, nil
}

// ResolveByURL resolves a video URL into a media item in the given format.
func (p *YouTubeProvider) ResolveByURL(ctx context.Context, url string, format models.MediaFormat) (*models.MediaItem, error) {
	videoID, ok := YouTubeVideoID(url)
	if !ok {
		return nil, fmt.Errorf("unrecognized YouTube URL: %s", url)
	}

	p.logger.Debug("Resolving YouTube video", "videoId", videoID, "format", string(format))

	video, err := p.videoDetails(ctx, videoID)
	if err != nil {
		return nil, err
	}

	return p.toMediaItem(ctx, video, format)
}

// Search returns up to limit videos matching the query.
func (p *YouTubeProvider) Search(ctx context.Context, query string, format models.MediaFormat, limit int) ([]*models.MediaItem, error) {
	p.logger.Debug("Searching YouTube", "query", query, "limit", limit)

	service, err := youtube.NewService(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	call := service.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		VideoCategoryId("10") // Music category

	response, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search YouTube: %w", err)
	}

	items := make([]*models.MediaItem, 0, len(response.Items))
	for _, result := range response.Items {
		if result.Id.Kind != "youtube#video" {
			continue
		}

		video, err := p.videoDetails(ctx, result.Id.VideoId)
		if err != nil {
			p.logger.Warn("Skipping search result without details", "videoId", result.Id.VideoId, "error", err)
			continue
		}

		item, err := p.toMediaItem(ctx, video, format)
		if err != nil {
			p.logger.Warn("Skipping unconvertible search result", "videoId", result.Id.VideoId, "error", err)
			continue
		}

		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}

	return items, nil
}

// videoDetails fetches snippet and contentDetails for one video.
func (p *YouTubeProvider) videoDetails(ctx context.Context, videoID string) (*youtube.Video, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	response, err := service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}

	if len(response.Items) == 0 {
		return nil, fmt.Errorf("video not found: %s", videoID)
	}

	return response.Items[0], nil
}

// toMediaItem converts video details into an immutable media item.
func (p *YouTubeProvider) toMediaItem(ctx context.Context, video *youtube.Video, format models.MediaFormat) (*models.MediaItem, error) {
	duration, err := parseISODuration(video.ContentDetails.Duration)
	if err != nil {
		p.logger.Warn("Failed to parse video duration", "videoId", video.Id, "raw", video.ContentDetails.Duration)
		duration = 0
	}

	var thumbnail []byte
	if url := bestThumbnailURL(video.Snippet.Thumbnails); url != "" {
		thumbnail = p.fetchThumbnail(ctx, url)
	}

	return &models.MediaItem{
		Source:    p.Name(),
		SourceID:  video.Id,
		Title:     video.Snippet.Title,
		Duration:  duration,
		Artists:   []string{video.Snippet.ChannelTitle},
		Thumbnail: thumbnail,
		Format:    format,
		StreamURL: fmt.Sprintf("/v1/media/proxy/youtube/%s/%s", format, video.Id),
	}, nil
}

// fetchThumbnail downloads the thumbnail image. Thumbnails are decorative, so
// failures degrade to no thumbnail.
func (p *YouTubeProvider) fetchThumbnail(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug("Thumbnail fetch failed", "url", url, "error", err)
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

// parseISODuration parses an ISO 8601 duration string into seconds.
func parseISODuration(isoDuration string) (int, error) {
	duration := strings.TrimPrefix(isoDuration, "PT")

	var hours, minutes, seconds int

	if idx := strings.Index(duration, "H"); idx != -1 {
		h, err := strconv.Atoi(duration[:idx])
		if err != nil {
			return 0, err
		}
		hours = h
		duration = duration[idx+1:]
	}

	if idx := strings.Index(duration, "M"); idx != -1 {
		m, err := strconv.Atoi(duration[:idx])
		if err != nil {
			return 0, err
		}
		minutes = m
		duration = duration[idx+1:]
	}

	if idx := strings.Index(duration, "S"); idx != -1 {
		s, err := strconv.Atoi(duration[:idx])
		if err != nil {
			return 0, err
		}
		seconds = s
	}

	return hours*3600 + minutes*60 + seconds, nil
}

// bestThumbnailURL returns the highest quality thumbnail URL available.
func bestThumbnailURL(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}

	for _, t := range []*youtube.Thumbnail{
		thumbnails.Maxres,
		thumbnails.High,
		thumbnails.Medium,
		thumbnails.Standard,
		thumbnails.Default,
	} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}

	return ""
}
