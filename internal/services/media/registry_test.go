package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// stubProvider is a minimal Provider for registry tests.
type stubProvider struct {
	name    string
	formats []models.MediaFormat
}

func (p *stubProvider) Name() string                  { return p.name }
func (p *stubProvider) Formats() []models.MediaFormat { return p.formats }

func (p *stubProvider) ResolveByURL(context.Context, string, models.MediaFormat) (*models.MediaItem, error) {
	return nil, nil
}

func (p *stubProvider) Search(context.Context, string, models.MediaFormat, int) ([]*models.MediaItem, error) {
	return nil, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(utils.NewLogger(utils.LoggerOptions{
		Level:       zapcore.ErrorLevel,
		OutputPaths: []string{"stderr"},
	}))
}

func TestRegistryFirstMatchWins(t *testing.T) {
	registry := newTestRegistry(t)

	broad := &stubProvider{name: "broad", formats: []models.MediaFormat{models.FormatAudio}}
	narrow := &stubProvider{name: "narrow", formats: []models.MediaFormat{models.FormatAudio}}

	require.NoError(t, registry.Register(`example\.com/`, broad))
	require.NoError(t, registry.Register(`example\.com/track/`, narrow))

	// Both patterns match; registration order decides.
	p, ok := registry.Match("https://example.com/track/42")
	require.True(t, ok)
	assert.Equal(t, "broad", p.Name())
}

func TestRegistryNoMatch(t *testing.T) {
	registry := newTestRegistry(t)

	require.NoError(t, registry.Register(`youtube\.com/`, &stubProvider{
		name:    "youtube",
		formats: []models.MediaFormat{models.FormatAudio, models.FormatVideo},
	}))

	_, ok := registry.Match("https://example.com/")
	assert.False(t, ok)
}

func TestRegistryInvalidPattern(t *testing.T) {
	registry := newTestRegistry(t)

	err := registry.Register(`(`, &stubProvider{name: "broken"})
	assert.Error(t, err)
}

func TestRegistrySourcesInRegistrationOrder(t *testing.T) {
	registry := newTestRegistry(t)

	require.NoError(t, registry.Register(`youtube\.com/`, &stubProvider{name: "youtube"}))
	require.NoError(t, registry.Register(`youtu\.be/`, &stubProvider{name: "youtube"}))
	require.NoError(t, registry.Register(`catalog\.example/`, &stubProvider{name: "catalog"}))

	assert.Equal(t, []string{"youtube", "catalog"}, registry.Sources())
}

func TestRegistryProviderLookup(t *testing.T) {
	registry := newTestRegistry(t)

	provider := &stubProvider{name: "youtube"}
	require.NoError(t, registry.Register(`youtube\.com/`, provider))

	got, ok := registry.Provider("youtube")
	require.True(t, ok)
	assert.Same(t, provider, got)

	_, ok = registry.Provider("missing")
	assert.False(t, ok)
}

func TestNeedsFormatChoice(t *testing.T) {
	multi := &stubProvider{formats: []models.MediaFormat{models.FormatAudio, models.FormatVideo}}
	single := &stubProvider{formats: []models.MediaFormat{models.FormatAudio}}

	assert.True(t, NeedsFormatChoice(multi))
	assert.False(t, NeedsFormatChoice(single))
}

func TestDefaultFormat(t *testing.T) {
	video := &stubProvider{formats: []models.MediaFormat{models.FormatVideo, models.FormatAudio}}
	empty := &stubProvider{}

	assert.Equal(t, models.FormatVideo, DefaultFormat(video))
	assert.Equal(t, models.FormatAudio, DefaultFormat(empty))
}
