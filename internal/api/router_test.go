package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"norelock.dev/tunegate/backend/internal/api/handlers"
	"norelock.dev/tunegate/backend/internal/cache"
	"norelock.dev/tunegate/backend/internal/config"
	"norelock.dev/tunegate/backend/internal/db/memory"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/services/conversation"
	"norelock.dev/tunegate/backend/internal/services/dispatch"
	"norelock.dev/tunegate/backend/internal/services/media"
	"norelock.dev/tunegate/backend/internal/utils"
)

type echoProvider struct{}

func (p *echoProvider) Name() string                  { return "fake" }
func (p *echoProvider) Formats() []models.MediaFormat { return []models.MediaFormat{models.FormatAudio} }

func (p *echoProvider) ResolveByURL(_ context.Context, url string, format models.MediaFormat) (*models.MediaItem, error) {
	return &models.MediaItem{
		Source:   "fake",
		SourceID: "abc",
		Title:    "Resolved",
		Duration: 240,
		Format:   format,
	}, nil
}

func (p *echoProvider) Search(_ context.Context, query string, format models.MediaFormat, limit int) ([]*models.MediaItem, error) {
	return []*models.MediaItem{{
		Source:   "fake",
		SourceID: "search-hit",
		Title:    query,
		Duration: 180,
		Format:   format,
	}}, nil
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	logger := utils.NewLogger(utils.LoggerOptions{
		Level:       zapcore.ErrorLevel,
		OutputPaths: []string{"stderr"},
	})

	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.Media.MaxDuration = 600
	cfg.Media.SearchLimit = 3
	cfg.Media.ProviderTimeout = time.Second
	cfg.Cache.URLTTL = time.Hour
	cfg.Cache.SearchTTL = time.Minute
	cfg.Session.Expiry = time.Minute

	registry := media.NewRegistry(logger)
	require.NoError(t, registry.Register(`fake\.example/`, &echoProvider{}))

	resolutions := cache.NewResolutionCache(cache.NewMemoryStore(), cfg.Cache.URLTTL, cfg.Cache.SearchTTL, logger)
	sessions := conversation.NewSessionStore(cfg.Session.Expiry, logger)
	machine := conversation.NewMachine(sessions, registry, logger)
	users := memory.NewUserRepository(logger)
	dispatcher := dispatch.NewDispatcher(users, registry, machine, resolutions, cfg, logger)

	return NewRouter(dispatcher, map[string]handlers.HealthCheck{}, cfg, logger)
}

func doJSON(t *testing.T, router *Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"up"`)
}

func TestPostUserRegisters(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/users",
		`{"chatId":42,"username":"rick","displayName":"Rick"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	// Registration is idempotent at the HTTP surface too.
	rec = doJSON(t, router, http.MethodPost, "/v1/users",
		`{"chatId":42,"username":"rick","displayName":"Rick"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostUserValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/users", `{"username":"rick"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/users", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageURL(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/messages",
		`{"userId":1,"text":"https://fake.example/abc"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"media"`)
}

func TestPostMessageFreeText(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/messages",
		`{"userId":1,"text":"some song"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"choose_source"`)

	rec = doJSON(t, router, http.MethodPost, "/v1/choices",
		`{"userId":1,"choice":"fake"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"media"`)
}

func TestPostMessageUnmatchedURL(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/messages",
		`{"userId":1,"text":"https://other.example/xyz"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPostChoiceWithoutSession(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/choices",
		`{"userId":1,"choice":"fake"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetSearch(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/search?q=some+song&amount=3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "search-hit")

	rec = doJSON(t, router, http.MethodGet, "/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/search?q=x&amount=999", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
