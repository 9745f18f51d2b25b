package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

func newResolutionCache(t *testing.T, store Store) *ResolutionCache {
	t.Helper()

	logger := utils.NewLogger(utils.LoggerOptions{
		Level:       zapcore.ErrorLevel,
		OutputPaths: []string{"stderr"},
	})

	return NewResolutionCache(store, time.Hour, time.Minute, logger)
}

func testItem(id string) *models.MediaItem {
	return &models.MediaItem{
		Source:   "youtube",
		SourceID: id,
		Title:    "Test Track",
		Duration: 240,
		Artists:  []string{"Test Artist"},
		Format:   models.FormatAudio,
	}
}

func TestGetOrResolveItemCachesResult(t *testing.T) {
	cache := newResolutionCache(t, NewMemoryStore())
	ctx := context.Background()

	var calls atomic.Int32
	resolve := func(context.Context) (*models.MediaItem, error) {
		calls.Add(1)
		return testItem("abc123"), nil
	}

	key := URLKey("youtube", models.FormatAudio, "https://youtu.be/abc123")

	first, err := cache.GetOrResolveItem(ctx, key, ClassURL, resolve)
	require.NoError(t, err)
	assert.Equal(t, "abc123", first.SourceID)

	second, err := cache.GetOrResolveItem(ctx, key, ClassURL, resolve)
	require.NoError(t, err)
	assert.Equal(t, first.SourceID, second.SourceID)

	assert.Equal(t, int32(1), calls.Load(), "second call must be served from cache")
}

func TestGetOrResolveItemSingleFlight(t *testing.T) {
	cache := newResolutionCache(t, NewMemoryStore())
	ctx := context.Background()

	var calls atomic.Int32
	gate := make(chan struct{})
	resolve := func(context.Context) (*models.MediaItem, error) {
		calls.Add(1)
		<-gate
		return testItem("abc123"), nil
	}

	key := URLKey("youtube", models.FormatAudio, "https://youtu.be/abc123")

	const workers = 16
	var wg sync.WaitGroup
	results := make([]*models.MediaItem, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.GetOrResolveItem(ctx, key, ClassURL, resolve)
		}(i)
	}

	// Give all workers time to pile onto the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one resolution")
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "abc123", results[i].SourceID)
	}
}

func TestGetOrResolveItemErrorNotCached(t *testing.T) {
	cache := newResolutionCache(t, NewMemoryStore())
	ctx := context.Background()

	var calls atomic.Int32
	failing := errors.New("upstream down")
	resolve := func(context.Context) (*models.MediaItem, error) {
		calls.Add(1)
		if calls.Load() == 1 {
			return nil, failing
		}
		return testItem("abc123"), nil
	}

	key := URLKey("youtube", models.FormatAudio, "https://youtu.be/abc123")

	_, err := cache.GetOrResolveItem(ctx, key, ClassURL, resolve)
	require.ErrorIs(t, err, failing)

	// A failed resolution leaves nothing behind; the next call resolves fresh.
	item, err := cache.GetOrResolveItem(ctx, key, ClassURL, resolve)
	require.NoError(t, err)
	assert.Equal(t, "abc123", item.SourceID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrResolveItemErrorPropagatesToAllWaiters(t *testing.T) {
	cache := newResolutionCache(t, NewMemoryStore())
	ctx := context.Background()

	failing := errors.New("upstream down")
	gate := make(chan struct{})
	resolve := func(context.Context) (*models.MediaItem, error) {
		<-gate
		return nil, failing
	}

	key := URLKey("youtube", models.FormatAudio, "https://youtu.be/abc123")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.GetOrResolveItem(ctx, key, ClassURL, resolve)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i := 0; i < workers; i++ {
		assert.ErrorIs(t, errs[i], failing)
	}
}

func TestGetOrResolveListCachesResult(t *testing.T) {
	cache := newResolutionCache(t, NewMemoryStore())
	ctx := context.Background()

	var calls atomic.Int32
	resolve := func(context.Context) ([]*models.MediaItem, error) {
		calls.Add(1)
		return []*models.MediaItem{testItem("a"), testItem("b")}, nil
	}

	key := SearchKey("youtube", models.FormatAudio, 3, "test query")

	first, err := cache.GetOrResolveList(ctx, key, ClassSearch, resolve)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := cache.GetOrResolveList(ctx, key, ClassSearch, resolve)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrResolveItemDropsCorruptEntry(t *testing.T) {
	store := NewMemoryStore()
	cache := newResolutionCache(t, store)
	ctx := context.Background()

	key := URLKey("youtube", models.FormatAudio, "https://youtu.be/abc123")
	require.NoError(t, store.Set(ctx, key, []byte("{not json"), time.Hour))

	item, err := cache.GetOrResolveItem(ctx, key, ClassURL, func(context.Context) (*models.MediaItem, error) {
		return testItem("abc123"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", item.SourceID)
}

func TestGetOrResolveItemExpiredEntryResolvesAgain(t *testing.T) {
	store := NewMemoryStore()
	logger := utils.NewLogger(utils.LoggerOptions{
		Level:       zapcore.ErrorLevel,
		OutputPaths: []string{"stderr"},
	})
	cache := NewResolutionCache(store, time.Millisecond, time.Millisecond, logger)
	ctx := context.Background()

	var calls atomic.Int32
	resolve := func(context.Context) (*models.MediaItem, error) {
		calls.Add(1)
		return testItem("abc123"), nil
	}

	key := URLKey("youtube", models.FormatAudio, "https://youtu.be/abc123")

	_, err := cache.GetOrResolveItem(ctx, key, ClassURL, resolve)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = cache.GetOrResolveItem(ctx, key, ClassURL, resolve)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "expired entry must trigger a fresh resolution")
}

func TestKeyGrammar(t *testing.T) {
	assert.Equal(t,
		"url:youtube:audio:https://youtu.be/abc",
		URLKey("youtube", models.FormatAudio, "https://youtu.be/abc"),
	)
	assert.Equal(t,
		"search:catalog:audio:3:never gonna give you up",
		SearchKey("catalog", models.FormatAudio, 3, "never gonna give you up"),
	)

	// Distinct formats for the same URL must address distinct entries.
	assert.NotEqual(t,
		URLKey("youtube", models.FormatAudio, "https://youtu.be/abc"),
		URLKey("youtube", models.FormatVideo, "https://youtu.be/abc"),
	)
}
