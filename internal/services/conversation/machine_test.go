package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/services/media"
	"norelock.dev/tunegate/backend/internal/utils"
)

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

func testLogger() *utils.Logger {
	return utils.NewLogger(utils.LoggerOptions{
		Level:       zapcore.ErrorLevel,
		OutputPaths: []string{"stderr"},
	})
}

func newTestMachine(t *testing.T, expiry time.Duration) (*Machine, *SessionStore) {
	t.Helper()

	logger := testLogger()
	registry := media.NewRegistry(logger)

	require.NoError(t, registry.Register(`youtube\.com/`, &stubProvider{
		name:    "youtube",
		formats: []models.MediaFormat{models.FormatAudio, models.FormatVideo},
	}))
	require.NoError(t, registry.Register(`catalog\.example/`, &stubProvider{
		name:    "catalog",
		formats: []models.MediaFormat{models.FormatAudio},
	}))

	store := NewSessionStore(expiry, logger)
	return NewMachine(store, registry, logger), store
}

func TestMachineFullDialogueWithFormatStep(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	sources := machine.Begin(1, "never gonna give you up")
	assert.Equal(t, []string{"youtube", "catalog"}, sources)
	assert.Equal(t, models.StateAwaitSource, machine.State(1))

	// YouTube has two formats, so the dialogue adds a format step.
	step, err := machine.Choose(1, "youtube")
	require.NoError(t, err)
	require.Nil(t, step.Decision)
	assert.Equal(t, []models.MediaFormat{models.FormatAudio, models.FormatVideo}, step.Formats)
	assert.Equal(t, models.StateAwaitFormat, machine.State(1))

	step, err = machine.Choose(1, "video")
	require.NoError(t, err)
	require.NotNil(t, step.Decision)
	assert.Equal(t, "never gonna give you up", step.Decision.Query)
	assert.Equal(t, "youtube", step.Decision.Provider.Name())
	assert.Equal(t, models.FormatVideo, step.Decision.Format)

	// The dialogue is complete; the session is gone.
	assert.Equal(t, models.StateIdle, machine.State(1))
}

func TestMachineSingleFormatSourceResolvesDirectly(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	machine.Begin(1, "some song")

	step, err := machine.Choose(1, "catalog")
	require.NoError(t, err)
	require.NotNil(t, step.Decision)
	assert.Equal(t, "catalog", step.Decision.Provider.Name())
	assert.Equal(t, models.FormatAudio, step.Decision.Format)
	assert.Equal(t, models.StateIdle, machine.State(1))
}

func TestMachineChooseWithoutSession(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	_, err := machine.Choose(1, "youtube")
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestMachineUnknownSourceLeavesSessionIntact(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	machine.Begin(1, "some song")

	_, err := machine.Choose(1, "soundcloud")
	assert.ErrorIs(t, err, models.ErrUnknownSource)
	assert.Equal(t, models.StateAwaitSource, machine.State(1))
}

func TestMachineInvalidFormatLeavesSessionIntact(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	machine.Begin(1, "some song")
	_, err := machine.Choose(1, "youtube")
	require.NoError(t, err)

	_, err = machine.Choose(1, "vinyl")
	assert.ErrorIs(t, err, models.ErrInvalidChoice)
	assert.Equal(t, models.StateAwaitFormat, machine.State(1))
}

func TestMachineCancel(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	machine.Begin(1, "some song")
	assert.True(t, machine.Cancel(1))
	assert.Equal(t, models.StateIdle, machine.State(1))

	// Cancel with nothing active reports false.
	assert.False(t, machine.Cancel(1))
}

func TestMachineFormatStepRestartsExpiryWindow(t *testing.T) {
	machine, store := newTestMachine(t, time.Minute)

	opened := time.Now().Add(-59 * time.Second)
	store.Put(&models.ConversationSession{
		UserID:    1,
		State:     models.StateAwaitSource,
		Query:     "some song",
		CreatedAt: opened,
	})

	// Advancing to the format step counts as activity, so a user mid-dialogue
	// does not expire under them.
	_, err := machine.Choose(1, "youtube")
	require.NoError(t, err)

	session, ok := store.Get(1)
	require.True(t, ok)
	assert.True(t, session.CreatedAt.After(opened))
	assert.False(t, session.ExpiredAt(time.Now().Add(30*time.Second), time.Minute))
}

func TestMachineReclaimsUserLocks(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	for userID := int64(1); userID <= 100; userID++ {
		machine.Begin(userID, "some song")
		_, err := machine.Choose(userID, "catalog")
		require.NoError(t, err)
	}

	// Lock entries live only while a caller holds or waits on them.
	assert.Equal(t, 0, machine.locks.size())
}

func TestMachineExpiredSessionBehavesAsAbsent(t *testing.T) {
	machine, store := newTestMachine(t, time.Minute)

	store.Put(&models.ConversationSession{
		UserID:    1,
		State:     models.StateAwaitSource,
		Query:     "some song",
		CreatedAt: time.Now().Add(-2 * time.Minute),
	})

	_, err := machine.Choose(1, "youtube")
	assert.ErrorIs(t, err, models.ErrNoSession)
	assert.Equal(t, models.StateIdle, machine.State(1))
}

func TestMachineBeginReplacesSession(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	machine.Begin(1, "first query")
	_, err := machine.Choose(1, "youtube")
	require.NoError(t, err)

	// A new free-text query restarts the dialogue from the source step.
	machine.Begin(1, "second query")
	assert.Equal(t, models.StateAwaitSource, machine.State(1))

	step, err := machine.Choose(1, "catalog")
	require.NoError(t, err)
	require.NotNil(t, step.Decision)
	assert.Equal(t, "second query", step.Decision.Query)
}

func TestMachineSessionsAreIndependentPerUser(t *testing.T) {
	machine, _ := newTestMachine(t, time.Minute)

	machine.Begin(1, "first user query")
	machine.Begin(2, "second user query")

	require.True(t, machine.Cancel(1))
	assert.Equal(t, models.StateIdle, machine.State(1))
	assert.Equal(t, models.StateAwaitSource, machine.State(2))
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewSessionStore(time.Minute, testLogger())

	store.Put(&models.ConversationSession{
		UserID:    1,
		State:     models.StateAwaitSource,
		CreatedAt: time.Now().Add(-2 * time.Minute),
	})
	store.Put(&models.ConversationSession{
		UserID:    2,
		State:     models.StateAwaitSource,
		CreatedAt: time.Now(),
	})

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get(2)
	assert.True(t, ok)
}
