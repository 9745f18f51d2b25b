package conversation

import (
	"sync"
	"time"

	"github.com/samber/lo"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/services/media"
	"norelock.dev/tunegate/backend/internal/utils"
)

// Decision is the completed output of a disambiguation dialogue: the query to
// resolve, the provider to resolve it with, and the payload format to deliver.
type Decision struct {
	Query    string
	Provider media.Provider
	Format   models.MediaFormat
}

// Step is the result of feeding one choice to the machine. Exactly one field
// is set: Formats when the dialogue advanced to a format choice, Decision when
// it completed.
type Step struct {
	Formats  []models.MediaFormat
	Decision *Decision
}

// Machine drives the per-user disambiguation dialogue. A free-text query opens
// a session awaiting a source choice; sources with more than one payload
// format add a format step. Transitions for one user are serialized, so
// concurrent messages from the same user cannot corrupt a session or trigger
// more than one resolution.
type Machine struct {
	store    *SessionStore
	registry *media.Registry
	locks    keyedMutex
	logger   *utils.Logger
}

// NewMachine creates a conversation machine over the given session store and
// provider registry.
func NewMachine(store *SessionStore, registry *media.Registry, logger *utils.Logger) *Machine {
	return &Machine{
		store:    store,
		registry: registry,
		logger:   logger.Named("conversation"),
	}
}

// Begin opens a dialogue for a free-text query and returns the sources to
// offer. Any previous session for the user is replaced.
func (m *Machine) Begin(userID int64, query string) []string {
	unlock := m.locks.lock(userID)
	defer unlock()

	m.store.Put(&models.ConversationSession{
		UserID:    userID,
		State:     models.StateAwaitSource,
		Query:     query,
		CreatedAt: time.Now(),
	})

	m.logger.Debug("Opened disambiguation dialogue", "userId", userID)
	return m.registry.Sources()
}

// Choose feeds one choice to the user's dialogue. With no active session it
// returns ErrNoSession; a choice that is not valid for the current state
// returns ErrInvalidChoice and leaves the session untouched.
func (m *Machine) Choose(userID int64, choice string) (*Step, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	session, ok := m.store.Get(userID)
	if !ok {
		return nil, models.ErrNoSession
	}

	switch session.State {
	case models.StateAwaitSource:
		return m.chooseSource(session, choice)
	case models.StateAwaitFormat:
		return m.chooseFormat(session, choice)
	default:
		return nil, models.ErrNoSession
	}
}

func (m *Machine) chooseSource(session *models.ConversationSession, source string) (*Step, error) {
	provider, ok := m.registry.Provider(source)
	if !ok {
		return nil, models.ErrUnknownSource
	}

	if media.NeedsFormatChoice(provider) {
		session.State = models.StateAwaitFormat
		session.Source = source
		// Advancing counts as activity, so the expiry window restarts.
		session.CreatedAt = time.Now()
		m.store.Put(session)
		return &Step{Formats: provider.Formats()}, nil
	}

	m.store.Delete(session.UserID)
	return &Step{Decision: &Decision{
		Query:    session.Query,
		Provider: provider,
		Format:   media.DefaultFormat(provider),
	}}, nil
}

func (m *Machine) chooseFormat(session *models.ConversationSession, choice string) (*Step, error) {
	format, ok := models.ParseMediaFormat(choice)
	if !ok {
		return nil, models.ErrInvalidChoice
	}

	provider, ok := m.registry.Provider(session.Source)
	if !ok {
		// The provider disappeared between steps; the session is unrecoverable.
		m.store.Delete(session.UserID)
		return nil, models.ErrUnknownSource
	}

	if !lo.Contains(provider.Formats(), format) {
		return nil, models.ErrInvalidChoice
	}

	m.store.Delete(session.UserID)
	return &Step{Decision: &Decision{
		Query:    session.Query,
		Provider: provider,
		Format:   format,
	}}, nil
}

// Cancel discards the user's dialogue, if any, and reports whether one was
// active.
func (m *Machine) Cancel(userID int64) bool {
	unlock := m.locks.lock(userID)
	defer unlock()

	_, ok := m.store.Get(userID)
	if ok {
		m.store.Delete(userID)
		m.logger.Debug("Cancelled disambiguation dialogue", "userId", userID)
	}
	return ok
}

// State returns the user's current dialogue state.
func (m *Machine) State(userID int64) models.PendingState {
	unlock := m.locks.lock(userID)
	defer unlock()

	session, ok := m.store.Get(userID)
	if !ok {
		return models.StateIdle
	}
	return session.State
}

// keyedMutex serializes work per user id. Entries are reference counted and
// reclaimed as soon as no caller holds or waits on them, so the map stays
// bounded by the number of concurrently active users.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(userID int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*userLock)
	}
	l, ok := k.locks[userID]
	if !ok {
		l = &userLock{}
		k.locks[userID] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, userID)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
