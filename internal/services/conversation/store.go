// Package conversation tracks per-user disambiguation state across message
// turns.
package conversation

import (
	"context"
	"sync"
	"time"

	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// SessionStore holds conversation sessions keyed by user id. A session older
// than the expiry window behaves as absent: lookups reclaim it lazily and the
// periodic sweeper reclaims the rest, so abandoned sessions never accumulate.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*models.ConversationSession
	expiry   time.Duration
	logger   *utils.Logger
}

// NewSessionStore creates a session store with the given expiry window.
func NewSessionStore(expiry time.Duration, logger *utils.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*models.ConversationSession),
		expiry:   expiry,
		logger:   logger.Named("session_store"),
	}
}

// Get returns the active session for a user. Expired sessions are reclaimed
// and reported as absent.
func (s *SessionStore) Get(userID int64) (*models.ConversationSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}

	if session.ExpiredAt(time.Now(), s.expiry) {
		delete(s.sessions, userID)
		return nil, false
	}

	return session, true
}

// Put stores a session, replacing any previous one for the same user.
func (s *SessionStore) Put(session *models.ConversationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.UserID] = session
}

// Delete removes a user's session.
func (s *SessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}

// Sweep reclaims all expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for userID, session := range s.sessions {
		if session.ExpiredAt(now, s.expiry) {
			delete(s.sessions, userID)
			removed++
		}
	}

	return removed
}

// StartSweeper reclaims expired sessions every interval until ctx is done.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 {
					s.logger.Debug("Reclaimed expired sessions", "count", removed)
				}
			}
		}
	}()
}

// Len returns the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
