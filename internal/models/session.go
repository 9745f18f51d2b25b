// Package models contains the data structures used throughout the application.
package models

import "time"

// PendingState is the disambiguation state of a user's conversation.
type PendingState string

const (
	// StateIdle means no disambiguation is in progress.
	StateIdle PendingState = "idle"

	// StateAwaitSource means the user has sent a query and must pick a source.
	StateAwaitSource PendingState = "await_source"

	// StateAwaitFormat means the user has picked a source that supports
	// multiple formats and must pick one.
	StateAwaitFormat PendingState = "await_format"
)

// ConversationSession tracks one user's pending disambiguation across message
// turns. At most one session exists per user; a session past its expiry window
// behaves as absent.
type ConversationSession struct {
	// UserID is the external chat identifier the session belongs to.
	UserID int64 `json:"userId"`

	// State is the current disambiguation state.
	State PendingState `json:"state"`

	// Query is the free-text query that opened the session.
	Query string `json:"query"`

	// Source is the chosen provider name, set once a source choice is made.
	Source string `json:"source,omitempty"`

	// CreatedAt is when the session was opened or last advanced a step. The
	// expiry window counts from here.
	CreatedAt time.Time `json:"createdAt"`
}

// ExpiredAt reports whether the session is past its expiry window at t.
func (s *ConversationSession) ExpiredAt(t time.Time, window time.Duration) bool {
	return t.Sub(s.CreatedAt) >= window
}
