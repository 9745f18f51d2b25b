// Package models contains the data structures used throughout the application.
package models

import (
	"errors"
	"fmt"
)

// Common error types for domain-specific errors
var (
	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Media errors
	ErrMediaNotFound = errors.New("no media matched the request")
	ErrMediaTooLong  = errors.New("media exceeds maximum duration")
	ErrUnknownSource = errors.New("unknown media source")

	// Conversation errors
	ErrNoSession     = errors.New("no conversation in progress")
	ErrInvalidChoice = errors.New("choice does not apply to the current state")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable after retries")
)

// ProviderError wraps a failure of an upstream content source with the input
// that triggered it. Provider failures are never retried by the caller.
type ProviderError struct {
	// Source is the provider name.
	Source string

	// Input is the URL or query that was being resolved.
	Input string

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed for %q: %v", e.Source, e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a ProviderError.
func NewProviderError(source, input string, err error) *ProviderError {
	return &ProviderError{Source: source, Input: input, Err: err}
}

// IsFriendly reports whether an error is a user-facing outcome rather than an
// operational failure. Friendly errors are not logged as failures.
func IsFriendly(err error) bool {
	return errors.Is(err, ErrMediaNotFound) ||
		errors.Is(err, ErrMediaTooLong) ||
		errors.Is(err, ErrUnknownSource) ||
		errors.Is(err, ErrNoSession) ||
		errors.Is(err, ErrInvalidChoice)
}
