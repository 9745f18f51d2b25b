package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMediaFormat(t *testing.T) {
	format, ok := ParseMediaFormat("  Audio ")
	assert.True(t, ok)
	assert.Equal(t, FormatAudio, format)

	format, ok = ParseMediaFormat("video")
	assert.True(t, ok)
	assert.Equal(t, FormatVideo, format)

	_, ok = ParseMediaFormat("vinyl")
	assert.False(t, ok)
}

func TestMediaItemPerformer(t *testing.T) {
	item := &MediaItem{Artists: []string{"First", "Second"}}
	assert.Equal(t, "First, Second", item.Performer())

	assert.Equal(t, "", (&MediaItem{}).Performer())
}

func TestMediaItemHasPayload(t *testing.T) {
	inline := &MediaItem{Payload: []byte{0x49, 0x44, 0x33}}
	assert.True(t, inline.HasPayload())

	streamed := &MediaItem{StreamURL: "https://cdn.example/abc.mp3"}
	assert.False(t, streamed.HasPayload())
}

func TestSessionExpiryBoundary(t *testing.T) {
	now := time.Now()
	session := &ConversationSession{CreatedAt: now}

	window := 10 * time.Minute
	assert.False(t, session.ExpiredAt(now.Add(window-time.Second), window))
	// The window boundary itself counts as expired.
	assert.True(t, session.ExpiredAt(now.Add(window), window))
	assert.True(t, session.ExpiredAt(now.Add(window+time.Second), window))
}

func TestProviderErrorWrapsCause(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := NewProviderError("youtube", "https://youtu.be/abc", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "youtube")
	assert.Contains(t, err.Error(), "https://youtu.be/abc")

	var providerErr *ProviderError
	assert.ErrorAs(t, fmt.Errorf("dispatch: %w", err), &providerErr)
}

func TestIsFriendly(t *testing.T) {
	assert.True(t, IsFriendly(ErrMediaNotFound))
	assert.True(t, IsFriendly(ErrMediaTooLong))
	assert.True(t, IsFriendly(ErrUnknownSource))
	assert.True(t, IsFriendly(ErrNoSession))
	assert.True(t, IsFriendly(fmt.Errorf("wrapped: %w", ErrInvalidChoice)))

	assert.False(t, IsFriendly(ErrStoreUnavailable))
	assert.False(t, IsFriendly(NewProviderError("youtube", "x", errors.New("boom"))))
}
