// Package models contains the data structures used throughout the application.
package models

import "strings"

// MediaFormat identifies the payload kind a provider delivers.
type MediaFormat string

const (
	// FormatAudio is an audio-only payload.
	FormatAudio MediaFormat = "audio"

	// FormatVideo is a full video payload.
	FormatVideo MediaFormat = "video"
)

// IsValid reports whether the format is one of the known kinds.
func (f MediaFormat) IsValid() bool {
	return f == FormatAudio || f == FormatVideo
}

// ParseMediaFormat parses a user-supplied choice into a MediaFormat.
func ParseMediaFormat(s string) (MediaFormat, bool) {
	f := MediaFormat(strings.ToLower(strings.TrimSpace(s)))
	return f, f.IsValid()
}

// MediaItem is a resolved piece of media ready for delivery.
// A MediaItem is immutable once constructed; components hand around pointers
// but never modify the fields.
type MediaItem struct {
	// Source is the provider that produced the item (e.g., "youtube").
	Source string `json:"source"`

	// SourceID is the ID of the item on the original platform.
	SourceID string `json:"sourceId"`

	// Title is the title of the item.
	Title string `json:"title"`

	// Duration is the duration in seconds.
	Duration int `json:"duration"`

	// Artists is the ordered list of performers. May be empty.
	Artists []string `json:"artists"`

	// Thumbnail is the raw thumbnail image, if the provider supplied one.
	Thumbnail []byte `json:"thumbnail,omitempty"`

	// Format is the payload kind of the item.
	Format MediaFormat `json:"format"`

	// Payload is the inline media blob. Either Payload or StreamURL is set.
	Payload []byte `json:"payload,omitempty"`

	// StreamURL is a playable URL when the payload is not fetched inline.
	StreamURL string `json:"streamUrl,omitempty"`
}

// Performer returns the artists joined for display, matching the delivery
// channel's single-performer field.
func (m *MediaItem) Performer() string {
	return strings.Join(m.Artists, ", ")
}

// HasPayload reports whether the item carries an inline blob.
func (m *MediaItem) HasPayload() bool {
	return len(m.Payload) > 0
}

// MediaMetadata is the cheap, payload-free view of a media item. Providers
// that can serve it let the duration policy run before the expensive fetch.
type MediaMetadata struct {
	// Source is the provider that produced the metadata.
	Source string `json:"source"`

	// SourceID is the ID of the item on the original platform.
	SourceID string `json:"sourceId"`

	// Title is the title of the item.
	Title string `json:"title"`

	// Duration is the duration in seconds.
	Duration int `json:"duration"`

	// Artists is the ordered list of performers.
	Artists []string `json:"artists"`
}
