// Package dispatch routes inbound user messages to registration, conversation
// and resolution flows.
package dispatch

import "norelock.dev/tunegate/backend/internal/models"

// OutcomeKind classifies what a message turn produced.
type OutcomeKind string

const (
	// OutcomeMedia carries a single resolved item ready for delivery.
	OutcomeMedia OutcomeKind = "media"

	// OutcomeChooseSource asks the user to pick a source for a free-text query.
	OutcomeChooseSource OutcomeKind = "choose_source"

	// OutcomeChooseFormat asks the user to pick a payload format.
	OutcomeChooseFormat OutcomeKind = "choose_format"

	// OutcomeCancelled confirms the dialogue was discarded.
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the result of one message or choice turn. Exactly the fields
// implied by Kind are set.
type Outcome struct {
	Kind    OutcomeKind          `json:"kind"`
	Item    *models.MediaItem    `json:"item,omitempty"`
	Sources []string             `json:"sources,omitempty"`
	Formats []models.MediaFormat `json:"formats,omitempty"`
}
