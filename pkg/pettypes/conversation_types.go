package pettypes

import "time"

// DefaultConversationTitle is shown until the backend assigns a title.
const DefaultConversationTitle = "New Chat"

// Title prefixes the backend uses when naming conversations by mode.
const (
	SymptomCheckTitlePrefix = "Symptom Check:"
	PetCareTitlePrefix      = "Pet Care:"
)

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	ID        string
	Title     string
	Mode      ChatMode
	UpdatedAt time.Time
}
