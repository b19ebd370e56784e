package pettypes

import "time"

// Author identifies who wrote a message.
type Author string

const (
	// AuthorUser is the pet owner.
	AuthorUser Author = "user"
	// AuthorAssistant is the backend assistant, including locally generated notices.
	AuthorAssistant Author = "assistant"
)

// Message represents one turn in the conversation.
// Messages are never edited after they are appended; a correction is a new message.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	Author    Author    `json:"author" yaml:"author"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Rendering variants. They never change the identity of the message.
	IsAssessment bool `json:"is_assessment,omitempty" yaml:"is_assessment,omitempty"`
	IsAnalyzing  bool `json:"is_analyzing,omitempty" yaml:"is_analyzing,omitempty"`
	IsError      bool `json:"is_error,omitempty" yaml:"is_error,omitempty"`

	// PairedWith is the ID of the user message a delivery failure belongs to.
	PairedWith string `json:"paired_with,omitempty" yaml:"paired_with,omitempty"`

	// Assessment is set on assessment messages.
	Assessment AssessmentResult `json:"assessment,omitempty" yaml:"assessment,omitempty"`
}

// Clone returns a copy of the message that shares no mutable state with m.
func (m Message) Clone() Message {
	m.Assessment = m.Assessment.Clone()
	return m
}
