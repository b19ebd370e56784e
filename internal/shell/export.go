package shell

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pawcheck/internal/session"
	"pawcheck/pkg/pettypes"
)

// Transcript is the YAML form of a saved conversation.
type Transcript struct {
	ConversationID string                    `yaml:"conversation_id,omitempty"`
	Title          string                    `yaml:"title,omitempty"`
	Mode           pettypes.ChatMode         `yaml:"mode,omitempty"`
	Pet            *pettypes.PetContext      `yaml:"pet,omitempty"`
	Assessment     pettypes.AssessmentResult `yaml:"assessment,omitempty"`
	Messages       []TranscriptMessage       `yaml:"messages"`
}

// TranscriptMessage is one exported message.
type TranscriptMessage struct {
	Author    pettypes.Author `yaml:"author"`
	Content   string          `yaml:"content"`
	Timestamp time.Time       `yaml:"timestamp"`
	Error     bool            `yaml:"error,omitempty"`
}

// NewTranscript converts a session into its exported form. Analyzing
// placeholders are left out.
func NewTranscript(s *session.Session) Transcript {
	t := Transcript{
		ConversationID: s.ConversationIDString(),
		Title:          s.ConversationTitle,
		Mode:           s.Mode,
		Pet:            s.PetContext,
		Assessment:     s.Assessment,
		Messages:       []TranscriptMessage{},
	}
	for _, m := range s.Messages {
		if m.IsAnalyzing {
			continue
		}
		t.Messages = append(t.Messages, TranscriptMessage{
			Author:    m.Author,
			Content:   m.Content,
			Timestamp: m.Timestamp,
			Error:     m.IsError,
		})
	}
	return t
}

// ExportTranscript writes the session to path as YAML.
func ExportTranscript(s *session.Session, path string) error {
	data, err := yaml.Marshal(NewTranscript(s))
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
