// Package session holds the state of one active chat screen.
// It has no behaviour beyond reading and writing fields: the controller is
// the only writer and keeps every invariant.
package session

import (
	"sync"

	"pawcheck/pkg/pettypes"
)

// Session is the aggregate root for one chat screen instance.
type Session struct {
	ConversationID    *string
	ConversationTitle string
	Mode              pettypes.ChatMode
	Phase             pettypes.Phase
	PetContext        *pettypes.PetContext
	Messages          []pettypes.Message
	Assessment        pettypes.AssessmentResult
	Overlay           pettypes.Overlay

	// Advisory flags, one per action category.
	IsSending   bool
	IsAnalyzing bool

	// Generation changes whenever the session is replaced. Async results
	// carrying an older generation belong to a discarded session.
	Generation uint64
}

// New returns the empty Idle session.
func New() *Session {
	return &Session{
		ConversationTitle: pettypes.DefaultConversationTitle,
		Mode:              pettypes.ChatModeUnset,
		Phase:             pettypes.PhaseIdle,
		Messages:          []pettypes.Message{},
		Overlay:           pettypes.OverlayNone,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	out := *s
	if s.ConversationID != nil {
		id := *s.ConversationID
		out.ConversationID = &id
	}
	if s.PetContext != nil {
		pet := *s.PetContext
		out.PetContext = &pet
	}
	out.Messages = make([]pettypes.Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.Clone()
	}
	out.Assessment = s.Assessment.Clone()
	return &out
}

// ConversationIDString returns the conversation id or "" for an unsaved session.
func (s *Session) ConversationIDString() string {
	if s.ConversationID == nil {
		return ""
	}
	return *s.ConversationID
}

// SetConversationID stores id, clearing it when id is empty.
func (s *Session) SetConversationID(id string) {
	if id == "" {
		s.ConversationID = nil
		return
	}
	s.ConversationID = &id
}

// Append adds a message to the end of the conversation.
func (s *Session) Append(m pettypes.Message) {
	s.Messages = append(s.Messages, m)
}

// ReplaceMessage swaps the message with the given id for m.
// It reports false when no such message exists.
func (s *Session) ReplaceMessage(id string, m pettypes.Message) bool {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			s.Messages[i] = m
			return true
		}
	}
	return false
}

// RemoveMessage drops the message with the given id.
func (s *Session) RemoveMessage(id string) bool {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			s.Messages = append(s.Messages[:i], s.Messages[i+1:]...)
			return true
		}
	}
	return false
}

// LastUserMessages returns the content of the most recent n user messages, oldest first.
func (s *Session) LastUserMessages(n int) []string {
	if n <= 0 {
		return nil
	}
	var out []string
	for i := len(s.Messages) - 1; i >= 0 && len(out) < n; i-- {
		if s.Messages[i].Author == pettypes.AuthorUser {
			out = append(out, s.Messages[i].Content)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// HasAssessmentMessage reports whether any message carries an assessment.
func (s *Session) HasAssessmentMessage() bool {
	for _, m := range s.Messages {
		if m.IsAssessment {
			return true
		}
	}
	return false
}

// CountAnalyzing returns the number of analyzing placeholders.
func (s *Session) CountAnalyzing() int {
	n := 0
	for _, m := range s.Messages {
		if m.IsAnalyzing {
			n++
		}
	}
	return n
}

// Store guards the active session. Readers receive copies; writers go through Update.
type Store struct {
	mu      sync.RWMutex
	current *Session
}

// NewStore creates a store holding an empty session.
func NewStore() *Store {
	return &Store{current: New()}
}

// Snapshot returns a deep copy of the current session.
func (st *Store) Snapshot() *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current.Clone()
}

// Generation returns the generation of the current session.
func (st *Store) Generation() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current.Generation
}

// Update runs fn with exclusive access to the current session.
func (st *Store) Update(fn func(s *Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(st.current)
}

// UpdateIf runs fn only when the session is still at generation gen.
// It reports whether fn ran.
func (st *Store) UpdateIf(gen uint64, fn func(s *Session)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.current.Generation != gen {
		return false
	}
	fn(st.current)
	return true
}

// Replace installs next as the current session under a new generation and returns it.
func (st *Store) Replace(next *Session) uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	next.Generation = st.current.Generation + 1
	st.current = next
	return next.Generation
}

// ReplaceIf installs next only when the session is still at generation gen.
// It returns the new generation and whether the replacement happened.
func (st *Store) ReplaceIf(gen uint64, next *Session) (uint64, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.current.Generation != gen {
		return st.current.Generation, false
	}
	next.Generation = st.current.Generation + 1
	st.current = next
	return next.Generation, true
}
