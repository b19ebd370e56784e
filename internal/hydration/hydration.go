// Package hydration maps between the backend wire format and the session model.
// It is pure: every function derives its result from its arguments only.
package hydration

import (
	"encoding/json"
	"fmt"
	"strings"

	"pawcheck/internal/backend"
	"pawcheck/internal/session"
	"pawcheck/pkg/pettypes"
)

// UserNotesWindow is how many recent user messages are folded into user_notes.
const UserNotesWindow = 3

// ModeFromTitle infers the chat mode from the backend's title prefix convention.
func ModeFromTitle(title string) pettypes.ChatMode {
	t := strings.TrimSpace(title)
	switch {
	case strings.HasPrefix(t, pettypes.SymptomCheckTitlePrefix):
		return pettypes.ChatModeSymptomChecker
	case strings.HasPrefix(t, pettypes.PetCareTitlePrefix):
		return pettypes.ChatModeGeneral
	default:
		return pettypes.ChatModeUnset
	}
}

// InferMode prefers an explicit chat_mode on the record and falls back to the title prefix.
func InferMode(rec backend.ConversationRecord) pettypes.ChatMode {
	if rec.ChatMode.Valid() {
		return rec.ChatMode
	}
	return ModeFromTitle(rec.Title)
}

// MessageFromWire converts one stored message. index names messages the backend sent without an id.
func MessageFromWire(w backend.WireMessage, index int) pettypes.Message {
	author := pettypes.AuthorAssistant
	if w.IsUser || strings.EqualFold(w.Role, string(pettypes.AuthorUser)) {
		author = pettypes.AuthorUser
	}
	id := string(w.ID)
	if id == "" {
		id = fmt.Sprintf("msg-%d", index)
	}
	return pettypes.Message{
		ID:           id,
		Content:      w.Content,
		Author:       author,
		Timestamp:    w.Timestamp,
		IsAssessment: w.IsAssessment || !w.AssessmentData.IsZero(),
		Assessment:   w.AssessmentData.Clone(),
	}
}

// SessionFromHistory builds a fresh session from a conversation history response.
//
// The assessment is the conversation level assessment_data when present,
// otherwise the newest one embedded in a message. An assessment message is
// synthesized only when the payload has assessment_data and none of the
// fetched messages is already an assessment, so repeated hydration never
// duplicates it.
//
// id is the conversation that was requested. The response body does not
// always repeat it, so it is used whenever conversation.id is missing.
func SessionFromHistory(id string, h *backend.ConversationHistory) *session.Session {
	if h.Conversation.ID == "" {
		withID := *h
		withID.Conversation.ID = pettypes.FlexString(id)
		h = &withID
	}

	s := session.New()
	s.SetConversationID(string(h.Conversation.ID))
	if h.Conversation.Title != "" {
		s.ConversationTitle = h.Conversation.Title
	}
	s.Mode = InferMode(h.Conversation)
	if h.Conversation.PetContext != nil {
		pet := *h.Conversation.PetContext
		s.PetContext = &pet
	}

	for i, w := range h.Messages {
		s.Append(MessageFromWire(w, i))
	}

	s.Assessment = h.AssessmentData.Clone()
	if s.Assessment.IsZero() {
		for i := len(s.Messages) - 1; i >= 0; i-- {
			if !s.Messages[i].Assessment.IsZero() {
				s.Assessment = s.Messages[i].Assessment.Clone()
				break
			}
		}
	}

	if !h.AssessmentData.IsZero() && !s.HasAssessmentMessage() {
		s.Append(SynthesizedAssessmentMessage(h))
	}

	s.Phase = pettypes.PhaseChatting
	if !s.Assessment.IsZero() {
		s.Phase = pettypes.PhaseAssessmentShown
	}
	return s
}

// SynthesizedAssessmentMessage renders the conversation level assessment as a message.
// Its id is derived from the conversation id so it is stable across reloads.
func SynthesizedAssessmentMessage(h *backend.ConversationHistory) pettypes.Message {
	m := pettypes.Message{
		ID:           "assessment-" + string(h.Conversation.ID),
		Content:      AssessmentHeadline(h.AssessmentData),
		Author:       pettypes.AuthorAssistant,
		IsAssessment: true,
		Assessment:   h.AssessmentData.Clone(),
	}
	if n := len(h.Messages); n > 0 {
		m.Timestamp = h.Messages[n-1].Timestamp
	}
	return m
}

// AssessmentHeadline is the one-line text of an assessment message.
func AssessmentHeadline(a pettypes.AssessmentResult) string {
	var b strings.Builder
	b.WriteString("Assessment")
	if name := a.PetName(); name != "" {
		b.WriteString(" for ")
		b.WriteString(name)
	}
	if urgency := a.Urgency(); urgency != "" {
		b.WriteString(" (urgency: ")
		b.WriteString(urgency)
		b.WriteString(")")
	}
	if preds := a.Predictions(); len(preds) > 0 && preds[0].Condition != "" {
		b.WriteString(": most likely ")
		b.WriteString(preds[0].Condition)
	}
	return b.String()
}

// Summaries converts conversation list records for display.
func Summaries(records []backend.ConversationRecord) []pettypes.ConversationSummary {
	out := make([]pettypes.ConversationSummary, 0, len(records))
	for _, r := range records {
		out = append(out, pettypes.ConversationSummary{
			ID:        string(r.ID),
			Title:     r.Title,
			Mode:      InferMode(r),
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out
}

// BuildChatRequest assembles the chat body from the session.
// Missing context is sent as null and an unset mode as general.
func BuildChatRequest(s *session.Session, text string) backend.ChatRequest {
	req := backend.ChatRequest{
		Message:           text,
		ChatMode:          s.Mode.OrDefault(),
		AssessmentContext: s.Assessment.Clone(),
	}
	if s.ConversationID != nil {
		id := *s.ConversationID
		req.ConversationID = &id
	}
	if s.PetContext != nil {
		pet := *s.PetContext
		req.PetContext = &pet
	}
	return req
}

// UserNotes joins the most recent UserNotesWindow non-empty messages with single spaces.
func UserNotes(prior []string) string {
	var kept []string
	for _, m := range prior {
		if t := strings.TrimSpace(m); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) > UserNotesWindow {
		kept = kept[len(kept)-UserNotesWindow:]
	}
	return strings.Join(kept, " ")
}

// BuildPredictRequest flattens the questionnaire answers and adds pet_id and user_notes.
// Unknown form fields in answers.Extra are passed through but never override known ones.
func BuildPredictRequest(answers pettypes.QuestionnaireAnswers, pet *pettypes.PetContext, prior []string) (backend.PredictRequest, error) {
	if answers.Symptoms == nil {
		answers.Symptoms = []string{}
	}
	if answers.PetName == "" && pet != nil {
		answers.PetName = pet.Name
	}

	encoded, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questionnaire: %w", err)
	}
	req := backend.PredictRequest{}
	for k, v := range answers.Extra {
		req[k] = v
	}
	var known map[string]interface{}
	if err := json.Unmarshal(encoded, &known); err != nil {
		return nil, fmt.Errorf("failed to flatten questionnaire: %w", err)
	}
	for k, v := range known {
		req[k] = v
	}

	if pet != nil {
		req["pet_id"] = pet.ID
	}
	req["user_notes"] = UserNotes(prior)
	return req, nil
}

// BuildDiagnosisRequest assembles the create-ai-diagnosis body for a tracking hand-off.
func BuildDiagnosisRequest(s *session.Session, handoff pettypes.TrackingHandoff) backend.DiagnosisRequest {
	req := backend.DiagnosisRequest{
		Symptoms:       handoff.Symptoms,
		AssessmentData: s.Assessment.Clone(),
	}
	if req.Symptoms == nil {
		req.Symptoms = []string{}
	}
	if s.PetContext != nil {
		req.PetID = s.PetContext.ID
	}
	if s.ConversationID != nil {
		id := *s.ConversationID
		req.ConversationID = &id
	}
	return req
}

// SubmissionSummary is the user turn recorded when a questionnaire is submitted.
func SubmissionSummary(answers pettypes.QuestionnaireAnswers) string {
	var b strings.Builder
	b.WriteString("Symptom check")
	if answers.PetName != "" {
		b.WriteString(" for ")
		b.WriteString(answers.PetName)
	}
	if len(answers.Symptoms) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(answers.Symptoms, ", "))
	}
	var details []string
	if answers.Duration != "" {
		details = append(details, "duration "+answers.Duration)
	}
	if answers.Severity != "" {
		details = append(details, "severity "+answers.Severity)
	}
	if len(details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(details, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Handoff extracts what the symptom logger needs from an assessment.
// The pet name falls back to the session pet when the payload lacks one.
func Handoff(a pettypes.AssessmentResult, pet *pettypes.PetContext) pettypes.TrackingHandoff {
	h := pettypes.TrackingHandoff{
		PetName:  a.PetName(),
		CaseID:   a.CaseID(),
		Symptoms: a.TopSymptoms(),
	}
	if h.PetName == "" && pet != nil {
		h.PetName = pet.Name
	}
	return h
}
