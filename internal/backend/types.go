package backend

import (
	"time"

	"pawcheck/pkg/pettypes"
)

// StartConversationRequest is the body of POST /chatbot/start-conversation-with-pet/.
type StartConversationRequest struct {
	PetID    int64             `json:"pet_id"`
	ChatMode pettypes.ChatMode `json:"chat_mode"`
}

// ConversationStart is what the pet selector hands to the controller.
type ConversationStart struct {
	ConversationID pettypes.FlexString  `json:"conversation_id"`
	PetContext     *pettypes.PetContext `json:"pet_context"`
	InitialMessage string               `json:"initial_message"`
}

// ConversationRecord is the conversation header inside a history response.
type ConversationRecord struct {
	ID         pettypes.FlexString  `json:"id"`
	Title      string               `json:"title"`
	ChatMode   pettypes.ChatMode    `json:"chat_mode,omitempty"`
	PetContext *pettypes.PetContext `json:"pet_context,omitempty"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// WireMessage is a message as stored by the backend.
type WireMessage struct {
	ID             pettypes.FlexString       `json:"id"`
	Content        string                    `json:"content"`
	IsUser         bool                      `json:"is_user"`
	Role           string                    `json:"role,omitempty"`
	Timestamp      time.Time                 `json:"timestamp"`
	IsAssessment   bool                      `json:"is_assessment,omitempty"`
	AssessmentData pettypes.AssessmentResult `json:"assessment_data,omitempty"`
}

// ConversationHistory is the body of GET /chatbot/conversations/{id}/.
type ConversationHistory struct {
	Conversation   ConversationRecord        `json:"conversation"`
	Messages       []WireMessage             `json:"messages"`
	AssessmentData pettypes.AssessmentResult `json:"assessment_data,omitempty"`
}

// ConversationList is the body of GET /chatbot/conversations/.
type ConversationList struct {
	Conversations []ConversationRecord `json:"conversations"`
}

// ChatRequest is the body of POST /chatbot/chat/.
// Absent context fields are sent as explicit nulls.
type ChatRequest struct {
	Message           string                    `json:"message"`
	ConversationID    *string                   `json:"conversation_id"`
	ChatMode          pettypes.ChatMode         `json:"chat_mode"`
	PetContext        *pettypes.PetContext      `json:"pet_context"`
	AssessmentContext pettypes.AssessmentResult `json:"assessment_context"`
}

// ChatReply is the body answered by POST /chatbot/chat/.
type ChatReply struct {
	Response          string              `json:"response"`
	ConversationID    pettypes.FlexString `json:"conversation_id,omitempty"`
	ConversationTitle string              `json:"conversation_title,omitempty"`
}

// PredictRequest is the flattened questionnaire sent to POST /symptom-checker/predict/.
type PredictRequest map[string]interface{}

// DiagnosisRequest is the body of POST /chatbot/create-ai-diagnosis/.
type DiagnosisRequest struct {
	PetID          int64                     `json:"pet_id"`
	Symptoms       []string                  `json:"symptoms"`
	AssessmentData pettypes.AssessmentResult `json:"assessment_data"`
	ConversationID *string                   `json:"conversation_id"`
}

// DiagnosisCase is the answer of POST /chatbot/create-ai-diagnosis/.
type DiagnosisCase struct {
	CaseID pettypes.FlexString `json:"case_id"`
}
