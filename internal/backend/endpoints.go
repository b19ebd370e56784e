package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"pawcheck/pkg/pettypes"
)

// Endpoint paths relative to the base URL.
const (
	PathStartConversation = "/chatbot/start-conversation-with-pet/"
	PathConversations     = "/chatbot/conversations/"
	PathChat              = "/chatbot/chat/"
	PathCreateDiagnosis   = "/chatbot/create-ai-diagnosis/"
	PathPredict           = "/symptom-checker/predict/"
	PathPets              = "/pets/"
)

// StartConversationWithPet creates a backend conversation about a pet.
func (c *Client) StartConversationWithPet(ctx context.Context, petID int64, mode pettypes.ChatMode) (*ConversationStart, error) {
	var out ConversationStart
	req := StartConversationRequest{PetID: petID, ChatMode: mode.OrDefault()}
	if err := c.do(ctx, http.MethodPost, PathStartConversation, req, &out); err != nil {
		return nil, err
	}
	if out.ConversationID == "" {
		return nil, fmt.Errorf("start conversation: response has no conversation_id")
	}
	return &out, nil
}

// ListConversations returns the user's conversations, most recent first as sent by the backend.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationRecord, error) {
	var out ConversationList
	if err := c.do(ctx, http.MethodGet, PathConversations, nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// GetConversation fetches the full history of one conversation.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationHistory, error) {
	if id == "" {
		return nil, fmt.Errorf("conversation id is required")
	}
	var out ConversationHistory
	if err := c.do(ctx, http.MethodGet, PathConversations+url.PathEscape(id)+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends one free-text message and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	var out ChatReply
	if err := c.do(ctx, http.MethodPost, PathChat, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predict runs the symptom checker. A response with success=false is
// reported as ErrPredictionFailed.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (pettypes.AssessmentResult, error) {
	var raw []byte
	if err := c.do(ctx, http.MethodPost, PathPredict, req, &raw); err != nil {
		return nil, err
	}
	if !gjson.GetBytes(raw, "success").Bool() {
		if msg := errorMessage(raw); msg != "" {
			return nil, fmt.Errorf("%w: %s", ErrPredictionFailed, msg)
		}
		return nil, ErrPredictionFailed
	}
	result := pettypes.NewAssessmentResult(raw)
	if result.IsZero() {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrPredictionFailed)
	}
	return result, nil
}

// CreateAIDiagnosis records an assessment as a trackable diagnosis case.
func (c *Client) CreateAIDiagnosis(ctx context.Context, req DiagnosisRequest) (*DiagnosisCase, error) {
	var out DiagnosisCase
	if err := c.do(ctx, http.MethodPost, PathCreateDiagnosis, req, &out); err != nil {
		return nil, err
	}
	if out.CaseID == "" {
		return nil, fmt.Errorf("create diagnosis: response has no case_id")
	}
	return &out, nil
}

// ListPets returns the owner's pets. Both a bare array and a paginated
// {"results": [...]} body are accepted.
func (c *Client) ListPets(ctx context.Context) ([]pettypes.Pet, error) {
	var raw []byte
	if err := c.do(ctx, http.MethodGet, PathPets, nil, &raw); err != nil {
		return nil, err
	}

	payload := bytes.TrimSpace(raw)
	if len(payload) > 0 && payload[0] == '{' {
		payload = []byte(gjson.GetBytes(payload, "results").Raw)
	}

	var pets []pettypes.Pet
	if len(payload) == 0 {
		return pets, nil
	}
	if err := json.Unmarshal(payload, &pets); err != nil {
		return nil, fmt.Errorf("failed to decode pets: %w", err)
	}
	return pets, nil
}
