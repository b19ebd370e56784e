package testutils

import (
	"context"
	"errors"
	"sync"

	"pawcheck/internal/backend"
	"pawcheck/pkg/pettypes"
)

// ErrNotStubbed is returned by FakeBackend endpoints without a stub.
var ErrNotStubbed = errors.New("fake backend: endpoint not stubbed")

// FakeBackend records controller traffic and answers with per-endpoint stubs.
type FakeBackend struct {
	StartFn     func(ctx context.Context, petID int64, mode pettypes.ChatMode) (*backend.ConversationStart, error)
	HistoryFn   func(ctx context.Context, id string) (*backend.ConversationHistory, error)
	ChatFn      func(ctx context.Context, req backend.ChatRequest) (*backend.ChatReply, error)
	PredictFn   func(ctx context.Context, req backend.PredictRequest) (pettypes.AssessmentResult, error)
	DiagnosisFn func(ctx context.Context, req backend.DiagnosisRequest) (*backend.DiagnosisCase, error)

	mu                sync.Mutex
	calls             map[string]int
	ChatRequests      []backend.ChatRequest
	PredictRequests   []backend.PredictRequest
	DiagnosisRequests []backend.DiagnosisRequest
}

// NewFakeBackend creates a fake with no stubs.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{calls: make(map[string]int)}
}

// Calls returns how often an endpoint was hit.
// Names: "start", "history", "chat", "predict", "diagnosis".
func (f *FakeBackend) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// LastPredictRequest returns the most recent prediction body.
func (f *FakeBackend) LastPredictRequest() backend.PredictRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.PredictRequests) == 0 {
		return nil
	}
	return f.PredictRequests[len(f.PredictRequests)-1]
}

// LastChatRequest returns the most recent chat body.
func (f *FakeBackend) LastChatRequest() backend.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ChatRequests) == 0 {
		return backend.ChatRequest{}
	}
	return f.ChatRequests[len(f.ChatRequests)-1]
}

func (f *FakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

// StartConversationWithPet implements controller.Backend.
func (f *FakeBackend) StartConversationWithPet(ctx context.Context, petID int64, mode pettypes.ChatMode) (*backend.ConversationStart, error) {
	f.record("start")
	if f.StartFn == nil {
		return nil, ErrNotStubbed
	}
	return f.StartFn(ctx, petID, mode)
}

// GetConversation implements controller.Backend.
func (f *FakeBackend) GetConversation(ctx context.Context, id string) (*backend.ConversationHistory, error) {
	f.record("history")
	if f.HistoryFn == nil {
		return nil, ErrNotStubbed
	}
	return f.HistoryFn(ctx, id)
}

// Chat implements controller.Backend.
func (f *FakeBackend) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatReply, error) {
	f.record("chat")
	f.mu.Lock()
	f.ChatRequests = append(f.ChatRequests, req)
	f.mu.Unlock()
	if f.ChatFn == nil {
		return nil, ErrNotStubbed
	}
	return f.ChatFn(ctx, req)
}

// Predict implements controller.Backend.
func (f *FakeBackend) Predict(ctx context.Context, req backend.PredictRequest) (pettypes.AssessmentResult, error) {
	f.record("predict")
	f.mu.Lock()
	f.PredictRequests = append(f.PredictRequests, req)
	f.mu.Unlock()
	if f.PredictFn == nil {
		return nil, ErrNotStubbed
	}
	return f.PredictFn(ctx, req)
}

// CreateAIDiagnosis implements controller.Backend.
func (f *FakeBackend) CreateAIDiagnosis(ctx context.Context, req backend.DiagnosisRequest) (*backend.DiagnosisCase, error) {
	f.record("diagnosis")
	f.mu.Lock()
	f.DiagnosisRequests = append(f.DiagnosisRequests, req)
	f.mu.Unlock()
	if f.DiagnosisFn == nil {
		return nil, ErrNotStubbed
	}
	return f.DiagnosisFn(ctx, req)
}
