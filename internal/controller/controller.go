// Package controller implements the conversation session controller: the state
// machine behind one chat screen. It coordinates pet selection, the symptom
// questionnaire, prediction, assessment display and follow-up chat.
//
// Every handler fails soft. Network errors become assistant messages or a
// session reset; only a 401 leaves the controller, through the AuthEscalator.
package controller

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"pawcheck/internal/backend"
	"pawcheck/internal/logger"
	"pawcheck/internal/session"
	"pawcheck/pkg/pettypes"
)

// Assistant-authored notices appended by the controller.
const (
	AnalyzingText         = "Analyzing symptoms..."
	SendFailedText        = "Sorry, I couldn't get a response right now. Please try sending your message again."
	PredictionFailedText  = "Sorry, I couldn't complete the symptom assessment. Start a new assessment to try again."
	PetStartFailedText    = "Sorry, I couldn't start a conversation about that pet. Please try again."
	NeedPetText           = "Please choose a pet before starting a symptom check."
	TrackingFailedText    = "Sorry, I couldn't start tracking this assessment. Please try again."
	DefaultGreetingFormat = "Hi! How can I help %s today?"
)

// Backend is the slice of the REST client the controller depends on.
type Backend interface {
	StartConversationWithPet(ctx context.Context, petID int64, mode pettypes.ChatMode) (*backend.ConversationStart, error)
	GetConversation(ctx context.Context, id string) (*backend.ConversationHistory, error)
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatReply, error)
	Predict(ctx context.Context, req backend.PredictRequest) (pettypes.AssessmentResult, error)
	CreateAIDiagnosis(ctx context.Context, req backend.DiagnosisRequest) (*backend.DiagnosisCase, error)
}

// AuthEscalator ends the user's session. reason is the 401 error, or nil for a
// logout the user confirmed.
type AuthEscalator interface {
	Logout(reason error)
}

// AuthEscalatorFunc adapts a function to AuthEscalator.
type AuthEscalatorFunc func(reason error)

// Logout calls f(reason).
func (f AuthEscalatorFunc) Logout(reason error) { f(reason) }

// Controller owns the session of one chat screen. It is the only writer of
// that session; renderers read it through Snapshot.
type Controller struct {
	backend Backend
	store   *session.Store
	auth    AuthEscalator
	newID   func() string
	now     func() time.Time
	logger  *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithAuthEscalator sets who handles logouts.
func WithAuthEscalator(a AuthEscalator) Option {
	return func(c *Controller) {
		if a != nil {
			c.auth = a
		}
	}
}

// WithIDGenerator sets the message ID source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithClock sets the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) {
		if fn != nil {
			c.now = fn
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller holding an empty Idle session.
func New(b Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		store:   session.NewStore(),
		auth:    AuthEscalatorFunc(func(error) {}),
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  logger.NewStyledLogger("Controller"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() *session.Session {
	return c.store.Snapshot()
}

func (c *Controller) message(author pettypes.Author, content string) pettypes.Message {
	return pettypes.Message{
		ID:        c.newID(),
		Content:   content,
		Author:    author,
		Timestamp: c.now(),
	}
}

func (c *Controller) errorMessage(content, pairedWith string) pettypes.Message {
	m := c.message(pettypes.AuthorAssistant, content)
	m.IsError = true
	m.PairedWith = pairedWith
	return m
}

func (c *Controller) transition(handler string, from, to pettypes.Phase, keyvals ...interface{}) {
	if from == to {
		return
	}
	args := append([]interface{}{"handler", handler, "from", from.String(), "to", to.String()}, keyvals...)
	c.logger.Debug("Transition", args...)
}

// escalate hands a 401 to the AuthEscalator and drops the session. A 401
// answering a session that has since been replaced is discarded like any
// other stale result.
func (c *Controller) escalate(handler string, gen uint64, err error) {
	if _, ok := c.store.ReplaceIf(gen, session.New()); !ok {
		c.discardStale(handler, gen)
		return
	}
	c.logger.Warn("Authentication rejected, logging out", "handler", handler, "error", err)
	c.auth.Logout(err)
}

func (c *Controller) discardStale(handler string, gen uint64) {
	c.logger.Debug("Discarding result for replaced session", "handler", handler, "generation", gen, "current", c.store.Generation())
}
