package controller

import (
	"context"
	"fmt"
	"strings"

	"pawcheck/internal/backend"
	"pawcheck/internal/hydration"
	"pawcheck/internal/session"
	"pawcheck/pkg/pettypes"
)

// SelectMode chooses the chat mode and opens the pet selector.
// It is a no-op once a mode has been chosen for the session. A session that
// started chatting without a mode or a pet can still choose one.
func (c *Controller) SelectMode(mode pettypes.ChatMode) {
	if !mode.Valid() {
		c.logger.Debug("Ignoring invalid chat mode", "mode", string(mode))
		return
	}
	c.store.Update(func(s *session.Session) {
		if s.Mode != pettypes.ChatModeUnset {
			c.logger.Debug("Mode already chosen", "mode", string(s.Mode), "phase", s.Phase.String())
			return
		}
		if !CanSelectMode(s) {
			c.logger.Debug("Mode selection not available", "phase", s.Phase.String(), "overlay", string(s.Overlay))
			return
		}
		s.Mode = mode
		s.Overlay = pettypes.OverlayPetSelector
		c.transition("SelectMode", s.Phase, pettypes.PhaseModeChosen, "mode", string(mode))
		s.Phase = pettypes.PhaseModeChosen
	})
}

// ChoosePet starts a backend conversation about petID and hands the result to PetSelected.
// On failure the pet selector stays open and an error message is appended.
func (c *Controller) ChoosePet(ctx context.Context, petID int64) {
	var (
		mode pettypes.ChatMode
		gen  uint64
	)
	c.store.Update(func(s *session.Session) {
		mode = s.Mode
		gen = s.Generation
	})

	start, err := c.backend.StartConversationWithPet(ctx, petID, mode)
	if backend.IsUnauthorized(err) {
		c.escalate("ChoosePet", gen, err)
		return
	}
	if err != nil {
		c.logger.Error("Failed to start conversation", "pet_id", petID, "error", err)
		if !c.store.UpdateIf(gen, func(s *session.Session) {
			s.Append(c.errorMessage(PetStartFailedText, ""))
		}) {
			c.discardStale("ChoosePet", gen)
		}
		return
	}

	if !c.store.UpdateIf(gen, func(s *session.Session) { c.applyPetSelected(s, start) }) {
		c.discardStale("ChoosePet", gen)
	}
}

// PetSelected establishes the pet and conversation returned by the pet selector.
//
// The questionnaire opens only when the current mode is symptom_checker. A
// pet context alone never opens it, so a general session cannot inherit a
// questionnaire from an earlier symptom check.
func (c *Controller) PetSelected(start *backend.ConversationStart) {
	if start == nil {
		return
	}
	c.store.Update(func(s *session.Session) { c.applyPetSelected(s, start) })
}

// CanSelectMode reports whether SelectMode would open the pet selector for s.
func CanSelectMode(s *session.Session) bool {
	if s.Mode != pettypes.ChatModeUnset || s.PetContext != nil || s.Overlay != pettypes.OverlayNone || s.IsSending {
		return false
	}
	return s.Phase == pettypes.PhaseIdle || s.Phase == pettypes.PhaseChatting
}

func (c *Controller) applyPetSelected(s *session.Session, start *backend.ConversationStart) {
	if s.Phase != pettypes.PhaseIdle && s.Phase != pettypes.PhaseModeChosen {
		c.logger.Debug("Ignoring pet selection outside mode selection", "phase", s.Phase.String())
		return
	}
	if s.Mode == pettypes.ChatModeUnset {
		s.Mode = pettypes.ChatModeGeneral
	}

	s.SetConversationID(string(start.ConversationID))
	s.PetContext = nil
	if start.PetContext != nil {
		pet := *start.PetContext
		s.PetContext = &pet
	}
	s.Assessment = nil

	greeting := strings.TrimSpace(start.InitialMessage)
	if greeting == "" {
		name := "your pet"
		if s.PetContext != nil && s.PetContext.Name != "" {
			name = s.PetContext.Name
		}
		greeting = fmt.Sprintf(DefaultGreetingFormat, name)
	}
	s.Messages = []pettypes.Message{c.message(pettypes.AuthorAssistant, greeting)}

	c.transition("PetSelected", s.Phase, pettypes.PhasePetChosen, "conversation_id", s.ConversationIDString())
	s.Phase = pettypes.PhasePetChosen

	if s.Mode == pettypes.ChatModeSymptomChecker {
		s.Overlay = pettypes.OverlayQuestionnaire
		c.transition("PetSelected", s.Phase, pettypes.PhaseQuestionnaire)
		s.Phase = pettypes.PhaseQuestionnaire
		return
	}
	s.Overlay = pettypes.OverlayNone
	c.transition("PetSelected", s.Phase, pettypes.PhaseChatting)
	s.Phase = pettypes.PhaseChatting
}

// SubmitQuestionnaire sends the questionnaire to the symptom checker.
//
// While the prediction is in flight the conversation holds exactly one
// analyzing placeholder. Success replaces it with the assessment message;
// failure removes it and appends an error message.
func (c *Controller) SubmitQuestionnaire(ctx context.Context, answers pettypes.QuestionnaireAnswers) {
	var (
		req           backend.PredictRequest
		gen           uint64
		placeholderID string
		issued        bool
	)

	c.store.Update(func(s *session.Session) {
		if s.Phase != pettypes.PhaseQuestionnaire {
			c.logger.Debug("Questionnaire not open", "phase", s.Phase.String())
			return
		}
		if s.PetContext == nil {
			s.Overlay = pettypes.OverlayNone
			s.Append(c.errorMessage(NeedPetText, ""))
			c.transition("SubmitQuestionnaire", s.Phase, pettypes.PhaseChatting, "reason", "no pet")
			s.Phase = pettypes.PhaseChatting
			return
		}

		prior := s.LastUserMessages(hydration.UserNotesWindow)
		built, err := hydration.BuildPredictRequest(answers, s.PetContext, prior)
		if err != nil {
			c.logger.Error("Failed to build prediction request", "error", err)
			s.Overlay = pettypes.OverlayNone
			s.Append(c.errorMessage(PredictionFailedText, ""))
			c.transition("SubmitQuestionnaire", s.Phase, pettypes.PhaseChatting)
			s.Phase = pettypes.PhaseChatting
			return
		}
		if answers.PetName == "" {
			answers.PetName = s.PetContext.Name
		}

		s.Overlay = pettypes.OverlayNone
		s.Append(c.message(pettypes.AuthorUser, hydration.SubmissionSummary(answers)))

		placeholder := c.message(pettypes.AuthorAssistant, AnalyzingText)
		placeholder.IsAnalyzing = true
		placeholderID = placeholder.ID
		s.Append(placeholder)

		s.IsAnalyzing = true
		c.transition("SubmitQuestionnaire", s.Phase, pettypes.PhaseAnalyzing)
		s.Phase = pettypes.PhaseAnalyzing

		req = built
		gen = s.Generation
		issued = true
	})
	if !issued {
		return
	}

	result, err := c.backend.Predict(ctx, req)
	if backend.IsUnauthorized(err) {
		c.escalate("SubmitQuestionnaire", gen, err)
		return
	}

	applied := c.store.UpdateIf(gen, func(s *session.Session) {
		s.IsAnalyzing = false
		if err != nil {
			c.logger.Error("Prediction failed", "error", err)
			s.RemoveMessage(placeholderID)
			s.Append(c.errorMessage(PredictionFailedText, ""))
			if s.Phase == pettypes.PhaseAnalyzing {
				c.transition("SubmitQuestionnaire", s.Phase, pettypes.PhaseChatting)
				s.Phase = pettypes.PhaseChatting
			}
			return
		}

		assessment := c.message(pettypes.AuthorAssistant, hydration.AssessmentHeadline(result))
		assessment.IsAssessment = true
		assessment.Assessment = result.Clone()
		if !s.ReplaceMessage(placeholderID, assessment) {
			s.Append(assessment)
		}
		s.Assessment = result.Clone()
		c.transition("SubmitQuestionnaire", s.Phase, pettypes.PhaseAssessmentShown, "urgency", result.Urgency())
		s.Phase = pettypes.PhaseAssessmentShown
	})
	if !applied {
		c.discardStale("SubmitQuestionnaire", gen)
	}
}

// StartNewAssessment clears the current assessment and reopens the questionnaire.
// Calling it while the questionnaire is already open changes nothing.
func (c *Controller) StartNewAssessment() {
	c.store.Update(func(s *session.Session) {
		if s.Phase == pettypes.PhaseQuestionnaire {
			return
		}
		if s.Phase != pettypes.PhaseAssessmentShown && s.Phase != pettypes.PhaseChatting {
			c.logger.Debug("New assessment not available", "phase", s.Phase.String())
			return
		}
		if s.PetContext == nil {
			s.Append(c.errorMessage(NeedPetText, ""))
			return
		}
		s.Assessment = nil
		s.Overlay = pettypes.OverlayQuestionnaire
		c.transition("StartNewAssessment", s.Phase, pettypes.PhaseQuestionnaire)
		s.Phase = pettypes.PhaseQuestionnaire
	})
}

// DismissOverlay closes whatever overlay is open.
// A dismissed questionnaire returns to chatting. A dismissed pet selector
// clears the mode and returns to Idle, or to Chatting when the session
// already holds messages.
func (c *Controller) DismissOverlay() {
	c.store.Update(func(s *session.Session) {
		switch s.Overlay {
		case pettypes.OverlayQuestionnaire:
			if s.Phase == pettypes.PhaseQuestionnaire {
				c.transition("DismissOverlay", s.Phase, pettypes.PhaseChatting)
				s.Phase = pettypes.PhaseChatting
			}
		case pettypes.OverlayPetSelector:
			if s.Phase == pettypes.PhaseModeChosen {
				next := pettypes.PhaseIdle
				if len(s.Messages) > 0 {
					next = pettypes.PhaseChatting
				}
				c.transition("DismissOverlay", s.Phase, next)
				s.Phase = next
				s.Mode = pettypes.ChatModeUnset
			}
		}
		s.Overlay = pettypes.OverlayNone
	})
}

// SendMessage sends free text to the assistant.
//
// Empty input and sends issued while another is in flight are ignored. The
// user message is appended before the request and is never retracted; a
// failure is recorded as an error message paired with it.
func (c *Controller) SendMessage(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	var (
		req    backend.ChatRequest
		gen    uint64
		userID string
		issued bool
	)
	c.store.Update(func(s *session.Session) {
		if s.IsSending {
			c.logger.Debug("Send already in flight, ignoring message")
			return
		}
		if s.Overlay == pettypes.OverlayQuestionnaire || s.Overlay == pettypes.OverlayPetSelector {
			c.logger.Debug("Input blocked by overlay", "overlay", string(s.Overlay))
			return
		}

		user := c.message(pettypes.AuthorUser, text)
		userID = user.ID
		s.Append(user)
		s.IsSending = true
		if s.Phase != pettypes.PhaseAnalyzing {
			c.transition("SendMessage", s.Phase, pettypes.PhaseChatting)
			s.Phase = pettypes.PhaseChatting
		}

		req = hydration.BuildChatRequest(s, text)
		gen = s.Generation
		issued = true
	})
	if !issued {
		return
	}

	reply, err := c.backend.Chat(ctx, req)
	if backend.IsUnauthorized(err) {
		c.escalate("SendMessage", gen, err)
		return
	}

	applied := c.store.UpdateIf(gen, func(s *session.Session) {
		s.IsSending = false
		if err != nil {
			c.logger.Error("Chat request failed", "error", err)
			s.Append(c.errorMessage(SendFailedText, userID))
			return
		}
		s.Append(c.message(pettypes.AuthorAssistant, reply.Response))
		if id := string(reply.ConversationID); id != "" && id != s.ConversationIDString() {
			c.logger.Debug("Conversation assigned", "conversation_id", id)
			s.SetConversationID(id)
		}
		if reply.ConversationTitle != "" {
			s.ConversationTitle = reply.ConversationTitle
		}
	})
	if !applied {
		c.discardStale("SendMessage", gen)
	}
}

// LoadConversation replaces the session with a conversation from history.
// A failed fetch leaves an empty chatting session. It reports whether the
// conversation was installed.
func (c *Controller) LoadConversation(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	gen := c.store.Generation()

	history, err := c.backend.GetConversation(ctx, id)
	if backend.IsUnauthorized(err) {
		c.escalate("LoadConversation", gen, err)
		return false
	}

	var next *session.Session
	if err != nil {
		c.logger.Error("Failed to load conversation", "conversation_id", id, "error", err)
		next = session.New()
		next.Phase = pettypes.PhaseChatting
	} else {
		next = hydration.SessionFromHistory(id, history)
	}

	newGen, ok := c.store.ReplaceIf(gen, next)
	if !ok {
		c.discardStale("LoadConversation", gen)
		return false
	}
	c.logger.Debug("Conversation loaded", "conversation_id", next.ConversationIDString(), "phase", next.Phase.String(),
		"messages", len(next.Messages), "generation", newGen)
	return err == nil
}

// CreateNewConversation discards the session and starts over at Idle.
// Nothing from the previous session survives: pet, assessment, messages
// and overlays are all cleared.
func (c *Controller) CreateNewConversation() {
	gen := c.store.Replace(session.New())
	c.logger.Debug("New conversation", "generation", gen)
}

// StartTracking hands the shown assessment to the symptom logger.
// A case is created on the backend when the assessment has none yet.
// It reports false when there is nothing to track or the case could not be created.
func (c *Controller) StartTracking(ctx context.Context) (pettypes.TrackingHandoff, bool) {
	var (
		handoff pettypes.TrackingHandoff
		req     backend.DiagnosisRequest
		gen     uint64
		ready   bool
		needed  bool
	)
	c.store.Update(func(s *session.Session) {
		if s.Phase != pettypes.PhaseAssessmentShown || s.Assessment.IsZero() {
			c.logger.Debug("No assessment to track", "phase", s.Phase.String())
			return
		}
		handoff = hydration.Handoff(s.Assessment, s.PetContext)
		if handoff.CaseID != "" {
			s.Overlay = pettypes.OverlayLogger
			ready = true
			return
		}
		req = hydration.BuildDiagnosisRequest(s, handoff)
		gen = s.Generation
		needed = true
	})
	if ready || !needed {
		return handoff, ready
	}

	created, err := c.backend.CreateAIDiagnosis(ctx, req)
	if backend.IsUnauthorized(err) {
		c.escalate("StartTracking", gen, err)
		return pettypes.TrackingHandoff{}, false
	}

	ok := false
	applied := c.store.UpdateIf(gen, func(s *session.Session) {
		if err != nil {
			c.logger.Error("Failed to create diagnosis case", "error", err)
			s.Append(c.errorMessage(TrackingFailedText, ""))
			return
		}
		handoff.CaseID = string(created.CaseID)
		if patched, perr := s.Assessment.WithCaseID(handoff.CaseID); perr == nil {
			s.Assessment = patched
		} else {
			c.logger.Warn("Failed to record case id on assessment", "error", perr)
		}
		s.Overlay = pettypes.OverlayLogger
		ok = true
	})
	if !applied {
		c.discardStale("StartTracking", gen)
		return pettypes.TrackingHandoff{}, false
	}
	return handoff, ok
}

// RequestLogout opens the logout confirmation when no other overlay is open.
func (c *Controller) RequestLogout() {
	c.store.Update(func(s *session.Session) {
		if s.Overlay != pettypes.OverlayNone {
			c.logger.Debug("Logout confirmation blocked by overlay", "overlay", string(s.Overlay))
			return
		}
		s.Overlay = pettypes.OverlayLogoutConfirm
	})
}

// CancelLogout closes the logout confirmation.
func (c *Controller) CancelLogout() {
	c.store.Update(func(s *session.Session) {
		if s.Overlay == pettypes.OverlayLogoutConfirm {
			s.Overlay = pettypes.OverlayNone
		}
	})
}

// ConfirmLogout logs out when the confirmation is open.
func (c *Controller) ConfirmLogout() {
	confirmed := false
	c.store.Update(func(s *session.Session) {
		confirmed = s.Overlay == pettypes.OverlayLogoutConfirm
	})
	if !confirmed {
		return
	}
	c.store.Replace(session.New())
	c.auth.Logout(nil)
}
