// Package pettypes defines the shared types of the PawCheck conversation client.
// This file contains the enums that describe where a chat screen is in its lifecycle:
// the chat mode, the controller phase and the single visible overlay.
package pettypes

// ChatMode selects the prompt behavior for a conversation. It is chosen once per session.
type ChatMode string

const (
	// ChatModeUnset means no mode has been chosen yet.
	ChatModeUnset ChatMode = ""
	// ChatModeGeneral is free-form pet care chat.
	ChatModeGeneral ChatMode = "general"
	// ChatModeSymptomChecker runs the symptom questionnaire before chatting.
	ChatModeSymptomChecker ChatMode = "symptom_checker"
)

// Valid reports whether m is one of the selectable modes.
func (m ChatMode) Valid() bool {
	return m == ChatModeGeneral || m == ChatModeSymptomChecker
}

// OrDefault returns the mode, falling back to general when unset.
func (m ChatMode) OrDefault() ChatMode {
	if m == ChatModeUnset {
		return ChatModeGeneral
	}
	return m
}

// ParseChatMode maps user input such as "symptom" or "general" to a ChatMode.
func ParseChatMode(s string) (ChatMode, bool) {
	switch s {
	case "general", "chat", "care":
		return ChatModeGeneral, true
	case "symptom_checker", "symptom", "symptoms", "check":
		return ChatModeSymptomChecker, true
	default:
		return ChatModeUnset, false
	}
}

// Phase is the state of the conversation session controller.
type Phase int

const (
	// PhaseIdle - no mode chosen
	PhaseIdle Phase = iota
	// PhaseModeChosen - mode set, waiting for a pet
	PhaseModeChosen
	// PhasePetChosen - pet and conversation established
	PhasePetChosen
	// PhaseQuestionnaire - symptom questionnaire is open
	PhaseQuestionnaire
	// PhaseAnalyzing - prediction request in flight
	PhaseAnalyzing
	// PhaseAssessmentShown - latest prediction is displayed
	PhaseAssessmentShown
	// PhaseChatting - free text exchange
	PhaseChatting
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseModeChosen:
		return "ModeChosen"
	case PhasePetChosen:
		return "PetChosen"
	case PhaseQuestionnaire:
		return "Questionnaire"
	case PhaseAnalyzing:
		return "Analyzing"
	case PhaseAssessmentShown:
		return "AssessmentShown"
	case PhaseChatting:
		return "Chatting"
	default:
		return "Unknown"
	}
}

// Overlay is the one modal surface visible on top of the chat.
// Holding a single value makes it impossible for two overlays to be open at once.
type Overlay string

const (
	// OverlayNone - nothing on top of the chat
	OverlayNone Overlay = "none"
	// OverlayQuestionnaire - symptom questionnaire form
	OverlayQuestionnaire Overlay = "questionnaire"
	// OverlayLogger - symptom tracking logger opened from an assessment
	OverlayLogger Overlay = "logger"
	// OverlayPetSelector - pet picker that starts a conversation
	OverlayPetSelector Overlay = "petSelector"
	// OverlayLogoutConfirm - logout confirmation
	OverlayLogoutConfirm Overlay = "logoutConfirm"
)
