// Package render prints PawCheck conversations to the terminal.
// It uses dependency injection for styling so the same Printer produces
// coloured output in a terminal and plain, deterministic text in tests.
package render

// StyleProvider supplies styles for semantic output types.
// The printer depends only on this interface, never on a concrete theme.
type StyleProvider interface {
	// GetStyle returns a TextStyle for the given semantic type.
	GetStyle(semantic SemanticType) TextStyle

	// IsAvailable returns true if the provider can render styles.
	// The printer falls back to plain text otherwise.
	IsAvailable() bool

	// MarkdownStyle returns the glamour style name for assistant replies
	// ("auto", "dark", "light", "notty").
	MarkdownStyle() string
}

// TextStyle renders text with styling. lipgloss.Style implements it.
type TextStyle interface {
	Render(strs ...string) string
}

// Mode defines the output mode of a printer.
type Mode int

const (
	// ModeAuto styles output when a style provider is available
	ModeAuto Mode = iota

	// ModeStyled forces styled output
	ModeStyled

	// ModePlain forces plain text output
	ModePlain
)

// SemanticType names what a piece of output means so themes can style it consistently.
type SemanticType string

const (
	SemanticPlain   SemanticType = "plain"
	SemanticInfo    SemanticType = "info"
	SemanticSuccess SemanticType = "success"
	SemanticWarning SemanticType = "warning"
	SemanticError   SemanticType = "error"
	SemanticMuted   SemanticType = "muted"
	SemanticTitle   SemanticType = "title"

	// Message authors and variants.
	SemanticUser       SemanticType = "user"
	SemanticAssistant  SemanticType = "assistant"
	SemanticAssessment SemanticType = "assessment"

	// Urgency levels of an assessment.
	SemanticUrgencyLow       SemanticType = "urgency_low"
	SemanticUrgencyModerate  SemanticType = "urgency_moderate"
	SemanticUrgencyHigh      SemanticType = "urgency_high"
	SemanticUrgencyEmergency SemanticType = "urgency_emergency"
)
