package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ThemeStyleProvider styles output with lipgloss. Colours adapt to light and
// dark terminals.
type ThemeStyleProvider struct {
	styles        map[SemanticType]lipgloss.Style
	markdownStyle string
}

// NewThemeStyleProvider creates the default theme. markdownStyle selects the
// glamour style for assistant replies; empty means "auto".
func NewThemeStyleProvider(markdownStyle string) *ThemeStyleProvider {
	if markdownStyle == "" {
		markdownStyle = "auto"
	}

	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	return &ThemeStyleProvider{
		markdownStyle: markdownStyle,
		styles: map[SemanticType]lipgloss.Style{
			SemanticPlain:   lipgloss.NewStyle(),
			SemanticInfo:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "39"}),
			SemanticSuccess: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "46"}),
			SemanticWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			SemanticError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			SemanticMuted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
			SemanticTitle:   lipgloss.NewStyle().Bold(true).Underline(true),

			SemanticUser:       badge.Background(lipgloss.Color("33")).Foreground(lipgloss.Color("15")),
			SemanticAssistant:  badge.Background(lipgloss.Color("99")).Foreground(lipgloss.Color("15")),
			SemanticAssessment: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("99")).Padding(0, 1),

			SemanticUrgencyLow:       lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
			SemanticUrgencyModerate:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
			SemanticUrgencyHigh:      lipgloss.NewStyle().Foreground(lipgloss.Color("202")).Bold(true),
			SemanticUrgencyEmergency: badge.Background(lipgloss.Color("196")).Foreground(lipgloss.Color("15")),
		},
	}
}

// GetStyle implements StyleProvider.
func (t *ThemeStyleProvider) GetStyle(semantic SemanticType) TextStyle {
	if style, ok := t.styles[semantic]; ok {
		return style
	}
	return t.styles[SemanticPlain]
}

// IsAvailable reports whether the terminal supports colour.
func (t *ThemeStyleProvider) IsAvailable() bool {
	return lipgloss.ColorProfile() != termenv.Ascii
}

// MarkdownStyle implements StyleProvider.
func (t *ThemeStyleProvider) MarkdownStyle() string {
	return t.markdownStyle
}
