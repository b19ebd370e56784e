package render

import "fmt"

// PlainTextStyle renders text with an optional marker prefix and no escape codes.
type PlainTextStyle struct {
	prefix string
}

// NewPlainTextStyle creates a plain style with an optional prefix.
func NewPlainTextStyle(prefix string) *PlainTextStyle {
	return &PlainTextStyle{prefix: prefix}
}

// Render implements TextStyle.
func (p *PlainTextStyle) Render(strs ...string) string {
	text := joinSpaced(strs)
	if p.prefix != "" {
		return p.prefix + text
	}
	return text
}

// PlainStyleProvider is used when no theme is available or plain mode is forced.
// Semantics that would be told apart by colour get a text marker instead.
type PlainStyleProvider struct{}

// NewPlainStyleProvider creates a new plain style provider.
func NewPlainStyleProvider() *PlainStyleProvider {
	return &PlainStyleProvider{}
}

// GetStyle implements StyleProvider.
func (p *PlainStyleProvider) GetStyle(semantic SemanticType) TextStyle {
	switch semantic {
	case SemanticSuccess:
		return NewPlainTextStyle("✓ ")
	case SemanticWarning, SemanticUrgencyEmergency:
		return NewPlainTextStyle("⚠ ")
	case SemanticError:
		return NewPlainTextStyle("✗ ")
	case SemanticInfo:
		return NewPlainTextStyle("ℹ ")
	default:
		return NewPlainTextStyle("")
	}
}

// IsAvailable implements StyleProvider.
func (p *PlainStyleProvider) IsAvailable() bool {
	return true
}

// MarkdownStyle implements StyleProvider.
func (p *PlainStyleProvider) MarkdownStyle() string {
	return "notty"
}

func (p *PlainStyleProvider) String() string {
	return fmt.Sprintf("PlainStyleProvider{markdown: %s}", p.MarkdownStyle())
}

func joinSpaced(strs []string) string {
	switch len(strs) {
	case 0:
		return ""
	case 1:
		return strs[0]
	}
	out := strs[0]
	for _, s := range strs[1:] {
		out += " " + s
	}
	return out
}
