package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the wrap width used when none is configured.
const DefaultWidth = 80

// MarkdownRenderer renders assistant replies, which the backend writes in markdown.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer for the given glamour style.
// Unknown styles fall back to auto detection.
func NewMarkdownRenderer(style string, width int) (*MarkdownRenderer, error) {
	if width <= 0 {
		width = DefaultWidth
	}

	var (
		renderer *glamour.TermRenderer
		err      error
	)
	if style != "" && style != "auto" {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithStylePath(style),
			glamour.WithWordWrap(width),
		)
	}
	if renderer == nil || err != nil {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
			glamour.WithEnvironmentConfig(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &MarkdownRenderer{renderer: renderer}, nil
}

// Render converts markdown to ANSI terminal output.
func (m *MarkdownRenderer) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}
	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.Trim(rendered, "\n"), nil
}
