package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"pawcheck/internal/session"
	"pawcheck/pkg/pettypes"
)

// Printer writes conversations and notices to a terminal or buffer.
// It is safe for concurrent use.
type Printer struct {
	styleProvider StyleProvider
	writer        io.Writer
	mode          Mode
	width         int
	forcePlain    bool
	testMode      bool
	silent        bool

	markdown     *MarkdownRenderer
	markdownInit bool

	mu sync.Mutex
}

// NewPrinter creates a Printer with the given options.
// By default it writes to os.Stdout with automatic mode detection.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{
		writer: os.Stdout,
		mode:   ModeAuto,
		width:  DefaultWidth,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Print outputs text without semantic styling.
func (p *Printer) Print(text string) {
	p.write(p.style(SemanticPlain, text))
}

// Println outputs a line without semantic styling.
func (p *Printer) Println(text string) {
	p.line(SemanticPlain, text)
}

// Info outputs an informational line.
func (p *Printer) Info(text string) {
	p.line(SemanticInfo, text)
}

// Success outputs a success line.
func (p *Printer) Success(text string) {
	p.line(SemanticSuccess, text)
}

// Warning outputs a warning line.
func (p *Printer) Warning(text string) {
	p.line(SemanticWarning, text)
}

// Error outputs an error line.
func (p *Printer) Error(text string) {
	p.line(SemanticError, text)
}

// Message prints one conversation turn.
func (p *Printer) Message(m pettypes.Message) {
	p.write(p.formatMessage(m))
}

// Assessment prints the assessment summary block.
func (p *Printer) Assessment(a pettypes.AssessmentResult) {
	if block := p.formatAssessment(a); block != "" {
		p.write(block + "\n")
	}
}

// Transcript prints a session header followed by every message.
func (p *Printer) Transcript(s *session.Session) {
	var b strings.Builder
	b.WriteString(p.formatHeader(s))
	for _, m := range s.Messages {
		b.WriteString(p.formatMessage(m))
	}
	p.write(b.String())
}

// Summaries prints the conversation history list.
func (p *Printer) Summaries(list []pettypes.ConversationSummary) {
	if len(list) == 0 {
		p.Info("No conversations yet.")
		return
	}
	var b strings.Builder
	for _, c := range list {
		mode := string(c.Mode)
		if mode == "" {
			mode = "-"
		}
		line := fmt.Sprintf("%-8s %-16s %s", c.ID, mode, p.truncate(c.Title, p.width-26))
		if !p.testMode && !c.UpdatedAt.IsZero() {
			line += "  " + p.style(SemanticMuted, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		b.WriteString(line + "\n")
	}
	p.write(b.String())
}

// Pets prints the pet selector list.
func (p *Printer) Pets(pets []pettypes.Pet) {
	if len(pets) == 0 {
		p.Info("No pets found. Add a pet in the PawCheck app first.")
		return
	}
	var b strings.Builder
	for _, pet := range pets {
		details := strings.TrimSpace(strings.Join(nonEmpty(pet.Species, pet.Breed, string(pet.Age)), ", "))
		line := fmt.Sprintf("%-6d %s", pet.ID, pet.Name)
		if details != "" {
			line += " " + p.style(SemanticMuted, "("+details+")")
		}
		b.WriteString(line + "\n")
	}
	p.write(b.String())
}

func (p *Printer) formatHeader(s *session.Session) string {
	title := s.ConversationTitle
	if title == "" {
		title = pettypes.DefaultConversationTitle
	}
	var b strings.Builder
	b.WriteString(p.style(SemanticTitle, p.truncate(title, p.width)) + "\n")

	var meta []string
	if s.Mode != pettypes.ChatModeUnset {
		meta = append(meta, "mode: "+string(s.Mode))
	}
	if s.PetContext != nil {
		meta = append(meta, "pet: "+s.PetContext.Name)
	}
	if id := s.ConversationIDString(); id != "" {
		meta = append(meta, "id: "+id)
	}
	if len(meta) > 0 {
		b.WriteString(p.style(SemanticMuted, strings.Join(meta, " | ")) + "\n")
	}
	return b.String()
}

func (p *Printer) formatMessage(m pettypes.Message) string {
	var b strings.Builder

	author := "Assistant"
	badge := SemanticAssistant
	if m.Author == pettypes.AuthorUser {
		author = "You"
		badge = SemanticUser
	}
	header := p.style(badge, author)
	if !p.testMode && !m.Timestamp.IsZero() {
		header += " " + p.style(SemanticMuted, m.Timestamp.Local().Format("15:04"))
	}
	b.WriteString(header + "\n")

	content := m.Content
	if !p.isStyled() {
		content = ansi.Strip(content)
	}

	switch {
	case m.IsAnalyzing:
		b.WriteString(p.style(SemanticMuted, "… "+content) + "\n")
	case m.IsError:
		b.WriteString(p.style(SemanticError, content) + "\n")
	case m.IsAssessment && !m.Assessment.IsZero():
		b.WriteString(p.formatAssessment(m.Assessment) + "\n")
	case m.Author == pettypes.AuthorAssistant:
		b.WriteString(p.renderMarkdown(content) + "\n")
	default:
		b.WriteString(content + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (p *Printer) formatAssessment(a pettypes.AssessmentResult) string {
	lines := assessmentLines(a)
	if len(lines) == 0 {
		return ""
	}
	if !p.isStyled() {
		return AssessmentText(a)
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, p.style(l.semantic, l.text))
	}
	return p.style(SemanticAssessment, strings.Join(out, "\n"))
}

// renderMarkdown renders assistant content, falling back to the raw text.
func (p *Printer) renderMarkdown(content string) string {
	if !p.isStyled() {
		return content
	}
	p.mu.Lock()
	if !p.markdownInit {
		p.markdownInit = true
		if r, err := NewMarkdownRenderer(p.styleProvider.MarkdownStyle(), p.width); err == nil {
			p.markdown = r
		}
	}
	renderer := p.markdown
	p.mu.Unlock()

	if renderer == nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil || strings.TrimSpace(rendered) == "" {
		return content
	}
	return rendered
}

func (p *Printer) line(semantic SemanticType, text string) {
	out := p.style(semantic, text)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	p.write(out)
}

func (p *Printer) style(semantic SemanticType, text string) string {
	if p.isStyled() {
		return p.styleProvider.GetStyle(semantic).Render(text)
	}
	return NewPlainStyleProvider().GetStyle(semantic).Render(text)
}

func (p *Printer) isStyled() bool {
	if p.forcePlain || p.mode == ModePlain {
		return false
	}
	return p.styleProvider != nil && p.styleProvider.IsAvailable()
}

// truncate shortens text to width cells, keeping escape sequences intact.
func (p *Printer) truncate(text string, width int) string {
	if width <= 1 || ansi.StringWidth(text) <= width {
		return text
	}
	return ansi.Truncate(text, width, "…")
}

func (p *Printer) write(text string) {
	if p.silent || text == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprint(p.writer, text) // write errors are not actionable for terminal output
}

// SetWriter changes the output writer.
func (p *Printer) SetWriter(writer io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = writer
}

// IsStylable returns true if the printer applies styles.
func (p *Printer) IsStylable() bool {
	return p.isStyled()
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
