// Package shell provides the interactive PawCheck chat shell.
// Free text is sent to the assistant; lines starting with a backslash are
// commands. Overlays such as the pet selector and the symptom questionnaire
// are driven by line prompts.
package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"pawcheck/internal/backend"
	"pawcheck/internal/controller"
	"pawcheck/internal/hydration"
	"pawcheck/internal/logger"
	"pawcheck/internal/render"
	"pawcheck/internal/version"
	"pawcheck/pkg/pettypes"
)

// LineReader reads one line of user input for an overlay prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Catalog lists what the pet selector and history screens show.
type Catalog interface {
	ListPets(ctx context.Context) ([]pettypes.Pet, error)
	ListConversations(ctx context.Context) ([]backend.ConversationRecord, error)
}

// Shell connects terminal input to a controller and prints the conversation as it changes.
type Shell struct {
	ctrl      *controller.Controller
	catalog   Catalog
	printer   *render.Printer
	clipboard func(text string) error
	logger    *log.Logger

	mu            sync.Mutex
	pets          []pettypes.Pet
	conversations []pettypes.ConversationSummary

	generation uint64
	printed    map[string]bool
	stopped    bool
}

// Option configures a Shell.
type Option func(*Shell)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(text string) error) Option {
	return func(s *Shell) {
		if write != nil {
			s.clipboard = write
		}
	}
}

// New creates a shell around ctrl.
func New(ctrl *controller.Controller, catalog Catalog, printer *render.Printer, opts ...Option) *Shell {
	s := &Shell{
		ctrl:      ctrl,
		catalog:   catalog,
		printer:   printer,
		clipboard: writeClipboard,
		logger:    logger.NewStyledLogger("Shell"),
		printed:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preload fetches the pet list and the conversation history concurrently.
func (s *Shell) Preload(ctx context.Context) error {
	var (
		pets    []pettypes.Pet
		records []backend.ConversationRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pets, err = s.catalog.ListPets(gctx)
		if err != nil {
			return fmt.Errorf("failed to load pets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.catalog.ListConversations(gctx)
		if err != nil {
			return fmt.Errorf("failed to load conversations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.pets = pets
	s.conversations = hydration.Summaries(records)
	s.mu.Unlock()

	s.logger.Debug("Preloaded catalog", "pets", len(pets), "conversations", len(records))
	return nil
}

// CheckCompatibility warns when the backend requires a newer client.
// It only has something to check once a request has been answered.
func (s *Shell) CheckCompatibility(minVersion string) {
	ok, err := version.IsCompatible(minVersion)
	if err != nil {
		s.logger.Warn("Backend advertised an invalid minimum client version", "min_version", minVersion, "error", err)
		return
	}
	if !ok {
		s.printer.Warning(fmt.Sprintf("This backend requires PawCheck %s or newer (you have %s). Some features may not work.",
			minVersion, version.GetBaseVersion()))
	}
}

// Logout implements controller.AuthEscalator. It ends the shell.
func (s *Shell) Logout(reason error) {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	if reason != nil {
		s.printer.Error("Your session has expired. Please log in again.")
		return
	}
	s.printer.Success("Logged out.")
}

// Stopped reports whether the shell should exit.
func (s *Shell) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Handle processes one line of input, then runs any overlay it opened and
// prints what changed.
func (s *Shell) Handle(ctx context.Context, line string, in LineReader) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if strings.HasPrefix(line, "\\") {
		name, args := splitCommand(line)
		cmd, ok := lookupCommand(name)
		if !ok {
			s.printer.Error(fmt.Sprintf("Unknown command \\%s", name))
			s.printer.Println("Type \\help for available commands")
			return
		}
		if err := cmd.run(ctx, s, args, in); err != nil {
			s.logger.Error("Command failed", "command", name, "error", err)
			s.printer.Error(err.Error())
		}
	} else {
		s.ctrl.SendMessage(ctx, line)
	}

	s.runOverlays(ctx, in)
	s.flush()
}

// runOverlays drives whichever overlay the controller has open until none needs input.
func (s *Shell) runOverlays(ctx context.Context, in LineReader) {
	for !s.Stopped() {
		s.flush()
		switch s.ctrl.Snapshot().Overlay {
		case pettypes.OverlayPetSelector:
			if !s.selectPet(ctx, in) {
				return
			}
		case pettypes.OverlayQuestionnaire:
			if !s.questionnaire(ctx, in) {
				return
			}
		case pettypes.OverlayLogoutConfirm:
			s.confirmLogout(in)
		default:
			return
		}
	}
}

// selectPet prompts for a pet id. It reports whether the overlay was handled.
func (s *Shell) selectPet(ctx context.Context, in LineReader) bool {
	s.printer.Println("Choose a pet:")
	s.printer.Pets(s.knownPets())

	answer, err := in.ReadLine("Pet id (empty to cancel): ")
	if err != nil {
		s.ctrl.DismissOverlay()
		return false
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		s.ctrl.DismissOverlay()
		return true
	}

	id, err := parsePetID(answer)
	if err != nil {
		s.printer.Error(err.Error())
		return true
	}
	s.ctrl.ChoosePet(ctx, id)
	return true
}

// questionnaire collects the symptom form. It reports whether the overlay was handled.
func (s *Shell) questionnaire(ctx context.Context, in LineReader) bool {
	snap := s.ctrl.Snapshot()
	petName := "your pet"
	if snap.PetContext != nil && snap.PetContext.Name != "" {
		petName = snap.PetContext.Name
	}
	s.printer.Info(fmt.Sprintf("Symptom check for %s. Leave symptoms empty to cancel.", petName))

	answers, ok, err := readQuestionnaire(in)
	if err != nil || !ok {
		s.ctrl.DismissOverlay()
		return err == nil
	}
	if snap.PetContext != nil {
		answers.PetName = snap.PetContext.Name
	}

	s.printer.Info(controller.AnalyzingText)
	s.ctrl.SubmitQuestionnaire(ctx, answers)
	return true
}

func (s *Shell) confirmLogout(in LineReader) {
	answer, err := in.ReadLine("Log out? (y/N): ")
	if err == nil && isYes(answer) {
		s.ctrl.ConfirmLogout()
		return
	}
	s.ctrl.CancelLogout()
}

// flush prints messages that have not been shown yet. A replaced session is
// introduced with its header.
func (s *Shell) flush() {
	snap := s.ctrl.Snapshot()

	s.mu.Lock()
	replaced := snap.Generation != s.generation
	if replaced {
		s.generation = snap.Generation
		s.printed = make(map[string]bool)
	}
	var fresh []pettypes.Message
	for _, m := range snap.Messages {
		if !s.printed[m.ID] {
			s.printed[m.ID] = true
			fresh = append(fresh, m)
		}
	}
	s.mu.Unlock()

	if replaced && len(snap.Messages) > 0 {
		header := *snap
		header.Messages = nil
		s.printer.Transcript(&header)
	}
	for _, m := range fresh {
		s.printer.Message(m)
	}
}

func (s *Shell) knownPets() []pettypes.Pet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pettypes.Pet(nil), s.pets...)
}

func (s *Shell) knownConversations() []pettypes.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pettypes.ConversationSummary(nil), s.conversations...)
}

// PetIDs returns the ids of the loaded pets, for completion.
func (s *Shell) PetIDs() []string {
	var ids []string
	for _, p := range s.knownPets() {
		ids = append(ids, fmt.Sprintf("%d", p.ID))
	}
	return ids
}

// ConversationIDs returns the ids of the loaded conversations, for completion.
func (s *Shell) ConversationIDs() []string {
	var ids []string
	for _, c := range s.knownConversations() {
		ids = append(ids, c.ID)
	}
	return ids
}
