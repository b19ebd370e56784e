package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pawcheck/internal/controller"
	"pawcheck/internal/hydration"
	"pawcheck/pkg/pettypes"
)

// command is one backslash command of the shell.
type command struct {
	name        string
	usage       string
	description string
	run         func(ctx context.Context, s *Shell, args []string, in LineReader) error
}

var commands = map[string]command{}

func register(cmd command) {
	commands[cmd.name] = cmd
}

func lookupCommand(name string) (command, bool) {
	cmd, ok := commands[name]
	return cmd, ok
}

// CommandNames returns the registered command names, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	register(command{
		name:        "mode",
		usage:       "\\mode general|symptom",
		description: "Choose the chat mode and pick a pet",
		run: func(_ context.Context, s *Shell, args []string, _ LineReader) error {
			if len(args) != 1 {
				return errors.New("usage: \\mode general|symptom")
			}
			mode, ok := pettypes.ParseChatMode(strings.ToLower(args[0]))
			if !ok {
				return fmt.Errorf("unknown mode %q, expected general or symptom", args[0])
			}
			if !controller.CanSelectMode(s.ctrl.Snapshot()) {
				s.printer.Warning("A mode is already chosen for this conversation. Use \\new to start over.")
				return nil
			}
			s.ctrl.SelectMode(mode)
			return nil
		},
	})

	register(command{
		name:        "pet",
		usage:       "\\pet <id>",
		description: "Start a conversation about a pet (general mode unless \\mode was used)",
		run: func(ctx context.Context, s *Shell, args []string, _ LineReader) error {
			if len(args) != 1 {
				return errors.New("usage: \\pet <id>")
			}
			id, err := parsePetID(args[0])
			if err != nil {
				return err
			}
			snap := s.ctrl.Snapshot()
			if snap.Phase == pettypes.PhaseChatting && controller.CanSelectMode(snap) {
				s.ctrl.SelectMode(pettypes.ChatModeGeneral)
			} else if snap.Phase > pettypes.PhaseModeChosen {
				s.printer.Warning("This conversation already has a pet. Use \\new to start over.")
				return nil
			}
			s.ctrl.ChoosePet(ctx, id)
			return nil
		},
	})

	register(command{
		name:        "pets",
		usage:       "\\pets",
		description: "List your pets",
		run: func(ctx context.Context, s *Shell, _ []string, _ LineReader) error {
			pets, err := s.catalog.ListPets(ctx)
			if err != nil {
				return fmt.Errorf("failed to load pets: %w", err)
			}
			s.mu.Lock()
			s.pets = pets
			s.mu.Unlock()
			s.printer.Pets(pets)
			return nil
		},
	})

	register(command{
		name:        "assess",
		usage:       "\\assess",
		description: "Start a new symptom assessment for the current pet",
		run: func(_ context.Context, s *Shell, _ []string, _ LineReader) error {
			s.ctrl.StartNewAssessment()
			return nil
		},
	})

	register(command{
		name:        "new",
		usage:       "\\new",
		description: "Start a new conversation",
		run: func(_ context.Context, s *Shell, _ []string, _ LineReader) error {
			s.ctrl.CreateNewConversation()
			s.printer.Info("New conversation. Use \\mode general|symptom to begin.")
			return nil
		},
	})

	register(command{
		name:        "load",
		usage:       "\\load <id>",
		description: "Open a previous conversation",
		run: func(ctx context.Context, s *Shell, args []string, _ LineReader) error {
			if len(args) != 1 {
				return errors.New("usage: \\load <id>")
			}
			if !s.ctrl.LoadConversation(ctx, args[0]) {
				s.printer.Warning(fmt.Sprintf("Conversation %s could not be loaded. Starting an empty chat.", args[0]))
			}
			return nil
		},
	})

	register(command{
		name:        "history",
		usage:       "\\history",
		description: "List previous conversations",
		run: func(ctx context.Context, s *Shell, _ []string, _ LineReader) error {
			records, err := s.catalog.ListConversations(ctx)
			if err != nil {
				return fmt.Errorf("failed to load conversations: %w", err)
			}
			summaries := hydration.Summaries(records)
			s.mu.Lock()
			s.conversations = summaries
			s.mu.Unlock()
			s.printer.Summaries(summaries)
			return nil
		},
	})

	register(command{
		name:        "track",
		usage:       "\\track",
		description: "Start tracking the shown assessment in the symptom logger",
		run: func(ctx context.Context, s *Shell, _ []string, _ LineReader) error {
			if s.ctrl.Snapshot().Phase != pettypes.PhaseAssessmentShown {
				s.printer.Warning("There is no assessment to track. Run \\assess first.")
				return nil
			}
			handoff, ok := s.ctrl.StartTracking(ctx)
			if !ok {
				return nil
			}
			s.printer.Success(fmt.Sprintf("Tracking %s under case %s", handoff.PetName, handoff.CaseID))
			if len(handoff.Symptoms) > 0 {
				s.printer.Println("Symptoms to log: " + strings.Join(handoff.Symptoms, ", "))
			}
			s.printer.Println("Type \\close when you are done logging.")
			return nil
		},
	})

	register(command{
		name:        "close",
		usage:       "\\close",
		description: "Close the open overlay",
		run: func(_ context.Context, s *Shell, _ []string, _ LineReader) error {
			s.ctrl.DismissOverlay()
			return nil
		},
	})

	register(command{
		name:        "logout",
		usage:       "\\logout",
		description: "Log out of PawCheck",
		run: func(_ context.Context, s *Shell, _ []string, _ LineReader) error {
			s.ctrl.RequestLogout()
			return nil
		},
	})

	register(command{
		name:        "copy",
		usage:       "\\copy [case]",
		description: "Copy the last assistant reply, or the tracking case id, to the clipboard",
		run: func(_ context.Context, s *Shell, args []string, _ LineReader) error {
			text, what := lastAssistantReply(s), "reply"
			if len(args) > 0 && args[0] == "case" {
				text, what = s.ctrl.Snapshot().Assessment.CaseID(), "case id"
			}
			if text == "" {
				s.printer.Warning(fmt.Sprintf("No %s to copy. Clipboard unchanged.", what))
				return nil
			}
			if err := s.clipboard(text); err != nil {
				s.printer.Warning(fmt.Sprintf("Failed to copy to clipboard: %v", err))
				s.printer.Println(text)
				return nil
			}
			s.printer.Success(fmt.Sprintf("Copied %d characters to clipboard", len(text)))
			return nil
		},
	})

	register(command{
		name:        "export",
		usage:       "\\export <file>",
		description: "Save the conversation as YAML",
		run: func(_ context.Context, s *Shell, args []string, _ LineReader) error {
			if len(args) != 1 {
				return errors.New("usage: \\export <file>")
			}
			if err := ExportTranscript(s.ctrl.Snapshot(), args[0]); err != nil {
				return err
			}
			s.printer.Success("Conversation saved to " + args[0])
			return nil
		},
	})

	register(command{
		name:        "state",
		usage:       "\\state",
		description: "Show the session state",
		run: func(_ context.Context, s *Shell, _ []string, _ LineReader) error {
			snap := s.ctrl.Snapshot()
			s.printer.Println(fmt.Sprintf("phase: %s", snap.Phase))
			s.printer.Println(fmt.Sprintf("mode: %s", displayOr(string(snap.Mode), "unset")))
			s.printer.Println(fmt.Sprintf("overlay: %s", snap.Overlay))
			s.printer.Println(fmt.Sprintf("conversation: %s", displayOr(snap.ConversationIDString(), "unsaved")))
			if snap.PetContext != nil {
				s.printer.Println(fmt.Sprintf("pet: %s (%d)", snap.PetContext.Name, snap.PetContext.ID))
			}
			s.printer.Println(fmt.Sprintf("messages: %d", len(snap.Messages)))
			if !snap.Assessment.IsZero() {
				s.printer.Assessment(snap.Assessment)
			}
			return nil
		},
	})

	register(command{
		name:        "help",
		usage:       "\\help",
		description: "Show available commands",
		run: func(_ context.Context, s *Shell, _ []string, _ LineReader) error {
			s.printer.Println("Type a message to chat, or use a command:")
			for _, name := range CommandNames() {
				cmd := commands[name]
				s.printer.Println(fmt.Sprintf("  %-24s %s", cmd.usage, cmd.description))
			}
			return nil
		},
	})

	register(command{
		name:        "exit",
		usage:       "\\exit",
		description: "Leave PawCheck",
		run: func(_ context.Context, s *Shell, _ []string, _ LineReader) error {
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			return nil
		},
	})
}

// splitCommand splits "\name arg1 arg2" into its name and arguments.
func splitCommand(line string) (string, []string) {
	fields := strings.Fields(strings.TrimPrefix(line, "\\"))
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

func parsePetID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pet id %q", s)
	}
	return id, nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

func displayOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func lastAssistantReply(s *Shell) string {
	msgs := s.ctrl.Snapshot().Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Author == pettypes.AuthorAssistant && !m.IsError && !m.IsAnalyzing {
			return m.Content
		}
	}
	return ""
}

// readQuestionnaire prompts for the symptom form. ok is false when the user cancels.
func readQuestionnaire(in LineReader) (pettypes.QuestionnaireAnswers, bool, error) {
	var answers pettypes.QuestionnaireAnswers

	symptoms, err := in.ReadLine("Symptoms (comma separated): ")
	if err != nil {
		return answers, false, err
	}
	for _, sym := range strings.Split(symptoms, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			answers.Symptoms = append(answers.Symptoms, sym)
		}
	}
	if len(answers.Symptoms) == 0 {
		return answers, false, nil
	}

	fields := []struct {
		prompt string
		dest   *string
	}{
		{"How long has this been going on? ", &answers.Duration},
		{"Severity (mild/moderate/severe): ", &answers.Severity},
		{"Appetite (normal/reduced/none): ", &answers.Appetite},
		{"Energy level (normal/low/very low): ", &answers.EnergyLevel},
		{"Anything else we should know? ", &answers.Notes},
	}
	for _, f := range fields {
		value, err := in.ReadLine(f.prompt)
		if err != nil {
			return answers, false, err
		}
		*f.dest = strings.TrimSpace(value)
	}
	return answers, true, nil
}
