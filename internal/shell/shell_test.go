package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pawcheck/internal/backend"
	"pawcheck/internal/controller"
	"pawcheck/internal/render"
	"pawcheck/internal/testutils"
	"pawcheck/pkg/pettypes"
)

// scriptedReader answers overlay prompts from a fixed list of lines.
type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) ReadLine(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func script(lines ...string) *scriptedReader {
	return &scriptedReader{lines: lines}
}

type fakeCatalog struct {
	pets          []pettypes.Pet
	conversations []backend.ConversationRecord
	err           error
}

func (f *fakeCatalog) ListPets(context.Context) ([]pettypes.Pet, error) {
	return f.pets, f.err
}

func (f *fakeCatalog) ListConversations(context.Context) ([]backend.ConversationRecord, error) {
	return f.conversations, f.err
}

var rex = pettypes.PetContext{ID: 7, Name: "Rex", Species: "Dog"}

const rexAssessment = `{"pet_name":"Rex","urgency_level":"moderate","predictions":[{"condition":"Gastritis","probability":0.62,"symptoms":["vomiting","lethargy"]}]}`

type harness struct {
	shell    *Shell
	ctrl     *controller.Controller
	fake     *testutils.FakeBackend
	out      *render.CaptureBuffer
	copied   []string
	catalog  *fakeCatalog
	logouts  int
	lastAuth error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	testutils.ResetTestCounters()

	h := &harness{
		fake: testutils.NewFakeBackend(),
		out:  render.NewCaptureBuffer(),
		catalog: &fakeCatalog{
			pets: []pettypes.Pet{{ID: 7, Name: "Rex", Species: "Dog"}, {ID: 9, Name: "Mia", Species: "Cat"}},
			conversations: []backend.ConversationRecord{
				{ID: "12", Title: "Symptom Check: Rex"},
				{ID: "13", Title: "Pet Care: Mia"},
			},
		},
	}
	h.fake.StartFn = func(_ context.Context, petID int64, _ pettypes.ChatMode) (*backend.ConversationStart, error) {
		p := rex
		p.ID = petID
		return &backend.ConversationStart{ConversationID: "42", PetContext: &p, InitialMessage: "Hi, what's going on with Rex?"}, nil
	}

	h.ctrl = controller.New(h.fake,
		controller.WithIDGenerator(testutils.IDGenerator(true)),
		controller.WithClock(testutils.Clock(true)),
		controller.WithAuthEscalator(controller.AuthEscalatorFunc(func(reason error) {
			h.logouts++
			h.lastAuth = reason
			h.shell.Logout(reason)
		})),
	)
	printer := render.NewPrinter(render.WithWriter(h.out), render.TestMode())
	h.shell = New(h.ctrl, h.catalog, printer, WithClipboard(func(text string) error {
		h.copied = append(h.copied, text)
		return nil
	}))
	return h
}

func TestHandle_SymptomCheckFlow(t *testing.T) {
	h := newHarness(t)
	h.fake.PredictFn = func(context.Context, backend.PredictRequest) (pettypes.AssessmentResult, error) {
		return pettypes.NewAssessmentResult([]byte(rexAssessment)), nil
	}
	require.NoError(t, h.shell.Preload(context.Background()))

	in := script("7", "vomiting, lethargy", "2 days", "moderate", "reduced", "low", "")
	h.shell.Handle(context.Background(), "\\mode symptom", in)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, pettypes.PhaseAssessmentShown, snap.Phase)
	assert.Equal(t, pettypes.OverlayNone, snap.Overlay)
	assert.Equal(t, 0, snap.CountAnalyzing())
	assert.Equal(t, 1, h.fake.Calls("predict"))
	assert.Equal(t, []interface{}{"vomiting", "lethargy"}, toInterfaces(h.fake.LastPredictRequest()["symptoms"]))

	output := h.out.String()
	assert.Contains(t, output, "Choose a pet:")
	assert.Contains(t, output, "Rex")
	assert.Contains(t, output, "Symptom check for Rex.")
	assert.Contains(t, output, "Gastritis (62%)")
	assert.Empty(t, in.lines)
}

func toInterfaces(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []string:
		out := make([]interface{}, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out
	}
	return nil
}

func TestHandle_CancelPetSelector(t *testing.T) {
	h := newHarness(t)

	h.shell.Handle(context.Background(), "\\mode general", script(""))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, pettypes.PhaseIdle, snap.Phase)
	assert.Equal(t, pettypes.ChatModeUnset, snap.Mode)
	assert.Equal(t, 0, h.fake.Calls("start"))
}

func TestHandle_InvalidPetIDReprompts(t *testing.T) {
	h := newHarness(t)
	in := script("rex", "7")

	h.shell.Handle(context.Background(), "\\mode general", in)

	assert.Contains(t, h.out.String(), `invalid pet id "rex"`)
	assert.Equal(t, pettypes.PhaseChatting, h.ctrl.Snapshot().Phase)
	assert.Len(t, in.prompts, 2)
}

func TestHandle_CancelQuestionnaire(t *testing.T) {
	h := newHarness(t)

	h.shell.Handle(context.Background(), "\\mode symptom", script("7", ""))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, pettypes.OverlayNone, snap.Overlay)
	assert.Equal(t, pettypes.PhaseChatting, snap.Phase)
	assert.Equal(t, 0, h.fake.Calls("predict"))
}

func TestHandle_ChatMessage(t *testing.T) {
	h := newHarness(t)
	h.fake.ChatFn = func(_ context.Context, req backend.ChatRequest) (*backend.ChatReply, error) {
		return &backend.ChatReply{Response: "Try smaller meals."}, nil
	}

	h.shell.Handle(context.Background(), "\\pet 7", script())
	h.shell.Handle(context.Background(), "what should he eat?", script())

	output := h.out.String()
	assert.Contains(t, output, "Hi, what's going on with Rex?")
	assert.Contains(t, output, "what should he eat?")
	assert.Contains(t, output, "Try smaller meals.")
	assert.Equal(t, "what should he eat?", h.fake.LastChatRequest().Message)
}

func TestHandle_MessagesPrintedOnce(t *testing.T) {
	h := newHarness(t)
	h.fake.ChatFn = func(context.Context, backend.ChatRequest) (*backend.ChatReply, error) {
		return &backend.ChatReply{Response: "Noted."}, nil
	}

	h.shell.Handle(context.Background(), "\\pet 7", script())
	h.shell.Handle(context.Background(), "first", script())
	h.shell.Handle(context.Background(), "second", script())

	assert.Equal(t, 1, countLines(h.out.Lines(), "Hi, what's going on with Rex?"))
	assert.Equal(t, 1, countLines(h.out.Lines(), "first"))
}

func countLines(lines []string, want string) int {
	n := 0
	for _, l := range lines {
		if l == want {
			n++
		}
	}
	return n
}

func TestHandle_UnknownCommand(t *testing.T) {
	h := newHarness(t)

	h.shell.Handle(context.Background(), "\\frobnicate", script())

	assert.Contains(t, h.out.String(), "Unknown command \\frobnicate")
	assert.Contains(t, h.out.String(), "Type \\help for available commands")
}

func TestHandle_CommandErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"\\mode", "usage: \\mode general|symptom"},
		{"\\mode vet", `unknown mode "vet"`},
		{"\\pet", "usage: \\pet <id>"},
		{"\\pet -3", `invalid pet id "-3"`},
		{"\\load", "usage: \\load <id>"},
		{"\\export", "usage: \\export <file>"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			h := newHarness(t)
			h.shell.Handle(context.Background(), tt.line, script())
			assert.Contains(t, h.out.String(), tt.want)
		})
	}
}

func TestHandle_ModeAlreadyChosen(t *testing.T) {
	h := newHarness(t)
	h.shell.Handle(context.Background(), "\\pet 7", script())

	h.shell.Handle(context.Background(), "\\mode symptom", script())

	assert.Contains(t, h.out.String(), "A mode is already chosen")
	assert.Equal(t, pettypes.ChatModeGeneral, h.ctrl.Snapshot().Mode)
}

func TestHandle_ModeAfterChattingWithoutMode(t *testing.T) {
	h := newHarness(t)
	h.fake.ChatFn = func(context.Context, backend.ChatRequest) (*backend.ChatReply, error) {
		return &backend.ChatReply{Response: "Tell me about your pet."}, nil
	}

	h.shell.Handle(context.Background(), "hello", script())
	h.shell.Handle(context.Background(), "\\mode symptom", script("7", ""))

	snap := h.ctrl.Snapshot()
	assert.NotContains(t, h.out.String(), "A mode is already chosen")
	assert.Contains(t, h.out.String(), "Choose a pet:")
	assert.Equal(t, pettypes.ChatModeSymptomChecker, snap.Mode)
	assert.Equal(t, "42", snap.ConversationIDString())
	assert.Equal(t, 1, h.fake.Calls("start"))
}

func TestHandle_PetAfterChattingWithoutMode(t *testing.T) {
	h := newHarness(t)
	h.fake.ChatFn = func(context.Context, backend.ChatRequest) (*backend.ChatReply, error) {
		return &backend.ChatReply{Response: "Tell me about your pet."}, nil
	}

	h.shell.Handle(context.Background(), "hello", script())
	h.shell.Handle(context.Background(), "\\pet 7", script())

	snap := h.ctrl.Snapshot()
	assert.NotContains(t, h.out.String(), "already has a pet")
	assert.Equal(t, pettypes.ChatModeGeneral, snap.Mode)
	assert.Equal(t, pettypes.PhaseChatting, snap.Phase)
	assert.Equal(t, "Rex", snap.PetContext.Name)
}

func TestHandle_HistoryAndLoad(t *testing.T) {
	h := newHarness(t)
	h.fake.HistoryFn = func(_ context.Context, id string) (*backend.ConversationHistory, error) {
		return &backend.ConversationHistory{
			Conversation: backend.ConversationRecord{ID: pettypes.FlexString(id), Title: "Symptom Check: Rex", PetContext: &rex},
			Messages: []backend.WireMessage{
				{ID: "1", Content: "He threw up", IsUser: true},
				{ID: "2", Content: "How long ago?"},
			},
		}, nil
	}

	h.shell.Handle(context.Background(), "\\history", script())
	assert.Contains(t, h.out.String(), "Symptom Check: Rex")
	assert.Equal(t, []string{"12", "13"}, h.shell.ConversationIDs())

	h.out.Reset()
	h.shell.Handle(context.Background(), "\\load 12", script())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, pettypes.ChatModeSymptomChecker, snap.Mode)
	assert.Equal(t, "12", snap.ConversationIDString())
	output := h.out.String()
	assert.Contains(t, output, "mode: symptom_checker | pet: Rex | id: 12")
	assert.Contains(t, output, "He threw up")
}

func TestHandle_LoadFailureWarns(t *testing.T) {
	h := newHarness(t)
	h.fake.HistoryFn = func(context.Context, string) (*backend.ConversationHistory, error) {
		return nil, errors.New("boom")
	}

	h.shell.Handle(context.Background(), "\\load 99", script())

	assert.Contains(t, h.out.String(), "Conversation 99 could not be loaded")
	assert.Equal(t, pettypes.PhaseChatting, h.ctrl.Snapshot().Phase)
}

func TestHandle_LoadEmptyConversation(t *testing.T) {
	h := newHarness(t)
	h.fake.HistoryFn = func(_ context.Context, id string) (*backend.ConversationHistory, error) {
		return &backend.ConversationHistory{Conversation: backend.ConversationRecord{ID: pettypes.FlexString(id), Title: "Pet Care: Mia"}}, nil
	}

	h.shell.Handle(context.Background(), "\\load 13", script())

	assert.NotContains(t, h.out.String(), "could not be loaded")
	snap := h.ctrl.Snapshot()
	assert.Equal(t, "13", snap.ConversationIDString())
	assert.Empty(t, snap.Messages)
}

func TestHandle_Pets(t *testing.T) {
	h := newHarness(t)

	h.shell.Handle(context.Background(), "\\pets", script())

	assert.Contains(t, h.out.String(), "Mia")
	assert.Equal(t, []string{"7", "9"}, h.shell.PetIDs())
}

func TestHandle_TrackAndClose(t *testing.T) {
	h := newHarness(t)
	h.fake.PredictFn = func(context.Context, backend.PredictRequest) (pettypes.AssessmentResult, error) {
		return pettypes.NewAssessmentResult([]byte(rexAssessment)), nil
	}
	h.fake.DiagnosisFn = func(context.Context, backend.DiagnosisRequest) (*backend.DiagnosisCase, error) {
		return &backend.DiagnosisCase{CaseID: "c-1"}, nil
	}
	h.shell.Handle(context.Background(), "\\mode symptom", script("7", "vomiting", "", "", "", "", ""))

	h.shell.Handle(context.Background(), "\\track", script())

	assert.Contains(t, h.out.String(), "Tracking Rex under case c-1")
	assert.Equal(t, pettypes.OverlayLogger, h.ctrl.Snapshot().Overlay)

	h.shell.Handle(context.Background(), "\\close", script())
	assert.Equal(t, pettypes.OverlayNone, h.ctrl.Snapshot().Overlay)

	h.shell.Handle(context.Background(), "\\copy case", script())
	assert.Equal(t, []string{"c-1"}, h.copied)
}

func TestHandle_TrackWithoutAssessment(t *testing.T) {
	h := newHarness(t)

	h.shell.Handle(context.Background(), "\\track", script())

	assert.Contains(t, h.out.String(), "There is no assessment to track")
	assert.Equal(t, 0, h.fake.Calls("diagnosis"))
}

func TestHandle_CopyReply(t *testing.T) {
	h := newHarness(t)
	h.shell.Handle(context.Background(), "\\copy", script())
	assert.Contains(t, h.out.String(), "No reply to copy")

	h.shell.Handle(context.Background(), "\\pet 7", script())
	h.shell.Handle(context.Background(), "\\copy", script())

	assert.Equal(t, []string{"Hi, what's going on with Rex?"}, h.copied)
}

func TestHandle_CopyFailureFallsBackToPrint(t *testing.T) {
	h := newHarness(t)
	h.shell.clipboard = func(string) error { return errors.New("no display") }
	h.shell.Handle(context.Background(), "\\pet 7", script())
	h.out.Reset()

	h.shell.Handle(context.Background(), "\\copy", script())

	assert.Contains(t, h.out.String(), "Failed to copy to clipboard: no display")
	assert.Contains(t, h.out.String(), "Hi, what's going on with Rex?")
}

func TestHandle_Logout(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		h := newHarness(t)
		h.shell.Handle(context.Background(), "\\logout", script("n"))

		assert.False(t, h.shell.Stopped())
		assert.Equal(t, 0, h.logouts)
		assert.Equal(t, pettypes.OverlayNone, h.ctrl.Snapshot().Overlay)
	})

	t.Run("confirmed", func(t *testing.T) {
		h := newHarness(t)
		h.shell.Handle(context.Background(), "\\logout", script("yes"))

		assert.True(t, h.shell.Stopped())
		assert.Equal(t, 1, h.logouts)
		assert.NoError(t, h.lastAuth)
		assert.Contains(t, h.out.String(), "Logged out.")
	})
}

func TestHandle_UnauthorizedStopsShell(t *testing.T) {
	h := newHarness(t)
	h.fake.StartFn = func(context.Context, int64, pettypes.ChatMode) (*backend.ConversationStart, error) {
		return nil, backend.ErrUnauthorized
	}

	h.shell.Handle(context.Background(), "\\mode general", script("7", "9"))

	assert.True(t, h.shell.Stopped())
	assert.Equal(t, 1, h.logouts)
	assert.Contains(t, h.out.String(), "Your session has expired")
	assert.Equal(t, 1, h.fake.Calls("start"))
}

func TestHandle_Exit(t *testing.T) {
	h := newHarness(t)
	h.shell.Handle(context.Background(), "\\exit", script())
	assert.True(t, h.shell.Stopped())
}

func TestHandle_Help(t *testing.T) {
	h := newHarness(t)
	h.shell.Handle(context.Background(), "\\help", script())

	output := h.out.String()
	for _, name := range CommandNames() {
		assert.Contains(t, output, "\\"+name)
	}
}

func TestPreload_Error(t *testing.T) {
	h := newHarness(t)
	h.catalog.err = errors.New("offline")

	err := h.shell.Preload(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
	assert.Empty(t, h.shell.PetIDs())
}

func TestCheckCompatibility(t *testing.T) {
	h := newHarness(t)

	h.shell.CheckCompatibility("")
	h.shell.CheckCompatibility("0.0.1")
	assert.Empty(t, h.out.String())

	h.shell.CheckCompatibility("99.0.0")
	assert.Contains(t, h.out.String(), "requires PawCheck 99.0.0 or newer")
}

func TestExportTranscript(t *testing.T) {
	h := newHarness(t)
	h.shell.Handle(context.Background(), "\\pet 7", script())
	path := filepath.Join(t.TempDir(), "rex.yaml")

	h.shell.Handle(context.Background(), "\\export "+path, script())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Transcript
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "42", got.ConversationID)
	assert.Equal(t, pettypes.ChatModeGeneral, got.Mode)
	require.NotNil(t, got.Pet)
	assert.Equal(t, "Rex", got.Pet.Name)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, pettypes.AuthorAssistant, got.Messages[0].Author)
	assert.Contains(t, h.out.String(), "Conversation saved to "+path)
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArgs []string
	}{
		{"\\help", "help", []string{}},
		{"\\Mode  symptom", "mode", []string{"symptom"}},
		{"\\", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, args := splitCommand(tt.line)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestIsYes(t *testing.T) {
	assert.True(t, isYes("y"))
	assert.True(t, isYes(" YES "))
	assert.False(t, isYes(""))
	assert.False(t, isYes("no"))
}

func TestCompleter(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.shell.Preload(context.Background()))
	completer := h.shell.Completer()

	line := []rune("\\pet ")
	suggestions, _ := completer.Do(line, len(line))

	var got []string
	for _, s := range suggestions {
		got = append(got, string(s))
	}
	assert.Contains(t, got, "7 ")
	assert.Contains(t, got, "9 ")
}
