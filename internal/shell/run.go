package shell

import (
	"context"
	"strings"

	"github.com/abiosoft/ishell/v2"
)

// Prompt is the main shell prompt.
const Prompt = "pawcheck> "

// Run starts the interactive loop and returns when the user exits or is logged out.
func (s *Shell) Run(ctx context.Context, banner ...string) {
	sh := ishell.New()
	sh.SetPrompt(Prompt)

	// Remove built-in commands so they become chat messages or PawCheck commands
	sh.DeleteCmd("exit")
	sh.DeleteCmd("help")

	sh.CustomCompleter(s.Completer())

	for _, line := range banner {
		sh.Println(line)
	}

	sh.NotFound(func(c *ishell.Context) {
		if len(c.RawArgs) == 0 {
			return
		}
		s.Handle(ctx, strings.Join(c.RawArgs, " "), ishellReader{c: c})
		if s.Stopped() {
			c.Stop()
		}
	})

	s.flush()
	sh.Run()
}

// ishellReader reads overlay answers through the running ishell.
type ishellReader struct {
	c *ishell.Context
}

func (r ishellReader) ReadLine(prompt string) (string, error) {
	r.c.SetPrompt(prompt)
	defer r.c.SetPrompt(Prompt)
	return r.c.ReadLineErr()
}
