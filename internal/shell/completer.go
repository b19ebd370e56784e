package shell

import "github.com/chzyer/readline"

// Completer returns tab completion for shell commands. Pet and conversation
// ids come from the last catalog load.
func (s *Shell) Completer() readline.AutoCompleter {
	dynamic := func(ids func() []string) readline.PrefixCompleterInterface {
		return readline.PcItemDynamic(func(string) []string { return ids() })
	}

	items := []readline.PrefixCompleterInterface{
		readline.PcItem("\\mode", readline.PcItem("general"), readline.PcItem("symptom")),
		readline.PcItem("\\pet", dynamic(s.PetIDs)),
		readline.PcItem("\\load", dynamic(s.ConversationIDs)),
		readline.PcItem("\\copy", readline.PcItem("case")),
	}
	for _, name := range CommandNames() {
		switch name {
		case "mode", "pet", "load", "copy":
			continue
		}
		items = append(items, readline.PcItem("\\"+name))
	}
	return readline.NewPrefixCompleter(items...)
}
