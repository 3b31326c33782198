package extensions

import (
	"strings"
)

// Command is a prefixed chat command such as "?reply thanks".
type Command struct {
	Name string
	Args string
}

// ParseCommand splits content into a lower-cased command name and its raw
// arguments. It reports false when content does not start with prefix.
func ParseCommand(prefix, content string) (Command, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return Command{}, false
	}
	rest := strings.TrimPrefix(content, prefix)
	name, args, _ := strings.Cut(rest, " ")
	if idx := strings.IndexAny(name, "\n\t"); idx >= 0 {
		args = name[idx:] + " " + args
		name = name[:idx]
	}
	if name == "" {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}, true
}
