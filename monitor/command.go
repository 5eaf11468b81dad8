package monitor

import (
	"strings"
)

// Command is a parsed monitor command.
type Command struct {
	// Name is the lower-cased first word.
	Name string
	// Args are the remaining words.
	Args []string
	// Rest is everything after the name, trimmed. Commands that take free
	// text, such as "a" and "lua!", read it from here.
	Rest string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{}
	}

	parts := strings.Fields(input)
	rest := strings.TrimSpace(input[len(parts[0]):])

	return Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
		Rest: rest,
	}
}
