// Package command defines the textual command vocabulary shared by the
// human prompt, the AI agent and the coordinator, plus the thread-safe
// queue that decouples command producers from the tick loop.
package command

import "strings"

// Trigger is the special token that requests an agent turn instead of
// being forwarded to the emulator.
const Trigger = "ai"

// buttons is the fixed Game Boy button vocabulary.
var buttons = map[string]bool{
	"up":     true,
	"down":   true,
	"left":   true,
	"right":  true,
	"a":      true,
	"b":      true,
	"start":  true,
	"select": true,
}

// Command is a single parsed command. Commands are immutable once
// enqueued and consumed exactly once.
type Command struct {
	// Raw is the original input line, unmodified.
	Raw string
	// Name is the lowercased command token ("a", "wait", "sequence", ...).
	Name string
	// Args are the lowercased arguments following the token.
	Args []string
}

// Parse splits an input line into a Command. Matching is
// case-insensitive; an empty or whitespace-only line yields a Command
// with an empty Name.
func Parse(line string) Command {
	fields := strings.Fields(strings.ToLower(line))
	cmd := Command{Raw: line}
	if len(fields) == 0 {
		return cmd
	}
	cmd.Name = fields[0]
	cmd.Args = fields[1:]
	return cmd
}

// IsEmpty reports whether the command carries no token at all.
func (c Command) IsEmpty() bool {
	return c.Name == ""
}

// IsTrigger reports whether the command is the agent trigger token.
func (c Command) IsTrigger() bool {
	return c.Name == Trigger
}

// IsButton reports whether name is part of the Game Boy button vocabulary.
func IsButton(name string) bool {
	return buttons[strings.ToLower(name)]
}
