package agent

import (
	"errors"
	"regexp"
	"strings"
)

var (
	thinkingPattern = regexp.MustCompile(`(?s)<thinking>(.*?)</thinking>`)
	commandsPattern = regexp.MustCompile(`(?s)<commands>(.*?)</commands>`)
)

// ErrNoCommands is returned when a response lacks the <commands>
// section. The requester retries with a format reminder before giving
// up.
var ErrNoCommands = errors.New("response has no <commands> section")

// ParseResponse extracts the thinking text and the command lines from a
// delimited response. The thinking section is optional; the commands
// section is not.
func ParseResponse(text string) (thinking string, commands []string, err error) {
	if m := thinkingPattern.FindStringSubmatch(text); m != nil {
		thinking = strings.TrimSpace(m[1])
	}

	m := commandsPattern.FindStringSubmatch(text)
	if m == nil {
		return thinking, nil, ErrNoCommands
	}

	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			commands = append(commands, line)
		}
	}
	return thinking, commands, nil
}
