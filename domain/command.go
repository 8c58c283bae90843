package domain

import (
	"strings"
	"unicode"
)

const WhisperCommand = "/w"

// Command is the classification of one line typed by an active participant.
type Command interface {
	isCommand()
}

// QuitCommand ends the session gracefully.
type QuitCommand struct{}

// WhisperCommandRequest routes Text privately to Target.
type WhisperCommandRequest struct {
	Target string
	Text   string
}

// WhisperUsageCommand is a whisper missing its target or its text.
type WhisperUsageCommand struct{}

// ChatCommand is broadcast to every participant.
type ChatCommand struct {
	Text string
}

// EmptyCommand is a blank line, ignored.
type EmptyCommand struct{}

func (QuitCommand) isCommand()           {}
func (WhisperCommandRequest) isCommand() {}
func (WhisperUsageCommand) isCommand()   {}
func (ChatCommand) isCommand()           {}
func (EmptyCommand) isCommand()          {}

// ParseCommand classifies a raw line. Surrounding whitespace is ignored,
// the quit sentinel must match exactly and a whisper needs both a target
// and a non-empty text.
func ParseCommand(line, quit string) Command {
	text := strings.TrimSpace(line)
	switch {
	case text == "":
		return EmptyCommand{}
	case text == quit:
		return QuitCommand{}
	}

	head, rest := cutToken(text)
	if head != WhisperCommand {
		return ChatCommand{Text: text}
	}
	target, body := cutToken(rest)
	if target == "" || body == "" {
		return WhisperUsageCommand{}
	}
	return WhisperCommandRequest{Target: target, Text: body}
}

// cutToken splits s at its first whitespace run.
func cutToken(s string) (token, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
