package provider

import "strings"

// Role identifies the author of a dialogue message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one role-tagged entry in a dialogue.
type Message struct {
	Role    Role
	Content string
}

// Dialogue is the ordered conversation history for one turn. It is owned by
// the caller; providers only read it.
type Dialogue []Message

// Mode selects how a dialogue is rendered into the prompt for one turn.
type Mode string

const (
	// ModeFullDialogue renders the entire history as labeled lines.
	ModeFullDialogue Mode = "full_dialogue"

	// ModeLastUser sends only the most recent user message.
	ModeLastUser Mode = "last_user"

	// ModeFirstFullThenLast sends the full history on a session's first turn
	// and deltas afterwards. Requires resume support to be useful; see
	// ModeResolver.
	ModeFirstFullThenLast Mode = "first_full_then_last"
)

// ParseMode maps a config string to a Mode, defaulting to ModeFullDialogue
// for empty or unrecognized input.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeLastUser:
		return ModeLastUser
	case ModeFirstFullThenLast:
		return ModeFirstFullThenLast
	default:
		return ModeFullDialogue
	}
}

// roleLabel maps roles to prompt labels. Unrecognized roles render as User.
func roleLabel(r Role) string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleAssistant:
		return "Assistant"
	case RoleTool:
		return "Tool"
	default:
		return "User"
	}
}

// RenderPrompt flattens a dialogue into a single prompt string for the given
// mode. ModeLastUser returns the most recent user message's content (scanning
// from the end), or "" when the dialogue has none. All other modes render
// every message as "<Role>: <content>" joined by newlines.
//
// ModeFirstFullThenLast must be resolved to an effective mode before calling;
// it renders like ModeFullDialogue here.
func RenderPrompt(dialogue Dialogue, mode Mode) string {
	if mode == ModeLastUser {
		for i := len(dialogue) - 1; i >= 0; i-- {
			if dialogue[i].Role == RoleUser {
				return dialogue[i].Content
			}
		}
		return ""
	}

	parts := make([]string, 0, len(dialogue))
	for _, msg := range dialogue {
		parts = append(parts, roleLabel(msg.Role)+": "+msg.Content)
	}
	return strings.Join(parts, "\n")
}
