package session

import "fmt"

// Role identifies who produced a message.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool"
)

// ParseRole maps a wire role name onto a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleToolResult:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown message role %q", s)
	}
}

// Message is a single entry in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a message authored by the user.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a message authored by the model.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResultMessage builds a message carrying a tool's textual outcome.
func ToolResultMessage(content string) Message {
	return Message{Role: RoleToolResult, Content: content}
}

// History is the append-only message log of a single run.
// Messages are copied in and out, so entries already appended can never be
// changed through a slice the caller holds.
type History struct {
	messages []Message
}

// NewHistory seeds a history with a copy of the given messages.
func NewHistory(initial []Message) *History {
	msgs := make([]Message, len(initial))
	copy(msgs, initial)
	return &History{messages: msgs}
}

// Append adds a message to the end of the history.
func (h *History) Append(m Message) {
	h.messages = append(h.messages, m)
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Last returns the most recent message and false when the history is empty.
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// LastOfRole returns the most recent message with the given role.
func (h *History) LastOfRole(role Role) (Message, bool) {
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == role {
			return h.messages[i], true
		}
	}
	return Message{}, false
}

// Messages returns a copy of the full history.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}
