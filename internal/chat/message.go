// Package chat provides the conversation data model for jmxpilot:
// immutable chat messages and a size-bounded conversation history.
package chat

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn. It is a value type: created once,
// never mutated, compared by field values.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return NewMessageAt(role, content, time.Now())
}

// NewMessageAt creates a message with an explicit timestamp.
// Used for deterministic ordering in tests.
func NewMessageAt(role Role, content string, ts time.Time) Message {
	return Message{Role: role, Content: content, Timestamp: ts}
}

// IsFromUser reports whether the message was authored by the user.
func (m Message) IsFromUser() bool { return m.Role == RoleUser }

// IsFromAssistant reports whether the message was authored by the assistant.
func (m Message) IsFromAssistant() bool { return m.Role == RoleAssistant }

// IsFromSystem reports whether the message is a system notice.
func (m Message) IsFromSystem() bool { return m.Role == RoleSystem }
