// Package chat holds the conversation model, transcript stores, and the
// workflow that turns chat messages into config-fixing operations.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a transcript message. The system role is
// reserved for sentinel entries and never rendered to the user.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. Transcripts are append-only.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a Message with a generated ID and current timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionID mints an id for a fresh conversation.
func NewSessionID() string {
	return uuid.New().String()
}

// Visible filters a transcript down to the user-facing messages, dropping
// the system-role sentinel entries.
func Visible(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			continue
		}
		out = append(out, msg)
	}
	return out
}
