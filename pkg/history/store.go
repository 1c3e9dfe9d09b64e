// Package history is parley's conversation log: sessions and the ordered
// messages appended to them.
//
// Stores enforce per-session append ordering themselves. Every message gets
// the next sequence number of its session, and reads order by that number,
// so two messages with the same timestamp still read back in insertion order.
package history

import (
	"context"
	"time"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Session is a conversation thread.
type Session struct {
	ID string `json:"id"`

	// SystemPrompt overrides the configured default when non-empty.
	SystemPrompt string `json:"system_prompt,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one immutable entry of a session's log.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists sessions and messages.
type Store interface {
	// CreateSession starts a session with a fresh identifier.
	CreateSession(ctx context.Context, systemPrompt string) (*Session, error)

	// GetSession returns a NotFoundError for unknown IDs.
	GetSession(ctx context.Context, id string) (*Session, error)

	// Append adds a message to the end of the session's log and advances
	// the session's UpdatedAt. Identical messages are stored twice.
	Append(ctx context.Context, sessionID string, role Role, content string) (*Message, error)

	// Recent returns at most limit messages, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)

	// All returns every message of the session, oldest first.
	All(ctx context.Context, sessionID string) ([]Message, error)

	// DeleteSession removes the session and its messages. It reports
	// whether the session existed.
	DeleteSession(ctx context.Context, id string) (bool, error)

	// ListSessions pages through sessions, most recently updated first.
	ListSessions(ctx context.Context, skip, limit int) ([]Session, error)

	Close() error
}

// Reverse returns messages in the opposite order. It turns a Recent window
// into chronological order.
func Reverse(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[len(messages)-1-i] = m
	}
	return out
}

// Page applies skip and limit to sessions. A non-positive limit means no
// limit.
func Page(sessions []Session, skip, limit int) []Session {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(sessions) {
		return []Session{}
	}
	sessions = sessions[skip:]
	if limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	return sessions
}
