package eventstream

import (
	"time"

	"github.com/papercomputeco/parley/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a conversation turn is persisted.
	EventTypeTurnCompleted = "parley.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a completed turn.
type TurnCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	TurnMeta      TurnMeta    `json:"turn_meta"`
	Turn          Turn        `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider"`
}

// TurnMeta captures turn lifecycle metadata for the event.
type TurnMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	ToolRounds  int       `json:"tool_rounds"`
	TimedOut    bool      `json:"timed_out"`
	Degraded    bool      `json:"degraded"`
}

// Turn is the conversational content of the event.
type Turn struct {
	SessionID   string           `json:"session_id"`
	UserText    string           `json:"user_text"`
	Reply       string           `json:"reply"`
	Sources     []string         `json:"sources"`
	ToolResults []llm.ToolResult `json:"tool_results,omitempty"`
}
