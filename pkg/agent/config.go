package agent

import (
	"log/slog"
	"time"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/memory/decision"
	"github.com/papercomputeco/parley/pkg/tools"
)

const (
	DefaultSystemPrompt     = "You are Parley, a helpful assistant. Use the available tools when they help answer the user, and cite what you used."
	DefaultRecentWindow     = 10
	DefaultMaxToolRounds    = 4
	DefaultTurnTimeout      = 2 * time.Minute
	DefaultCallTimeout      = 60 * time.Second
	DefaultMemoryQueryLimit = 3
	DefaultReplyTemperature = 0.8
	DefaultToolTemperature  = 0.1
	DefaultGenerateRetries  = 1
)

// Config is the turn policy of an Orchestrator. Zero values take the
// defaults above.
type Config struct {
	// SystemPrompt is used for sessions without their own prompt.
	SystemPrompt string

	// RecentWindow is how many stored messages feed each turn.
	RecentWindow int

	// MaxToolRounds bounds the tool loop. A round is one generation that
	// asked for tools followed by the dispatch of those tools.
	MaxToolRounds int

	// TurnTimeout bounds a whole turn, tool rounds included.
	TurnTimeout time.Duration

	// CallTimeout bounds each single generation, history or memory call.
	CallTimeout time.Duration

	// MemoryQueryLimit is k for long-term memory lookups.
	MemoryQueryLimit int

	// ReplyTemperature is used for generations without a tool catalog.
	ReplyTemperature *float64

	// ToolTemperature is used for generations that offer tools.
	ToolTemperature *float64

	// GenerateRetries is how many times a retryable generation error is
	// retried. Negative disables retries.
	GenerateRetries int

	// MemoryWorkers sizes the background pool for memory writes.
	MemoryWorkers uint

	Logger *slog.Logger
}

// Deps are the collaborators of an Orchestrator. History and Generator are
// required; everything else is optional and its step is skipped when nil.
type Deps struct {
	History   history.Store
	Generator llm.Generator

	// Dispatcher runs tool calls. Nil means no tools are offered.
	Dispatcher *tools.Dispatcher

	// Decider and Memory together enable long-term memory.
	Decider Decider
	Memory  *memory.Namespaces

	// Events receives a TurnCompletedEvent after each persisted turn.
	Events eventstream.Publisher
}

func (c *Config) applyDefaults() {
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = DefaultRecentWindow
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = DefaultMaxToolRounds
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = DefaultTurnTimeout
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.MemoryQueryLimit <= 0 {
		c.MemoryQueryLimit = DefaultMemoryQueryLimit
	}
	if c.ReplyTemperature == nil {
		t := DefaultReplyTemperature
		c.ReplyTemperature = &t
	}
	if c.ToolTemperature == nil {
		t := DefaultToolTemperature
		c.ToolTemperature = &t
	}
	if c.GenerateRetries == 0 {
		c.GenerateRetries = DefaultGenerateRetries
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

var _ Decider = (*decision.Engine)(nil)
