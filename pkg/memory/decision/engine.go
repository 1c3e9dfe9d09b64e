package decision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/parley/pkg/llm"
)

// DefaultTemperature keeps decisions close to deterministic.
const DefaultTemperature = 0.1

const storeInstruction = "You are a memory agent. Based on the following chat history, decide if there " +
	"is any important information about the user or assistant that should be stored in long-term memory. " +
	"If so, briefly summarize the information to be stored for each role. Return only lines starting with " +
	"'user:' and/or 'assistant:' if there is information to store. If there is nothing to store, return an " +
	"empty string for that role."

const queryInstruction = "You are a memory agent. Based on the following chat history and the new message, " +
	"decide if anything previously stored in long-term memory about the user or the assistant would help " +
	"answer the new message. If so, write a short search query for each role. Return only lines starting with " +
	"'user:' and/or 'assistant:'. If nothing needs to be looked up, return an empty string for that role."

// Config configures an Engine.
type Config struct {
	// Temperature for decision calls. Nil uses DefaultTemperature.
	Temperature *float64

	// IgnoreValues are dropped from parsed decisions. Nil uses
	// DefaultIgnoreValues; an empty non-nil slice keeps every value.
	IgnoreValues []string

	Logger *slog.Logger
}

// Engine makes memory decisions with a Generator.
type Engine struct {
	gen         llm.Generator
	temperature float64
	ignore      []string
	logger      *slog.Logger
}

// NewEngine creates a decision engine.
func NewEngine(gen llm.Generator, c Config) *Engine {
	e := &Engine{
		gen:         gen,
		temperature: DefaultTemperature,
		ignore:      c.IgnoreValues,
		logger:      c.Logger,
	}
	if c.Temperature != nil {
		e.temperature = *c.Temperature
	}
	if e.ignore == nil {
		e.ignore = DefaultIgnoreValues()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// DecideStore asks what durable facts the history holds. A generation
// failure yields a nil Decision and the error.
func (e *Engine) DecideStore(ctx context.Context, history []llm.Message) (Decision, error) {
	prompt := "Chat history :\n" + Transcript(history)
	return e.decide(ctx, "store", storeInstruction, prompt)
}

// DecideQuery asks what to look up in long-term memory for input.
func (e *Engine) DecideQuery(ctx context.Context, input string, history []llm.Message) (Decision, error) {
	prompt := "Chat history :\n" + Transcript(history) + "\n\nNew message :\n" + input
	return e.decide(ctx, "query", queryInstruction, prompt)
}

func (e *Engine) decide(ctx context.Context, kind, instruction, prompt string) (Decision, error) {
	temperature := e.temperature
	resp, err := e.gen.Generate(ctx, &llm.GenerateRequest{
		System:      instruction,
		Messages:    []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt)},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("deciding memory %s: %w", kind, err)
	}

	d := ParseFiltered(resp.Text, e.ignore)
	e.logger.Debug("memory decision",
		"kind", kind,
		"roles", len(d),
		"decided", d != nil,
	)
	return d, nil
}

// Transcript renders user and assistant messages as "User: ..." and
// "Assistant: ..." lines in the order given. Other roles are skipped.
func Transcript(history []llm.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case llm.RoleUser:
			lines = append(lines, "User: "+m.GetText())
		case llm.RoleAssistant:
			lines = append(lines, "Assistant: "+m.GetText())
		}
	}
	return strings.Join(lines, "\n")
}
