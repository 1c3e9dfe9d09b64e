package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/papercomputeco/parley/pkg/llm"
)

// GeneratorStep is one scripted generation outcome.
type GeneratorStep struct {
	Response *llm.GenerateResponse
	Err      error

	// Delay blocks the call, honoring context cancellation.
	Delay time.Duration
}

// TextStep is a step that replies with text.
func TextStep(text string) GeneratorStep {
	return GeneratorStep{Response: &llm.GenerateResponse{Text: text}}
}

// ToolStep is a step that asks for the given calls.
func ToolStep(calls ...llm.ToolCall) GeneratorStep {
	return GeneratorStep{Response: &llm.GenerateResponse{ToolCalls: calls}}
}

// ErrStep is a step that fails.
func ErrStep(err error) GeneratorStep {
	return GeneratorStep{Err: err}
}

// ScriptedGenerator is an llm.Generator that plays back steps in order and
// records every request. When steps run out the last one repeats.
type ScriptedGenerator struct {
	mu       sync.Mutex
	steps    []GeneratorStep
	requests []*llm.GenerateRequest

	// Handler, when set, answers requests instead of the script.
	Handler func(req *llm.GenerateRequest) (*llm.GenerateResponse, error)
}

// NewScriptedGenerator creates a generator that plays steps.
func NewScriptedGenerator(steps ...GeneratorStep) *ScriptedGenerator {
	return &ScriptedGenerator{steps: steps}
}

func (g *ScriptedGenerator) Name() string { return "scripted" }

func (g *ScriptedGenerator) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	g.mu.Lock()
	n := len(g.requests)
	g.requests = append(g.requests, cloneRequest(req))
	handler := g.Handler

	var step GeneratorStep
	switch {
	case handler != nil:
	case len(g.steps) == 0:
		g.mu.Unlock()
		return nil, errors.New("scripted generator has no steps")
	case n < len(g.steps):
		step = g.steps[n]
	default:
		step = g.steps[len(g.steps)-1]
	}
	g.mu.Unlock()

	if handler != nil {
		return handler(req)
	}

	if step.Delay > 0 {
		select {
		case <-time.After(step.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if step.Err != nil {
		return nil, step.Err
	}
	resp := *step.Response
	return &resp, nil
}

// Requests returns a copy of the recorded requests.
func (g *ScriptedGenerator) Requests() []*llm.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*llm.GenerateRequest(nil), g.requests...)
}

// Calls returns how many times Generate was called.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func cloneRequest(req *llm.GenerateRequest) *llm.GenerateRequest {
	c := *req
	c.Messages = append([]llm.Message(nil), req.Messages...)
	c.Tools = append([]llm.ToolDefinition(nil), req.Tools...)
	return &c
}
