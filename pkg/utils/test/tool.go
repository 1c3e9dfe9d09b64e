package testutils

import (
	"context"
	"sync/atomic"
)

// FakeTool is a configurable tool. Fn answers Invoke; when nil, Output and
// Err are returned.
type FakeTool struct {
	ToolName string
	Desc     string
	Schema   map[string]any

	Output string
	Err    error
	Fn     func(ctx context.Context, args map[string]any) (string, error)

	calls atomic.Int32
}

func (t *FakeTool) Name() string { return t.ToolName }

func (t *FakeTool) Description() string {
	if t.Desc == "" {
		return "fake tool " + t.ToolName
	}
	return t.Desc
}

func (t *FakeTool) Parameters() map[string]any {
	if t.Schema == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return t.Schema
}

func (t *FakeTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	t.calls.Add(1)
	if t.Fn != nil {
		return t.Fn(ctx, args)
	}
	return t.Output, t.Err
}

// Calls returns how many times Invoke ran.
func (t *FakeTool) Calls() int {
	return int(t.calls.Load())
}
