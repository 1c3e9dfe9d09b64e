package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/parley/pkg/llm"
)

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = 30 * time.Second

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Timeout bounds each invocation. Zero uses DefaultTimeout.
	Timeout time.Duration

	// MaxConcurrency limits parallel invocations in DispatchAll.
	// Zero means one goroutine per call.
	MaxConcurrency int

	Logger *slog.Logger
}

// Dispatcher runs tool calls against a Registry.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	limit    int
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil registry dispatches every call
// as not found.
func NewDispatcher(registry *Registry, c DispatcherConfig) *Dispatcher {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Dispatcher{
		registry: registry,
		timeout:  timeout,
		limit:    c.MaxConcurrency,
		logger:   logger,
	}
}

// Registry returns the dispatcher's registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs one call. It always returns a result whose CallID equals
// call.ID.
func (d *Dispatcher) Dispatch(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	result := llm.ToolResult{
		CallID:   call.ID,
		ToolName: call.Name,
	}

	tool, err := d.registry.Get(call.Name)
	if err != nil {
		d.logger.Warn("tool not found",
			"tool", call.Name,
			"call_id", call.ID,
		)
		result.IsError = true
		result.Content = err.Error()
		return result
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	params, err := parameters(tool)
	if err != nil {
		return d.failed(result, err)
	}
	if err := validate(params, args); err != nil {
		return d.failed(result, err)
	}

	start := time.Now()
	output, err := d.invoke(ctx, tool, args)
	duration := time.Since(start)
	if err != nil {
		d.logger.Debug("tool invocation failed",
			"tool", call.Name,
			"call_id", call.ID,
			"duration", duration,
		)
		return d.failed(result, err)
	}

	result.Content = output
	if c, ok := tool.(Citer); ok {
		result.Citations = d.citations(c, call, args, output)
	}

	d.logger.Debug("tool invocation completed",
		"tool", call.Name,
		"call_id", call.ID,
		"duration", duration,
		"result_length", len(output),
	)
	return result
}

// DispatchAll runs one round of calls concurrently and returns their results
// in request order.
func (d *Dispatcher) DispatchAll(ctx context.Context, calls []llm.ToolCall) []llm.ToolResult {
	results := make([]llm.ToolResult, len(calls))

	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	for i, call := range calls {
		g.Go(func() error {
			results[i] = d.Dispatch(ctx, call)
			return nil
		})
	}

	// Dispatch never fails, so Wait only synchronizes.
	_ = g.Wait()
	return results
}

// invoke runs the tool in its own goroutine so a tool that ignores its
// context still cannot hold the round past the timeout.
func (d *Dispatcher) invoke(ctx context.Context, tool Tool, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		output string
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- outcome{err: PanicError{Value: v}}
			}
		}()
		output, err := tool.Invoke(ctx, args)
		done <- outcome{output: output, err: err}
	}()

	select {
	case o := <-done:
		return o.output, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s", d.timeout)
		}
		return "", ctx.Err()
	}
}

// parameters reads the tool's schema, turning a panic into an error.
func parameters(tool Tool) (params map[string]any, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = PanicError{Value: v}
		}
	}()
	return tool.Parameters(), nil
}

// citations asks a Citer for its sources. A panic yields no citations.
func (d *Dispatcher) citations(c Citer, call llm.ToolCall, args map[string]any, output string) (out []string) {
	defer func() {
		if v := recover(); v != nil {
			d.logger.Warn("tool citations panicked",
				"tool", call.Name,
				"call_id", call.ID,
				"panic", v,
			)
			out = nil
		}
	}()
	return c.Citations(args, output)
}

func (d *Dispatcher) failed(result llm.ToolResult, err error) llm.ToolResult {
	d.logger.Warn("tool call failed",
		"tool", result.ToolName,
		"call_id", result.CallID,
		"error", err,
	)
	result.IsError = true
	result.Content = fmt.Sprintf("Error running tool '%s': %s", result.ToolName, err)
	return result
}
