// Package tools resolves and runs the capability tools a generator asks for.
//
// A [Dispatcher] never returns an error to its caller: unknown tools,
// malformed arguments, tool failures, panics and timeouts all come back as an
// error-flagged llm.ToolResult so the generator can react in the next round.
package tools

import (
	"context"

	"github.com/papercomputeco/parley/pkg/llm"
)

// Tool is a named capability with a JSON Schema argument contract.
type Tool interface {
	Name() string
	Description() string

	// Parameters is a JSON Schema object. A "required" list is enforced by
	// the Dispatcher before Invoke is called.
	Parameters() map[string]any

	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Citer is implemented by tools that can name the sources behind a result
// (URLs, document names). Citations replace the tool name in a turn's sources.
type Citer interface {
	Citations(args map[string]any, output string) []string
}

// Closer is implemented by tools that hold resources.
type Closer interface {
	Close() error
}

// Definition converts t into the generator-facing declaration.
func Definition(t Tool) llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  schemaOf(t),
	}
}

// schemaOf returns t's schema, or an empty object schema when reading it
// panics. Dispatching such a tool then fails with the panic.
func schemaOf(t Tool) map[string]any {
	params, err := parameters(t)
	if err != nil {
		return ObjectSchema(nil)
	}
	return params
}

// ObjectSchema builds a JSON Schema object with string properties.
// props maps a property name to its description.
func ObjectSchema(props map[string]string, required ...string) map[string]any {
	properties := make(map[string]any, len(props))
	for name, desc := range props {
		properties[name] = map[string]any{
			"type":        "string",
			"description": desc,
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
