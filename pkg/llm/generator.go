// Package llm defines parley's provider-agnostic generation contract: the
// messages exchanged with a language model, the tool calls it may request,
// and the Generator interface the providers implement.
package llm

import "context"

// Generator produces the next assistant step for a conversation.
type Generator interface {
	// Generate returns free text and/or tool calls. Errors that a caller may
	// retry are wrapped in a RetryableError.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider name (e.g. "gemini", "ollama").
	Name() string
}
