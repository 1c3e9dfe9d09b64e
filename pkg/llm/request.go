package llm

// GenerateRequest is a provider-agnostic generation request.
type GenerateRequest struct {
	// Conversation messages, oldest first.
	Messages []Message `json:"messages"`

	// System prompt (providers handle this separately from messages)
	System string `json:"system,omitempty"`

	// Tools the generator may call. Empty means text-only.
	Tools []ToolDefinition `json:"tools,omitempty"`

	// Temperature overrides the provider default when set.
	Temperature *float64 `json:"temperature,omitempty"`

	// Model overrides the provider's configured model when set.
	Model string `json:"model,omitempty"`
}
