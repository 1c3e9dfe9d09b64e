package llm

// GenerateResponse is either free text, one or more tool calls, or both.
// An empty Text with no ToolCalls is a valid, if unhelpful, reply.
type GenerateResponse struct {
	// Model that generated the response
	Model string `json:"model"`

	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Stop reason as reported by the provider (e.g., "stop", "tool_calls")
	StopReason string `json:"stop_reason,omitempty"`

	// Token usage
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// HasToolCalls reports whether the generator asked for tools.
func (r *GenerateResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// Message returns the assistant message to append to an in-flight sequence.
func (r *GenerateResponse) Message() Message {
	if r.HasToolCalls() {
		return NewToolUseMessage(r.Text, r.ToolCalls)
	}
	return NewTextMessage(RoleAssistant, r.Text)
}
