package llm

// ToolDefinition describes a callable tool to the generator. Parameters is a
// JSON Schema object describing the arguments.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a generator's request to run a tool. ID correlates the call
// with its ToolResult and is never rewritten.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of exactly one ToolCall.
type ToolResult struct {
	CallID   string `json:"call_id"`
	ToolName string `json:"tool_name"`
	Content  string `json:"content"`
	IsError  bool   `json:"is_error"`

	// Citations are optional source strings a tool surfaced (URLs, document
	// sources). They are not sent back to the generator.
	Citations []string `json:"citations,omitempty"`
}
