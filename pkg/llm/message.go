package llm

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Content block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Message represents a single message in a conversation.
// Content is stored as an array of ContentBlocks so that a single assistant
// message can carry several tool calls and a tool message can carry several
// results, in a provider-agnostic way.
type Message struct {
	Role    string         `json:"role"`    // "system", "user", "assistant", "tool"
	Content []ContentBlock `json:"content"` // Array of content blocks
}

// ContentBlock represents a single piece of content within a message.
// The Type field determines which other fields are populated.
type ContentBlock struct {
	Type string `json:"type"` // "text", "tool_use", "tool_result"

	// Text content (type="text")
	Text string `json:"text,omitempty"`

	// Tool use (type="tool_use") - assistant requesting tool execution
	ToolUseID string         `json:"tool_use_id,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolInput map[string]any `json:"tool_input,omitempty"`

	// Tool result (type="tool_result") - result from tool execution
	ToolResultID string `json:"tool_result_id,omitempty"` // References the tool_use_id
	ToolOutput   string `json:"tool_output,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`
}

// NewTextMessage creates a simple text message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Type: BlockText, Text: text},
		},
	}
}

// NewToolUseMessage creates the assistant message that requested calls.
// Any accompanying text is kept ahead of the tool_use blocks.
func NewToolUseMessage(text string, calls []ToolCall) Message {
	blocks := make([]ContentBlock, 0, len(calls)+1)
	if text != "" {
		blocks = append(blocks, ContentBlock{Type: BlockText, Text: text})
	}
	for _, c := range calls {
		blocks = append(blocks, ContentBlock{
			Type:      BlockToolUse,
			ToolUseID: c.ID,
			ToolName:  c.Name,
			ToolInput: c.Arguments,
		})
	}
	return Message{Role: RoleAssistant, Content: blocks}
}

// NewToolResultMessage creates a tool-role message holding results in the
// order given, each correlated to its call by ToolResultID.
func NewToolResultMessage(results []ToolResult) Message {
	blocks := make([]ContentBlock, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, ContentBlock{
			Type:         BlockToolResult,
			ToolResultID: r.CallID,
			ToolName:     r.ToolName,
			ToolOutput:   r.Content,
			IsError:      r.IsError,
		})
	}
	return Message{Role: RoleTool, Content: blocks}
}

// GetText returns the concatenated text content from all text blocks in the message.
// This is a convenience method for simple text-only messages.
func (m *Message) GetText() string {
	var result string
	for _, block := range m.Content {
		if block.Type == BlockText {
			result += block.Text
		}
	}
	return result
}

// ToolCalls returns the tool_use blocks of the message as calls.
func (m *Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, block := range m.Content {
		if block.Type == BlockToolUse {
			calls = append(calls, ToolCall{
				ID:        block.ToolUseID,
				Name:      block.ToolName,
				Arguments: block.ToolInput,
			})
		}
	}
	return calls
}
