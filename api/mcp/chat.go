package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	chatToolName    = "chat"
	chatDescription = "Send a message to the parley assistant. Omit conversation_id to start a new conversation; pass the returned conversation_id to continue it. Returns the reply and the sources the assistant used."
)

// ChatInput represents the input arguments for the MCP chat tool.
type ChatInput struct {
	Message        string `json:"message" jsonschema:"the message to send"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"an existing conversation to continue"`
}

// ChatOutput represents the structured output of a chat turn.
type ChatOutput struct {
	ConversationID string   `json:"conversation_id"`
	Response       string   `json:"response"`
	Sources        []string `json:"sources"`
}

// handleChat runs one turn via MCP.
func (s *Server) handleChat(ctx context.Context, _ *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, ChatOutput, error) {
	s.config.Logger.Debug("MCP chat request",
		"session_id", input.ConversationID,
	)

	result, err := s.config.Turns.ProcessTurn(ctx, input.ConversationID, input.Message)
	if err != nil {
		return errorResult(fmt.Sprintf("Chat failed: %v", err)), ChatOutput{Sources: []string{}}, nil
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}

	return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: result.Reply},
			},
		}, ChatOutput{
			ConversationID: result.SessionID,
			Response:       result.Reply,
			Sources:        sources,
		}, nil
}
