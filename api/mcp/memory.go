package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/parley/pkg/memory"
)

const defaultRecallLimit = 5

var (
	memoryRecallToolName    = "memory_recall"
	memoryRecallDescription = "Recall facts from parley's long-term memory. Given a role (user or assistant) and a query, returns the stored facts most relevant to the query. Use this to retrieve persistent knowledge from past conversations."
)

// MemoryRecallInput represents the input arguments for the MCP memory_recall tool.
type MemoryRecallInput struct {
	Role  string `json:"role" jsonschema:"the memory namespace to search: user or assistant"`
	Query string `json:"query" jsonschema:"what to look for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of facts to return (default: 5)"`
}

// emptyRecall keeps Facts non-nil on error results; the output schema
// requires an array.
var emptyRecall = MemoryRecallOutput{Facts: []string{}}

// MemoryRecallOutput represents the structured output of a memory recall.
type MemoryRecallOutput struct {
	Role  memory.Role `json:"role"`
	Facts []string    `json:"facts"`
}

// handleMemoryRecall processes a memory recall request via MCP.
func (s *Server) handleMemoryRecall(ctx context.Context, _ *mcp.CallToolRequest, input MemoryRecallInput) (*mcp.CallToolResult, MemoryRecallOutput, error) {
	role, err := memory.ParseRole(input.Role)
	if err != nil {
		return errorResult("role must be user or assistant"), emptyRecall, nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), emptyRecall, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultRecallLimit
	}

	facts, err := s.config.Memory.Query(ctx, role, input.Query, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("Memory recall failed: %v", err)), emptyRecall, nil
	}

	if facts == nil {
		facts = []string{}
	}

	output := MemoryRecallOutput{Role: role, Facts: facts}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), emptyRecall, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
