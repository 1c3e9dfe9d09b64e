// Package ollama implements llm.Generator against Ollama's /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/llm"
)

const (
	// DefaultModel is the default chat model.
	DefaultModel = "llama3.1"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Config holds configuration for the Ollama generator.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the chat model. Defaults to DefaultModel if empty.
	Model string

	// Temperature is used when a request does not set one.
	Temperature *float64
}

// Generator calls a local or remote Ollama server.
type Generator struct {
	baseURL     string
	model       string
	temperature *float64
	httpClient  *http.Client
}

// NewGenerator creates an Ollama-backed generator.
func NewGenerator(cfg Config) (*Generator, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Generator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (g *Generator) Name() string {
	return "ollama"
}

// Generate sends one non-streaming chat request.
func (g *Generator) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	payload, err := json.Marshal(g.toRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.RetryableError{Err: fmt.Errorf("send ollama request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		statusErr := fmt.Errorf("ollama status %d: %s", resp.StatusCode, string(body))
		if llm.RetryableStatus(resp.StatusCode) {
			return nil, &llm.RetryableError{StatusCode: resp.StatusCode, Err: statusErr}
		}
		return nil, statusErr
	}

	var response ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", response.Error)
	}

	return fromResponse(&response), nil
}

func (g *Generator) toRequest(req *llm.GenerateRequest) *ollamaRequest {
	model := req.Model
	if model == "" {
		model = g.model
	}

	out := &ollamaRequest{
		Model:    model,
		Messages: make([]ollamaMessage, 0, len(req.Messages)+1),
		Stream:   false,
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = g.temperature
	}
	if temperature != nil {
		out.Options = &ollamaOptions{Temperature: temperature}
	}

	if req.System != "" {
		out.Messages = append(out.Messages, ollamaMessage{Role: llm.RoleSystem, Content: req.System})
	}

	for _, msg := range req.Messages {
		out.Messages = append(out.Messages, toMessages(msg)...)
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, ollamaTool{
			Type: "function",
			Function: ollamaToolSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return out
}

// toMessages flattens one llm.Message. Tool results become one "tool"
// message per result since Ollama correlates them by position and name.
func toMessages(msg llm.Message) []ollamaMessage {
	if msg.Role == llm.RoleTool {
		out := make([]ollamaMessage, 0, len(msg.Content))
		for _, block := range msg.Content {
			if block.Type != llm.BlockToolResult {
				continue
			}
			out = append(out, ollamaMessage{
				Role:     llm.RoleTool,
				Content:  block.ToolOutput,
				ToolName: block.ToolName,
			})
		}
		return out
	}

	converted := ollamaMessage{Role: msg.Role, Content: msg.GetText()}
	for _, call := range msg.ToolCalls() {
		converted.ToolCalls = append(converted.ToolCalls, ollamaToolCall{
			ID: call.ID,
			Function: ollamaToolFunction{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}
	return []ollamaMessage{converted}
}

func fromResponse(resp *ollamaResponse) *llm.GenerateResponse {
	out := &llm.GenerateResponse{
		Model:      resp.Model,
		Text:       resp.Message.Content,
		StopReason: resp.DoneReason,
	}

	for _, tc := range resp.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		out.Usage = &llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		}
	}

	return out
}

var _ llm.Generator = (*Generator)(nil)
