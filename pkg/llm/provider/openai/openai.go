// Package openai implements llm.Generator against OpenAI-compatible
// chat completions endpoints (OpenAI, vLLM, LM Studio, llama.cpp server).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/parley/pkg/llm"
)

const (
	// DefaultModel is the default chat model.
	DefaultModel = "gpt-4o-mini"

	// DefaultBaseURL is the default API root, including the version segment.
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Config holds configuration for the OpenAI-compatible generator.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature *float64
}

// Generator calls a chat completions endpoint.
type Generator struct {
	baseURL     string
	model       string
	apiKey      string
	temperature *float64
	httpClient  *http.Client
}

// NewGenerator creates an OpenAI-compatible generator.
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
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (g *Generator) Name() string {
	return "openai"
}

// Generate sends one non-streaming chat completion request.
func (g *Generator) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	body, err := g.toRequest(req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.RetryableError{Err: fmt.Errorf("send openai request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		statusErr := fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
		if llm.RetryableStatus(resp.StatusCode) {
			return nil, &llm.RetryableError{StatusCode: resp.StatusCode, Err: statusErr}
		}
		return nil, statusErr
	}

	var response openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("openai error: %s", response.Error.Message)
	}

	return fromResponse(&response)
}

func (g *Generator) toRequest(req *llm.GenerateRequest) (*openaiRequest, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = g.temperature
	}

	out := &openaiRequest{
		Model:       model,
		Messages:    make([]openaiMessage, 0, len(req.Messages)+1),
		Temperature: temperature,
	}

	if req.System != "" {
		out.Messages = append(out.Messages, openaiMessage{Role: llm.RoleSystem, Content: req.System})
	}

	for _, msg := range req.Messages {
		if msg.Role == llm.RoleTool {
			for _, block := range msg.Content {
				if block.Type != llm.BlockToolResult {
					continue
				}
				out.Messages = append(out.Messages, openaiMessage{
					Role:       llm.RoleTool,
					Content:    block.ToolOutput,
					ToolCallID: block.ToolResultID,
				})
			}
			continue
		}

		converted := openaiMessage{Role: msg.Role, Content: msg.GetText()}
		for _, call := range msg.ToolCalls() {
			args, err := json.Marshal(call.Arguments)
			if err != nil {
				return nil, fmt.Errorf("marshal arguments for %s: %w", call.Name, err)
			}
			tc := openaiToolCall{ID: call.ID, Type: "function"}
			tc.Function.Name = call.Name
			tc.Function.Arguments = string(args)
			converted.ToolCalls = append(converted.ToolCalls, tc)
		}
		out.Messages = append(out.Messages, converted)
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openaiTool{
			Type: "function",
			Function: openaiFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return out, nil
}

func fromResponse(resp *openaiResponse) (*llm.GenerateResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response has no choices")
	}
	choice := resp.Choices[0]

	out := &llm.GenerateResponse{
		Model:      resp.Model,
		Text:       choice.Message.Content,
		StopReason: choice.FinishReason,
	}

	for _, tc := range choice.Message.ToolCalls {
		call := llm.ToolCall{ID: tc.ID, Name: tc.Function.Name}
		if tc.Function.Arguments != "" {
			// Malformed arguments are passed through as nil so the dispatcher
			// reports them to the model instead of failing the turn here.
			var args map[string]any
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err == nil {
				call.Arguments = args
			}
		}
		out.ToolCalls = append(out.ToolCalls, call)
	}

	if resp.Usage != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return out, nil
}

var _ llm.Generator = (*Generator)(nil)
