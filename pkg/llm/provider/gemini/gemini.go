// Package gemini implements llm.Generator on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/papercomputeco/parley/pkg/llm"
)

// DefaultModel is the default Gemini chat model.
const DefaultModel = "gemini-2.0-flash"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini api key is required")

// Config holds configuration for the Gemini generator.
type Config struct {
	APIKey string

	// Model defaults to DefaultModel if empty.
	Model string

	// BaseURL overrides the Gemini API endpoint. Used by tests and proxies.
	BaseURL string

	// Temperature is used when a request does not set one.
	Temperature *float64
}

// Generator calls Gemini through genai.Client.
type Generator struct {
	client      *genai.Client
	model       string
	temperature *float64
}

// NewGenerator creates a Gemini-backed generator.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *Generator) Name() string {
	return "gemini"
}

// Generate sends one GenerateContent call.
func (g *Generator) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = g.temperature
	}
	if temperature != nil {
		config.Temperature = genai.Ptr(float32(*temperature))
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, toContents(req.Messages), config)
	if err != nil {
		return nil, classify(err)
	}

	return fromResponse(model, resp), nil
}

// classify wraps transient API failures in llm.RetryableError.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && llm.RetryableStatus(apiErr.Code) {
		return &llm.RetryableError{StatusCode: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && llm.RetryableStatus(apiErrPtr.Code) {
		return &llm.RetryableError{StatusCode: apiErrPtr.Code, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &llm.RetryableError{Err: err}
	}
	return fmt.Errorf("gemini generate: %w", err)
}

func toContents(messages []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleTool:
			parts := make([]*genai.Part, 0, len(msg.Content))
			for _, block := range msg.Content {
				if block.Type != llm.BlockToolResult {
					continue
				}
				key := "output"
				if block.IsError {
					key = "error"
				}
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       block.ToolResultID,
					Name:     block.ToolName,
					Response: map[string]any{key: block.ToolOutput},
				}})
			}
			contents = append(contents, &genai.Content{Role: string(genai.RoleUser), Parts: parts})

		case llm.RoleAssistant:
			parts := make([]*genai.Part, 0, len(msg.Content))
			for _, block := range msg.Content {
				switch block.Type {
				case llm.BlockText:
					if block.Text != "" {
						parts = append(parts, &genai.Part{Text: block.Text})
					}
				case llm.BlockToolUse:
					parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
						ID:   block.ToolUseID,
						Name: block.ToolName,
						Args: block.ToolInput,
					}})
				}
			}
			if len(parts) == 0 {
				parts = append(parts, &genai.Part{Text: ""})
			}
			contents = append(contents, &genai.Content{Role: string(genai.RoleModel), Parts: parts})

		default:
			contents = append(contents, &genai.Content{
				Role:  string(genai.RoleUser),
				Parts: []*genai.Part{{Text: msg.GetText()}},
			})
		}
	}
	return contents
}

func fromResponse(model string, resp *genai.GenerateContentResponse) *llm.GenerateResponse {
	out := &llm.GenerateResponse{Model: model}
	if resp == nil || len(resp.Candidates) == 0 {
		return out
	}

	candidate := resp.Candidates[0]
	out.StopReason = string(candidate.FinishReason)

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.FunctionCall != nil {
				id := part.FunctionCall.ID
				if id == "" {
					id = "call_" + uuid.NewString()
				}
				out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
					ID:        id,
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
				continue
			}
			if !part.Thought {
				out.Text += part.Text
			}
		}
	}

	if resp.UsageMetadata != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return out
}

var _ llm.Generator = (*Generator)(nil)
