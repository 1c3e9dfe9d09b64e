// Package genai implements pkg/embeddings' Embedder on the Gemini embedding API.
package genai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/papercomputeco/parley/pkg/embeddings"
	"github.com/papercomputeco/parley/pkg/vector"
)

const (
	// DefaultEmbeddingModel is the default Gemini embedding model.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// DefaultTaskType tunes embeddings for similarity search.
	DefaultTaskType = "SEMANTIC_SIMILARITY"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("genai api key is required")

// EmbedderConfig holds configuration for the Gemini embedder.
type EmbedderConfig struct {
	APIKey string

	// Model defaults to DefaultEmbeddingModel if empty.
	Model string

	// TaskType is a Gemini task type such as "RETRIEVAL_DOCUMENT" or
	// "SEMANTIC_SIMILARITY". Defaults to DefaultTaskType.
	TaskType string

	// Dimensions truncates the output embedding when non-zero.
	Dimensions uint

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Embedder wraps genai's EmbedContent.
type Embedder struct {
	client     *genai.Client
	model      string
	taskType   string
	dimensions uint
}

// NewEmbedder creates a Gemini embedder.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	taskType := cfg.TaskType
	if taskType == "" {
		taskType = DefaultTaskType
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

	return &Embedder{
		client:     client,
		model:      model,
		taskType:   taskType,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := embeddings.CheckInput(text); err != nil {
		return nil, err
	}

	config := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		config.OutputDimensionality = genai.Ptr(int32(e.dimensions))
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: genai embed: %v", vector.ErrEmbedding, err)
	}

	if len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}

	vec := result.Embeddings[0].Values
	if err := embeddings.Validate(vec, e.dimensions); err != nil {
		return nil, err
	}
	return vec, nil
}

// Close releases resources held by the embedder. The genai client holds
// no resources that need explicit cleanup.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
