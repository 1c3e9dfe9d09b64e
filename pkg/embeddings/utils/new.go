// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/parley/pkg/embeddings"
	embedgenai "github.com/papercomputeco/parley/pkg/embeddings/genai"
	"github.com/papercomputeco/parley/pkg/embeddings/ollama"
)

// Supported embedding providers.
const (
	Ollama = "ollama"
	GenAI  = "genai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Dimensions   uint
}

func NewEmbedder(ctx context.Context, o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case Ollama:
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	case GenAI:
		return embedgenai.NewEmbedder(ctx, embedgenai.EmbedderConfig{
			APIKey:     o.APIKey,
			Model:      o.Model,
			BaseURL:    o.TargetURL,
			Dimensions: o.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
