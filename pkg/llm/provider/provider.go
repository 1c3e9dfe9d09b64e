// Package provider builds llm.Generator implementations from configuration.
package provider

import (
	"context"
	"fmt"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider/gemini"
	"github.com/papercomputeco/parley/pkg/llm/provider/ollama"
	"github.com/papercomputeco/parley/pkg/llm/provider/openai"
)

// NewGeneratorOpts selects and configures a generation provider.
type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string

	// Temperature is the provider-level default; requests may override it.
	Temperature *float64
}

// New creates a Generator for the given provider type.
// Returns an error if the provider type is not recognized.
func New(ctx context.Context, o *NewGeneratorOpts) (llm.Generator, error) {
	switch o.ProviderType {
	case Gemini:
		return gemini.NewGenerator(ctx, gemini.Config{
			APIKey:      o.APIKey,
			Model:       o.Model,
			BaseURL:     o.TargetURL,
			Temperature: o.Temperature,
		})
	case Ollama:
		return ollama.NewGenerator(ollama.Config{
			BaseURL:     o.TargetURL,
			Model:       o.Model,
			Temperature: o.Temperature,
		})
	case OpenAI:
		return openai.NewGenerator(openai.Config{
			BaseURL:     o.TargetURL,
			Model:       o.Model,
			APIKey:      o.APIKey,
			Temperature: o.Temperature,
		})
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", o.ProviderType, SupportedProviders())
	}
}
