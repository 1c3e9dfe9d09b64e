// Package embeddings defines the text embedding contract used by the
// semantic memory store and the document retriever.
package embeddings

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/papercomputeco/parley/pkg/vector"
)

// Embedder turns text into vectors for a vector.Driver.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	Close() error
}

// ErrEmptyInput is returned for blank text; no provider embeds it usefully.
var ErrEmptyInput = fmt.Errorf("%w: empty input", vector.ErrEmbedding)

// CheckInput rejects blank text before a provider round trip.
func CheckInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	return nil
}

// Validate checks a provider's output before it reaches a vector store: the
// vector must be non-empty and finite, and exactly want long when want > 0.
// A collection created at one width rejects or corrupts any other.
func Validate(vec []float32, want uint) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}
	if want > 0 && uint(len(vec)) != want {
		return fmt.Errorf("%w: got %d dimensions, want %d", vector.ErrEmbedding, len(vec), want)
	}
	for i, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite value at index %d", vector.ErrEmbedding, i)
		}
	}
	return nil
}
