package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/parley/pkg/vector"
)

// DefaultEmbedding is returned for texts without a scripted embedding.
var DefaultEmbedding = []float32{0.1, 0.2, 0.3}

// MockEmbedder returns scripted embeddings and records every text it sees.
type MockEmbedder struct {
	// Embeddings maps input text to the vector returned for it.
	Embeddings map[string][]float32

	// FailOn makes Embed fail, wrapping vector.ErrEmbedding, for this text.
	FailOn string

	mu     sync.Mutex
	texts  []string
	closed bool
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Embeddings: make(map[string][]float32)}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("%w: scripted failure for %q", vector.ErrEmbedding, text)
	}
	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}
	return DefaultEmbedding, nil
}

// Texts returns the inputs passed to Embed, in call order.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Closed reports whether Close was called.
func (m *MockEmbedder) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockEmbedder) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
