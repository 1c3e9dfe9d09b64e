package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/parley/pkg/vector"
)

// MockVectorDriver is a test vector driver. Query returns Results when set,
// otherwise the stored documents in insertion order.
type MockVectorDriver struct {
	mu        sync.Mutex
	documents []vector.Document

	// Results, when non-nil, is returned by Query.
	Results []vector.QueryResult

	// FailAdd and FailQuery make the matching call return vector.ErrConnection.
	FailAdd   bool
	FailQuery bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make([]vector.Document, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	if m.FailAdd {
		return fmt.Errorf("mock add: %w", vector.ErrConnection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("mock query: %w", vector.ErrConnection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	results := m.Results
	if results == nil {
		results = make([]vector.QueryResult, 0, len(m.documents))
		for _, d := range m.documents {
			results = append(results, vector.QueryResult{Document: d, Score: 1})
		}
	}
	if len(results) < topK {
		return results, nil
	}
	return results[:topK], nil
}

func (m *MockVectorDriver) Get(_ context.Context, _ []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.Document(nil), m.documents...), nil
}

func (m *MockVectorDriver) Delete(_ context.Context, _ []string) error {
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
