package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/memory"
)

// MockMemoryStore is a memory.Driver that records calls and returns
// configurable results. It is safe for the background writes the agent makes.
type MockMemoryStore struct {
	mu      sync.Mutex
	added   []string
	queries []string

	// QueryResults is returned by Query, truncated to k.
	QueryResults []string

	// FailAdd causes Add to return an error.
	FailAdd bool

	// FailQuery causes Query to return an error.
	FailQuery bool
}

// NewMockMemoryStore creates a new mock memory store.
func NewMockMemoryStore() *MockMemoryStore {
	return &MockMemoryStore{}
}

func (m *MockMemoryStore) Add(_ context.Context, text string) (string, error) {
	if m.FailAdd {
		return "", fmt.Errorf("mock add: %w", memory.ErrNotConfigured)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, text)
	return uuid.NewString(), nil
}

func (m *MockMemoryStore) Query(_ context.Context, text string, k int) ([]string, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("mock query: %w", memory.ErrNotConfigured)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, text)
	if len(m.QueryResults) > k {
		return m.QueryResults[:k], nil
	}
	return m.QueryResults, nil
}

func (m *MockMemoryStore) Close() error {
	return nil
}

// Added returns the texts passed to Add.
func (m *MockMemoryStore) Added() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.added...)
}

// Queries returns the texts passed to Query.
func (m *MockMemoryStore) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// NewMockNamespaces wires user and assistant mocks into memory.Namespaces.
func NewMockNamespaces(user, assistant *MockMemoryStore) *memory.Namespaces {
	ns, err := memory.NewNamespaces(func(r memory.Role) (memory.Driver, error) {
		if r == memory.RoleUser {
			return user, nil
		}
		return assistant, nil
	})
	if err != nil {
		panic(err)
	}
	return ns
}
