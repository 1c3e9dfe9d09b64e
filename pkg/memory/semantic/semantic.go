// Package semantic implements memory.Driver on an embedder and a vector
// collection. Each fact is embedded on Add and stored with its text, so
// Query needs no second lookup.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/embeddings"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/vector"
)

// Config wires a semantic driver for one role namespace.
type Config struct {
	Role     memory.Role
	Embedder embeddings.Embedder

	// Vector must be bound to a collection used only by this role.
	Vector vector.Driver
	Logger *slog.Logger
}

// Driver is a memory.Driver backed by vector similarity.
type Driver struct {
	role     memory.Role
	embedder embeddings.Embedder
	vector   vector.Driver
	logger   *slog.Logger
}

// NewDriver creates a semantic memory driver.
func NewDriver(c Config) (*Driver, error) {
	if c.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if c.Vector == nil {
		return nil, fmt.Errorf("vector driver is required")
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Driver{
		role:     c.Role,
		embedder: c.Embedder,
		vector:   c.Vector,
		logger:   logger,
	}, nil
}

// Add embeds text and stores it under a fresh uuid.
func (d *Driver) Add(ctx context.Context, text string) (string, error) {
	emb, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embedding %s fact: %w", d.role, err)
	}

	id := uuid.NewString()
	err = d.vector.Add(ctx, []vector.Document{{
		ID:      id,
		Content: text,
		Metadata: map[string]string{
			"role":       string(d.role),
			"created_at": time.Now().UTC().Format(time.RFC3339),
		},
		Embedding: emb,
	}})
	if err != nil {
		return "", fmt.Errorf("storing %s fact: %w", d.role, err)
	}

	d.logger.Debug("stored memory fact",
		"role", d.role,
		"id", id,
	)
	return id, nil
}

// Query returns the texts of the k nearest facts, most similar first.
func (d *Driver) Query(ctx context.Context, text string, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}

	emb, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding %s query: %w", d.role, err)
	}

	results, err := d.vector.Query(ctx, emb, k)
	if err != nil {
		return nil, fmt.Errorf("querying %s facts: %w", d.role, err)
	}

	facts := make([]string, 0, min(len(results), k))
	for _, r := range results {
		if len(facts) == k {
			break
		}
		if r.Content == "" {
			continue
		}
		facts = append(facts, r.Content)
	}

	d.logger.Debug("recalled memory facts",
		"role", d.role,
		"count", len(facts),
	)
	return facts, nil
}

// Close closes the embedder and the vector driver.
func (d *Driver) Close() error {
	embErr := d.embedder.Close()
	vecErr := d.vector.Close()
	if embErr != nil {
		return embErr
	}
	return vecErr
}

var _ memory.Driver = (*Driver)(nil)
