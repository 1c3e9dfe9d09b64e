// Package local provides an in-process implementation of the memory.Driver
// interface.
//
// Facts are kept in insertion order and ranked against a query by word
// overlap, newest first on ties. This is the local-dev story; the semantic
// driver ranks by embedding similarity instead.
package local

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/memory"
)

// Driver implements memory.Driver using in-process data structures.
type Driver struct {
	role memory.Role

	mu    sync.RWMutex
	facts []memory.Fact
}

// NewDriver creates a local memory driver for one role namespace.
func NewDriver(role memory.Role) *Driver {
	return &Driver{role: role}
}

// Add appends text as a new fact. Identical texts are stored twice.
func (d *Driver) Add(_ context.Context, text string) (string, error) {
	id := uuid.NewString()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.facts = append(d.facts, memory.Fact{
		ID:      id,
		Role:    d.role,
		Content: text,
	})
	return id, nil
}

// Query returns up to k facts sharing at least one word with text, ranked by
// the number of shared words. An empty query returns the k newest facts.
func (d *Driver) Query(_ context.Context, text string, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}

	queryWords := words(text)

	d.mu.RLock()
	type scored struct {
		content string
		score   int
		index   int
	}
	candidates := make([]scored, 0, len(d.facts))
	for i, f := range d.facts {
		score := 0
		if len(queryWords) > 0 {
			for w := range words(f.Content) {
				if _, ok := queryWords[w]; ok {
					score++
				}
			}
			if score == 0 {
				continue
			}
		}
		candidates = append(candidates, scored{content: f.Content, score: score, index: i})
	}
	d.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].index > candidates[j].index
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	result := make([]string, len(candidates))
	for i, c := range candidates {
		result[i] = c.content
	}
	return result, nil
}

// Facts returns a copy of every stored fact, oldest first.
func (d *Driver) Facts() []memory.Fact {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]memory.Fact, len(d.facts))
	copy(result, d.facts)
	return result
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

func words(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

var _ memory.Driver = (*Driver)(nil)
