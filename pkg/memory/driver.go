// Package memory provides parley's long-term memory layer.
//
// Long-term memory is split into independent role namespaces ("user" facts
// and "assistant" facts). Each namespace is a [Driver] that supports exactly
// two operations: Add a durable fact, and Query for the facts most relevant
// to a piece of text. Facts are write-once; no update, merge or delete is
// part of the contract.
//
// Short-term context (the recent message window) comes from the history
// store and is not part of this package.
//
// Drivers are pluggable via configuration:
//
//	[memory]
//	provider = "semantic"   # or "local"
package memory

import "context"

// Driver is one role namespace of long-term memory.
type Driver interface {
	// Add persists a fact and returns its opaque ID.
	Add(ctx context.Context, text string) (string, error)

	// Query returns at most k fact texts, most relevant first.
	Query(ctx context.Context, text string, k int) ([]string, error)

	// Close releases driver resources.
	Close() error
}

// Fact represents a durable piece of knowledge about the user or the
// assistant, distilled from conversation.
type Fact struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
