// Package docs provides the doc_retriever tool: semantic lookup over a
// document collection that was indexed elsewhere.
package docs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/parley/pkg/embeddings"
	"github.com/papercomputeco/parley/pkg/tools"
	"github.com/papercomputeco/parley/pkg/vector"
)

const (
	Name = "doc_retriever"

	// DefaultTopK is how many documents a lookup returns.
	DefaultTopK = 5

	// SourceKey is the document metadata key naming where a chunk came from.
	SourceKey = "source"

	noDocuments   = "No documents found matching the query."
	unknownSource = "Unknown source"
)

// Config configures the retriever.
type Config struct {
	Embedder embeddings.Embedder
	Vector   vector.Driver
	TopK     int
}

// Tool is the doc_retriever capability.
type Tool struct {
	embedder embeddings.Embedder
	vector   vector.Driver
	topK     int
}

// New creates the retriever.
func New(c Config) (*Tool, error) {
	if c.Embedder == nil || c.Vector == nil {
		return nil, errors.New("doc retriever needs an embedder and a vector driver")
	}
	topK := c.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Tool{embedder: c.Embedder, vector: c.Vector, topK: topK}, nil
}

func (t *Tool) Name() string { return Name }

func (t *Tool) Description() string {
	return "Retrieve relevant information from stored documents based on a query."
}

func (t *Tool) Parameters() map[string]any {
	return tools.ObjectSchema(map[string]string{
		"query": "What to look up in the stored documents.",
	}, "query")
}

// Retrieve returns the documents nearest to query.
func (t *Tool) Retrieve(ctx context.Context, query string) ([]vector.QueryResult, error) {
	emb, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := t.vector.Query(ctx, emb, t.topK)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	return results, nil
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, err := tools.StringArg(args, "query")
	if err != nil {
		return "", err
	}

	results, err := t.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return noDocuments, nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "Document %d (Source: %s):\n%s\n\n", i+1, source(r.Document), r.Content)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Citations returns the distinct known sources in the output, in order.
func (t *Tool) Citations(_ map[string]any, output string) []string {
	var (
		cites []string
		seen  = map[string]bool{}
	)
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "Document ") {
			continue
		}
		_, rest, ok := strings.Cut(line, "(Source: ")
		if !ok {
			continue
		}
		src := strings.TrimSuffix(rest, "):")
		if src == unknownSource || seen[src] {
			continue
		}
		seen[src] = true
		cites = append(cites, src)
	}
	return cites
}

// Close closes the embedder and vector driver.
func (t *Tool) Close() error {
	return errors.Join(t.embedder.Close(), t.vector.Close())
}

func source(d vector.Document) string {
	if s := d.Metadata[SourceKey]; s != "" {
		return s
	}
	return unknownSource
}

var (
	_ tools.Tool   = (*Tool)(nil)
	_ tools.Citer  = (*Tool)(nil)
	_ tools.Closer = (*Tool)(nil)
)
