// Package memoryutils builds the per-role memory namespaces from configuration.
package memoryutils

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/parley/pkg/embeddings"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/memory/local"
	"github.com/papercomputeco/parley/pkg/memory/semantic"
	"github.com/papercomputeco/parley/pkg/vector"
)

// Supported memory providers.
const (
	Semantic = "semantic"
	Local    = "local"
)

// DefaultCollectionPrefix names the per-role vector collections
// ("parley_memory_user", "parley_memory_assistant").
const DefaultCollectionPrefix = "parley_memory_"

type NewNamespacesOpts struct {
	ProviderType string

	// Embedder and OpenVector are required by the semantic provider.
	// OpenVector is called once per role with that role's collection.
	Embedder   embeddings.Embedder
	OpenVector func(collection string) (vector.Driver, error)

	CollectionPrefix string
	Logger           *slog.Logger
}

func NewNamespaces(o *NewNamespacesOpts) (*memory.Namespaces, error) {
	switch o.ProviderType {
	case Local:
		return memory.NewNamespaces(func(role memory.Role) (memory.Driver, error) {
			return local.NewDriver(role), nil
		})
	case Semantic, "":
		if o.Embedder == nil || o.OpenVector == nil {
			return nil, errors.New("semantic memory needs an embedder and a vector store")
		}
		prefix := o.CollectionPrefix
		if prefix == "" {
			prefix = DefaultCollectionPrefix
		}
		return memory.NewNamespaces(func(role memory.Role) (memory.Driver, error) {
			v, err := o.OpenVector(prefix + string(role))
			if err != nil {
				return nil, err
			}
			d, err := semantic.NewDriver(semantic.Config{
				Role:     role,
				Embedder: o.Embedder,
				Vector:   v,
				Logger:   o.Logger,
			})
			if err != nil {
				_ = v.Close()
				return nil, err
			}
			return d, nil
		})
	default:
		return nil, fmt.Errorf("unsupported memory provider: %s", o.ProviderType)
	}
}
