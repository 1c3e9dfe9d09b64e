// Package vectorutils builds vector.Driver instances from configuration.
package vectorutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	"github.com/papercomputeco/parley/pkg/vector"
	"github.com/papercomputeco/parley/pkg/vector/chroma"
	"github.com/papercomputeco/parley/pkg/vector/inmemory"
	"github.com/papercomputeco/parley/pkg/vector/qdrant"
)

// Supported vector store providers.
const (
	Memory = "memory"
	SQLite = "sqlite"
	Chroma = "chroma"
	Qdrant = "qdrant"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL is the Chroma URL, or the Qdrant address ("host:port" or
	// "http(s)://host:port").
	TargetURL string

	// SQLitePath is the database file for the sqlite provider.
	SQLitePath string

	CollectionName string
	Dimensions     uint
	APIKey         string
	Logger         *slog.Logger
}

// openSQLiteVec is bound in builds that link mattn/go-sqlite3. libsql builds
// bundle their own SQLite and cannot load sqlite-vec next to it.
var openSQLiteVec = func(*NewVectorDriverOpts) (vector.Driver, error) {
	return nil, errors.New("sqlite vector store is not available in libsql builds")
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case Memory, "":
		return inmemory.NewDriver(), nil
	case SQLite:
		return openSQLiteVec(o)
	case Chroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.CollectionName,
		}, o.Logger)
	case Qdrant:
		host, port, useTLS, err := splitQdrantTarget(o.TargetURL)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(ctx, qdrant.Config{
			Host:           host,
			Port:           port,
			APIKey:         o.APIKey,
			UseTLS:         useTLS,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

func splitQdrantTarget(target string) (string, int, bool, error) {
	if target == "" {
		return "localhost", qdrant.DefaultPort, false, nil
	}

	useTLS := false
	hostport := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		useTLS = u.Scheme == "https"
		hostport = u.Host
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, qdrant.DefaultPort, useTLS, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, useTLS, nil
}
