// Package historyutils builds history.Store instances from configuration.
package historyutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/history/inmemory"
	"github.com/papercomputeco/parley/pkg/history/postgres"
)

// Supported history store providers.
const (
	Memory   = "memory"
	SQLite   = "sqlite"
	Postgres = "postgres"
	LibSQL   = "libsql"
)

// ErrLibSQLUnavailable is returned for the libsql provider in binaries built
// without the "libsql" tag.
var ErrLibSQLUnavailable = errors.New("libsql support not compiled in (build with -tags libsql)")

type NewStoreOpts struct {
	ProviderType string
	SQLitePath   string
	PostgresDSN  string
	LibSQLURL    string
}

// openSQLite and openLibSQL are bound per build: go-libsql bundles its own
// SQLite, so a libsql build serves sqlite paths through libSQL's local file
// mode instead of mattn/go-sqlite3.
var (
	openSQLite func(ctx context.Context, path string) (history.Store, error)
	openLibSQL = func(context.Context, string) (history.Store, error) {
		return nil, ErrLibSQLUnavailable
	}
)

func NewStore(ctx context.Context, o *NewStoreOpts) (history.Store, error) {
	switch o.ProviderType {
	case Memory:
		return inmemory.NewStore(), nil
	case SQLite, "":
		if o.SQLitePath == "" {
			return nil, errors.New("sqlite history store needs a database path")
		}
		return openSQLite(ctx, o.SQLitePath)
	case Postgres:
		if o.PostgresDSN == "" {
			return nil, errors.New("postgres history store needs a connection string")
		}
		return postgres.NewStore(ctx, o.PostgresDSN)
	case LibSQL:
		if o.LibSQLURL == "" {
			return nil, errors.New("libsql history store needs a database url")
		}
		return openLibSQL(ctx, o.LibSQLURL)
	default:
		return nil, fmt.Errorf("unsupported history store provider: %s", o.ProviderType)
	}
}
