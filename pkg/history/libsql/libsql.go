//go:build libsql

// Package libsql provides a libSQL (Turso) backed history store.
//
// go-libsql bundles its own SQLite and cannot be linked next to
// mattn/go-sqlite3, so this package only builds with the "libsql" tag.
package libsql

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/tursodatabase/go-libsql" // register the libSQL driver as "libsql"

	"github.com/papercomputeco/parley/pkg/history/sqlstore"
)

// Store implements history.Store using libSQL via the shared SQL store.
type Store struct {
	*sqlstore.Store
}

// NewStore creates a libSQL-backed history store. The url is either a remote
// database ("libsql://db-org.turso.io?authToken=...") or a local file
// ("file:parley.db").
func NewStore(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store, err := sqlstore.New(ctx, entsql.OpenDB(dialect.SQLite, db))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{Store: store}, nil
}
