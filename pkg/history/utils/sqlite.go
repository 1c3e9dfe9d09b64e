//go:build !libsql

package historyutils

import (
	"context"

	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/history/sqlite"
)

func init() {
	openSQLite = func(ctx context.Context, path string) (history.Store, error) {
		return sqlite.NewStore(ctx, path)
	}
}
