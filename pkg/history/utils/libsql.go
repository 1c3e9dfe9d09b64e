//go:build libsql

package historyutils

import (
	"context"
	"strings"

	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/history/libsql"
)

func init() {
	openLibSQL = func(ctx context.Context, url string) (history.Store, error) {
		return libsql.NewStore(ctx, url)
	}
	openSQLite = func(ctx context.Context, path string) (history.Store, error) {
		if !strings.HasPrefix(path, "file:") {
			path = "file:" + path
		}
		return libsql.NewStore(ctx, path)
	}
}
