//go:build !libsql

package vectorutils

import (
	"github.com/papercomputeco/parley/pkg/vector"
	"github.com/papercomputeco/parley/pkg/vector/sqlitevec"
)

func init() {
	openSQLiteVec = func(o *NewVectorDriverOpts) (vector.Driver, error) {
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:         o.SQLitePath,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	}
}
