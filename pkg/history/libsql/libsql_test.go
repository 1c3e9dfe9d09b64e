//go:build libsql

package libsql_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/history/historytest"
	"github.com/papercomputeco/parley/pkg/history/libsql"
)

var _ = Describe("Store", func() {
	historytest.DescribeStore(func(ctx context.Context) history.Store {
		url := "file:" + filepath.Join(GinkgoT().TempDir(), "history.db")
		s, err := libsql.NewStore(ctx, url)
		Expect(err).NotTo(HaveOccurred())
		return s
	})
})
