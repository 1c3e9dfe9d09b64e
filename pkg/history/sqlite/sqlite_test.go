package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/history/historytest"
	"github.com/papercomputeco/parley/pkg/history/sqlite"
)

var _ = Describe("Store", func() {
	historytest.DescribeStore(func(ctx context.Context) history.Store {
		s, err := sqlite.NewStore(ctx, ":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates a file database and reopens it with data intact", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "history.db")

		s, err := sqlite.NewStore(ctx, dbPath)
		Expect(err).NotTo(HaveOccurred())

		sess, err := s.CreateSession(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Append(ctx, sess.ID, history.RoleUser, "persisted")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Close()).To(Succeed())

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		reopened, err := sqlite.NewStore(ctx, dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		all, err := reopened.All(ctx, sess.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].Content).To(Equal("persisted"))
	})
})
