package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var (
		homeDir string
		cwd     string
	)

	BeforeEach(func() {
		var err error
		homeDir, err = os.MkdirTemp("", "parley-home-*")
		Expect(err).NotTo(HaveOccurred())
		cwd, err = os.MkdirTemp("", "parley-cwd-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(homeDir)
			_ = os.RemoveAll(cwd)
		})

		origCwd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(os.Chdir(origCwd)).To(Succeed()) })

		GinkgoT().Setenv("HOME", homeDir)
		GinkgoT().Setenv("XDG_DATA_HOME", "")
		GinkgoT().Setenv("PARLEY_DB", "")
		Expect(os.Chdir(cwd)).To(Succeed())
	})

	It("returns the override untouched", func() {
		path, err := ResolveSQLitePath("/tmp/explicit.db", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/explicit.db"))
	})

	It("prefers PARLEY_DB when set", func() {
		GinkgoT().Setenv("PARLEY_DB", "/tmp/custom.db")

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("resolves an existing ~/.parley/parley.db", func() {
		dbPath := filepath.Join(homeDir, ".parley", "parley.db")
		Expect(os.MkdirAll(filepath.Dir(dbPath), 0o755)).To(Succeed())
		Expect(os.WriteFile(dbPath, []byte("test"), 0o644)).To(Succeed())

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("prefers a database in the working directory over the home one", func() {
		Expect(os.MkdirAll(filepath.Join(homeDir, ".parley"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(homeDir, ".parley", "parley.db"), []byte("home"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(cwd, "parley.db"), []byte("local"), 0o644)).To(Succeed())

		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("parley.db"))
	})

	It("places a new database in the created ~/.parley directory", func() {
		path, err := ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(homeDir, ".parley", "parley.db")))

		info, err := os.Stat(filepath.Join(homeDir, ".parley"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("places a new database in the config dir override", func() {
		dir := filepath.Join(cwd, "custom")

		path, err := ResolveSQLitePath("", dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "parley.db")))
	})
})
