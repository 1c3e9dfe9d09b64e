package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/vector"
	"github.com/papercomputeco/parley/pkg/vector/inmemory"
)

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *inmemory.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		Expect(driver.Add(ctx, []vector.Document{
			{ID: "north", Content: "north", Embedding: []float32{0, 1}},
			{ID: "east", Content: "east", Embedding: []float32{1, 0}},
			{ID: "northeast", Content: "northeast", Embedding: []float32{1, 1}},
		})).To(Succeed())
	})

	It("orders results by cosine similarity", func() {
		results, err := driver.Query(ctx, []float32{0, 2}, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("north"))
		Expect(results[1].ID).To(Equal("northeast"))
		Expect(results[2].ID).To(Equal("east"))
	})

	It("limits results to topK", func() {
		results, err := driver.Query(ctx, []float32{1, 0}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Content).To(Equal("east"))
	})

	It("updates documents in place", func() {
		Expect(driver.Add(ctx, []vector.Document{{ID: "east", Content: "due east", Embedding: []float32{1, 0}}})).To(Succeed())

		docs, err := driver.Get(ctx, []string{"east"})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].Content).To(Equal("due east"))
	})

	It("deletes documents and skips unknown ids", func() {
		Expect(driver.Delete(ctx, []string{"north", "missing"})).To(Succeed())

		docs, err := driver.Get(ctx, []string{"north", "east", "northeast"})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
	})
})
