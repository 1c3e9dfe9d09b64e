package docs_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/tools/docs"
	testutils "github.com/papercomputeco/parley/pkg/utils/test"
	"github.com/papercomputeco/parley/pkg/vector"
	"github.com/papercomputeco/parley/pkg/vector/inmemory"
)

var _ = Describe("Doc retriever", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		store    *inmemory.Driver
		tool     *docs.Tool
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["visa rules"] = []float32{1, 0}

		store = inmemory.NewDriver()
		Expect(store.Add(ctx, []vector.Document{
			{
				ID:        "handbook-1",
				Content:   "Visitors need a visa for stays over 45 days.",
				Metadata:  map[string]string{docs.SourceKey: "handbook.pdf"},
				Embedding: []float32{1, 0},
			},
			{
				ID:        "notes-1",
				Content:   "Bring an umbrella in August.",
				Embedding: []float32{0, 1},
			},
		})).To(Succeed())

		var err error
		tool, err = docs.New(docs.Config{Embedder: embedder, Vector: store, TopK: 2})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires an embedder and vector driver", func() {
		_, err := docs.New(docs.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("formats matching documents with their sources", func() {
		out, err := tool.Invoke(ctx, map[string]any{"query": "visa rules"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("Document 1 (Source: handbook.pdf):\nVisitors need a visa"))
		Expect(out).To(ContainSubstring("Document 2 (Source: Unknown source):"))

		Expect(tool.Citations(nil, out)).To(Equal([]string{"handbook.pdf"}))
	})

	It("reports when nothing matches", func() {
		empty, err := docs.New(docs.Config{Embedder: embedder, Vector: inmemory.NewDriver()})
		Expect(err).NotTo(HaveOccurred())

		out, err := empty.Invoke(ctx, map[string]any{"query": "visa rules"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("No documents found matching the query."))
	})

	It("propagates embedding failures", func() {
		embedder.FailOn = "visa rules"
		_, err := tool.Invoke(ctx, map[string]any{"query": "visa rules"})
		Expect(err).To(MatchError(ContainSubstring("embedding query")))
	})
})
