package history_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/history"
)

var _ = Describe("Reverse", func() {
	It("turns a newest-first window into chronological order", func() {
		in := []history.Message{{Content: "t3"}, {Content: "t2"}}
		Expect(history.Reverse(in)).To(Equal([]history.Message{{Content: "t2"}, {Content: "t3"}}))
		Expect(history.Reverse(nil)).To(BeEmpty())
	})
})

var _ = Describe("Page", func() {
	sessions := []history.Session{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	It("applies skip and limit", func() {
		Expect(history.Page(sessions, 1, 1)).To(Equal([]history.Session{{ID: "b"}}))
		Expect(history.Page(sessions, 0, 0)).To(HaveLen(3))
		Expect(history.Page(sessions, -1, 2)).To(HaveLen(2))
		Expect(history.Page(sessions, 3, 2)).To(BeEmpty())
	})
})

var _ = Describe("NotFoundError", func() {
	It("is detected through wrapping", func() {
		err := fmt.Errorf("loading: %w", history.NotFoundError{ID: "s1"})
		Expect(history.IsNotFound(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("session not found: s1"))
		Expect(history.IsNotFound(fmt.Errorf("other"))).To(BeFalse())
	})
})
