// Package historytest holds the behavior every history.Store must share.
package historytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/history"
)

// DescribeStore registers the shared store specs. open is called before
// every test and must return an empty store.
func DescribeStore(open func(ctx context.Context) history.Store) {
	var (
		ctx   context.Context
		store history.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = open(ctx)
	})

	AfterEach(func() {
		if store != nil {
			Expect(store.Close()).To(Succeed())
		}
	})

	appendAll := func(id string, contents ...string) []*history.Message {
		out := make([]*history.Message, 0, len(contents))
		for i, c := range contents {
			role := history.RoleUser
			if i%2 == 1 {
				role = history.RoleAssistant
			}
			m, err := store.Append(ctx, id, role, c)
			Expect(err).NotTo(HaveOccurred())
			out = append(out, m)
		}
		return out
	}

	Describe("CreateSession", func() {
		It("yields distinct identifiers", func() {
			a, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			b, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ID).NotTo(BeEmpty())
			Expect(a.ID).NotTo(Equal(b.ID))
		})

		It("keeps the session system prompt", func() {
			s, err := store.CreateSession(ctx, "Answer like a tour guide.")
			Expect(err).NotTo(HaveOccurred())

			got, err := store.GetSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.SystemPrompt).To(Equal("Answer like a tour guide."))
			Expect(got.CreatedAt).To(BeTemporally("~", s.CreatedAt, time.Microsecond))
		})
	})

	Describe("GetSession", func() {
		It("returns a NotFoundError for unknown sessions", func() {
			_, err := store.GetSession(ctx, "missing")
			Expect(err).To(MatchError(history.NotFoundError{ID: "missing"}))
			Expect(history.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Append", func() {
		It("does not deduplicate identical messages", func() {
			s, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			a, err := store.Append(ctx, s.ID, history.RoleUser, "hello")
			Expect(err).NotTo(HaveOccurred())
			b, err := store.Append(ctx, s.ID, history.RoleUser, "hello")
			Expect(err).NotTo(HaveOccurred())

			Expect(a.ID).NotTo(Equal(b.ID))
			Expect(b.Seq).To(Equal(a.Seq + 1))

			all, err := store.All(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})

		It("rejects unknown sessions and roles", func() {
			_, err := store.Append(ctx, "missing", history.RoleUser, "hello")
			Expect(history.IsNotFound(err)).To(BeTrue())

			s, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = store.Append(ctx, s.ID, history.Role("system"), "hello")
			Expect(err).To(MatchError(history.ErrInvalidRole))
		})

		It("advances the session's updated_at", func() {
			s, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(2 * time.Millisecond)
			appendAll(s.ID, "hi")

			got, err := store.GetSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.UpdatedAt).To(BeTemporally(">", s.UpdatedAt))
		})

		It("keeps a gapless order under concurrent appends", func() {
			s, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			const n = 20
			var wg sync.WaitGroup
			for i := range n {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := store.Append(ctx, s.ID, history.RoleUser, fmt.Sprintf("m%d", i))
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			all, err := store.All(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(n))
			for i, m := range all {
				Expect(m.Seq).To(Equal(int64(i + 1)))
			}
		})
	})

	Describe("Recent and All", func() {
		It("returns the window newest first and all messages oldest first", func() {
			s, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			appendAll(s.ID, "t1", "t2", "t3")

			recent, err := store.Recent(ctx, s.ID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(recent)).To(Equal([]string{"t3", "t2"}))
			Expect(contents(history.Reverse(recent))).To(Equal([]string{"t2", "t3"}))

			all, err := store.All(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(all)).To(Equal([]string{"t1", "t2", "t3"}))
			Expect(all[1].Role).To(Equal(history.RoleAssistant))
		})

		It("handles windows larger than the log and empty windows", func() {
			s, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			appendAll(s.ID, "only")

			recent, err := store.Recent(ctx, s.ID, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(contents(recent)).To(Equal([]string{"only"}))

			recent, err = store.Recent(ctx, s.ID, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(BeEmpty())
		})

		It("returns NotFoundError for unknown sessions", func() {
			_, err := store.Recent(ctx, "missing", 5)
			Expect(history.IsNotFound(err)).To(BeTrue())
			_, err = store.All(ctx, "missing")
			Expect(history.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("DeleteSession", func() {
		It("removes the session with its messages", func() {
			s, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			appendAll(s.ID, "a", "b")

			deleted, err := store.DeleteSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeTrue())

			_, err = store.All(ctx, s.ID)
			Expect(history.IsNotFound(err)).To(BeTrue())

			deleted, err = store.DeleteSession(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeFalse())
		})
	})

	Describe("ListSessions", func() {
		It("orders by last update and pages with skip and limit", func() {
			a, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			time.Sleep(2 * time.Millisecond)
			b, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			time.Sleep(2 * time.Millisecond)
			c, err := store.CreateSession(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			time.Sleep(2 * time.Millisecond)
			appendAll(a.ID, "bump")

			all, err := store.ListSessions(ctx, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(all)).To(Equal([]string{a.ID, c.ID, b.ID}))

			page, err := store.ListSessions(ctx, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(page)).To(Equal([]string{c.ID}))

			page, err = store.ListSessions(ctx, 2, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(page)).To(Equal([]string{b.ID}))

			page, err = store.ListSessions(ctx, 5, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(page).To(BeEmpty())
		})
	})
}

func contents(ms []history.Message) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Content)
	}
	return out
}

func ids(ss []history.Session) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.ID)
	}
	return out
}
