package memory_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/memory/local"
)

type closeTracker struct {
	memory.Driver
	closed *int
}

func (c closeTracker) Close() error {
	*c.closed++
	return nil
}

var _ = Describe("Roles", func() {
	It("parses roles case-insensitively", func() {
		r, err := memory.ParseRole(" Assistant ")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(memory.RoleAssistant))

		_, err = memory.ParseRole("tool")
		Expect(err).To(MatchError(memory.ErrUnknownRole))
	})
})

var _ = Describe("Namespaces", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("keeps user and assistant facts apart", func() {
		ns, err := memory.NewNamespaces(func(r memory.Role) (memory.Driver, error) {
			return local.NewDriver(r), nil
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = ns.Add(ctx, memory.RoleUser, "likes hiking")
		Expect(err).NotTo(HaveOccurred())
		_, err = ns.Add(ctx, memory.RoleAssistant, "suggested Sapa")
		Expect(err).NotTo(HaveOccurred())

		userFacts, err := ns.Query(ctx, memory.RoleUser, "hiking", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(userFacts).To(Equal([]string{"likes hiking"}))

		assistantFacts, err := ns.Query(ctx, memory.RoleAssistant, "hiking", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(assistantFacts).To(BeEmpty())

		assistantFacts, err = ns.Query(ctx, memory.RoleAssistant, "sapa", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(assistantFacts).To(Equal([]string{"suggested Sapa"}))
	})

	It("rejects unknown roles", func() {
		ns, err := memory.NewNamespaces(func(r memory.Role) (memory.Driver, error) {
			return local.NewDriver(r), nil
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = ns.Add(ctx, memory.Role("tool"), "x")
		Expect(err).To(MatchError(memory.ErrUnknownRole))
	})

	It("reports a nil set as not configured", func() {
		var ns *memory.Namespaces
		_, err := ns.Query(ctx, memory.RoleUser, "x", 1)
		Expect(err).To(MatchError(memory.ErrNotConfigured))
		Expect(ns.Close()).To(Succeed())
	})

	It("closes already opened drivers when one fails to open", func() {
		closed := 0
		_, err := memory.NewNamespaces(func(r memory.Role) (memory.Driver, error) {
			if r == memory.RoleAssistant {
				return nil, errors.New("collection unavailable")
			}
			return closeTracker{Driver: local.NewDriver(r), closed: &closed}, nil
		})
		Expect(err).To(MatchError(ContainSubstring("opening assistant memory")))
		Expect(closed).To(Equal(1))
	})
})
