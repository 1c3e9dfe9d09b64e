package tools_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/tools"
	testutils "github.com/papercomputeco/parley/pkg/utils/test"
)

type citingTool struct {
	testutils.FakeTool
}

func (c *citingTool) Citations(args map[string]any, _ string) []string {
	return []string{fmt.Sprint(args["url"])}
}

// brokenSchemaTool panics when asked for its schema.
type brokenSchemaTool struct {
	testutils.FakeTool
}

func (b *brokenSchemaTool) Parameters() map[string]any {
	panic("schema unavailable")
}

// brokenCiter panics while producing citations.
type brokenCiter struct {
	testutils.FakeTool
}

func (b *brokenCiter) Citations(map[string]any, string) []string {
	panic("citations unavailable")
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx     context.Context
		weather *testutils.FakeTool
		d       *tools.Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		weather = &testutils.FakeTool{
			ToolName: "get_weather",
			Schema:   tools.ObjectSchema(map[string]string{"city_name": "City"}, "city_name"),
			Fn: func(_ context.Context, args map[string]any) (string, error) {
				return fmt.Sprintf("Weather information for %s: 31°C", args["city_name"]), nil
			},
		}

		failing := &testutils.FakeTool{ToolName: "flaky", Err: errors.New("upstream unavailable")}
		panicking := &testutils.FakeTool{
			ToolName: "panics",
			Fn: func(context.Context, map[string]any) (string, error) {
				panic("boom")
			},
		}
		slow := &testutils.FakeTool{
			ToolName: "slow",
			Fn: func(context.Context, map[string]any) (string, error) {
				// Ignores its context on purpose.
				time.Sleep(2 * time.Second)
				return "late", nil
			},
		}
		citing := &citingTool{testutils.FakeTool{ToolName: "fetch_web", Output: "page"}}

		r, err := tools.NewRegistry(weather, failing, panicking, slow, citing)
		Expect(err).NotTo(HaveOccurred())

		d = tools.NewDispatcher(r, tools.DispatcherConfig{
			Timeout: 50 * time.Millisecond,
			Logger:  logger.Nop(),
		})
	})

	It("runs a registered tool and preserves the call ID", func() {
		res := d.Dispatch(ctx, llm.ToolCall{
			ID:        "call-1",
			Name:      "get_weather",
			Arguments: map[string]any{"city_name": "Hanoi"},
		})
		Expect(res.IsError).To(BeFalse())
		Expect(res.CallID).To(Equal("call-1"))
		Expect(res.ToolName).To(Equal("get_weather"))
		Expect(res.Content).To(ContainSubstring("Hanoi"))
	})

	It("reports unknown tools as not found", func() {
		res := d.Dispatch(ctx, llm.ToolCall{ID: "call-2", Name: "nonexistent_tool"})
		Expect(res.IsError).To(BeTrue())
		Expect(res.CallID).To(Equal("call-2"))
		Expect(res.Content).To(ContainSubstring("tool not found"))
	})

	It("reports missing required arguments without invoking the tool", func() {
		res := d.Dispatch(ctx, llm.ToolCall{ID: "call-3", Name: "get_weather"})
		Expect(res.IsError).To(BeTrue())
		Expect(res.Content).To(ContainSubstring(`missing required argument "city_name"`))
		Expect(weather.Calls()).To(Equal(0))
	})

	It("converts tool errors into error results", func() {
		res := d.Dispatch(ctx, llm.ToolCall{ID: "call-4", Name: "flaky"})
		Expect(res.IsError).To(BeTrue())
		Expect(res.CallID).To(Equal("call-4"))
		Expect(res.Content).To(Equal("Error running tool 'flaky': upstream unavailable"))
	})

	It("recovers panics", func() {
		res := d.Dispatch(ctx, llm.ToolCall{ID: "call-5", Name: "panics"})
		Expect(res.IsError).To(BeTrue())
		Expect(res.Content).To(ContainSubstring("tool panicked: boom"))
	})

	Context("with tools that panic outside Invoke", func() {
		var (
			schema *brokenSchemaTool
			citer  *brokenCiter
			bd     *tools.Dispatcher
		)

		BeforeEach(func() {
			schema = &brokenSchemaTool{testutils.FakeTool{ToolName: "bad_schema", Output: "unused"}}
			citer = &brokenCiter{testutils.FakeTool{ToolName: "bad_citer", Output: "page text"}}
			r, err := tools.NewRegistry(schema, citer)
			Expect(err).NotTo(HaveOccurred())
			bd = tools.NewDispatcher(r, tools.DispatcherConfig{Logger: logger.Nop()})
		})

		It("reports a panicking schema as an error result without invoking the tool", func() {
			var res llm.ToolResult
			Expect(func() {
				res = bd.Dispatch(ctx, llm.ToolCall{ID: "call-s", Name: "bad_schema"})
			}).NotTo(Panic())
			Expect(res.CallID).To(Equal("call-s"))
			Expect(res.IsError).To(BeTrue())
			Expect(res.Content).To(ContainSubstring("tool panicked: schema unavailable"))
			Expect(schema.Calls()).To(BeZero())
		})

		It("keeps the output and drops citations when Citations panics", func() {
			results := bd.DispatchAll(ctx, []llm.ToolCall{
				{ID: "call-c", Name: "bad_citer"},
				{ID: "call-s", Name: "bad_schema"},
			})
			Expect(results).To(HaveLen(2))
			Expect(results[0].IsError).To(BeFalse())
			Expect(results[0].Content).To(Equal("page text"))
			Expect(results[0].Citations).To(BeNil())
			Expect(results[1].IsError).To(BeTrue())
		})

		It("still offers a tool whose schema panics", func() {
			var defs []llm.ToolDefinition
			Expect(func() { defs = bd.Registry().Definitions() }).NotTo(Panic())
			Expect(defs).To(HaveLen(2))
		})
	})

	It("times out tools that ignore their context", func() {
		start := time.Now()
		res := d.Dispatch(ctx, llm.ToolCall{ID: "call-6", Name: "slow"})
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		Expect(res.IsError).To(BeTrue())
		Expect(res.CallID).To(Equal("call-6"))
		Expect(res.Content).To(ContainSubstring("timed out"))
	})

	It("collects citations from citing tools", func() {
		res := d.Dispatch(ctx, llm.ToolCall{
			ID:        "call-7",
			Name:      "fetch_web",
			Arguments: map[string]any{"url": "https://example.com"},
		})
		Expect(res.IsError).To(BeFalse())
		Expect(res.Citations).To(Equal([]string{"https://example.com"}))
	})

	It("dispatches a round concurrently and keeps request order", func() {
		calls := []llm.ToolCall{
			{ID: "a", Name: "slow"},
			{ID: "b", Name: "get_weather", Arguments: map[string]any{"city_name": "Hue"}},
			{ID: "c", Name: "nonexistent_tool"},
			{ID: "d", Name: "flaky"},
		}

		results := d.DispatchAll(ctx, calls)
		Expect(results).To(HaveLen(4))
		for i, r := range results {
			Expect(r.CallID).To(Equal(calls[i].ID))
		}
		Expect(results[0].IsError).To(BeTrue())
		Expect(results[1].IsError).To(BeFalse())
		Expect(results[2].IsError).To(BeTrue())
		Expect(results[3].IsError).To(BeTrue())
	})

	It("never fails for any call ID and tool name", func() {
		for i := range 50 {
			name := []string{"get_weather", "flaky", "panics", "unknown", ""}[i%5]
			id := fmt.Sprintf("id-%d", i)
			res := d.Dispatch(ctx, llm.ToolCall{ID: id, Name: name, Arguments: map[string]any{"city_name": "x"}})
			Expect(res.CallID).To(Equal(id))
		}
	})

	It("dispatches everything as not found with a nil registry", func() {
		d := tools.NewDispatcher(nil, tools.DispatcherConfig{})
		res := d.Dispatch(ctx, llm.ToolCall{ID: "x", Name: "get_weather"})
		Expect(res.IsError).To(BeTrue())
		Expect(res.Content).To(ContainSubstring("tool not found"))
	})
})
