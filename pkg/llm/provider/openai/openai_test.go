package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider/openai"
)

var _ = Describe("OpenAI Generator", func() {
	var (
		server   *httptest.Server
		received map[string]any
		auth     string
		reply    string
		status   int
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		reply = `{"id":"chatcmpl-1","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":4,"completion_tokens":1,"total_tokens":5}}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			auth = r.Header.Get("Authorization")
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newGenerator := func() *openai.Generator {
		g, err := openai.NewGenerator(openai.Config{BaseURL: server.URL + "/v1", APIKey: "sk-test"})
		Expect(err).NotTo(HaveOccurred())
		return g
	}

	It("returns text replies and sends the bearer token", func() {
		resp, err := newGenerator().Generate(context.Background(), &llm.GenerateRequest{
			System:   "be brief",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Text).To(Equal("hi"))
		Expect(resp.Usage.TotalTokens).To(Equal(5))
		Expect(auth).To(Equal("Bearer sk-test"))
		Expect(received["model"]).To(Equal(openai.DefaultModel))
	})

	It("decodes JSON-encoded tool call arguments", func() {
		reply = `{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"city_name\":\"Hanoi\"}"}}]},"finish_reason":"tool_calls"}]}`

		resp, err := newGenerator().Generate(context.Background(), &llm.GenerateRequest{
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "weather?")},
			Tools:    []llm.ToolDefinition{{Name: "get_weather"}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.ToolCalls).To(ConsistOf(llm.ToolCall{
			ID:        "call_1",
			Name:      "get_weather",
			Arguments: map[string]any{"city_name": "Hanoi"},
		}))
		Expect(resp.StopReason).To(Equal("tool_calls"))
	})

	It("sends one tool message per result keyed by call id", func() {
		_, err := newGenerator().Generate(context.Background(), &llm.GenerateRequest{
			Messages: []llm.Message{
				llm.NewToolUseMessage("", []llm.ToolCall{{ID: "a", Name: "x"}, {ID: "b", Name: "y"}}),
				llm.NewToolResultMessage([]llm.ToolResult{
					{CallID: "a", ToolName: "x", Content: "one"},
					{CallID: "b", ToolName: "y", Content: "two"},
				}),
			},
		})
		Expect(err).NotTo(HaveOccurred())

		messages := received["messages"].([]any)
		Expect(messages).To(HaveLen(3))
		Expect(messages[1].(map[string]any)["tool_call_id"]).To(Equal("a"))
		Expect(messages[2].(map[string]any)["tool_call_id"]).To(Equal("b"))
	})

	It("marks rate limits as retryable", func() {
		status = http.StatusTooManyRequests
		reply = `{"error":{"message":"slow down"}}`

		_, err := newGenerator().Generate(context.Background(), &llm.GenerateRequest{})
		Expect(llm.IsRetryable(err)).To(BeTrue())
	})

	It("errors when no choices are returned", func() {
		reply = `{"choices":[]}`

		_, err := newGenerator().Generate(context.Background(), &llm.GenerateRequest{})
		Expect(err).To(MatchError(ContainSubstring("no choices")))
	})
})
