package servecmder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/logger"
)

// fakeOllama answers every /api/chat call with the same assistant text.
func fakeOllama(reply string, calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "llama3.1",
			"message": map[string]any{"role": "assistant", "content": reply},
			"done":    true,
		})
	}))
}

func localConfig(llmTarget string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Storage.Provider = "memory"
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Target = llmTarget
	cfg.Memory.Provider = "local"
	cfg.Tools.WebFetchEnabled = false
	return cfg
}

var _ = Describe("NewServeCmd", func() {
	It("registers the serve flags from the registry", func() {
		cmd := NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))

		for _, name := range []string{"listen", "provider", "model", "storage", "sqlite", "memory-provider", "max-tool-rounds", "eventstream", "log-file"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8081"))
		Expect(cmd.Flags().Lookup("provider").Shorthand).To(Equal("p"))
	})
})

var _ = Describe("buildStack", func() {
	var (
		ctx   context.Context
		calls atomic.Int32
		llm   *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls.Store(0)
		llm = fakeOllama("Hello from parley.", &calls)
	})

	AfterEach(func() {
		llm.Close()
	})

	It("wires a working turn pipeline from a local config", func() {
		s, err := buildStack(ctx, localConfig(llm.URL), GinkgoT().TempDir(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(s.close()).To(Succeed()) }()

		Expect(s.memory).NotTo(BeNil())
		Expect(s.embedder).To(BeNil())
		Expect(s.registry.Len()).To(Equal(0))
		Expect(s.api).NotTo(BeNil())
		Expect(s.mcp).NotTo(BeNil())

		result, err := s.orchestrator.ProcessTurn(ctx, "", "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Reply).To(Equal("Hello from parley."))
		Expect(result.SessionID).NotTo(BeEmpty())
		Expect(calls.Load()).To(BeNumerically(">=", 1))

		msgs, err := s.history.All(ctx, result.SessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Role).To(Equal(history.RoleUser))
		Expect(msgs[1].Content).To(Equal("Hello from parley."))
	})

	It("skips memory when it is disabled", func() {
		cfg := localConfig(llm.URL)
		cfg.Memory.Enabled = false

		s, err := buildStack(ctx, cfg, GinkgoT().TempDir(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(s.close()).To(Succeed()) }()

		Expect(s.memory).To(BeNil())
	})

	It("registers fetch_web when web fetching is enabled", func() {
		cfg := localConfig(llm.URL)
		cfg.Tools.WebFetchEnabled = true

		s, err := buildStack(ctx, cfg, GinkgoT().TempDir(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(s.close()).To(Succeed()) }()

		Expect(s.registry.Names()).To(ConsistOf("fetch_web"))
	})

	It("registers weather and search only with credentials", func() {
		cfg := localConfig(llm.URL)
		cfg.Tools.OpenWeatherAPIKey = "weather-key"
		cfg.Tools.GoogleAPIKey = "google-key"

		s, err := buildStack(ctx, cfg, GinkgoT().TempDir(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(s.close()).To(Succeed()) }()

		Expect(s.registry.Names()).To(ConsistOf("get_weather"))
	})

	It("keeps history in sqlite under the config dir", func() {
		cfg := localConfig(llm.URL)
		dir := GinkgoT().TempDir()
		cfg.Storage.Provider = "sqlite"
		cfg.Storage.SQLitePath = filepath.Join(dir, "parley.db")

		s, err := buildStack(ctx, cfg, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(s.close()).To(Succeed()) }()

		result, err := s.orchestrator.ProcessTurn(ctx, "", "hi")
		Expect(err).NotTo(HaveOccurred())

		sessions, err := s.history.ListSessions(ctx, 0, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(sessions).To(HaveLen(1))
		Expect(sessions[0].ID).To(Equal(result.SessionID))
		Expect(filepath.Join(dir, "parley.db")).To(BeAnExistingFile())
	})

	It("rejects an unknown event stream provider", func() {
		cfg := localConfig(llm.URL)
		cfg.EventStream.Provider = "carrier-pigeon"

		_, err := buildStack(ctx, cfg, GinkgoT().TempDir(), logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("unsupported eventstream provider")))
	})

	It("rejects an unknown llm provider", func() {
		cfg := localConfig(llm.URL)
		cfg.LLM.Provider = "parrot"

		_, err := buildStack(ctx, cfg, GinkgoT().TempDir(), logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("creating generator")))
	})
})

var _ = Describe("needsEmbedder", func() {
	It("is false for local memory without docs", func() {
		cfg := config.NewDefaultConfig()
		cfg.Memory.Provider = "local"
		Expect(needsEmbedder(cfg)).To(BeFalse())
	})

	It("is true for semantic memory", func() {
		Expect(needsEmbedder(config.NewDefaultConfig())).To(BeTrue())
	})

	It("is true when the document retriever is enabled", func() {
		cfg := config.NewDefaultConfig()
		cfg.Memory.Enabled = false
		cfg.Tools.DocsEnabled = true
		Expect(needsEmbedder(cfg)).To(BeTrue())
	})
})
