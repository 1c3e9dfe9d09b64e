package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/parley/api"
	mcpapi "github.com/papercomputeco/parley/api/mcp"
	"github.com/papercomputeco/parley/cmd/parley/sqlitepath"
	"github.com/papercomputeco/parley/pkg/agent"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/parley/pkg/embeddings/utils"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/eventstream/kafka"
	"github.com/papercomputeco/parley/pkg/eventstream/nop"
	"github.com/papercomputeco/parley/pkg/history"
	historyutils "github.com/papercomputeco/parley/pkg/history/utils"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/memory/decision"
	memoryutils "github.com/papercomputeco/parley/pkg/memory/utils"
	"github.com/papercomputeco/parley/pkg/tools"
	"github.com/papercomputeco/parley/pkg/tools/docs"
	"github.com/papercomputeco/parley/pkg/tools/search"
	"github.com/papercomputeco/parley/pkg/tools/weather"
	"github.com/papercomputeco/parley/pkg/tools/webfetch"
	"github.com/papercomputeco/parley/pkg/vector"
	vectorutils "github.com/papercomputeco/parley/pkg/vector/utils"
)

// stack is everything "parley serve" runs, built from one Config.
type stack struct {
	history      history.Store
	generator    llm.Generator
	embedder     embeddings.Embedder
	memory       *memory.Namespaces
	registry     *tools.Registry
	events       eventstream.Publisher
	orchestrator *agent.Orchestrator
	mcp          *mcpapi.Server
	api          *api.Server

	closers []func() error
	logger  *slog.Logger
}

// buildStack wires every component. On error, whatever was already opened
// is closed.
func buildStack(ctx context.Context, cfg *config.Config, configDir string, logger *slog.Logger) (_ *stack, err error) {
	s := &stack{logger: logger}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	if err := s.buildHistory(ctx, cfg, configDir); err != nil {
		return nil, err
	}
	if err := s.buildGenerator(ctx, cfg); err != nil {
		return nil, err
	}
	if err := s.buildMemory(ctx, cfg, configDir); err != nil {
		return nil, err
	}
	if err := s.buildTools(ctx, cfg, configDir); err != nil {
		return nil, err
	}
	if err := s.buildEvents(cfg); err != nil {
		return nil, err
	}
	if err := s.buildOrchestrator(cfg); err != nil {
		return nil, err
	}
	if err := s.buildServers(cfg); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *stack) buildHistory(ctx context.Context, cfg *config.Config, configDir string) error {
	opts := &historyutils.NewStoreOpts{
		ProviderType: cfg.Storage.Provider,
		PostgresDSN:  cfg.Storage.PostgresDSN,
		LibSQLURL:    cfg.Storage.LibSQLURL,
	}
	if opts.ProviderType == historyutils.SQLite || opts.ProviderType == "" {
		path, err := sqlitepath.ResolveSQLitePath(cfg.Storage.SQLitePath, configDir)
		if err != nil {
			return err
		}
		opts.SQLitePath = path
	}

	store, err := historyutils.NewStore(ctx, opts)
	if err != nil {
		return fmt.Errorf("creating history store: %w", err)
	}
	s.history = store
	s.closers = append(s.closers, store.Close)

	s.logger.Info("using history store",
		"provider", cfg.Storage.Provider,
		"sqlite_path", opts.SQLitePath,
	)
	return nil
}

func (s *stack) buildGenerator(ctx context.Context, cfg *config.Config) error {
	temperature := cfg.LLM.Temperature
	gen, err := provider.New(ctx, &provider.NewGeneratorOpts{
		ProviderType: cfg.LLM.Provider,
		TargetURL:    cfg.LLM.Target,
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
		Temperature:  &temperature,
	})
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	s.generator = gen

	s.logger.Info("using llm provider",
		"provider", gen.Name(),
		"model", cfg.LLM.Model,
	)
	return nil
}

// needsEmbedder reports whether any configured component embeds text.
func needsEmbedder(cfg *config.Config) bool {
	semanticMemory := cfg.Memory.Enabled && cfg.Memory.Provider != memoryutils.Local
	return semanticMemory || cfg.Tools.DocsEnabled
}

func (s *stack) ensureEmbedder(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	if s.embedder != nil {
		return s.embedder, nil
	}

	embedder, err := embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		APIKey:       cfg.Embedding.APIKey,
		Dimensions:   cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	// Semantic drivers and the docs tool close the embedder they share.
	s.embedder = embedder
	return embedder, nil
}

// openVector returns a function opening one vector collection of the
// configured store.
func (s *stack) openVector(ctx context.Context, cfg *config.Config, configDir string) (func(collection string) (vector.Driver, error), error) {
	var sqlitePath string
	if cfg.VectorStore.Provider == vectorutils.SQLite {
		sqlitePath = cfg.VectorStore.Target
		if sqlitePath == "" {
			historyPath, err := sqlitepath.ResolveSQLitePath(cfg.Storage.SQLitePath, configDir)
			if err != nil {
				return nil, err
			}
			sqlitePath = historyPath
		}
	}

	return func(collection string) (vector.Driver, error) {
		d, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType:   cfg.VectorStore.Provider,
			TargetURL:      cfg.VectorStore.Target,
			SQLitePath:     sqlitePath,
			CollectionName: collection,
			Dimensions:     cfg.Embedding.Dimensions,
			APIKey:         cfg.VectorStore.APIKey,
			Logger:         s.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opening vector collection %s: %w", collection, err)
		}
		return d, nil
	}, nil
}

func (s *stack) buildMemory(ctx context.Context, cfg *config.Config, configDir string) error {
	if !cfg.Memory.Enabled {
		s.logger.Info("long-term memory disabled")
		return nil
	}

	opts := &memoryutils.NewNamespacesOpts{
		ProviderType: cfg.Memory.Provider,
		Logger:       s.logger,
	}
	if needsEmbedder(cfg) && cfg.Memory.Provider != memoryutils.Local {
		embedder, err := s.ensureEmbedder(ctx, cfg)
		if err != nil {
			return err
		}
		open, err := s.openVector(ctx, cfg, configDir)
		if err != nil {
			return err
		}
		opts.Embedder = embedder
		opts.OpenVector = open
	}

	ns, err := memoryutils.NewNamespaces(opts)
	if err != nil {
		return fmt.Errorf("creating memory: %w", err)
	}
	s.memory = ns
	s.closers = append(s.closers, ns.Close)

	s.logger.Info("using long-term memory", "provider", cfg.Memory.Provider)
	return nil
}

// buildTools registers each built-in tool only when it is configured.
func (s *stack) buildTools(ctx context.Context, cfg *config.Config, configDir string) error {
	var registered []tools.Tool

	if cfg.Tools.OpenWeatherAPIKey != "" {
		t, err := weather.New(weather.Config{APIKey: cfg.Tools.OpenWeatherAPIKey})
		if err != nil {
			return err
		}
		registered = append(registered, t)
	}

	if cfg.Tools.GoogleAPIKey != "" && cfg.Tools.GoogleCSEID != "" {
		t, err := search.New(search.Config{
			APIKey:   cfg.Tools.GoogleAPIKey,
			EngineID: cfg.Tools.GoogleCSEID,
		})
		if err != nil {
			return err
		}
		registered = append(registered, t)
	}

	if cfg.Tools.WebFetchEnabled {
		registered = append(registered, webfetch.New(webfetch.Config{}))
	}

	if cfg.Tools.DocsEnabled {
		embedder, err := s.ensureEmbedder(ctx, cfg)
		if err != nil {
			return err
		}
		open, err := s.openVector(ctx, cfg, configDir)
		if err != nil {
			return err
		}
		v, err := open(cfg.Tools.DocsCollection)
		if err != nil {
			return err
		}

		t, err := docs.New(docs.Config{Embedder: embedder, Vector: v})
		if err != nil {
			_ = v.Close()
			return err
		}
		registered = append(registered, t)
	}

	registry, err := tools.NewRegistry(registered...)
	if err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}
	s.registry = registry
	s.closers = append(s.closers, registry.Close)

	s.logger.Info("registered tools", "tools", registry.Names())
	return nil
}

func (s *stack) buildEvents(cfg *config.Config) error {
	switch cfg.EventStream.Provider {
	case "nop", "":
		s.events = nop.NewPublisher(s.logger)
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.EventStream.Brokers,
			Topic:   cfg.EventStream.Topic,
			Logger:  s.logger,
		})
		if err != nil {
			return fmt.Errorf("creating kafka publisher: %w", err)
		}
		s.events = p
		s.logger.Info("publishing turn events",
			"brokers", cfg.EventStream.Brokers,
			"topic", cfg.EventStream.Topic,
		)
	default:
		return fmt.Errorf("unsupported eventstream provider: %s", cfg.EventStream.Provider)
	}
	s.closers = append(s.closers, s.events.Close)
	return nil
}

func (s *stack) buildOrchestrator(cfg *config.Config) error {
	replyTemperature := cfg.LLM.Temperature
	toolTemperature := cfg.LLM.DecisionTemperature

	deps := agent.Deps{
		History:   s.history,
		Generator: s.generator,
		Dispatcher: tools.NewDispatcher(s.registry, tools.DispatcherConfig{
			Timeout: cfg.Agent.ToolTimeout,
			Logger:  s.logger,
		}),
		Events: s.events,
	}
	if s.memory != nil {
		deps.Memory = s.memory
		deps.Decider = decision.NewEngine(s.generator, decision.Config{
			Temperature:  &toolTemperature,
			IgnoreValues: cfg.Memory.IgnoreValues,
			Logger:       s.logger,
		})
	}

	orch, err := agent.New(agent.Config{
		SystemPrompt:     cfg.Agent.SystemPrompt,
		RecentWindow:     int(cfg.Agent.RecentWindow),
		MaxToolRounds:    int(cfg.Agent.MaxToolRounds),
		TurnTimeout:      cfg.Agent.TurnTimeout,
		CallTimeout:      cfg.Agent.CallTimeout,
		MemoryQueryLimit: int(cfg.Memory.QueryLimit),
		ReplyTemperature: &replyTemperature,
		ToolTemperature:  &toolTemperature,
		MemoryWorkers:    cfg.Agent.MemoryWorkers,
		Logger:           s.logger,
	}, deps)
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}
	s.orchestrator = orch
	s.closers = append(s.closers, func() error {
		orch.Close()
		return nil
	})
	return nil
}

func (s *stack) buildServers(cfg *config.Config) error {
	mcpServer, err := mcpapi.NewServer(mcpapi.Config{
		Turns:  s.orchestrator,
		Memory: s.memory,
		Logger: s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}
	s.mcp = mcpServer

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		MCPHandler: mcpServer.Handler(),
	}, s.orchestrator, s.history, s.logger)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}
	s.api = apiServer
	return nil
}

// close releases components in reverse order of creation. The orchestrator
// drains its memory jobs before the stores they write to close.
func (s *stack) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
