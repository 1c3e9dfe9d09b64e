package config

import "time"

// Provider target URLs and models are left empty: each provider falls back
// to its own endpoint and model.
const (
	defaultStorageProvider = "sqlite"

	defaultLLMProvider         = "ollama"
	defaultLLMTemperature      = 0.8
	defaultDecisionTemperature = 0.1

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultVectorProvider = "sqlite"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingDimensions = 768

	defaultMemoryProvider   = "semantic"
	defaultMemoryQueryLimit = 3

	defaultRecentWindow  = 10
	defaultMaxToolRounds = 4
	defaultTurnTimeout   = 2 * time.Minute
	defaultCallTimeout   = 60 * time.Second
	defaultToolTimeout   = 30 * time.Second
	defaultMemoryWorkers = 3

	defaultDocsCollection = "parley_documents"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "parley.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		LLM: LLMConfig{
			Provider:            defaultLLMProvider,
			Temperature:         defaultLLMTemperature,
			DecisionTemperature: defaultDecisionTemperature,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Dimensions: defaultEmbeddingDimensions,
		},
		Memory: MemoryConfig{
			Provider:   defaultMemoryProvider,
			Enabled:    true,
			QueryLimit: defaultMemoryQueryLimit,
		},
		Agent: AgentConfig{
			RecentWindow:  defaultRecentWindow,
			MaxToolRounds: defaultMaxToolRounds,
			TurnTimeout:   defaultTurnTimeout,
			CallTimeout:   defaultCallTimeout,
			ToolTimeout:   defaultToolTimeout,
			MemoryWorkers: defaultMemoryWorkers,
		},
		Tools: ToolsConfig{
			WebFetchEnabled: true,
			DocsCollection:  defaultDocsCollection,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
