package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/parley/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PARLEY_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PARLEY_API_LISTEN, PARLEY_LLM_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: PARLEY_API_LISTEN, PARLEY_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.libsql_url", d.Storage.LibSQLURL)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.target", d.LLM.Target)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.decision_temperature", d.LLM.DecisionTemperature)

	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("client.api_target", d.Client.APITarget)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.api_key", d.VectorStore.APIKey)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)

	v.SetDefault("memory.provider", d.Memory.Provider)
	v.SetDefault("memory.enabled", d.Memory.Enabled)
	v.SetDefault("memory.query_limit", d.Memory.QueryLimit)
	v.SetDefault("memory.ignore_values", d.Memory.IgnoreValues)

	v.SetDefault("agent.system_prompt", d.Agent.SystemPrompt)
	v.SetDefault("agent.recent_window", d.Agent.RecentWindow)
	v.SetDefault("agent.max_tool_rounds", d.Agent.MaxToolRounds)
	v.SetDefault("agent.turn_timeout", d.Agent.TurnTimeout)
	v.SetDefault("agent.call_timeout", d.Agent.CallTimeout)
	v.SetDefault("agent.tool_timeout", d.Agent.ToolTimeout)
	v.SetDefault("agent.memory_workers", d.Agent.MemoryWorkers)

	v.SetDefault("tools.openweather_api_key", d.Tools.OpenWeatherAPIKey)
	v.SetDefault("tools.google_api_key", d.Tools.GoogleAPIKey)
	v.SetDefault("tools.google_cse_id", d.Tools.GoogleCSEID)
	v.SetDefault("tools.webfetch_enabled", d.Tools.WebFetchEnabled)
	v.SetDefault("tools.docs_enabled", d.Tools.DocsEnabled)
	v.SetDefault("tools.docs_collection", d.Tools.DocsCollection)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}

// FromViper reads the resolved value of every key into a Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
			LibSQLURL:   v.GetString("storage.libsql_url"),
		},
		LLM: LLMConfig{
			Provider:            v.GetString("llm.provider"),
			Model:               v.GetString("llm.model"),
			Target:              v.GetString("llm.target"),
			APIKey:              v.GetString("llm.api_key"),
			Temperature:         v.GetFloat64("llm.temperature"),
			DecisionTemperature: v.GetFloat64("llm.decision_temperature"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Target:   v.GetString("vector_store.target"),
			APIKey:   v.GetString("vector_store.api_key"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			APIKey:     v.GetString("embedding.api_key"),
		},
		Memory: MemoryConfig{
			Provider:     v.GetString("memory.provider"),
			Enabled:      v.GetBool("memory.enabled"),
			QueryLimit:   v.GetUint("memory.query_limit"),
			IgnoreValues: stringSlice(v, "memory.ignore_values"),
		},
		Agent: AgentConfig{
			SystemPrompt:  v.GetString("agent.system_prompt"),
			RecentWindow:  v.GetUint("agent.recent_window"),
			MaxToolRounds: v.GetUint("agent.max_tool_rounds"),
			TurnTimeout:   v.GetDuration("agent.turn_timeout"),
			CallTimeout:   v.GetDuration("agent.call_timeout"),
			ToolTimeout:   v.GetDuration("agent.tool_timeout"),
			MemoryWorkers: v.GetUint("agent.memory_workers"),
		},
		Tools: ToolsConfig{
			OpenWeatherAPIKey: v.GetString("tools.openweather_api_key"),
			GoogleAPIKey:      v.GetString("tools.google_api_key"),
			GoogleCSEID:       v.GetString("tools.google_cse_id"),
			WebFetchEnabled:   v.GetBool("tools.webfetch_enabled"),
			DocsEnabled:       v.GetBool("tools.docs_enabled"),
			DocsCollection:    v.GetString("tools.docs_collection"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  stringSlice(v, "eventstream.brokers"),
			Topic:    v.GetString("eventstream.topic"),
		},
	}
}

// stringSlice returns nil for unset or empty lists so they fall back to
// component defaults.
func stringSlice(v *viper.Viper, key string) []string {
	s := v.GetStringSlice(key)
	if len(s) == 0 {
		return nil
	}
	return s
}
