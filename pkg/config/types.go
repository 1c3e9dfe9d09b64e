package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent parley configuration stored as config.toml
// in the .parley/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	LLM         LLMConfig         `toml:"llm"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Memory      MemoryConfig      `toml:"memory"`
	Agent       AgentConfig       `toml:"agent"`
	Tools       ToolsConfig       `toml:"tools"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// StorageConfig selects the conversation history store.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	LibSQLURL   string `toml:"libsql_url,omitempty"`
}

// LLMConfig holds generation provider settings.
type LLMConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	Target   string `toml:"target,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`

	// Temperature is used for conversational replies; DecisionTemperature
	// for tool selection and memory decisions.
	Temperature         float64 `toml:"temperature,omitempty"`
	DecisionTemperature float64 `toml:"decision_temperature,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// API server (e.g. parley chat, parley sessions). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// MemoryConfig holds long-term memory settings.
type MemoryConfig struct {
	Provider     string   `toml:"provider,omitempty"`
	Enabled      bool     `toml:"enabled,omitempty"`
	QueryLimit   uint     `toml:"query_limit,omitempty"`
	IgnoreValues []string `toml:"ignore_values,omitempty"`
}

// AgentConfig holds turn orchestration settings.
type AgentConfig struct {
	SystemPrompt  string        `toml:"system_prompt,omitempty"`
	RecentWindow  uint          `toml:"recent_window,omitempty"`
	MaxToolRounds uint          `toml:"max_tool_rounds,omitempty"`
	TurnTimeout   time.Duration `toml:"turn_timeout,omitempty"`
	CallTimeout   time.Duration `toml:"call_timeout,omitempty"`
	ToolTimeout   time.Duration `toml:"tool_timeout,omitempty"`
	MemoryWorkers uint          `toml:"memory_workers,omitempty"`
}

// ToolsConfig holds credentials and switches for the built-in tools.
// A tool is only registered when it is configured.
type ToolsConfig struct {
	OpenWeatherAPIKey string `toml:"openweather_api_key,omitempty"`
	GoogleAPIKey      string `toml:"google_api_key,omitempty"`
	GoogleCSEID       string `toml:"google_cse_id,omitempty"`
	WebFetchEnabled   bool   `toml:"webfetch_enabled,omitempty"`
	DocsEnabled       bool   `toml:"docs_enabled,omitempty"`
	DocsCollection    string `toml:"docs_collection,omitempty"`
}

// EventStreamConfig selects where turn events are published.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if f < 0 || f > 2 {
				return fmt.Errorf("invalid value for %s: %v is outside [0, 2]", name, f)
			}
			*field(c) = f
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *time.Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return field(c).String()
		},
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = d
			return nil
		},
	}
}

// listKey reads and writes a comma-separated list.
func listKey(field func(c *Config) *[]string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strings.Join(*field(c), ",") },
		set: func(c *Config, v string) error {
			var items []string
			for item := range strings.SplitSeq(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			*field(c) = items
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":     stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"storage.libsql_url":   stringKey(func(c *Config) *string { return &c.Storage.LibSQLURL }),

	"llm.provider":             stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.model":                stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.target":               stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.api_key":              stringKey(func(c *Config) *string { return &c.LLM.APIKey }),
	"llm.temperature":          floatKey("llm.temperature", func(c *Config) *float64 { return &c.LLM.Temperature }),
	"llm.decision_temperature": floatKey("llm.decision_temperature", func(c *Config) *float64 { return &c.LLM.DecisionTemperature }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"vector_store.provider": stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":   stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.api_key":  stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.api_key":    stringKey(func(c *Config) *string { return &c.Embedding.APIKey }),

	"memory.provider":      stringKey(func(c *Config) *string { return &c.Memory.Provider }),
	"memory.enabled":       boolKey("memory.enabled", func(c *Config) *bool { return &c.Memory.Enabled }),
	"memory.query_limit":   uintKey("memory.query_limit", func(c *Config) *uint { return &c.Memory.QueryLimit }),
	"memory.ignore_values": listKey(func(c *Config) *[]string { return &c.Memory.IgnoreValues }),

	"agent.system_prompt":   stringKey(func(c *Config) *string { return &c.Agent.SystemPrompt }),
	"agent.recent_window":   uintKey("agent.recent_window", func(c *Config) *uint { return &c.Agent.RecentWindow }),
	"agent.max_tool_rounds": uintKey("agent.max_tool_rounds", func(c *Config) *uint { return &c.Agent.MaxToolRounds }),
	"agent.turn_timeout":    durationKey("agent.turn_timeout", func(c *Config) *time.Duration { return &c.Agent.TurnTimeout }),
	"agent.call_timeout":    durationKey("agent.call_timeout", func(c *Config) *time.Duration { return &c.Agent.CallTimeout }),
	"agent.tool_timeout":    durationKey("agent.tool_timeout", func(c *Config) *time.Duration { return &c.Agent.ToolTimeout }),
	"agent.memory_workers":  uintKey("agent.memory_workers", func(c *Config) *uint { return &c.Agent.MemoryWorkers }),

	"tools.openweather_api_key": stringKey(func(c *Config) *string { return &c.Tools.OpenWeatherAPIKey }),
	"tools.google_api_key":      stringKey(func(c *Config) *string { return &c.Tools.GoogleAPIKey }),
	"tools.google_cse_id":       stringKey(func(c *Config) *string { return &c.Tools.GoogleCSEID }),
	"tools.webfetch_enabled":    boolKey("tools.webfetch_enabled", func(c *Config) *bool { return &c.Tools.WebFetchEnabled }),
	"tools.docs_enabled":        boolKey("tools.docs_enabled", func(c *Config) *bool { return &c.Tools.DocsEnabled }),
	"tools.docs_collection":     stringKey(func(c *Config) *string { return &c.Tools.DocsCollection }),

	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers":  listKey(func(c *Config) *[]string { return &c.EventStream.Brokers }),
	"eventstream.topic":    stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
}
