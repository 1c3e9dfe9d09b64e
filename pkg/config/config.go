package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/parley/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .parley/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the sorted list of all supported configuration key names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}

	// Return in a stable, logical order matching the TOML section layout.
	ordered := []string{
		"storage.provider",
		"storage.sqlite_path",
		"storage.postgres_dsn",
		"storage.libsql_url",
		"llm.provider",
		"llm.model",
		"llm.target",
		"llm.api_key",
		"llm.temperature",
		"llm.decision_temperature",
		"api.listen",
		"client.api_target",
		"vector_store.provider",
		"vector_store.target",
		"vector_store.api_key",
		"embedding.provider",
		"embedding.target",
		"embedding.model",
		"embedding.dimensions",
		"embedding.api_key",
		"memory.provider",
		"memory.enabled",
		"memory.query_limit",
		"memory.ignore_values",
		"agent.system_prompt",
		"agent.recent_window",
		"agent.max_tool_rounds",
		"agent.turn_timeout",
		"agent.call_timeout",
		"agent.tool_timeout",
		"agent.memory_workers",
		"tools.openweather_api_key",
		"tools.google_api_key",
		"tools.google_cse_id",
		"tools.webfetch_enabled",
		"tools.docs_enabled",
		"tools.docs_collection",
		"eventstream.provider",
		"eventstream.brokers",
		"eventstream.topic",
	}

	// Sanity: only return keys that actually exist in the map.
	result := make([]string, 0, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	seen := make(map[string]bool, len(result))
	for _, k := range result {
		seen[k] = true
	}
	for _, k := range keys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .parley/ directory.
// If the file does not exist, returns DefaultConfig() so callers always receive
// a fully-populated Config with sane defaults. Fields explicitly set in the file
// override the defaults.
// If overrideDir is non-empty, it is used instead of the default .parley/ location.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from DefaultConfig().
// Booleans are left alone: false in a file is indistinguishable from unset.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	fillString(&cfg.Storage.Provider, defaults.Storage.Provider)

	fillString(&cfg.LLM.Provider, defaults.LLM.Provider)
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = defaults.LLM.Temperature
	}
	if cfg.LLM.DecisionTemperature == 0 {
		cfg.LLM.DecisionTemperature = defaults.LLM.DecisionTemperature
	}

	fillString(&cfg.API.Listen, defaults.API.Listen)
	fillString(&cfg.Client.APITarget, defaults.Client.APITarget)

	fillString(&cfg.VectorStore.Provider, defaults.VectorStore.Provider)

	fillString(&cfg.Embedding.Provider, defaults.Embedding.Provider)
	fillUint(&cfg.Embedding.Dimensions, defaults.Embedding.Dimensions)

	fillString(&cfg.Memory.Provider, defaults.Memory.Provider)
	fillUint(&cfg.Memory.QueryLimit, defaults.Memory.QueryLimit)

	fillUint(&cfg.Agent.RecentWindow, defaults.Agent.RecentWindow)
	fillUint(&cfg.Agent.MaxToolRounds, defaults.Agent.MaxToolRounds)
	fillUint(&cfg.Agent.MemoryWorkers, defaults.Agent.MemoryWorkers)
	if cfg.Agent.TurnTimeout == 0 {
		cfg.Agent.TurnTimeout = defaults.Agent.TurnTimeout
	}
	if cfg.Agent.CallTimeout == 0 {
		cfg.Agent.CallTimeout = defaults.Agent.CallTimeout
	}
	if cfg.Agent.ToolTimeout == 0 {
		cfg.Agent.ToolTimeout = defaults.Agent.ToolTimeout
	}

	fillString(&cfg.Tools.DocsCollection, defaults.Tools.DocsCollection)

	fillString(&cfg.EventStream.Provider, defaults.EventStream.Provider)
	fillString(&cfg.EventStream.Topic, defaults.EventStream.Topic)
}

func fillString(field *string, def string) {
	if *field == "" {
		*field = def
	}
}

func fillUint(field *uint, def uint) {
	if *field == 0 {
		*field = def
	}
}

// SaveConfig persists the configuration to config.toml in the target .parley/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ValueOf returns the string representation of key in cfg.
func ValueOf(cfg *Config, key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}
	return info.get(cfg), nil
}

// IsSecretKey reports whether key holds a credential: API keys, and the
// database URLs that may embed a password or auth token.
func IsSecretKey(key string) bool {
	switch key {
	case "storage.postgres_dsn", "storage.libsql_url":
		return true
	}
	return strings.HasSuffix(key, "api_key")
}

// KeySection returns the TOML section of a dotted key ("llm" for
// "llm.model"). Top-level keys have no section.
func KeySection(key string) string {
	section, _, found := strings.Cut(key, ".")
	if !found {
		return ""
	}
	return section
}

// PresetConfig returns a Config with sane defaults for the named provider preset.
// Supported presets: "gemini", "ollama", "openai".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "gemini":
		cfg.LLM.Provider = "gemini"
		cfg.LLM.Model = "gemini-2.0-flash"
		cfg.Embedding = EmbeddingConfig{
			Provider:   "genai",
			Model:      "gemini-embedding-001",
			Dimensions: 768,
		}

	case "ollama":
		cfg.LLM.Model = "llama3.1"
		cfg.LLM.Target = "http://localhost:11434"
		cfg.Embedding.Model = "nomic-embed-text"
		cfg.Embedding.Target = "http://localhost:11434"

	case "openai":
		cfg.LLM.Provider = "openai"
		cfg.LLM.Model = "gpt-4o-mini"
		cfg.LLM.Target = "https://api.openai.com"

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}

	return cfg, nil
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"gemini", "ollama", "openai"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentConfigVersion.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
