package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"souschef/internal/domain"
)

// Config holds all configuration for the souschef service.
type Config struct {
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Cache     CacheConfig     `yaml:"cache"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Embed     EmbedConfig     `yaml:"embed"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Chat      ChatConfig      `yaml:"chat"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// KnowledgeConfig describes where knowledge sources live and how files
// map to categories.
type KnowledgeConfig struct {
	Dir      string       `yaml:"dir"`
	Includes []string     `yaml:"includes"`
	Excludes []string     `yaml:"excludes"`
	Sources  []SourceRule `yaml:"sources"`
}

// SourceRule assigns a category to a source file. Rules are applied in
// order; files matched by no rule fall back to the general category.
type SourceRule struct {
	File     string `yaml:"file"`
	Category string `yaml:"category"`
}

// CacheConfig holds embedding cache configuration.
type CacheConfig struct {
	Path string `yaml:"path"` // empty = <dir>/.souschef/embeddings.json
}

// GatewayConfig holds embed/chat API configuration.
type GatewayConfig struct {
	Provider       string `yaml:"provider"` // "cohere", "mock"
	BaseURL        string `yaml:"base_url"`
	EmbedModel     string `yaml:"embed_model"`
	ChatModel      string `yaml:"chat_model"`
	APIKeyEnv      string `yaml:"api_key_env"` // Environment variable for API key
	Dimension      int    `yaml:"dimension"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EmbedConfig holds batch embedding configuration.
type EmbedConfig struct {
	BatchSize    int `yaml:"batch_size"`     // texts per gateway call, capped at 96
	BatchDelayMS int `yaml:"batch_delay_ms"` // pause between consecutive batches
}

// RetrieveConfig holds retrieval and answer cache configuration.
type RetrieveConfig struct {
	TopK            int `yaml:"top_k"`
	CacheSize       int `yaml:"cache_size"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// ChatConfig holds answer generation configuration.
type ChatConfig struct {
	Preamble    string  `yaml:"preamble"` // empty = built-in default
	Temperature float64 `yaml:"temperature"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Knowledge: KnowledgeConfig{
			Dir:      "knowledge",
			Includes: []string{"*.json"},
			Excludes: []string{},
			Sources: []SourceRule{
				{File: "recipes.json", Category: "recipes"},
				{File: "techniques.json", Category: "techniques"},
				{File: "nutrition.json", Category: "nutrition"},
				{File: "substitutions.json", Category: "substitutions"},
				{File: "food_safety.json", Category: "food_safety"},
				{File: "equipment.json", Category: "equipment"},
				{File: "cooking_advice.json", Category: "cooking_advice"},
				{File: "general.json", Category: "general"},
			},
		},
		Cache: CacheConfig{
			Path: "",
		},
		Gateway: GatewayConfig{
			Provider:       "cohere",
			BaseURL:        "https://api.cohere.com",
			EmbedModel:     "embed-english-v3.0",
			ChatModel:      "command-r",
			APIKeyEnv:      "COHERE_API_KEY",
			Dimension:      1024,
			TimeoutSeconds: 60,
		},
		Embed: EmbedConfig{
			BatchSize:    96,
			BatchDelayMS: 500,
		},
		Retrieve: RetrieveConfig{
			TopK:            8,
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
		Chat: ChatConfig{
			Preamble:    "",
			Temperature: 0.3,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for souschef.yaml).
func LoadFromDir(dir string) (*Config, error) {
	// Try souschef.yaml in the directory
	path := filepath.Join(dir, "souschef.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Try .souschef/config.yaml
	path = filepath.Join(dir, ".souschef", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Return defaults
	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.Gateway.Provider {
	case "cohere", "mock":
	default:
		return fmt.Errorf("unsupported gateway provider: %s", c.Gateway.Provider)
	}

	for _, rule := range c.Knowledge.Sources {
		if _, ok := domain.ParseCategory(rule.Category); !ok {
			return fmt.Errorf("unknown category %q for source %q", rule.Category, rule.File)
		}
	}

	if c.Embed.BatchSize < 1 || c.Embed.BatchSize > 96 {
		return fmt.Errorf("embed batch_size must be between 1 and 96, got %d", c.Embed.BatchSize)
	}
	if c.Embed.BatchDelayMS < 0 {
		return fmt.Errorf("embed batch_delay_ms must not be negative, got %d", c.Embed.BatchDelayMS)
	}

	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("retrieve top_k must be positive, got %d", c.Retrieve.TopK)
	}

	if c.Gateway.Dimension < 1 {
		return fmt.Errorf("gateway dimension must be positive, got %d", c.Gateway.Dimension)
	}

	return nil
}

// CachePath returns the embedding cache path, resolving the default
// location under dir when none is configured.
func (c *Config) CachePath(dir string) string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(dir, ".souschef", "embeddings.json")
}

// KnowledgeDir returns the knowledge source directory, resolved against
// dir when the configured path is relative.
func (c *Config) KnowledgeDir(dir string) string {
	if filepath.IsAbs(c.Knowledge.Dir) {
		return c.Knowledge.Dir
	}
	return filepath.Join(dir, c.Knowledge.Dir)
}

// EnsureStateDir ensures the .souschef directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".souschef"), 0755)
}
