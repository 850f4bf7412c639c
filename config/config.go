// Package config loads chunk store settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/viant/chunkstore/index"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	EmbedderHash   = "hash"
	EmbedderOpenAI = "openai"

	DefaultDBPath           = "chunks.db"
	DefaultBatchSize        = 500
	DefaultEmbedConcurrency = 8
)

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type              string  `yaml:"type"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	APIKeyEnv         string  `yaml:"api_key_env,omitempty"`
	Model             string  `yaml:"model,omitempty"`
	Dimension         int     `yaml:"dimension,omitempty"`
	TimeoutSecs       int     `yaml:"timeout_secs,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root configuration.
type Config struct {
	// Backend is "sqlite" or "postgres".
	Backend string `yaml:"backend"`
	// DBPath is a SQLite file path (":memory:" for an in-memory store) or a
	// PostgreSQL DSN. Environment variables are expanded.
	DBPath string `yaml:"db_path"`
	// Driver selects the PostgreSQL database/sql driver: "postgres" or "pgx".
	Driver string `yaml:"driver,omitempty"`
	// EmbeddingDim overrides the provider dimension when positive.
	EmbeddingDim     int            `yaml:"embedding_dim,omitempty"`
	BatchSize        int            `yaml:"batch_size"`
	EmbedConcurrency int            `yaml:"embed_concurrency"`
	Index            string         `yaml:"index"`
	Embedder         EmbedderConfig `yaml:"embedder"`
	Log              LogConfig      `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a config from path. A missing file yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML data, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Backend == "" {
		cfg.Backend = BackendSQLite
	}
	cfg.DBPath = os.ExpandEnv(cfg.DBPath)
	if cfg.DBPath == "" && cfg.Backend == BackendSQLite {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.Driver == "" && cfg.Backend == BackendPostgres {
		cfg.Driver = "postgres"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = DefaultEmbedConcurrency
	}
	if cfg.Index == "" {
		cfg.Index = string(index.KindBrute)
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = EmbedderHash
	}
	if cfg.Embedder.Type == EmbedderOpenAI {
		if cfg.Embedder.APIKeyEnv == "" {
			cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.TimeoutSecs == 0 {
			cfg.Embedder.TimeoutSecs = 30
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("config: unsupported backend %q", c.Backend)
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path is required for backend %q", c.Backend)
	}
	if c.EmbeddingDim < 0 {
		return fmt.Errorf("config: invalid embedding_dim %d", c.EmbeddingDim)
	}
	if _, err := index.ParseKind(c.Index); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Embedder.Type {
	case EmbedderHash:
	case EmbedderOpenAI:
		if c.Embedder.Dimension <= 0 && c.EmbeddingDim <= 0 {
			return fmt.Errorf("config: openai embedder requires embedder.dimension or embedding_dim")
		}
	default:
		return fmt.Errorf("config: unsupported embedder %q", c.Embedder.Type)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Log.Format)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", c.Log.Level)
	}
	return level, nil
}
