// Package config provides configuration loading and structs for viie.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/viie/internal/embedding"
)

// EnvPrefix prefixes every environment override, e.g. VIIE_EMBEDDING_API_KEY.
const EnvPrefix = "VIIE"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" envconfig:"DEBUG"`
	Server    ServerConfig    `yaml:"server" ignored:"true"`
	Embedding EmbeddingConfig `yaml:"embedding" ignored:"true"`
	Shell     ShellConfig     `yaml:"shell" ignored:"true"`
	Ingest    IngestConfig    `yaml:"ingest" ignored:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
}

// EmbeddingConfig holds the default embedding settings. Secrets are usually
// supplied through VIIE_EMBEDDING_API_KEY rather than the file.
type EmbeddingConfig struct {
	Method          string  `yaml:"method" envconfig:"METHOD"`
	APIKey          string  `yaml:"api_key,omitempty" envconfig:"API_KEY"`
	APIEndpoint     string  `yaml:"api_endpoint,omitempty" envconfig:"API_ENDPOINT"`
	ModelPath       string  `yaml:"model_path,omitempty" envconfig:"MODEL_PATH"`
	ModelDimensions int     `yaml:"model_dimensions" envconfig:"MODEL_DIMENSIONS"`
	MaxTokens       int     `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
	VocabPath       string  `yaml:"vocab_path,omitempty" envconfig:"VOCAB_PATH"`
	NGramSize       int     `yaml:"ngram_size" envconfig:"NGRAM_SIZE"`
	MinCount        int     `yaml:"min_count" envconfig:"MIN_COUNT"`
	WindowSize      int     `yaml:"window_size" envconfig:"WINDOW_SIZE"`
	TimeoutSeconds  int     `yaml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
	CacheSize       int     `yaml:"cache_size" envconfig:"CACHE_SIZE"`
	RateLimit       float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Seed            uint64  `yaml:"seed,omitempty" envconfig:"SEED"`
}

// ShellConfig holds interactive shell settings.
type ShellConfig struct {
	TopK   int    `yaml:"top_k" envconfig:"TOP_K"`
	Prompt string `yaml:"prompt" envconfig:"PROMPT"`
	Color  *bool  `yaml:"color" envconfig:"COLOR"`
}

// ColorOrDefault returns whether to colour shell output; defaults to true when unset.
func (s *ShellConfig) ColorOrDefault() bool {
	if s.Color != nil {
		return *s.Color
	}
	return true
}

// IngestConfig holds file ingestion and directory watch settings.
type IngestConfig struct {
	Collection  string   `yaml:"collection" envconfig:"COLLECTION"`
	Dimension   int      `yaml:"dimension" envconfig:"DIMENSION"`
	Technique   string   `yaml:"technique" envconfig:"TECHNIQUE"`
	ChunkSize   int      `yaml:"chunk_size" envconfig:"CHUNK_SIZE"`
	Directories []string `yaml:"directories" envconfig:"DIRECTORIES"`
	Extensions  []string `yaml:"extensions" envconfig:"EXTENSIONS"`
	Recursive   *bool    `yaml:"recursive" envconfig:"RECURSIVE"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (i *IngestConfig) RecursiveOrDefault() bool {
	if i.Recursive != nil {
		return *i.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults and
// environment overrides, expands paths, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(&cfg, filepath.Dir(path))
}

// Default returns the built-in configuration with environment overrides applied.
func Default() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return finish(&Config{}, cwd)
}

func finish(cfg *Config, configDir string) (*Config, error) {
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)

	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)
	for i := range cfg.Ingest.Directories {
		cfg.Ingest.Directories[i] = expandPath(cfg.Ingest.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	sections := []struct {
		prefix string
		spec   any
	}{
		{EnvPrefix, cfg},
		{EnvPrefix + "_SERVER", &cfg.Server},
		{EnvPrefix + "_EMBEDDING", &cfg.Embedding},
		{EnvPrefix + "_SHELL", &cfg.Shell},
		{EnvPrefix + "_INGEST", &cfg.Ingest},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.spec); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
	}
	return nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if _, ok := embedding.ParseMethod(c.Embedding.Method); !ok {
		return fmt.Errorf("unknown embedding method %q", c.Embedding.Method)
	}
	if c.Ingest.Technique != "" {
		if _, ok := embedding.ParseMethod(c.Ingest.Technique); !ok {
			return fmt.Errorf("unknown ingest technique %q", c.Ingest.Technique)
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// EmbeddingConfig converts the embedding section to an embedding.Config.
func (c *Config) EmbeddingConfig() (embedding.Config, error) {
	m, ok := embedding.ParseMethod(c.Embedding.Method)
	if !ok {
		return embedding.Config{}, fmt.Errorf("unknown embedding method %q", c.Embedding.Method)
	}
	out := embedding.DefaultConfig()
	out.Method = m
	out.APIKey = c.Embedding.APIKey
	out.APIEndpoint = c.Embedding.APIEndpoint
	out.ModelPath = c.Embedding.ModelPath
	out.ModelDim = c.Embedding.ModelDimensions
	out.MaxTokens = c.Embedding.MaxTokens
	out.VocabPath = c.Embedding.VocabPath
	out.NGramSize = c.Embedding.NGramSize
	out.MinCount = c.Embedding.MinCount
	out.WindowSize = c.Embedding.WindowSize
	out.Timeout = time.Duration(c.Embedding.TimeoutSeconds) * time.Second
	return out, nil
}

// Save writes the config to path. API keys are never written.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.Embedding.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" and other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
