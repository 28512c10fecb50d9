// Package config defines the codeatlas configuration and its loader.
// Settings come from .codeatlas/config.yml under the project root,
// overridable via CODEATLAS_* environment variables.
package config

import (
	"fmt"
	"time"
)

// IndexDirName is the per-project directory holding all derived state.
const IndexDirName = ".codeatlas"

// Config is the full codeatlas configuration.
type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Indexing  IndexingConfig  `mapstructure:"indexing"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Session   SessionConfig   `mapstructure:"session"`
}

// EmbeddingConfig selects the embedding provider for semantic search.
// The hash provider works offline; openai requires llm.api_key.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // "hash" or "openai"
	Model    string `mapstructure:"model"`
}

// PathsConfig controls which files the indexer considers.
type PathsConfig struct {
	Include []string `mapstructure:"include"`
	Ignore  []string `mapstructure:"ignore"`
}

// IndexingConfig controls how the indexer runs.
type IndexingConfig struct {
	Workers       int  `mapstructure:"workers"` // 0 = GOMAXPROCS
	Watch         bool `mapstructure:"watch"`
	DebounceMs    int  `mapstructure:"debounce_ms"`
	ContextLines  int  `mapstructure:"context_lines"`

	// MinConfidence filters low-confidence edges out of query results.
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// LLMConfig points at an OpenAI-compatible endpoint used for query
// classification and answer synthesis.
type LLMConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// RetrievalConfig tunes the retrieval pipeline.
type RetrievalConfig struct {
	Budget      int `mapstructure:"budget"`       // max results per retrieval
	SearchLimit int `mapstructure:"search_limit"` // per-leg hybrid search limit
	FusionK     int `mapstructure:"fusion_k"`
}

// SessionConfig tunes the per-conversation context cache.
type SessionConfig struct {
	Capacity   int `mapstructure:"capacity"`
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// TTL returns the session TTL as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{
				"**/*.py",
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
				"**/*.rs",
				"**/*.go",
			},
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
				".venv/**",
			},
		},
		Indexing: IndexingConfig{
			Workers:      0,
			DebounceMs:   500,
			ContextLines: 5,
		},
		LLM: LLMConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			MaxTokens: 1024,
		},
		Embedding: EmbeddingConfig{
			Provider: "hash",
		},
		Retrieval: RetrievalConfig{
			Budget:      20,
			SearchLimit: 25,
			FusionK:     60,
		},
		Session: SessionConfig{
			Capacity:   50,
			TTLMinutes: 30,
		},
	}
}

// Validate checks invariants that would otherwise surface as confusing
// failures deep in the pipeline.
func (c *Config) Validate() error {
	if len(c.Paths.Include) == 0 {
		return fmt.Errorf("paths.include must list at least one pattern")
	}
	if c.Indexing.Workers < 0 {
		return fmt.Errorf("indexing.workers must be >= 0, got %d", c.Indexing.Workers)
	}
	if c.Indexing.DebounceMs < 0 {
		return fmt.Errorf("indexing.debounce_ms must be >= 0, got %d", c.Indexing.DebounceMs)
	}
	switch c.Embedding.Provider {
	case "hash", "openai":
	default:
		return fmt.Errorf("embedding.provider must be hash or openai, got %q", c.Embedding.Provider)
	}
	if c.Retrieval.Budget <= 0 {
		return fmt.Errorf("retrieval.budget must be > 0, got %d", c.Retrieval.Budget)
	}
	if c.Retrieval.FusionK <= 0 {
		return fmt.Errorf("retrieval.fusion_k must be > 0, got %d", c.Retrieval.FusionK)
	}
	if c.Session.Capacity <= 0 {
		return fmt.Errorf("session.capacity must be > 0, got %d", c.Session.Capacity)
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("session.ttl_minutes must be > 0, got %d", c.Session.TTLMinutes)
	}
	return nil
}
