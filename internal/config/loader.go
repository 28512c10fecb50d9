package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// Loader reads configuration for a project root.
type Loader struct {
	rootDir string
}

// NewLoader creates a loader for the given project root.
func NewLoader(rootDir string) *Loader {
	return &Loader{rootDir: rootDir}
}

// Load reads .codeatlas/config.yml, applies CODEATLAS_* environment
// overrides, and validates the result. A missing config file is fine;
// defaults apply.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, IndexDirName))

	v.SetEnvPrefix("CODEATLAS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer)

	setDefaults(v)

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// configKeys lists every key bound to an environment variable, e.g.
// llm.api_key reads CODEATLAS_LLM_API_KEY.
var configKeys = []string{
	"paths.include",
	"paths.ignore",
	"indexing.workers",
	"indexing.watch",
	"indexing.debounce_ms",
	"indexing.context_lines",
	"indexing.min_confidence",
	"llm.base_url",
	"llm.api_key",
	"llm.model",
	"llm.max_tokens",
	"embedding.provider",
	"embedding.model",
	"retrieval.budget",
	"retrieval.search_limit",
	"retrieval.fusion_k",
	"session.capacity",
	"session.ttl_minutes",
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("paths.include", d.Paths.Include)
	v.SetDefault("paths.ignore", d.Paths.Ignore)
	v.SetDefault("indexing.workers", d.Indexing.Workers)
	v.SetDefault("indexing.watch", d.Indexing.Watch)
	v.SetDefault("indexing.debounce_ms", d.Indexing.DebounceMs)
	v.SetDefault("indexing.context_lines", d.Indexing.ContextLines)
	v.SetDefault("indexing.min_confidence", d.Indexing.MinConfidence)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("retrieval.budget", d.Retrieval.Budget)
	v.SetDefault("retrieval.search_limit", d.Retrieval.SearchLimit)
	v.SetDefault("retrieval.fusion_k", d.Retrieval.FusionK)
	v.SetDefault("session.capacity", d.Session.Capacity)
	v.SetDefault("session.ttl_minutes", d.Session.TTLMinutes)
}
