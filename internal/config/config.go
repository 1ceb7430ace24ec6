// Package config loads oversight's project configuration: the analysis
// orchestrator limits, engine selection, and cache tuning. Values come
// from .oversight/config.yaml under the project root, overridden by
// OVERSIGHT_* environment variables, with defaults for everything else.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigDir is the per-project directory holding config and state.
const ConfigDir = ".oversight"

// Config is the full oversight configuration.
type Config struct {
	// MaxConcurrent is the admission ceiling for background analyses.
	// Default: 3, Range: 1-64
	MaxConcurrent int `yaml:"max_concurrent"`

	// TimeoutSeconds is the per-analysis wall-clock deadline.
	// Default: 60, Range: 5-3600
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Engine selects how analyses run: "subprocess" spawns the
	// reasoning CLI, "api" calls the API directly.
	// Default: subprocess
	Engine string `yaml:"engine"`

	// Model passed to the engine. Empty uses the engine's default.
	Model string `yaml:"model"`

	// MaxTurns bounds the subprocess engine's tool-use loop.
	// Default: 10, Range: 1-100
	MaxTurns int `yaml:"max_turns"`

	// CollectionPrefix namespaces the search tools offered to the
	// engine. Empty disables them.
	CollectionPrefix string `yaml:"collection_prefix"`

	// SpawnsPerMinute rate-limits admissions. 0 disables the limit.
	// Default: 0, Range: 0-600
	SpawnsPerMinute int `yaml:"spawns_per_minute"`

	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig tunes the embedding and analysis caches.
type CacheConfig struct {
	// EmbeddingTTLHours is how long embedding vectors stay valid.
	// Default: 24, Range: 1-720
	EmbeddingTTLHours int `yaml:"embedding_ttl_hours"`

	// EmbeddingMaxEntries caps the embedding cache.
	// Default: 1000, Range: 10-100000
	EmbeddingMaxEntries int `yaml:"embedding_max_entries"`

	// AnalysisTTLMinutes is how long analysis verdicts stay valid.
	// Default: 5, Range: 1-1440
	AnalysisTTLMinutes int `yaml:"analysis_ttl_minutes"`

	// AnalysisMaxEntries caps the analysis cache.
	// Default: 200, Range: 10-100000
	AnalysisMaxEntries int `yaml:"analysis_max_entries"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		MaxConcurrent:   3,
		TimeoutSeconds:  60,
		Engine:          "subprocess",
		MaxTurns:        10,
		SpawnsPerMinute: 0,
		Cache: CacheConfig{
			EmbeddingTTLHours:   24,
			EmbeddingMaxEntries: 1000,
			AnalysisTTLMinutes:  5,
			AnalysisMaxEntries:  200,
		},
	}
}

// Validate checks if the configuration has valid values.
func (c Config) Validate() error {
	if c.MaxConcurrent < 1 || c.MaxConcurrent > 64 {
		return fmt.Errorf("max_concurrent must be between 1 and 64 (got %d)", c.MaxConcurrent)
	}
	if c.TimeoutSeconds < 5 || c.TimeoutSeconds > 3600 {
		return fmt.Errorf("timeout_seconds must be between 5 and 3600 (got %d)", c.TimeoutSeconds)
	}
	if c.Engine != "subprocess" && c.Engine != "api" {
		return fmt.Errorf("engine must be 'subprocess' or 'api' (got %q)", c.Engine)
	}
	if c.MaxTurns < 1 || c.MaxTurns > 100 {
		return fmt.Errorf("max_turns must be between 1 and 100 (got %d)", c.MaxTurns)
	}
	if c.SpawnsPerMinute < 0 || c.SpawnsPerMinute > 600 {
		return fmt.Errorf("spawns_per_minute must be between 0 and 600 (got %d)", c.SpawnsPerMinute)
	}
	if c.Cache.EmbeddingTTLHours < 1 || c.Cache.EmbeddingTTLHours > 720 {
		return fmt.Errorf("embedding_ttl_hours must be between 1 and 720 (got %d)", c.Cache.EmbeddingTTLHours)
	}
	if c.Cache.EmbeddingMaxEntries < 10 || c.Cache.EmbeddingMaxEntries > 100000 {
		return fmt.Errorf("embedding_max_entries must be between 10 and 100000 (got %d)", c.Cache.EmbeddingMaxEntries)
	}
	if c.Cache.AnalysisTTLMinutes < 1 || c.Cache.AnalysisTTLMinutes > 1440 {
		return fmt.Errorf("analysis_ttl_minutes must be between 1 and 1440 (got %d)", c.Cache.AnalysisTTLMinutes)
	}
	if c.Cache.AnalysisMaxEntries < 10 || c.Cache.AnalysisMaxEntries > 100000 {
		return fmt.Errorf("analysis_max_entries must be between 10 and 100000 (got %d)", c.Cache.AnalysisMaxEntries)
	}
	return nil
}

// Path returns the config file location for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ConfigDir, "config.yaml")
}

// Load reads the configuration for a project root: defaults, then the
// YAML file if present, then OVERSIGHT_* environment overrides. A
// missing config file is not an error.
func Load(projectRoot string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(projectRoot))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides config fields from OVERSIGHT_* environment
// variables.
func applyEnv(cfg *Config) error {
	if err := parseEnvInt("OVERSIGHT_MAX_CONCURRENT", &cfg.MaxConcurrent); err != nil {
		return err
	}
	if err := parseEnvInt("OVERSIGHT_TIMEOUT_SECONDS", &cfg.TimeoutSeconds); err != nil {
		return err
	}
	if err := parseEnvString("OVERSIGHT_ENGINE", &cfg.Engine); err != nil {
		return err
	}
	if err := parseEnvString("OVERSIGHT_MODEL", &cfg.Model); err != nil {
		return err
	}
	if err := parseEnvInt("OVERSIGHT_MAX_TURNS", &cfg.MaxTurns); err != nil {
		return err
	}
	if err := parseEnvString("OVERSIGHT_COLLECTION_PREFIX", &cfg.CollectionPrefix); err != nil {
		return err
	}
	if err := parseEnvInt("OVERSIGHT_SPAWNS_PER_MINUTE", &cfg.SpawnsPerMinute); err != nil {
		return err
	}
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
