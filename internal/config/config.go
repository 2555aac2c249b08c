package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for pycritic.
type Config struct {
	// MaxNestingDepth is the deepest a compound statement may sit before
	// the deep-nesting rule fires.
	MaxNestingDepth int `yaml:"max_nesting_depth" env:"PYCRITIC_MAX_NESTING_DEPTH"`

	// MaxComplexity bounds per-function cyclomatic complexity.
	MaxComplexity int `yaml:"max_complexity" env:"PYCRITIC_MAX_COMPLEXITY"`

	// ForbiddenImports lists modules students may not import.
	ForbiddenImports []string `yaml:"forbidden_imports" env:"PYCRITIC_FORBIDDEN_IMPORTS"`

	// ForbiddenIOFunctions lists builtins that count as I/O inside
	// function bodies.
	ForbiddenIOFunctions []string `yaml:"forbidden_io_functions" env:"PYCRITIC_FORBIDDEN_IO_FUNCTIONS"`

	// DisabledRules suppresses rule ids entirely.
	DisabledRules []string `yaml:"disabled_rules" env:"PYCRITIC_DISABLED_RULES"`

	// Output selects the report format: text or json.
	Output string `yaml:"output" env:"PYCRITIC_OUTPUT"`

	// Workers bounds file-level parallelism; 0 means one per CPU.
	Workers int `yaml:"workers" env:"PYCRITIC_WORKERS"`

	// CacheEnabled turns the on-disk report cache on.
	CacheEnabled bool `yaml:"cache_enabled" env:"PYCRITIC_CACHE_ENABLED"`

	// CacheDir is where the report cache lives.
	CacheDir string `yaml:"cache_dir" env:"PYCRITIC_CACHE_DIR"`

	// CacheMaxEntries caps the number of cached file reports.
	CacheMaxEntries int `yaml:"cache_max_entries" env:"PYCRITIC_CACHE_MAX_ENTRIES"`

	// Logging
	Verbose bool `yaml:"verbose" env:"PYCRITIC_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxNestingDepth:      3,
		MaxComplexity:        10,
		ForbiddenImports:     nil,
		ForbiddenIOFunctions: []string{"input", "print", "open"},
		DisabledRules:        nil,
		Output:               "text",
		Workers:              0,
		CacheEnabled:         true,
		CacheDir:             defaultCacheDir(),
		CacheMaxEntries:      4096,
		Verbose:              false,
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".pycritic-cache"
	}
	return filepath.Join(dir, "pycritic")
}

// globalConfigFilePath returns the global config file path (~/.pycritic/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pycritic/config.yaml"
	}
	return filepath.Join(home, ".pycritic", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.pycritic.yaml)
func projectConfigFilePath() string {
	return ".pycritic.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.pycritic.yaml)
// 3. Global config (~/.pycritic/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// List-valued variables are comma-separated.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PYCRITIC_MAX_NESTING_DEPTH"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxNestingDepth = i
		}
	}
	if v := os.Getenv("PYCRITIC_MAX_COMPLEXITY"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxComplexity = i
		}
	}
	if v := os.Getenv("PYCRITIC_FORBIDDEN_IMPORTS"); v != "" {
		cfg.ForbiddenImports = splitList(v)
	}
	if v := os.Getenv("PYCRITIC_FORBIDDEN_IO_FUNCTIONS"); v != "" {
		cfg.ForbiddenIOFunctions = splitList(v)
	}
	if v := os.Getenv("PYCRITIC_DISABLED_RULES"); v != "" {
		cfg.DisabledRules = splitList(v)
	}
	if v := os.Getenv("PYCRITIC_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("PYCRITIC_WORKERS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("PYCRITIC_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("PYCRITIC_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("PYCRITIC_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("PYCRITIC_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields.
func (c *Config) Validate() error {
	if c.MaxNestingDepth <= 0 {
		return fmt.Errorf("max_nesting_depth must be positive")
	}
	if c.MaxComplexity <= 0 {
		return fmt.Errorf("max_complexity must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("cache_max_entries must be non-negative")
	}
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format: %s (must be 'text' or 'json')", c.Output)
	}
	return nil
}

// Fingerprint summarizes the settings that change analysis results, for
// cache keying. Output format and worker count deliberately do not
// participate.
func (c *Config) Fingerprint() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "depth=%d;complexity=%d", c.MaxNestingDepth, c.MaxComplexity)
	fmt.Fprintf(&sb, ";imports=%s", sortedList(c.ForbiddenImports))
	fmt.Fprintf(&sb, ";io=%s", sortedList(c.ForbiddenIOFunctions))
	fmt.Fprintf(&sb, ";disabled=%s", sortedList(c.DisabledRules))
	return sb.String()
}

func sortedList(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseInt attempts to parse a string as int.
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
