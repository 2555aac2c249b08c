package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.MaxNestingDepth)
	assert.Equal(t, 10, cfg.MaxComplexity)
	assert.Equal(t, []string{"input", "print", "open"}, cfg.ForbiddenIOFunctions)
	assert.Empty(t, cfg.ForbiddenImports)
	assert.Equal(t, "text", cfg.Output)
	assert.True(t, cfg.CacheEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.MaxNestingDepth = 5
	cfg.ForbiddenImports = []string{"os", "sys"}
	cfg.DisabledRules = []string{"naming-convention"}
	cfg.Output = "json"
	require.NoError(t, cfg.Save(path), "Save creates parent directories")

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.MaxNestingDepth)
	assert.Equal(t, []string{"os", "sys"}, loaded.ForbiddenImports)
	assert.Equal(t, []string{"naming-convention"}, loaded.DisabledRules)
	assert.Equal(t, "json", loaded.Output)
}

func TestLoadFromMissingFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_complexity: 15\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.MaxComplexity)
	assert.Equal(t, 3, cfg.MaxNestingDepth, "unset keys keep their defaults")
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	t.Setenv("PYCRITIC_MAX_COMPLEXITY", "20")
	t.Setenv("PYCRITIC_FORBIDDEN_IMPORTS", "os, subprocess ,sys")
	t.Setenv("PYCRITIC_OUTPUT", "json")
	t.Setenv("PYCRITIC_CACHE_ENABLED", "false")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MaxComplexity)
	assert.Equal(t, []string{"os", "subprocess", "sys"}, cfg.ForbiddenImports, "list entries are trimmed")
	assert.Equal(t, "json", cfg.Output)
	assert.False(t, cfg.CacheEnabled)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero nesting depth", func(c *Config) { c.MaxNestingDepth = 0 }},
		{"negative complexity", func(c *Config) { c.MaxComplexity = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"negative cache size", func(c *Config) { c.CacheMaxEntries = -1 }},
		{"bad output format", func(c *Config) { c.Output = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.MaxComplexity = 11
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	// List order does not matter.
	a.ForbiddenImports = []string{"sys", "os"}
	c := DefaultConfig()
	c.ForbiddenImports = []string{"os", "sys"}
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
}

func TestFingerprintIgnoresPresentation(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	b.Output = "json"
	b.Workers = 8
	b.Verbose = true
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}
