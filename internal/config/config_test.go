package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "~/.config/recall", cfg.Storage.Path)
	assert.Equal(t, "recall.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, int64(5<<20), cfg.Storage.QuotaBytes)
	assert.Equal(t, 50, cfg.History.MaxEntries)
	assert.Equal(t, 0.5, cfg.History.EvictRatio)
	assert.Equal(t, 10, cfg.Profile.MaxKeywords)
	assert.Equal(t, 5, cfg.Profile.KeywordsPerClick)
	assert.Equal(t, "http://localhost:8080", cfg.SearchAPI.BaseURL)
	assert.True(t, cfg.SearchAPI.UsePageRank)
	assert.Equal(t, "AND", cfg.SearchAPI.Operator)
	assert.Equal(t, 30*time.Second, cfg.SearchAPI.Timeout())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
history:
  max_entries: 20
profile:
  max_keywords: 15
search_api:
  base_url: "http://search.internal:9000"
  operator: "or"
  use_pagerank: false
logging:
  level: "debug"
  format: "json"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, 20, cfg.History.MaxEntries)
	assert.Equal(t, 15, cfg.Profile.MaxKeywords)
	assert.Equal(t, "http://search.internal:9000", cfg.SearchAPI.BaseURL)
	assert.Equal(t, "OR", cfg.SearchAPI.Operator)
	assert.False(t, cfg.SearchAPI.UsePageRank)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Non-overridden values remain defaults
	assert.Equal(t, 0.5, cfg.History.EvictRatio)
	assert.Equal(t, 5, cfg.Profile.KeywordsPerClick)
	assert.Equal(t, "recall.db", cfg.Storage.SQLiteFile)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")

	tomlContent := `
[storage]
quota_bytes = 1024

[history]
evict_ratio = 0.25

[search_api]
timeout_seconds = 5
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(tomlContent), 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), cfg.Storage.QuotaBytes)
	assert.Equal(t, 0.25, cfg.History.EvictRatio)
	assert.Equal(t, 5*time.Second, cfg.SearchAPI.Timeout())
	assert.Equal(t, 50, cfg.History.MaxEntries)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte(":::not valid yaml{{{"), 0644)
	require.NoError(t, err)

	_, err = Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadInvalidTOMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[history\nmax_entries = "), 0644))

	_, err := Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero capacity":  "history:\n  max_entries: 0\n",
		"ratio too big":  "history:\n  evict_ratio: 1.5\n",
		"no keywords":    "profile:\n  max_keywords: 0\n",
		"per click zero": "profile:\n  keywords_per_click: 0\n",
		"bad operator":   "search_api:\n  operator: XOR\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
			_, err := Load(cfgPath)
			assert.Error(t, err)
		})
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	_, err := Load("/tmp/nonexistent_path_12345/config.yaml")
	assert.Error(t, err)
}

func TestLoadOrCreateCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "deep", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.History.MaxEntries)

	// File should now exist on disk
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)

	// File should be valid YAML loadable again
	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, cfg2)
}

func TestLoadOrCreateWritesTOMLForTOMLPath(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[history]"))

	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, cfg2)
}

func TestLoadOrCreateLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte("history:\n  max_entries: 7\n"), 0644)
	require.NoError(t, err)

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.History.MaxEntries)
	assert.Equal(t, 10, cfg.Profile.MaxKeywords)
}

func TestDBPathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	p, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "recall", "recall.db"), p)

	cfg.Storage.Path = "/var/lib/recall"
	p, err = cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/recall/recall.db", p)
}
