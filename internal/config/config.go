package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/recall/config.yaml"

// Config holds all recall configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	History   HistoryConfig   `yaml:"history" toml:"history"`
	Profile   ProfileConfig   `yaml:"profile" toml:"profile"`
	SearchAPI SearchAPIConfig `yaml:"search_api" toml:"search_api"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

type StorageConfig struct {
	Path       string `yaml:"path" toml:"path"`
	SQLiteFile string `yaml:"sqlite_file" toml:"sqlite_file"`
	QuotaBytes int64  `yaml:"quota_bytes" toml:"quota_bytes"`
}

type HistoryConfig struct {
	MaxEntries int     `yaml:"max_entries" toml:"max_entries"`
	EvictRatio float64 `yaml:"evict_ratio" toml:"evict_ratio"`
}

type ProfileConfig struct {
	MaxKeywords      int `yaml:"max_keywords" toml:"max_keywords"`
	KeywordsPerClick int `yaml:"keywords_per_click" toml:"keywords_per_click"`
}

type SearchAPIConfig struct {
	BaseURL        string `yaml:"base_url" toml:"base_url"`
	UsePageRank    bool   `yaml:"use_pagerank" toml:"use_pagerank"`
	Operator       string `yaml:"operator" toml:"operator"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout, falling back to 30s for non-positive values.
func (c SearchAPIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// Load reads a config file at path and merges it with defaults. Files ending
// in .toml are decoded as TOML, everything else as YAML.
// Returns an error if the file cannot be read or cannot be parsed.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.SearchAPI.Operator = strings.ToUpper(cfg.SearchAPI.Operator)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the stores cannot operate with.
func (c *Config) Validate() error {
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history.max_entries must be at least 1, got %d", c.History.MaxEntries)
	}
	if c.History.EvictRatio <= 0 || c.History.EvictRatio > 1 {
		return fmt.Errorf("history.evict_ratio must be in (0, 1], got %v", c.History.EvictRatio)
	}
	if c.Profile.MaxKeywords < 1 {
		return fmt.Errorf("profile.max_keywords must be at least 1, got %d", c.Profile.MaxKeywords)
	}
	if c.Profile.KeywordsPerClick < 1 {
		return fmt.Errorf("profile.keywords_per_click must be at least 1, got %d", c.Profile.KeywordsPerClick)
	}
	switch c.SearchAPI.Operator {
	case "AND", "OR":
	default:
		return fmt.Errorf("search_api.operator must be AND or OR, got %q", c.SearchAPI.Operator)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// DBPath returns the expanded SQLite database path.
func (c *Config) DBPath() (string, error) {
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		var data []byte
		if isTOML(path) {
			data, err = toml.Marshal(cfg)
		} else {
			data, err = yaml.Marshal(cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
