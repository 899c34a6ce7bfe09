package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:       "~/.config/recall",
			SQLiteFile: "recall.db",
			QuotaBytes: 5 << 20,
		},
		History: HistoryConfig{
			MaxEntries: 50,
			EvictRatio: 0.5,
		},
		Profile: ProfileConfig{
			MaxKeywords:      10,
			KeywordsPerClick: 5,
		},
		SearchAPI: SearchAPIConfig{
			BaseURL:        "http://localhost:8080",
			UsePageRank:    true,
			Operator:       "AND",
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}
