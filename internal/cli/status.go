package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string        `json:"version"`
	DatabasePath      string        `json:"database_path,omitempty"`
	DatabaseSizeBytes int64         `json:"database_size_bytes"`
	SchemaVersion     int           `json:"schema_version"`
	UsedBytes         int64         `json:"used_bytes"`
	QuotaBytes        int64         `json:"quota_bytes"`
	QuotaPercent      float64       `json:"quota_percent"`
	HistoryRecords    int           `json:"history_records"`
	HistoryCapacity   int           `json:"history_capacity"`
	ProfileKeywords   int           `json:"profile_keywords"`
	SearchAPI         string        `json:"search_api"`
	Keys              []keySizeJSON `json:"keys"`
}

type keySizeJSON struct {
	Key   string `json:"key"`
	Bytes int64  `json:"bytes"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

// executeWith runs status against a provided env (for testing).
func (c *StatusCommand) executeWith(ctx context.Context, e *env) error {
	stats, err := e.kv.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	out := statusJSON{
		Version:           c.version,
		DatabasePath:      e.dbPath,
		DatabaseSizeBytes: databaseSize(e.dbPath),
		SchemaVersion:     e.schemaVersion,
		UsedBytes:         stats.UsedBytes,
		QuotaBytes:        stats.QuotaBytes,
		HistoryRecords:    len(e.history.Load(ctx)),
		HistoryCapacity:   e.cfg.History.MaxEntries,
		ProfileKeywords:   len(e.profile.Load(ctx).Keywords),
		SearchAPI:         e.cfg.SearchAPI.BaseURL,
		Keys:              make([]keySizeJSON, len(stats.KeySizes)),
	}
	if stats.QuotaBytes > 0 {
		out.QuotaPercent = float64(stats.UsedBytes) / float64(stats.QuotaBytes) * 100
	}
	for i, k := range stats.KeySizes {
		out.Keys[i] = keySizeJSON{Key: k.Key, Bytes: k.Bytes}
	}

	if jsonOutput(c.globals) {
		return printJSON(out)
	}
	return c.printStatusHuman(out)
}

func (c *StatusCommand) printStatusHuman(s statusJSON) error {
	fmt.Println("Recall Status")
	fmt.Println("=============")
	fmt.Printf("Version:       %s\n", s.Version)
	if s.DatabasePath != "" {
		fmt.Printf("Database:      %s (%s, schema v%d)\n", s.DatabasePath, formatBytes(s.DatabaseSizeBytes), s.SchemaVersion)
	}
	fmt.Printf("Storage:       %s of %s (%.1f%%)\n", formatBytes(s.UsedBytes), formatBytes(s.QuotaBytes), s.QuotaPercent)
	fmt.Printf("History:       %s / %s searches\n", formatNumber(int64(s.HistoryRecords)), formatNumber(int64(s.HistoryCapacity)))
	fmt.Printf("Profile:       %d keywords\n", s.ProfileKeywords)
	fmt.Printf("Search API:    %s\n", s.SearchAPI)

	if len(s.Keys) > 0 {
		fmt.Println()
		fmt.Println("Keys:")
		for _, k := range s.Keys {
			fmt.Printf("  %-20s %s\n", k.Key, formatBytes(k.Bytes))
		}
	}
	return nil
}

// databaseSize returns the database file size in bytes, or 0 when the file
// cannot be stat'ed.
func databaseSize(path string) int64 {
	if path == "" {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
