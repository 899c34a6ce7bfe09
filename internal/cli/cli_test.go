package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Contains(t, output, "recall 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})
	assert.Equal(t, "recall 1.2.3", strings.TrimSpace(output))
}

// parseOnly parses args without executing the matched command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands, error) {
	t.Helper()
	parser, globals, cmds := buildParser("test")
	parser.Options &^= goflags.PrintErrors
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := parser.ParseArgs(args)
	return globals, cmds, err
}

func TestSubcommandsRecognized(t *testing.T) {
	cases := [][]string{
		{"search", "go", "channels"},
		{"search", "--extended", "--operator", "OR", "--no-pagerank", "go"},
		{"history"},
		{"view", "--record", "1"},
		{"merge", "-r", "1", "-r", "2"},
		{"intersect", "--record", "1", "--record", "abc"},
		{"filter", "--record", "1", "--term", "go"},
		{"click", "--record", "1", "--url", "https://go.dev"},
		{"profile"},
		{"clear", "--history"},
		{"status"},
		{"keywords"},
		{"crawl", "--url", "https://example.com", "--max-pages", "5"},
		{"clean-db", "--force"},
		{"similar", "--record", "1", "--url", "https://go.dev", "--extended"},
		{"hot-topics"},
		{"clean-cache"},
		{"crawled-pages"},
		{"db-status"},
		{"merge", "-r", "1", "-r", "2", "--min-score", "0.5", "--date-range", "week", "--has-child-links"},
	}
	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, _, err := parseOnly(t, args...)
			assert.NoError(t, err)
		})
	}
}

func TestFacetFlagsParsed(t *testing.T) {
	_, cmds, err := parseOnly(t, "view", "-r", "1", "--min-size", "100", "--max-size", "900",
		"--date-range", "month", "--min-score", "0.25", "--has-parent-links", "--keyword", "go")
	require.NoError(t, err)

	ff := cmds.View.Facets
	assert.Equal(t, FacetFlags{
		MinSize: 100, MaxSize: 900, DateRange: "month", MinScore: "0.25",
		HasParentLinks: true, Keyword: "go",
	}, ff)

	f, err := ff.facets()
	require.NoError(t, err)
	require.NotNil(t, f.MinScore)
	assert.Equal(t, 0.25, *f.MinScore)

	_, cmds, err = parseOnly(t, "search", "go")
	require.NoError(t, err)
	assert.Equal(t, "all", cmds.Search.Facets.DateRange)
}

func TestGlobalFlagsParsed(t *testing.T) {
	globals, cmds, err := parseOnly(t, "--json", "--verbose", "--db-path", "/tmp/x.db", "--config", "c.toml", "merge", "-r", "1", "-r", "2")
	require.NoError(t, err)
	assert.True(t, globals.JSON)
	assert.True(t, globals.Verbose)
	assert.Equal(t, "/tmp/x.db", globals.DBPath)
	assert.Equal(t, "c.toml", globals.Config)
	assert.Equal(t, []string{"1", "2"}, cmds.Merge.Records)
}

func TestCrawlDefaultMaxPages(t *testing.T) {
	_, cmds, err := parseOnly(t, "crawl", "--url", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 300, cmds.Crawl.MaxPages)
}

func TestRequiredFlagsEnforced(t *testing.T) {
	for _, args := range [][]string{
		{"view"},
		{"merge"},
		{"click", "--record", "1"},
		{"crawl"},
	} {
		_, _, err := parseOnly(t, args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := parseOnly(t, "frobnicate")
	assert.Error(t, err)
}

func TestRunWithArgs_EndToEnd(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "data", "recall.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0644))

	base := []string{"--config", cfgPath, "--db-path", dbPath}

	output := captureOutput(t, func() {
		require.NoError(t, RunWithArgs("test", append(base, "history")))
	})
	assert.Contains(t, output, "No searches recorded yet.")

	output = captureOutput(t, func() {
		require.NoError(t, RunWithArgs("test", append(base, "--json", "status")))
	})
	assert.Contains(t, output, `"schema_version": 1`)
	assert.Contains(t, output, `"database_path": "`+dbPath+`"`)

	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "database file is created on first use")
}
