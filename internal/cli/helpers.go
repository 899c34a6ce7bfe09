package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/recall/internal/config"
	"github.com/runnerr0/recall/internal/history"
	"github.com/runnerr0/recall/internal/logging"
	"github.com/runnerr0/recall/internal/model"
	"github.com/runnerr0/recall/internal/profile"
	"github.com/runnerr0/recall/internal/searchapi"
	"github.com/runnerr0/recall/internal/storage"
)

// statsKV is a KV that can report its usage.
type statsKV interface {
	storage.KV
	Stats(ctx context.Context) (*storage.Stats, error)
}

// env bundles everything a command needs. Tests build one with newEnv over
// an in-memory KV and an httptest server.
type env struct {
	cfg           *config.Config
	logger        *slog.Logger
	kv            statsKV
	history       *history.Store
	profile       *profile.Store
	api           *searchapi.Client
	clock         func() time.Time
	dbPath        string
	schemaVersion int

	closers []func() error
}

// newEnv wires the stores and API client from cfg over kv.
func newEnv(cfg *config.Config, kv statsKV, logger *slog.Logger) *env {
	return &env{
		cfg:    cfg,
		logger: logger,
		kv:     kv,
		history: history.New(kv,
			history.WithCapacity(cfg.History.MaxEntries),
			history.WithEvictRatio(cfg.History.EvictRatio),
			history.WithLogger(logger),
		),
		profile: profile.New(kv,
			profile.WithMaxKeywords(cfg.Profile.MaxKeywords),
			profile.WithKeywordsPerClick(cfg.Profile.KeywordsPerClick),
			profile.WithLogger(logger),
		),
		api:   searchapi.New(cfg.SearchAPI.BaseURL, cfg.SearchAPI.Timeout()),
		clock: time.Now,
	}
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// loadConfig reads the config named by --config, or the default location,
// creating it with defaults on first use.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		path, err := config.ExpandPath(globals.Config)
		if err != nil {
			return nil, err
		}
		return config.LoadOrCreateAt(path)
	}
	return config.LoadOrCreate()
}

// resolveDBPath returns the --db-path override or the configured path.
func resolveDBPath(globals *GlobalFlags, cfg *config.Config) (string, error) {
	if globals != nil && globals.DBPath != "" {
		return config.ExpandPath(globals.DBPath)
	}
	return cfg.DBPath()
}

// openEnv loads config, sets up logging, opens and migrates the database,
// and returns a ready-to-use env.
func openEnv(globals *GlobalFlags) (*env, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globals != nil && globals.Verbose {
		cfg.Logging.Level = "debug"
	}

	logger, closeLog, err := logging.Init(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	dbPath, err := resolveDBPath(globals, cfg)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("resolve db path: %w", err)
	}

	db, err := openDB(dbPath)
	if err != nil {
		closeLog()
		return nil, err
	}

	ctx := context.Background()
	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(ctx); err != nil {
		db.Close()
		closeLog()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	version, err := runner.Version(ctx)
	if err != nil {
		db.Close()
		closeLog()
		return nil, err
	}

	kv, err := storage.NewSQLiteKV(db, cfg.Storage.QuotaBytes)
	if err != nil {
		db.Close()
		closeLog()
		return nil, fmt.Errorf("init store: %w", err)
	}

	e := newEnv(cfg, kv, logger)
	e.dbPath = dbPath
	e.schemaVersion = version
	e.closers = []func() error{closeLog, db.Close, kv.Close}

	logger.Debug("environment ready", "db", dbPath, "schema_version", version)
	return e, nil
}

// openDB opens the SQLite database at path, creating its directory.
func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// run opens the environment and hands it to fn.
func run(globals *GlobalFlags, fn func(ctx context.Context, e *env) error) error {
	e, err := openEnv(globals)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()

	return fn(ctx, e)
}

func jsonOutput(globals *GlobalFlags) bool {
	return globals != nil && globals.JSON
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResults prints a numbered result list.
func printResults(results []model.ResultEntry) {
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Printf("%d. %s\n", i+1, title)
		fmt.Printf("   %s\n", r.URL)

		meta := []string{}
		if r.Score != nil {
			meta = append(meta, fmt.Sprintf("score %.4f", *r.Score))
		}
		if kws := topKeywords(r.KeywordsWithFrequency, 3); kws != "" {
			meta = append(meta, kws)
		}
		if len(meta) > 0 {
			fmt.Printf("   %s\n", strings.Join(meta, " · "))
		}

		if i < len(results)-1 {
			fmt.Println()
		}
	}
}

func topKeywords(kws []model.KeywordFrequency, n int) string {
	if len(kws) > n {
		kws = kws[:n]
	}
	parts := make([]string, len(kws))
	for i, k := range kws {
		parts[i] = k.Keyword
	}
	return strings.Join(parts, ", ")
}

// findResult returns the result of rec with the given URL.
func findResult(rec model.SearchRecord, url string) (model.ResultEntry, error) {
	for _, r := range rec.Results {
		if r.URL == url {
			return r, nil
		}
	}
	return model.ResultEntry{}, fmt.Errorf("no result with url %q in search %q", url, rec.Query)
}

// resultCount formats "N results", or "N of M results" when facets hid some.
func resultCount(shown, total int) string {
	if shown == total {
		return fmt.Sprintf("%d %s", total, plural(total, "result", "results"))
	}
	return fmt.Sprintf("%d of %d results", shown, total)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// shortID returns the first 8 characters of a record ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
