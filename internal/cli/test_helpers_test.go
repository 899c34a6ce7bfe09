package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/recall/internal/config"
	"github.com/runnerr0/recall/internal/model"
	"github.com/runnerr0/recall/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// newTestEnv builds an env over an in-memory KV. When h is non-nil the
// search API points at an httptest server running it.
func newTestEnv(t *testing.T, h http.HandlerFunc) *env {
	t.Helper()
	cfg := config.DefaultConfig()
	if h != nil {
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)
		cfg.SearchAPI.BaseURL = srv.URL
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newEnv(cfg, storage.NewMemoryKV(0), logger)
}

func score(v float64) *float64 { return &v }

// seedSearches saves searches oldest first, so the last query is index 1.
func seedSearches(t *testing.T, e *env, searches map[string][]model.ResultEntry, order ...string) {
	t.Helper()
	for _, q := range order {
		_, err := e.history.Save(context.Background(), q, searches[q])
		require.NoError(t, err)
	}
}
