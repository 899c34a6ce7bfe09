package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords_Lists(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/keywords", r.URL.Path)
		_, _ = io.WriteString(w, `["go","gopher"]`)
	})

	output := captureOutput(t, func() {
		require.NoError(t, (&KeywordsCommand{globals: &GlobalFlags{}}).executeWith(context.Background(), e))
	})
	assert.Equal(t, "go\ngopher\n", output)
}

func TestKeywords_Empty(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	output := captureOutput(t, func() {
		require.NoError(t, (&KeywordsCommand{globals: &GlobalFlags{JSON: true}}).executeWith(context.Background(), e))
	})
	assert.Equal(t, "[]", strings.TrimSpace(output))
}

func TestCrawl_SendsNormalizedSeed(t *testing.T) {
	var body map[string]any
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crawl", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	})
	cmd := &CrawlCommand{URL: "HTTPS://Example.com:443/start#frag", MaxPages: 12, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(context.Background(), e))
	})
	assert.Equal(t, "https://example.com/start", body["startingUrl"])
	assert.Equal(t, float64(12), body["maxIndexPage"])
	assert.Contains(t, output, "Crawler started from https://example.com/start (max 12 pages)")
}

func TestCrawl_InvalidURL(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	cmd := &CrawlCommand{URL: "not a url", MaxPages: 10, globals: &GlobalFlags{}}
	assert.Error(t, cmd.executeWith(context.Background(), e))
}

func TestCleanDB_Force(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/clean-db", r.URL.Path)
		_, _ = io.WriteString(w, "Database cleaned successfully")
	})
	cmd := &CleanDBCommand{Force: true, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(context.Background(), e))
	})
	assert.Contains(t, output, "Database cleaned successfully")
}

func TestCleanDB_ServerError(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Failed to clean database")
	})
	cmd := &CleanDBCommand{Force: true, globals: &GlobalFlags{}}

	err := cmd.executeWith(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestCleanDB_ConfirmationMismatchAborts(t *testing.T) {
	cmd := &CleanDBCommand{globals: &GlobalFlags{}, stdin: strings.NewReader("nope\n")}

	var err error
	output := captureOutput(t, func() {
		err = cmd.Execute(nil)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
	assert.Contains(t, output, `Type "CLEAN" to confirm`)
}

func TestCleanDB_ConfirmationNoInput(t *testing.T) {
	cmd := &CleanDBCommand{globals: &GlobalFlags{}, stdin: strings.NewReader("")}

	var err error
	captureOutput(t, func() {
		err = cmd.Execute(nil)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input")
}

func TestCleanDB_ConfirmationAccepted(t *testing.T) {
	cmd := &CleanDBCommand{globals: &GlobalFlags{}, stdin: strings.NewReader("CLEAN\n")}
	captureOutput(t, func() {
		assert.NoError(t, cmd.confirm())
	})
}

func TestHotTopics_Lists(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/hot-topic", r.URL.Path)
		_, _ = io.WriteString(w, `[{"query":"go","frequency":4},{"query":"rust","frequency":1}]`)
	})

	output := captureOutput(t, func() {
		require.NoError(t, (&HotTopicsCommand{globals: &GlobalFlags{}}).executeWith(context.Background(), e))
	})
	assert.Equal(t, "1. go (4 searches)\n2. rust (1 search)\n", output)
}

func TestHotTopics_Empty(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	output := captureOutput(t, func() {
		require.NoError(t, (&HotTopicsCommand{globals: &GlobalFlags{}}).executeWith(context.Background(), e))
	})
	assert.Contains(t, output, "No hot topics")
}

func TestCleanCache(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search/clean-cache", r.URL.Path)
		_, _ = io.WriteString(w, "Cache cleaned successfully.")
	})

	output := captureOutput(t, func() {
		require.NoError(t, (&CleanCacheCommand{globals: &GlobalFlags{JSON: true}}).executeWith(context.Background(), e))
	})
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, true, out["cleaned"])
	assert.Equal(t, "Cache cleaned successfully.", out["message"])
}

func TestCrawledPages_Lists(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crawled-pages", r.URL.Path)
		_, _ = io.WriteString(w, `[{"url":"https://go.dev","title":"Go","size":2048,"lastModified":1700000000000},
			{"url":"https://untitled.example","size":12}]`)
	})

	output := captureOutput(t, func() {
		require.NoError(t, (&CrawledPagesCommand{globals: &GlobalFlags{}}).executeWith(context.Background(), e))
	})
	assert.Contains(t, output, "2 crawled pages")
	assert.Contains(t, output, "1. Go")
	assert.Contains(t, output, "2048 bytes · modified 2023-11-14")
	assert.Contains(t, output, "2. https://untitled.example")
}

func TestDBStatus_Reports(t *testing.T) {
	e := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check-db-status", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"Database does not exist"}`)
	})

	output := captureOutput(t, func() {
		require.NoError(t, (&DBStatusCommand{globals: &GlobalFlags{JSON: true}}).executeWith(context.Background(), e))
	})
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, "Database does not exist", out["status"])
	assert.Equal(t, false, out["exists"])
}
