package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/recall/internal/model"
	"github.com/runnerr0/recall/internal/storage"
)

func clickEnv(t *testing.T) *env {
	t.Helper()
	e := newTestEnv(t, nil)
	seedSearches(t, e, map[string][]model.ResultEntry{
		"go": {
			{URL: "https://go.dev", Title: "Go", KeywordsWithFrequency: []model.KeywordFrequency{
				{Keyword: "go", Frequency: 1}, {Keyword: "gopher", Frequency: 4},
			}},
			{URL: "https://plain.example", Title: "Plain"},
		},
	}, "go")
	return e
}

func TestClick_UpdatesProfile(t *testing.T) {
	e := clickEnv(t)
	cmd := &ClickCommand{Record: "1", URL: "https://go.dev", globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(context.Background(), e))
	})
	assert.Contains(t, output, "Recorded click on https://go.dev")
	assert.Contains(t, output, "gopher")

	p := e.profile.Load(context.Background())
	require.Len(t, p.Keywords, 2)
	for _, k := range p.Keywords {
		assert.Equal(t, 1, k.Frequency)
		assert.Equal(t, "https://go.dev", k.LastURL)
	}
}

func TestClick_NoKeywordDataLeavesProfileAlone(t *testing.T) {
	e := clickEnv(t)
	cmd := &ClickCommand{Record: "1", URL: "https://plain.example", globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(context.Background(), e))
	})
	assert.Contains(t, output, "profile unchanged")
	assert.Empty(t, e.profile.Load(context.Background()).Keywords)
}

func TestClick_ExplicitEmptyKeywordsSurviveHistory(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t, nil)

	var in []model.ResultEntry
	require.NoError(t, json.Unmarshal([]byte(`[{"url":"https://empty.example","title":"Empty","keywordsWithFrequency":[]}]`), &in))
	seedSearches(t, e, map[string][]model.ResultEntry{"empty": in}, "empty")

	cmd := &ClickCommand{Record: "1", URL: "https://empty.example", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(ctx, e))
	})
	assert.NotContains(t, output, "profile unchanged")

	_, ok, err := e.kv.Get(ctx, storage.KeySearchProfile)
	require.NoError(t, err)
	assert.True(t, ok, "a click on an explicit empty keyword list is persisted")
}

func TestClick_UnknownURL(t *testing.T) {
	e := clickEnv(t)
	cmd := &ClickCommand{Record: "1", URL: "https://nowhere.example", globals: &GlobalFlags{}}
	assert.Error(t, cmd.executeWith(context.Background(), e))
}

func TestProfile_JSON(t *testing.T) {
	e := clickEnv(t)
	ctx := context.Background()
	captureOutput(t, func() {
		require.NoError(t, (&ClickCommand{Record: "1", URL: "https://go.dev", globals: &GlobalFlags{}}).executeWith(ctx, e))
	})

	output := captureOutput(t, func() {
		require.NoError(t, (&ProfileCommand{globals: &GlobalFlags{JSON: true}}).executeWith(ctx, e))
	})

	var p model.Profile
	require.NoError(t, json.Unmarshal([]byte(output), &p))
	assert.Len(t, p.Keywords, 2)
	assert.NotZero(t, p.LastUpdated)
}

func TestProfile_Empty(t *testing.T) {
	e := newTestEnv(t, nil)
	output := captureOutput(t, func() {
		require.NoError(t, (&ProfileCommand{globals: &GlobalFlags{}}).executeWith(context.Background(), e))
	})
	assert.Contains(t, output, "Keyword profile is empty.")
}

func TestClear(t *testing.T) {
	cases := []struct {
		name          string
		cmd           ClearCommand
		wantHistory   int
		wantKeywords  int
		wantInMessage string
	}{
		{"both by default", ClearCommand{}, 0, 0, "search history and keyword profile"},
		{"history only", ClearCommand{History: true}, 0, 2, "Cleared search history."},
		{"profile only", ClearCommand{Profile: true}, 1, 0, "Cleared keyword profile."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := clickEnv(t)
			ctx := context.Background()
			captureOutput(t, func() {
				require.NoError(t, (&ClickCommand{Record: "1", URL: "https://go.dev", globals: &GlobalFlags{}}).executeWith(ctx, e))
			})

			cmd := tc.cmd
			cmd.globals = &GlobalFlags{}
			output := captureOutput(t, func() {
				require.NoError(t, cmd.executeWith(ctx, e))
			})

			assert.Contains(t, output, tc.wantInMessage)
			assert.Len(t, e.history.Load(ctx), tc.wantHistory)
			assert.Len(t, e.profile.Load(ctx).Keywords, tc.wantKeywords)
		})
	}
}
