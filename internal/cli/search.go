package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/runnerr0/recall/internal/history"
	"github.com/runnerr0/recall/internal/model"
	"github.com/runnerr0/recall/internal/storage"
)

type searchJSON struct {
	Query    string              `json:"query"`
	Mode     string              `json:"mode"`
	Operator string              `json:"operator,omitempty"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
	Saved    bool                `json:"saved"`
	Results  []model.ResultEntry `json:"results"`
}

// similarKeywords is how many of a result's keywords extend its query.
const similarKeywords = 5

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e, args)
	})
}

// executeWith runs the search against a provided env (for testing).
func (c *SearchCommand) executeWith(ctx context.Context, e *env, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("search requires at least one query term")
	}
	return runSearch(ctx, e, c.globals, query, c.SearchFlags, c.Facets)
}

// Execute implements the go-flags Commander interface for SimilarCommand.
func (c *SimilarCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *SimilarCommand) executeWith(ctx context.Context, e *env) error {
	rec, err := history.Find(e.history.Load(ctx), c.Record)
	if err != nil {
		return err
	}
	entry, err := findResult(rec, c.URL)
	if err != nil {
		return err
	}
	if len(entry.KeywordsWithFrequency) == 0 {
		return fmt.Errorf("result %s carries no keywords to search with", c.URL)
	}
	return runSearch(ctx, e, c.globals, similarQuery(rec.Query, entry), c.SearchFlags, c.Facets)
}

// similarQuery extends query with the first keywords of r, in payload order.
func similarQuery(query string, r model.ResultEntry) string {
	kws := r.KeywordsWithFrequency
	if len(kws) > similarKeywords {
		kws = kws[:similarKeywords]
	}
	terms := make([]string, 0, len(kws)+1)
	terms = append(terms, query)
	for _, kw := range kws {
		terms = append(terms, kw.Keyword)
	}
	return strings.TrimSpace(strings.Join(terms, " "))
}

// runSearch queries the backend, saves the unfiltered results to history and
// prints them through the facets.
func runSearch(ctx context.Context, e *env, globals *GlobalFlags, query string, sf SearchFlags, ff FacetFlags) error {
	facets, err := ff.facets()
	if err != nil {
		return err
	}

	usePageRank := e.cfg.SearchAPI.UsePageRank && !sf.NoPageRank
	operator := sf.Operator
	if operator == "" {
		operator = e.cfg.SearchAPI.Operator
	}
	operator = strings.ToUpper(operator)

	var results []model.ResultEntry
	mode := "standard"
	if sf.Extended {
		mode = "extended"
		results, err = e.api.ExtendedSearch(ctx, query, operator, usePageRank)
	} else {
		results, err = e.api.Search(ctx, query, usePageRank)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	// A failed save never hides the results; quota problems are reported.
	saved := true
	if _, err := e.history.Save(ctx, query, results); err != nil {
		saved = false
		if errors.Is(err, storage.ErrQuotaExceeded) {
			e.logger.Warn("search not saved: storage full", "err", err)
		} else {
			e.logger.Warn("search not saved", "err", err)
		}
	}

	shown := facets.Apply(model.View{Query: query, Results: results}, e.clock()).Results

	if jsonOutput(globals) {
		out := searchJSON{Query: query, Mode: mode, Count: len(shown), Total: len(results), Saved: saved, Results: shown}
		if sf.Extended {
			out.Operator = operator
		}
		return printJSON(out)
	}

	if len(results) == 0 {
		fmt.Printf("No results found for %q\n", query)
		return nil
	}
	fmt.Printf("Found %s for %q\n", resultCount(len(shown), len(results)), query)
	if len(shown) == 0 {
		return nil
	}
	fmt.Println()
	printResults(shown)
	return nil
}
