// Package setops derives display-only result sets from stored searches.
//
// Every function is pure: inputs are not modified and nothing is persisted.
// Derived views must never be saved back into the history log.
package setops

import (
	"sort"
	"strings"

	"github.com/runnerr0/recall/internal/model"
)

// Merge returns the union of all results, de-duplicated by URL with the first
// occurrence winning, ordered by score descending.
func Merge(records []model.SearchRecord) model.View {
	seen := make(map[string]struct{})
	merged := []model.ResultEntry{}

	for _, rec := range records {
		for _, r := range rec.Results {
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}
			merged = append(merged, r)
		}
	}

	byScore(merged)
	return view("Combined from: "+joinQueries(records), merged, model.OpMerge)
}

// Intersect returns the results whose URL appears in every record. A URL
// counts once per record however often it repeats there. The payload comes
// from the first record, and the output is ordered by score descending.
func Intersect(records []model.SearchRecord) model.View {
	common := []model.ResultEntry{}
	if len(records) == 0 {
		return view("Common in: ", common, model.OpIntersect)
	}

	counts := make(map[string]int)
	for _, rec := range records {
		inRecord := make(map[string]struct{}, len(rec.Results))
		for _, r := range rec.Results {
			if _, ok := inRecord[r.URL]; ok {
				continue
			}
			inRecord[r.URL] = struct{}{}
			counts[r.URL]++
		}
	}

	emitted := make(map[string]struct{})
	for _, r := range records[0].Results {
		if counts[r.URL] != len(records) {
			continue
		}
		if _, ok := emitted[r.URL]; ok {
			continue
		}
		emitted[r.URL] = struct{}{}
		common = append(common, r)
	}

	byScore(common)
	return view("Common in: "+joinQueries(records), common, model.OpIntersect)
}

// Filter keeps the results whose title or any keyword contains term,
// ignoring case. A blank term returns the record's results unchanged.
func Filter(rec model.SearchRecord, term string) model.View {
	label := `Filtered "` + term + `" within: ` + rec.Query
	if strings.TrimSpace(term) == "" {
		return view(label, rec.Results, model.OpFilter)
	}

	needle := strings.ToLower(term)
	filtered := []model.ResultEntry{}
	for _, r := range rec.Results {
		if matches(r, needle) {
			filtered = append(filtered, r)
		}
	}
	return view(label, filtered, model.OpFilter)
}

func matches(r model.ResultEntry, needle string) bool {
	if strings.Contains(strings.ToLower(r.Title), needle) {
		return true
	}
	for _, kw := range r.KeywordsWithFrequency {
		if strings.Contains(strings.ToLower(kw.Keyword), needle) {
			return true
		}
	}
	return false
}

// View passes a record's results through untouched.
func View(rec model.SearchRecord) model.View {
	return view(rec.Query, rec.Results, model.OpView)
}

func view(query string, results []model.ResultEntry, op model.Operation) model.View {
	return model.View{
		Query:              query,
		Results:            results,
		OperationType:      op,
		IsHistoryOperation: true,
	}
}

// byScore sorts results by score, highest first. Missing scores count as 0
// and ties keep their input order.
func byScore(results []model.ResultEntry) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ScoreOrZero() > results[j].ScoreOrZero()
	})
}

func joinQueries(records []model.SearchRecord) string {
	queries := make([]string, len(records))
	for i, rec := range records {
		queries[i] = rec.Query
	}
	return strings.Join(queries, ", ")
}
