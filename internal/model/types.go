package model

import (
	"encoding/json"
	"fmt"
)

// KeywordFrequency pairs a stemmed keyword with its occurrence count on a page.
type KeywordFrequency struct {
	Keyword   string `json:"keyword"`
	Frequency int    `json:"frequency"`
}

// ResultEntry is one search result as returned by the remote Search API.
// Everything except URL is carried as an opaque payload. The list fields keep
// nil (absent or null) and empty ([]) distinct across a save and load.
type ResultEntry struct {
	ID                    *int64             `json:"id,omitempty"`
	URL                   string             `json:"url"`
	Title                 string             `json:"title"`
	Score                 *float64           `json:"score,omitempty"`
	Size                  *int64             `json:"size,omitempty"`
	LastModified          json.RawMessage    `json:"lastModified,omitempty"`
	KeywordsWithFrequency []KeywordFrequency `json:"keywordsWithFrequency"`
	ParentLinks           []string           `json:"parentLinks"`
	ChildLinks            []string           `json:"childLinks"`
}

// ScoreOrZero returns the result score, treating a missing score as 0.
func (r ResultEntry) ScoreOrZero() float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

// SearchRecord is one persisted past search.
type SearchRecord struct {
	ID        string        `json:"id,omitempty"`
	Query     string        `json:"query"`
	Results   []ResultEntry `json:"results"`
	Timestamp string        `json:"timestamp"`
}

// Validate reports whether the record satisfies the stored-record invariants:
// a non-empty query and a results sequence (possibly empty, never null).
func (r SearchRecord) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("record %q: empty query", r.ID)
	}
	if r.Results == nil {
		return fmt.Errorf("record %q: results is not a sequence", r.ID)
	}
	return nil
}

// HistoryLog is the newest-first sequence of past searches.
type HistoryLog []SearchRecord

// KeywordAffinity is one ranked entry of the click-derived profile.
type KeywordAffinity struct {
	Keyword     string `json:"keyword"`
	Frequency   int    `json:"frequency"`
	LastURL     string `json:"lastUrl"`
	LastUpdated int64  `json:"lastUpdated"`
}

// Profile is the implicit keyword-affinity profile built from result clicks.
type Profile struct {
	Keywords    []KeywordAffinity `json:"keywords"`
	LastUpdated int64             `json:"lastUpdated"`
}

// Validate checks the decoded profile for structural problems. Any keyword
// string a click can store, including "", is accepted.
func (p Profile) Validate() error {
	if p.Keywords == nil {
		return fmt.Errorf("profile: keywords is not a sequence")
	}
	seen := make(map[string]struct{}, len(p.Keywords))
	for _, kw := range p.Keywords {
		if kw.Frequency < 1 {
			return fmt.Errorf("profile: keyword %q has frequency %d", kw.Keyword, kw.Frequency)
		}
		if _, dup := seen[kw.Keyword]; dup {
			return fmt.Errorf("profile: duplicate keyword %q", kw.Keyword)
		}
		seen[kw.Keyword] = struct{}{}
	}
	return nil
}

// Operation names the set operation that produced a View.
type Operation string

const (
	OpMerge     Operation = "merge"
	OpIntersect Operation = "intersect"
	OpFilter    Operation = "filter"
	OpView      Operation = "view"
)

// View is a derived, display-only result set. Views are never written back
// into the history log.
type View struct {
	Query              string        `json:"query"`
	Results            []ResultEntry `json:"results"`
	OperationType      Operation     `json:"operationType"`
	IsHistoryOperation bool          `json:"isHistoryOperation"`
}
