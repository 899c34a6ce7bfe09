package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/runnerr0/recall/internal/setops"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (.yaml or .toml)" default:""`
	DBPath  string `long:"db-path" description:"Override the database path from config"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// FacetFlags narrow the displayed results of a search or view. They never
// change what is stored.
type FacetFlags struct {
	MinSize        int64  `long:"min-size" description:"Minimum page size"`
	MaxSize        int64  `long:"max-size" description:"Maximum page size"`
	DateRange      string `long:"date-range" description:"Last modified within: all | day | week | month | year | 2years" default:"all"`
	MinScore       string `long:"min-score" description:"Minimum score"`
	HasParentLinks bool   `long:"has-parent-links" description:"Only results with parent links"`
	HasChildLinks  bool   `long:"has-child-links" description:"Only results with child links"`
	Keyword        string `long:"keyword" description:"Case-insensitive match on title or keywords"`
}

func (f FacetFlags) facets() (setops.Facets, error) {
	out := setops.Facets{
		MinSize:        f.MinSize,
		MaxSize:        f.MaxSize,
		DateRange:      strings.ToLower(f.DateRange),
		HasParentLinks: f.HasParentLinks,
		HasChildLinks:  f.HasChildLinks,
		Keyword:        f.Keyword,
	}
	if s := strings.TrimSpace(f.MinScore); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return setops.Facets{}, fmt.Errorf("invalid --min-score %q: %w", f.MinScore, err)
		}
		out.MinScore = &v
	}
	if err := out.Validate(); err != nil {
		return setops.Facets{}, err
	}
	return out, nil
}

// SearchFlags select the backend query mode.
type SearchFlags struct {
	Extended   bool   `long:"extended" description:"Use extended boolean search"`
	Operator   string `long:"operator" description:"Extended search operator: AND | OR (default from config)"`
	NoPageRank bool   `long:"no-pagerank" description:"Rank without PageRank"`
}

// SearchCommand queries the search API and records the search in history.
type SearchCommand struct {
	SearchFlags
	Facets FacetFlags `group:"Result Filters"`

	globals *GlobalFlags
	version string
}

// SimilarCommand searches again with a stored query plus the top keywords of
// one of its results.
type SimilarCommand struct {
	Record string `long:"record" short:"r" description:"History index (1 = newest) or id prefix" required:"true"`
	URL    string `long:"url" description:"URL of the result to find similar pages for" required:"true"`
	SearchFlags
	Facets FacetFlags `group:"Result Filters"`

	globals *GlobalFlags
	version string
}

// HistoryCommand lists stored searches, newest first.
type HistoryCommand struct {
	globals *GlobalFlags
	version string
}

// ViewCommand shows the results of one stored search.
type ViewCommand struct {
	Record string `long:"record" short:"r" description:"History index (1 = newest) or id prefix" required:"true"`

	Facets FacetFlags `group:"Result Filters"`

	globals *GlobalFlags
	version string
}

// MergeCommand shows the union of several stored searches.
type MergeCommand struct {
	Records []string `long:"record" short:"r" description:"History index or id prefix (repeatable, at least 2)" required:"true"`

	Facets FacetFlags `group:"Result Filters"`

	globals *GlobalFlags
	version string
}

// IntersectCommand shows results common to several stored searches.
type IntersectCommand struct {
	Records []string `long:"record" short:"r" description:"History index or id prefix (repeatable, at least 2)" required:"true"`

	Facets FacetFlags `group:"Result Filters"`

	globals *GlobalFlags
	version string
}

// FilterCommand narrows one stored search by a term.
type FilterCommand struct {
	Record string `long:"record" short:"r" description:"History index (1 = newest) or id prefix" required:"true"`
	Term   string `long:"term" short:"t" description:"Case-insensitive match on title or keywords"`

	Facets FacetFlags `group:"Result Filters"`

	globals *GlobalFlags
	version string
}

// ClickCommand records a click on a result of a stored search.
type ClickCommand struct {
	Record string `long:"record" short:"r" description:"History index (1 = newest) or id prefix" required:"true"`
	URL    string `long:"url" description:"URL of the clicked result" required:"true"`

	globals *GlobalFlags
	version string
}

// ProfileCommand prints the keyword affinity profile.
type ProfileCommand struct {
	globals *GlobalFlags
	version string
}

// ClearCommand clears the history and/or the profile. With neither flag, both.
type ClearCommand struct {
	History bool `long:"history" description:"Clear search history"`
	Profile bool `long:"profile" description:"Clear keyword profile"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows storage usage and configuration.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// KeywordsCommand lists the keywords indexed by the search backend.
type KeywordsCommand struct {
	globals *GlobalFlags
	version string
}

// CrawlCommand starts a remote crawl.
type CrawlCommand struct {
	URL      string `long:"url" description:"Starting URL (http or https)" required:"true"`
	MaxPages int    `long:"max-pages" description:"Maximum pages to index" default:"300"`

	globals *GlobalFlags
	version string
}

// CleanDBCommand purges the remote index with safety confirmation.
type CleanDBCommand struct {
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}

// HotTopicsCommand lists the backend's most frequent cached queries.
type HotTopicsCommand struct {
	globals *GlobalFlags
	version string
}

// CleanCacheCommand empties the backend's query cache.
type CleanCacheCommand struct {
	globals *GlobalFlags
	version string
}

// CrawledPagesCommand lists the pages in the backend's index.
type CrawledPagesCommand struct {
	globals *GlobalFlags
	version string
}

// DBStatusCommand reports whether the backend's index database exists.
type DBStatusCommand struct {
	globals *GlobalFlags
	version string
}
