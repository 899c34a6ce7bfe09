package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Search       *SearchCommand
	History      *HistoryCommand
	View         *ViewCommand
	Merge        *MergeCommand
	Intersect    *IntersectCommand
	Filter       *FilterCommand
	Click        *ClickCommand
	Profile      *ProfileCommand
	Clear        *ClearCommand
	Status       *StatusCommand
	Keywords     *KeywordsCommand
	Crawl        *CrawlCommand
	CleanDB      *CleanDBCommand
	Similar      *SimilarCommand
	HotTopics    *HotTopicsCommand
	CleanCache   *CleanCacheCommand
	CrawledPages *CrawledPagesCommand
	DBStatus     *DBStatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "recall"
	parser.LongDescription = "Search client with a local history of past queries, set operations over them, and a keyword affinity profile."

	cmds := &commands{
		Search:       &SearchCommand{globals: &globals, version: version},
		History:      &HistoryCommand{globals: &globals, version: version},
		View:         &ViewCommand{globals: &globals, version: version},
		Merge:        &MergeCommand{globals: &globals, version: version},
		Intersect:    &IntersectCommand{globals: &globals, version: version},
		Filter:       &FilterCommand{globals: &globals, version: version},
		Click:        &ClickCommand{globals: &globals, version: version},
		Profile:      &ProfileCommand{globals: &globals, version: version},
		Clear:        &ClearCommand{globals: &globals, version: version},
		Status:       &StatusCommand{globals: &globals, version: version},
		Keywords:     &KeywordsCommand{globals: &globals, version: version},
		Crawl:        &CrawlCommand{globals: &globals, version: version},
		CleanDB:      &CleanDBCommand{globals: &globals, version: version},
		Similar:      &SimilarCommand{globals: &globals, version: version},
		HotTopics:    &HotTopicsCommand{globals: &globals, version: version},
		CleanCache:   &CleanCacheCommand{globals: &globals, version: version},
		CrawledPages: &CrawledPagesCommand{globals: &globals, version: version},
		DBStatus:     &DBStatusCommand{globals: &globals, version: version},
	}

	parser.AddCommand("search", "Search and record the query", "Query the search API, save the search to history and print the results.", cmds.Search)
	parser.AddCommand("similar", "Search for similar pages", "Search again with a stored query plus the top keywords of one of its results, and save that search to history.", cmds.Similar)
	parser.AddCommand("history", "List past searches", "List stored searches, newest first.", cmds.History)
	parser.AddCommand("view", "Show a past search", "Show the results of one stored search.", cmds.View)
	parser.AddCommand("merge", "Union of past searches", "Show the union of two or more stored searches, de-duplicated by URL.", cmds.Merge)
	parser.AddCommand("intersect", "Intersection of past searches", "Show the results common to two or more stored searches.", cmds.Intersect)
	parser.AddCommand("filter", "Filter a past search", "Keep results of a stored search whose title or keywords contain a term.", cmds.Filter)
	parser.AddCommand("click", "Record a result click", "Record a click on a result of a stored search and update the keyword profile.", cmds.Click)
	parser.AddCommand("profile", "Show keyword profile", "Print the keyword affinity profile built from clicks.", cmds.Profile)
	parser.AddCommand("clear", "Clear local data", "Clear the search history and/or keyword profile.", cmds.Clear)
	parser.AddCommand("status", "Show storage statistics", "Show storage usage, quota, record and keyword counts.", cmds.Status)
	parser.AddCommand("keywords", "List indexed keywords", "List the keywords known to the search backend.", cmds.Keywords)
	parser.AddCommand("crawl", "Start a crawl", "Ask the search backend to crawl and index from a starting URL.", cmds.Crawl)
	parser.AddCommand("hot-topics", "List frequent queries", "List the most frequent queries in the search backend's query cache.", cmds.HotTopics)
	parser.AddCommand("clean-cache", "Empty the query cache", "Empty the search backend's query cache.", cmds.CleanCache)
	parser.AddCommand("crawled-pages", "List crawled pages", "List the pages in the search backend's index.", cmds.CrawledPages)
	parser.AddCommand("db-status", "Check the remote index", "Report whether the search backend's index database exists.", cmds.DBStatus)
	parser.AddCommand("clean-db", "Purge the remote index", "Delete all crawled data on the search backend. Destructive operation with safety prompt.", cmds.CleanDB)

	return parser, &globals, cmds
}

// Run is the main entry point for the recall CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("recall %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
