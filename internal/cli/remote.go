package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/recall/internal/setops"
)

// Execute implements the go-flags Commander interface for KeywordsCommand.
func (c *KeywordsCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *KeywordsCommand) executeWith(ctx context.Context, e *env) error {
	keywords, err := e.api.Keywords(ctx)
	if err != nil {
		return fmt.Errorf("list keywords: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(keywords)
	}
	if len(keywords) == 0 {
		fmt.Println("No keywords indexed.")
		return nil
	}
	for _, k := range keywords {
		fmt.Println(k)
	}
	return nil
}

// Execute implements the go-flags Commander interface for CrawlCommand.
func (c *CrawlCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *CrawlCommand) executeWith(ctx context.Context, e *env) error {
	seed, err := e.api.Crawl(ctx, c.URL, c.MaxPages)
	if err != nil {
		return fmt.Errorf("start crawl: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]any{
			"started":        true,
			"starting_url":   seed,
			"max_index_page": c.MaxPages,
		})
	}
	fmt.Printf("Crawler started from %s (max %d pages)\n", seed, c.MaxPages)
	return nil
}

// Execute implements the go-flags Commander interface for CleanDBCommand.
func (c *CleanDBCommand) Execute(args []string) error {
	// Confirmation prompt unless --force, before anything is opened.
	if !c.Force {
		if err := c.confirm(); err != nil {
			return err
		}
	}
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *CleanDBCommand) confirm() error {
	fmt.Println("⚠ WARNING: This will permanently delete ALL crawled data on the search backend.")
	fmt.Println("The index must be rebuilt by crawling again. This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "CLEAN" to confirm: `)

	var in io.Reader = os.Stdin
	if c.stdin != nil {
		in = c.stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "CLEAN" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

func (c *CleanDBCommand) executeWith(ctx context.Context, e *env) error {
	msg, err := e.api.CleanDB(ctx)
	if err != nil {
		return fmt.Errorf("clean database: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]any{
			"cleaned": true,
			"message": msg,
		})
	}
	if msg == "" {
		msg = "Remote index cleaned."
	}
	fmt.Println(msg)
	return nil
}

// Execute implements the go-flags Commander interface for HotTopicsCommand.
func (c *HotTopicsCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *HotTopicsCommand) executeWith(ctx context.Context, e *env) error {
	topics, err := e.api.HotTopics(ctx)
	if err != nil {
		return fmt.Errorf("hot topics: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(topics)
	}
	if len(topics) == 0 {
		fmt.Println("No hot topics yet.")
		return nil
	}
	for i, t := range topics {
		fmt.Printf("%d. %s (%d %s)\n", i+1, t.Query, t.Frequency, plural(t.Frequency, "search", "searches"))
	}
	return nil
}

// Execute implements the go-flags Commander interface for CleanCacheCommand.
func (c *CleanCacheCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *CleanCacheCommand) executeWith(ctx context.Context, e *env) error {
	msg, err := e.api.CleanCache(ctx)
	if err != nil {
		return fmt.Errorf("clean cache: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]any{
			"cleaned": true,
			"message": msg,
		})
	}
	if msg == "" {
		msg = "Query cache cleaned."
	}
	fmt.Println(msg)
	return nil
}

// Execute implements the go-flags Commander interface for CrawledPagesCommand.
func (c *CrawledPagesCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *CrawledPagesCommand) executeWith(ctx context.Context, e *env) error {
	pages, err := e.api.CrawledPages(ctx)
	if err != nil {
		return fmt.Errorf("list crawled pages: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(pages)
	}
	if len(pages) == 0 {
		fmt.Println("No pages crawled.")
		return nil
	}

	fmt.Printf("%d crawled %s\n\n", len(pages), plural(len(pages), "page", "pages"))
	for i, p := range pages {
		title := p.Title
		if title == "" {
			title = p.URL
		}
		fmt.Printf("%d. %s\n", i+1, title)
		fmt.Printf("   %s\n", p.URL)
		meta := []string{fmt.Sprintf("%d bytes", p.Size)}
		if t, ok := setops.ParseLastModified(p.LastModified); ok {
			meta = append(meta, "modified "+t.UTC().Format("2006-01-02"))
		}
		fmt.Printf("   %s\n", strings.Join(meta, " · "))
	}
	return nil
}

// Execute implements the go-flags Commander interface for DBStatusCommand.
func (c *DBStatusCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *DBStatusCommand) executeWith(ctx context.Context, e *env) error {
	status, err := e.api.DBStatus(ctx)
	if err != nil {
		return fmt.Errorf("check database status: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]any{
			"status": status.Status,
			"exists": status.Exists(),
		})
	}
	fmt.Println(status.Status)
	return nil
}
