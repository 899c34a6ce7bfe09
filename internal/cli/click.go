package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/recall/internal/history"
)

// Execute implements the go-flags Commander interface for ClickCommand.
func (c *ClickCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *ClickCommand) executeWith(ctx context.Context, e *env) error {
	rec, err := history.Find(e.history.Load(ctx), c.Record)
	if err != nil {
		return err
	}

	entry, err := findResult(rec, c.URL)
	if err != nil {
		return err
	}

	p, err := e.profile.RecordClick(ctx, entry)
	if err != nil {
		return fmt.Errorf("record click: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(p)
	}

	fmt.Printf("Recorded click on %s\n", c.URL)
	if entry.KeywordsWithFrequency == nil {
		fmt.Println("Result carries no keyword data; profile unchanged.")
		return nil
	}
	fmt.Println()
	printProfile(p)
	return nil
}
