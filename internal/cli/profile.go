package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/recall/internal/model"
)

// Execute implements the go-flags Commander interface for ProfileCommand.
func (c *ProfileCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *ProfileCommand) executeWith(ctx context.Context, e *env) error {
	p := e.profile.Load(ctx)
	if jsonOutput(c.globals) {
		return printJSON(p)
	}
	printProfile(p)
	return nil
}

func printProfile(p model.Profile) {
	if len(p.Keywords) == 0 {
		fmt.Println("Keyword profile is empty.")
		return
	}

	fmt.Println("Keyword Profile")
	fmt.Println("===============")
	for i, k := range p.Keywords {
		fmt.Printf("%2d. %-20s %4d  %s\n", i+1, k.Keyword, k.Frequency, k.LastURL)
	}
	fmt.Printf("\nUpdated: %s\n", time.UnixMilli(p.LastUpdated).Local().Format("2006-01-02 15:04"))
}
