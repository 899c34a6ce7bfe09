package cli

import (
	"context"
	"fmt"
)

// Execute implements the go-flags Commander interface for ClearCommand.
func (c *ClearCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *ClearCommand) executeWith(ctx context.Context, e *env) error {
	clearHistory, clearProfile := c.History, c.Profile
	if !clearHistory && !clearProfile {
		clearHistory, clearProfile = true, true
	}

	if clearHistory {
		e.history.Clear(ctx)
	}
	if clearProfile {
		e.profile.Clear(ctx)
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]bool{
			"history_cleared": clearHistory,
			"profile_cleared": clearProfile,
		})
	}

	switch {
	case clearHistory && clearProfile:
		fmt.Println("Cleared search history and keyword profile.")
	case clearHistory:
		fmt.Println("Cleared search history.")
	default:
		fmt.Println("Cleared keyword profile.")
	}
	return nil
}
