package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/recall/internal/model"
)

type historyEntryJSON struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Query     string `json:"query"`
	Count     int    `json:"count"`
	Timestamp string `json:"timestamp"`
}

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *HistoryCommand) executeWith(ctx context.Context, e *env) error {
	log := e.history.Load(ctx)

	if jsonOutput(c.globals) {
		out := make([]historyEntryJSON, len(log))
		for i, rec := range log {
			out[i] = historyEntryJSON{
				Index:     i + 1,
				ID:        rec.ID,
				Query:     rec.Query,
				Count:     len(rec.Results),
				Timestamp: rec.Timestamp,
			}
		}
		return printJSON(out)
	}

	printHistory(log)
	return nil
}

func printHistory(log model.HistoryLog) {
	if len(log) == 0 {
		fmt.Println("No searches recorded yet.")
		return
	}
	for i, rec := range log {
		fmt.Printf("%3d. %-8s  %s (%d %s)  %s\n",
			i+1, shortID(rec.ID), rec.Query,
			len(rec.Results), plural(len(rec.Results), "result", "results"),
			rec.Timestamp)
	}
}
