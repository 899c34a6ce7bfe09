package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/recall/internal/history"
	"github.com/runnerr0/recall/internal/model"
	"github.com/runnerr0/recall/internal/setops"
)

// Views are derived for display only. None of these commands write to the
// history log.

// Execute implements the go-flags Commander interface for ViewCommand.
func (c *ViewCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *ViewCommand) executeWith(ctx context.Context, e *env) error {
	rec, err := history.Find(e.history.Load(ctx), c.Record)
	if err != nil {
		return err
	}
	return printView(e, c.globals, setops.View(rec), c.Facets)
}

// Execute implements the go-flags Commander interface for MergeCommand.
func (c *MergeCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *MergeCommand) executeWith(ctx context.Context, e *env) error {
	records, err := selectRecords(ctx, e, c.Records)
	if err != nil {
		return err
	}
	return printView(e, c.globals, setops.Merge(records), c.Facets)
}

// Execute implements the go-flags Commander interface for IntersectCommand.
func (c *IntersectCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *IntersectCommand) executeWith(ctx context.Context, e *env) error {
	records, err := selectRecords(ctx, e, c.Records)
	if err != nil {
		return err
	}
	return printView(e, c.globals, setops.Intersect(records), c.Facets)
}

// Execute implements the go-flags Commander interface for FilterCommand.
func (c *FilterCommand) Execute(args []string) error {
	return run(c.globals, func(ctx context.Context, e *env) error {
		return c.executeWith(ctx, e)
	})
}

func (c *FilterCommand) executeWith(ctx context.Context, e *env) error {
	rec, err := history.Find(e.history.Load(ctx), c.Record)
	if err != nil {
		return err
	}
	return printView(e, c.globals, setops.Filter(rec, c.Term), c.Facets)
}

// selectRecords resolves refs, which must name at least two records.
func selectRecords(ctx context.Context, e *env, refs []string) ([]model.SearchRecord, error) {
	if len(refs) < 2 {
		return nil, fmt.Errorf("select at least 2 records (got %d)", len(refs))
	}
	return history.FindAll(e.history.Load(ctx), refs)
}

// printView narrows v through the facet flags and prints it.
func printView(e *env, globals *GlobalFlags, v model.View, ff FacetFlags) error {
	facets, err := ff.facets()
	if err != nil {
		return err
	}
	total := len(v.Results)
	v = facets.Apply(v, e.clock())

	if jsonOutput(globals) {
		return printJSON(v)
	}

	fmt.Printf("%s\n", v.Query)
	fmt.Printf("%s (%s)\n", resultCount(len(v.Results), total), v.OperationType)
	if len(v.Results) == 0 {
		return nil
	}
	fmt.Println()
	printResults(v.Results)
	return nil
}
