package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dusk-indust/colmerge/internal/orchestrator"
	"github.com/dusk-indust/colmerge/internal/progress"
)

func runScan(ctx context.Context, p *orchestrator.Pipeline, verbose bool, w io.Writer) error {
	var sink progress.Func
	if verbose {
		sink = func(ev progress.Event) { fmt.Fprintln(w, ev.Text) }
	}

	outcome, err := p.Scan(ctx, sink)
	if outcome == nil {
		return err
	}
	printScan(w, outcome)
	return err
}

func printScan(w io.Writer, outcome *orchestrator.ScanOutcome) {
	c := outcome.Classification
	fmt.Fprintf(w, "Participants: %d\n", len(outcome.Participants))

	fmt.Fprintln(w, "\nColumns available for select:")
	if len(c.AvailableForSelect) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, col := range c.AvailableForSelect {
		label, _ := c.Label(col)
		fmt.Fprintf(w, "  %-30s [%s]\n", col, label)
	}

	fmt.Fprintln(w, "\nColumns which can't be merged:")
	if len(c.Unmergeable) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, col := range c.Unmergeable {
		fmt.Fprintf(w, "  %s\n", col)
	}

	if len(outcome.Failures) > 0 {
		fmt.Fprintln(w, "\nScan failures:")
		for _, f := range outcome.Failures {
			fmt.Fprintf(w, "  %v\n", f)
		}
	}
}
