package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dusk-indust/colmerge/internal/orchestrator"
	"github.com/dusk-indust/colmerge/internal/status"
)

// runStatus lists combined outputs. With columns it scans the root and reports
// every expected file of those columns, present or missing.
func runStatus(ctx context.Context, p *orchestrator.Pipeline, columns []string, w io.Writer) error {
	outDir := p.Config().OutputDir
	if len(columns) > 0 {
		return runColumnStatus(ctx, p, columns, w)
	}

	list, ok := status.ListCombined(outDir)
	if !ok || len(list) == 0 {
		fmt.Fprintf(w, "No combined columns in %s.\n", outDir)
		fmt.Fprintln(w, "Run 'colmerge -columns <names> combine' to create them.")
		return nil
	}

	for i, cs := range list {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Column: %s\n", cs.Column)
		for _, f := range cs.Files {
			fmt.Fprintf(w, "  %-30s %d rows\n", f.Name, f.Rows)
		}
	}
	return nil
}

func runColumnStatus(ctx context.Context, p *orchestrator.Pipeline, columns []string, w io.Writer) error {
	outcome, err := p.Scan(ctx, nil)
	if outcome == nil {
		return err
	}

	for i, column := range columns {
		if i > 0 {
			fmt.Fprintln(w)
		}
		label, known := outcome.Classification.Label(column)
		if !known {
			fmt.Fprintf(w, "Column: %s (not found)\n", column)
			continue
		}
		cs := status.GetColumnStatus(p.Config().OutputDir, outcome.Inventory, column)
		state := "incomplete"
		if cs.Complete {
			state = "complete"
		}
		fmt.Fprintf(w, "Column: %s [%s] %s\n", column, label, state)
		for _, f := range cs.Files {
			if !f.Complete {
				fmt.Fprintf(w, "  %-30s missing\n", f.Name)
				continue
			}
			fmt.Fprintf(w, "  %-30s %d rows\n", f.Name, f.Rows)
		}
	}
	return nil
}
