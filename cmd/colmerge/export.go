package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dusk-indust/colmerge/internal/export"
	"github.com/dusk-indust/colmerge/internal/orchestrator"
)

// runExport scans, optionally combines, and prints a JSON report.
func runExport(ctx context.Context, p *orchestrator.Pipeline, columns []string, all bool, w io.Writer) error {
	outcome, err := p.Scan(ctx, nil)
	if outcome == nil {
		return fmt.Errorf("export failed: %w", err)
	}

	var run *orchestrator.RunResult
	if all || len(columns) > 0 {
		if all {
			columns = outcome.Classification.AvailableForSelect
		}
		run, err = p.RunCombine(ctx, columns, nil)
		if run == nil {
			return fmt.Errorf("export failed: %w", err)
		}
	}

	return export.WriteJSON(w, export.BuildReport(p.Config(), outcome, run))
}
