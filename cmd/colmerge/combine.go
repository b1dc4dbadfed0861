package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dusk-indust/colmerge/internal/orchestrator"
	"github.com/dusk-indust/colmerge/internal/progress"
)

var errCombineFailed = errors.New("combine failed, please retry")

// selectColumns resolves -columns / -all into the requested column names.
func selectColumns(ctx context.Context, p *orchestrator.Pipeline, columns []string, all bool) ([]string, error) {
	if !all {
		if len(columns) == 0 {
			return nil, errors.New("no columns selected; pass -columns or -all")
		}
		return columns, nil
	}
	outcome, err := p.Scan(ctx, nil)
	if outcome == nil {
		return nil, err
	}
	return outcome.Classification.AvailableForSelect, nil
}

func runCombine(ctx context.Context, p *orchestrator.Pipeline, columns []string, all bool, w io.Writer) error {
	columns, err := selectColumns(ctx, p, columns, all)
	if err != nil {
		return err
	}

	run, err := combineWithProgress(ctx, p, columns, w)
	if run == nil {
		return err
	}
	printRun(w, run)
	if err != nil {
		return err
	}
	if !run.OK {
		return errCombineFailed
	}
	return nil
}

// combineWithProgress runs a combine while printing each progress event.
// Events arrive serialized, so they are written straight from the sink.
func combineWithProgress(ctx context.Context, p *orchestrator.Pipeline, columns []string, w io.Writer) (*orchestrator.RunResult, error) {
	return p.RunCombine(ctx, columns, func(ev progress.Event) {
		fmt.Fprintln(w, progress.Format(ev))
	})
}

func printRun(w io.Writer, run *orchestrator.RunResult) {
	fmt.Fprintf(w, "\nRun %s\n", run.RunID)
	for _, col := range run.Rejected {
		fmt.Fprintf(w, "  skipped %s (not available for select)\n", col)
	}
	if run.Combine != nil {
		for _, t := range run.Combine.Written {
			fmt.Fprintf(w, "  wrote %s (%d rows from %d participants)\n", t.Path, t.Rows, len(t.Participants))
		}
		for _, f := range run.Combine.Failures {
			fmt.Fprintf(w, "  failed %v\n", f)
		}
	}
	if run.Verification != nil {
		for _, rec := range run.Verification.Failed() {
			if rec.Message != "" {
				fmt.Fprintf(w, "  verification failed for %s/%s: %s\n", rec.Column, rec.File, rec.Message)
				continue
			}
			fmt.Fprintf(w, "  verification failed for %s/%s: %d mismatches\n", rec.Column, rec.File, rec.MismatchCount)
		}
	}
	if run.OK {
		fmt.Fprintln(w, "Merge verified.")
	}
}
