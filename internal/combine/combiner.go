// Package combine concatenates every participant's copy of a column file into
// one combined table tagged with participant_id.
package combine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/dusk-indust/colmerge/internal/fanout"
	"github.com/dusk-indust/colmerge/internal/logging"
	"github.com/dusk-indust/colmerge/internal/progress"
	"github.com/dusk-indust/colmerge/internal/scan"
	"github.com/dusk-indust/colmerge/internal/tabular"
)

// CombinedSuffix is appended to a column name to form its output directory.
const CombinedSuffix = "_combined"

// ProgressSpan is the share of overall progress owned by combining.
const ProgressSpan = 50

// ErrAllTargetsFailed is returned when every (column, file) target failed.
var ErrAllTargetsFailed = errors.New("combine: every target failed")

// CombineError records a (column, file) target that could not be combined.
// Participant and Path are set when a single source file caused it.
type CombineError struct {
	Column      string
	File        string
	Participant string
	Path        string
	Err         error
}

func (e *CombineError) Error() string {
	if e.Participant != "" {
		return fmt.Sprintf("combine: %s/%s: participant %s (%s): %v", e.Column, e.File, e.Participant, e.Path, e.Err)
	}
	return fmt.Sprintf("combine: %s/%s: %v", e.Column, e.File, e.Err)
}

func (e *CombineError) Unwrap() error { return e.Err }

// Target is one combined file written to disk.
type Target struct {
	Column       string   `json:"column"`
	File         string   `json:"file"`
	Path         string   `json:"path"`
	Participants []string `json:"participants"`
	Rows         int      `json:"rows"`
}

// Report summarizes one Combine call.
type Report struct {
	Written  []Target
	Failures []*CombineError

	// Missing lists selected columns with no files in the inventory.
	Missing []string
}

// Options configures a Combiner.
type Options struct {
	// OutputDir receives one <column>_combined directory per selected column.
	OutputDir string

	// Workers bounds how many files of one column are combined at once.
	Workers int
}

// Combiner writes combined files. It is the only writer of OutputDir.
type Combiner struct {
	opts Options
}

// New creates a Combiner.
func New(opts Options) *Combiner {
	return &Combiner{opts: opts}
}

// CombinedDir returns the output directory for column.
func CombinedDir(outDir, column string) string {
	return filepath.Join(outDir, column+CombinedSuffix)
}

// CombinedPath returns the combined file path for column/file.
func CombinedPath(outDir, column, file string) string {
	return filepath.Join(CombinedDir(outDir, column), file)
}

// Combine writes a combined file for every filename of every selected column
// in inv. Progress moves from 0 to ProgressSpan, one step per inventory column
// whether selected or not.
//
// Target failures are collected in the Report and do not stop sibling work.
// The returned error is non-nil when OutputDir cannot be created, ctx is
// canceled, or every target failed.
func (c *Combiner) Combine(ctx context.Context, inv *scan.Inventory, selected []string, tracker *progress.Tracker) (*Report, error) {
	log := logging.WithFields(ctx, "output_dir", c.opts.OutputDir)

	if err := os.MkdirAll(c.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("combine: create output directory: %w", err)
	}

	want := make(map[string]bool, len(selected))
	for _, col := range selected {
		want[col] = true
	}

	report := &Report{}
	for _, col := range selected {
		if _, ok := inv.Files[col]; !ok && !slices.Contains(report.Missing, col) {
			report.Missing = append(report.Missing, col)
		}
	}

	columns := inv.FileColumns()
	attempted := 0
	for i, column := range columns {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if want[column] {
			files := inv.FileNames(column)
			attempted += len(files)
			results := fanout.Run(ctx, c.opts.Workers, files, func(_ context.Context, file string) (Target, error) {
				return c.combineFile(inv, column, file)
			})
			for j, r := range results {
				if r.Err != nil {
					ce := asCombineError(column, files[j], r.Err)
					log.Warn("combine failed", "column", column, "file", files[j], "error", ce.Err)
					report.Failures = append(report.Failures, ce)
					continue
				}
				log.Debug("combined", "column", column, "file", r.Value.File, "rows", r.Value.Rows)
				report.Written = append(report.Written, r.Value)
			}
		}
		tracker.Update(progress.Share(i+1, len(columns), ProgressSpan))
	}

	log.Info("combine complete", "written", len(report.Written), "failures", len(report.Failures))

	if attempted > 0 && len(report.Failures) == attempted {
		errs := []error{ErrAllTargetsFailed}
		for _, f := range report.Failures {
			errs = append(errs, f)
		}
		return report, errors.Join(errs...)
	}
	return report, nil
}

// combineFile concatenates every participant's copy of column/file, in
// participant order, and writes the result. Nothing is written when any
// source fails to parse.
func (c *Combiner) combineFile(inv *scan.Inventory, column, file string) (Target, error) {
	participants := inv.Participants(column, file)
	tables := make([]*tabular.Table, 0, len(participants))
	rows := 0
	for _, p := range participants {
		path, _ := inv.Source(column, file, p)
		t, err := tabular.Read(path)
		if err != nil {
			return Target{}, &CombineError{Column: column, File: file, Participant: p, Path: path, Err: err}
		}
		rows += len(t.Rows)
		tables = append(tables, tabular.WithParticipant(t, p))
	}

	out := CombinedPath(c.opts.OutputDir, column, file)
	if err := tabular.Write(out, tabular.Concat(tables...)); err != nil {
		return Target{}, &CombineError{Column: column, File: file, Path: out, Err: err}
	}
	return Target{Column: column, File: file, Path: out, Participants: participants, Rows: rows}, nil
}

func asCombineError(column, file string, err error) *CombineError {
	var ce *CombineError
	if errors.As(err, &ce) {
		return ce
	}
	return &CombineError{Column: column, File: file, Err: err}
}
