// Package verify re-reads combined files and checks every value against the
// participant sources they were built from.
package verify

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/dusk-indust/colmerge/internal/combine"
	"github.com/dusk-indust/colmerge/internal/fanout"
	"github.com/dusk-indust/colmerge/internal/logging"
	"github.com/dusk-indust/colmerge/internal/progress"
	"github.com/dusk-indust/colmerge/internal/scan"
	"github.com/dusk-indust/colmerge/internal/tabular"
)

// MaxMismatches caps the mismatches kept per record; MismatchCount still
// counts all of them.
const MaxMismatches = 20

// Mismatch is one value-level discrepancy.
type Mismatch struct {
	Participant string `json:"participant"`
	Field       string `json:"field,omitempty"`
	Row         int    `json:"row"`
	Combined    string `json:"combined,omitempty"`
	Original    string `json:"original,omitempty"`
	Reason      string `json:"reason"`
}

// Record is the verification outcome of one (column, file) pair.
type Record struct {
	Column       string     `json:"column"`
	File         string     `json:"file"`
	CombinedPath string     `json:"combinedPath"`
	OK           bool       `json:"ok"`
	Mismatches   []Mismatch `json:"mismatches,omitempty"`

	MismatchCount int `json:"mismatchCount"`

	// Message describes a failure to open or compare the files at all.
	Message string `json:"message,omitempty"`
}

func (r *Record) addMismatch(m Mismatch) {
	r.OK = false
	r.MismatchCount++
	if len(r.Mismatches) < MaxMismatches {
		r.Mismatches = append(r.Mismatches, m)
	}
}

func (r *Record) fail(format string, args ...any) {
	r.OK = false
	r.Message = fmt.Sprintf(format, args...)
}

// Report is the set of records from one Verify call.
type Report struct {
	Records []Record `json:"records"`
}

// Passed is the logical AND of every record. An empty report passes.
func (r *Report) Passed() bool {
	if r == nil {
		return false
	}
	for _, rec := range r.Records {
		if !rec.OK {
			return false
		}
	}
	return true
}

// Failed returns the records that did not pass.
func (r *Report) Failed() []Record {
	var out []Record
	for _, rec := range r.Records {
		if !rec.OK {
			out = append(out, rec)
		}
	}
	return out
}

// Options configures a Verifier.
type Options struct {
	// OutputDir is the directory the Combiner wrote to.
	OutputDir string

	// Workers bounds how many files of one column are verified at once.
	Workers int
}

// Verifier is a read-only consumer of source and combined files.
type Verifier struct {
	opts Options

	// read is swapped in tests to fail or panic on chosen files.
	read func(path string) (*tabular.Table, error)
}

// New creates a Verifier.
func New(opts Options) *Verifier {
	return &Verifier{opts: opts, read: tabular.Read}
}

// ProgressBase is where verification progress starts.
const ProgressBase = combine.ProgressSpan

// Verify checks every file of every selected column in inv. Progress moves
// from ProgressBase to 100, one step per verified column.
//
// Mismatches and unreadable files become failed records, never errors. The
// returned error is non-nil only when ctx is canceled.
func (v *Verifier) Verify(ctx context.Context, inv *scan.Inventory, selected []string, tracker *progress.Tracker) (*Report, error) {
	log := logging.WithFields(ctx, "output_dir", v.opts.OutputDir)

	var columns []string
	for _, col := range selected {
		if _, ok := inv.Files[col]; ok && !slices.Contains(columns, col) {
			columns = append(columns, col)
		}
	}
	slices.Sort(columns)

	report := &Report{}
	for i, column := range columns {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		files := inv.FileNames(column)
		results := fanout.Run(ctx, v.opts.Workers, files, func(_ context.Context, file string) (Record, error) {
			return v.verifyTarget(inv, column, file), nil
		})
		for j, r := range results {
			rec := r.Value
			if r.Err != nil {
				rec = Record{Column: column, File: files[j], CombinedPath: combine.CombinedPath(v.opts.OutputDir, column, files[j])}
				rec.fail("verify %s/%s: not run: %v", column, files[j], r.Err)
			}
			if !rec.OK {
				log.Warn("verification failed", "column", column, "file", rec.File,
					"mismatches", rec.MismatchCount, "message", rec.Message)
			}
			report.Records = append(report.Records, rec)
		}
		tracker.Update(ProgressBase + progress.Share(i+1, len(columns), 100-ProgressBase))
	}

	log.Info("verification complete", "records", len(report.Records), "passed", report.Passed())
	return report, nil
}

// verifyTarget compares one combined file against every contributing source.
// A panic while comparing is recovered into a failed record.
func (v *Verifier) verifyTarget(inv *scan.Inventory, column, file string) (rec Record) {
	combinedPath := combine.CombinedPath(v.opts.OutputDir, column, file)
	rec = Record{Column: column, File: file, CombinedPath: combinedPath, OK: true}

	defer func() {
		if p := recover(); p != nil {
			rec.fail("verify %s: unexpected failure: %v", combinedPath, p)
		}
	}()

	combined, err := v.read(combinedPath)
	if err != nil {
		rec.fail("verify %s against sources of %s/%s: open combined file: %v", combinedPath, column, file, err)
		return rec
	}
	if combined.Index(tabular.ParticipantField) != 0 {
		rec.fail("verify %s: first field is not %s", combinedPath, tabular.ParticipantField)
		return rec
	}

	groups := make(map[string][][]string)
	for _, row := range combined.Rows {
		groups[row[0]] = append(groups[row[0]], row)
	}

	for _, participant := range inv.Participants(column, file) {
		srcPath, _ := inv.Source(column, file, participant)
		src, err := v.read(srcPath)
		if err != nil {
			rec.fail("verify %s against %s: open original file: %v", combinedPath, srcPath, err)
			return rec
		}
		compareParticipant(&rec, combined.Header, groups[participant], tabular.WithParticipant(src, participant), participant)
		delete(groups, participant)
	}

	for _, participant := range slices.Sorted(maps.Keys(groups)) {
		rec.addMismatch(Mismatch{
			Participant: participant,
			Reason:      fmt.Sprintf("%d combined rows have no source file", len(groups[participant])),
		})
	}
	return rec
}

// compareParticipant checks one participant's combined rows against the
// transformed source table, field by field.
func compareParticipant(rec *Record, header []string, got [][]string, want *tabular.Table, participant string) {
	for _, field := range want.Header {
		if !slices.Contains(header, field) {
			rec.addMismatch(Mismatch{Participant: participant, Field: field, Reason: "field missing from combined file"})
		}
	}

	for ci, field := range header {
		if ci == 0 {
			continue
		}
		combinedCol := column(got, ci)
		originalCol := make([]string, len(want.Rows))
		if oi := want.Index(field); oi >= 0 {
			originalCol = column(want.Rows, oi)
		}

		switch CompareSeries(combinedCol, originalCol) {
		case Equal:
		case Incomparable:
			rec.addMismatch(Mismatch{
				Participant: participant,
				Reason:      fmt.Sprintf("row count differs: combined %d, original %d", len(got), len(want.Rows)),
			})
			return
		case NotEqual:
			for row := range combinedCol {
				if CompareCells(combinedCol[row], originalCol[row]) != Equal {
					rec.addMismatch(Mismatch{
						Participant: participant,
						Field:       field,
						Row:         row,
						Combined:    combinedCol[row],
						Original:    originalCol[row],
						Reason:      "value differs",
					})
				}
			}
		}
	}
}

func column(rows [][]string, idx int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[idx]
	}
	return out
}
