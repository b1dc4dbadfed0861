// Package scan inventories the participant/column/file tree and classifies
// the discovered columns by how they can be merged.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dusk-indust/colmerge/internal/fanout"
	"github.com/dusk-indust/colmerge/internal/logging"
	"github.com/dusk-indust/colmerge/internal/progress"
)

// ShallowLineLimit is the largest line count (header plus one data row)
// recorded as the shallow sentinel 0.
const ShallowLineLimit = 2

// Options controls participant matching and scan concurrency.
type Options struct {
	// ParticipantPrefix selects participant directories by name.
	ParticipantPrefix string

	// CSVSuffix is the case-sensitive data file suffix, e.g. ".csv".
	CSVSuffix string

	// ExcludeSubstring marks column directories whose contents are never
	// opened. Empty disables the exclusion.
	ExcludeSubstring string

	// Workers bounds the number of participants scanned at once. Zero means
	// GOMAXPROCS; 1 scans sequentially.
	Workers int
}

// Participant is one matched top-level directory.
type Participant struct {
	ID   string
	Path string
}

// Result is the outcome of one scan.
type Result struct {
	Inventory    *Inventory
	Participants []Participant

	// Failures lists participants whose scan failed; their partial output is
	// not part of Inventory.
	Failures []*ScanError
}

// Scanner walks participant directories concurrently.
type Scanner struct {
	opts Options

	// open is swapped in tests to observe which files are read.
	open func(name string) (io.ReadCloser, error)
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	return &Scanner{
		opts: opts,
		open: func(name string) (io.ReadCloser, error) { return os.Open(name) },
	}
}

// scanState is shared by every participant worker of one Scan call.
type scanState struct {
	mu      sync.Mutex
	done    int
	total   int
	tracker *progress.Tracker
}

// finish counts one completed participant and reports it.
func (s *scanState) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	s.tracker.Status(fmt.Sprintf("checking folders (%d/%d)", s.done, s.total))
}

// Participants lists the participant directories directly under root, sorted
// by ID. Failure to read root is returned as-is.
func (s *Scanner) Participants(root string) ([]Participant, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []Participant
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), s.opts.ParticipantPrefix) {
			continue
		}
		path := filepath.Join(root, e.Name())
		if !isDir(e, path) {
			continue
		}
		out = append(out, Participant{ID: e.Name(), Path: path})
	}
	slices.SortFunc(out, func(a, b Participant) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// Scan inventories every participant under root. tracker may be nil.
//
// Per-participant failures are collected in Result.Failures and do not stop
// the scan. The returned error is non-nil only when root cannot be listed or
// every participant failed; in the latter case Result is still returned.
func (s *Scanner) Scan(ctx context.Context, root string, tracker *progress.Tracker) (*Result, error) {
	log := logging.WithFields(ctx, "root", root)

	participants, err := s.Participants(root)
	if err != nil {
		return nil, fmt.Errorf("scan: list participants: %w", err)
	}

	state := &scanState{total: len(participants), tracker: tracker}
	results := fanout.Run(ctx, s.opts.Workers, participants, func(ctx context.Context, p Participant) (*Inventory, error) {
		inv, err := s.scanParticipant(ctx, p)
		if canceled(err) {
			return nil, err
		}
		state.finish()
		return inv, err
	})

	res := &Result{Inventory: NewInventory(), Participants: participants}
	for i, r := range results {
		p := participants[i]
		if r.Err != nil {
			if r.Skipped || canceled(r.Err) {
				continue
			}
			se := asScanError(p, r.Err)
			log.Warn("participant scan failed", "participant", p.ID, "error", se.Err)
			res.Failures = append(res.Failures, se)
			continue
		}
		res.Inventory.Merge(r.Value)
	}

	log.Info("scan complete",
		"participants", len(participants),
		"columns", len(res.Inventory.Columns),
		"file_columns", len(res.Inventory.Files),
		"failures", len(res.Failures),
	)

	if len(participants) > 0 && len(res.Failures) == len(participants) {
		errs := make([]error, 0, len(res.Failures)+1)
		errs = append(errs, ErrAllParticipantsFailed)
		for _, f := range res.Failures {
			errs = append(errs, f)
		}
		return res, errors.Join(errs...)
	}
	return res, nil
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func asScanError(p Participant, err error) *ScanError {
	var se *ScanError
	if errors.As(err, &se) {
		return se
	}
	return &ScanError{Participant: p.ID, Path: p.Path, Err: err}
}

// scanParticipant walks one participant directory. Every directory below the
// participant is a column; excluded columns are recorded and never entered.
func (s *Scanner) scanParticipant(ctx context.Context, p Participant) (*Inventory, error) {
	inv := NewInventory()

	err := filepath.WalkDir(p.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &ScanError{Participant: p.ID, Path: path, Err: err}
		}
		if path == p.Path || !d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		column := d.Name()
		inv.AddColumn(column)
		if s.excluded(column) {
			return fs.SkipDir
		}
		return s.scanColumn(p, column, path, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Scanner) excluded(column string) bool {
	return s.opts.ExcludeSubstring != "" && strings.Contains(column, s.opts.ExcludeSubstring)
}

// scanColumn records every matching file directly inside dir.
func (s *Scanner) scanColumn(p Participant, column, dir string, inv *Inventory) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &ScanError{Participant: p.ID, Path: dir, Err: err}
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), s.opts.CSVSuffix) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !isRegular(e, path) {
			continue
		}
		n, err := s.countFile(path)
		if err != nil {
			return &ScanError{Participant: p.ID, Path: path, Err: err}
		}
		if n <= ShallowLineLimit {
			n = 0
		}
		inv.AddSource(column, e.Name(), p.ID, path, n)
	}
	return nil
}

func (s *Scanner) countFile(path string) (int, error) {
	f, err := s.open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return CountLines(f)
}

// isDir reports whether e is a directory, following symlinks.
func isDir(e fs.DirEntry, path string) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// isRegular reports whether e is a regular file, following symlinks.
func isRegular(e fs.DirEntry, path string) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.Type().IsRegular()
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
