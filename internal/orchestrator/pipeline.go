package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/dusk-indust/colmerge/internal/combine"
	"github.com/dusk-indust/colmerge/internal/logging"
	"github.com/dusk-indust/colmerge/internal/progress"
	"github.com/dusk-indust/colmerge/internal/scan"
	"github.com/dusk-indust/colmerge/internal/verify"
)

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

var (
	// ErrRootUnavailable is returned when the data root cannot be read.
	ErrRootUnavailable = errors.New("orchestrator: root directory unavailable")

	// ErrOutputUnavailable is returned when the output directory cannot be
	// created.
	ErrOutputUnavailable = errors.New("orchestrator: output directory unavailable")
)

// ScanOutcome is a scan result together with its classification.
type ScanOutcome struct {
	*scan.Result
	Classification *scan.Classification
}

// RunResult is the outcome of one RunCombine call.
type RunResult struct {
	RunID string `json:"runId"`

	// Selected lists the columns that were combined and verified.
	Selected []string `json:"selected"`

	// Rejected lists requested columns that are not available for selection.
	Rejected []string `json:"rejected,omitempty"`

	Combine      *combine.Report `json:"combine"`
	Verification *verify.Report  `json:"verification"`

	// OK is false when any target failed to combine or verify.
	OK bool `json:"ok"`
}

// Pipeline implements Orchestrator over one data root. The most recent scan
// is kept so RunCombine works on the same inventory the caller selected from.
type Pipeline struct {
	cfg      Config
	scanner  *scan.Scanner
	combiner *combine.Combiner
	verifier *verify.Verifier
	newRunID func() string

	mu   sync.Mutex
	last *ScanOutcome
}

// NewPipeline creates a Pipeline for cfg.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		scanner:  scan.New(cfg.scanOptions()),
		combiner: combine.New(combine.Options{OutputDir: cfg.OutputDir, Workers: cfg.Workers}),
		verifier: verify.New(verify.Options{OutputDir: cfg.OutputDir, Workers: cfg.Workers}),
		newRunID: uuid.NewString,
	}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Last returns the most recent scan outcome, or nil before the first scan.
func (p *Pipeline) Last() *ScanOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Scan inventories the root and classifies its columns. sink receives
// "checking folders (k/total)" status lines and may be nil.
//
// When every participant fails the outcome is still returned alongside
// scan.ErrAllParticipantsFailed.
func (p *Pipeline) Scan(ctx context.Context, sink progress.Func) (*ScanOutcome, error) {
	if err := checkRoot(p.cfg.Root); err != nil {
		return nil, err
	}

	res, err := p.scanner.Scan(ctx, p.cfg.Root, progress.NewTracker(ctx, sink))
	if res == nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnavailable, err)
	}

	outcome := &ScanOutcome{Result: res, Classification: scan.Classify(res.Inventory)}
	if ctx.Err() == nil {
		p.mu.Lock()
		p.last = outcome
		p.mu.Unlock()
	}
	return outcome, err
}

// RunCombine combines the requested columns that are available for selection
// and verifies the written files against their sources. Progress runs 0-50
// while combining, 50-100 while verifying, and always ends at exactly 100
// unless ctx is canceled.
//
// If no scan has been run yet, one is run first without progress. Combine and
// verification failures are reported in RunResult with OK false. The returned
// error is non-nil only when the root or output directory is unavailable,
// every combine target failed, or ctx is canceled.
func (p *Pipeline) RunCombine(ctx context.Context, selected []string, sink progress.Func) (*RunResult, error) {
	runID := p.newRunID()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.WithFields(ctx, "root", p.cfg.Root, "output_dir", p.cfg.OutputDir)

	if err := checkRoot(p.cfg.Root); err != nil {
		return nil, err
	}

	outcome := p.Last()
	if outcome == nil {
		var err error
		outcome, err = p.Scan(ctx, nil)
		if outcome == nil {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			log.Warn("scan before combine reported errors", "error", err)
		}
	}

	accepted, rejected := outcome.Classification.FilterSelectable(selected)
	result := &RunResult{RunID: runID, Selected: accepted, Rejected: rejected}
	if len(rejected) > 0 {
		log.Warn("ignoring columns not available for selection", "columns", rejected)
	}
	log.Info("combine run started", "phase", PhaseCombine, "columns", accepted)

	tracker := progress.NewTracker(ctx, sink)
	tracker.Update(0)

	report, err := p.combiner.Combine(ctx, outcome.Inventory, accepted, tracker)
	result.Combine = report
	switch {
	case report == nil:
		return nil, fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
	case ctx.Err() != nil:
		return result, ctx.Err()
	case err != nil:
		log.Error("combine failed", "error", err)
		tracker.Update(100)
		return result, err
	}

	log.Info("verifying combined files", "phase", PhaseVerify)
	verification, err := p.verifier.Verify(ctx, outcome.Inventory, accepted, tracker)
	result.Verification = verification
	if err != nil {
		return result, err
	}

	result.OK = len(report.Failures) == 0 && verification.Passed()
	tracker.Update(100)

	if result.OK {
		log.Info("combine run complete", "written", len(report.Written), "percent", tracker.Percent())
	} else {
		log.Warn("combine run failed", "percent", tracker.Percent(), "combine_failures", len(report.Failures),
			"verification_failures", len(verification.Failed()))
	}
	return result, nil
}

// checkRoot reports ErrRootUnavailable unless root is a readable directory.
func checkRoot(root string) error {
	f, err := os.Open(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRootUnavailable, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRootUnavailable, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootUnavailable, root)
	}
	return nil
}
