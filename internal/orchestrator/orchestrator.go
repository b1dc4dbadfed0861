// Package orchestrator runs a scan, then combines and verifies the selected
// columns, reporting one monotonic progress stream per run.
package orchestrator

import (
	"context"

	"github.com/dusk-indust/colmerge/internal/progress"
)

// Phase identifies a step of a combine run.
type Phase int

const (
	PhaseScan Phase = iota
	PhaseCombine
	PhaseVerify
)

func (p Phase) String() string {
	names := [...]string{"scan", "combine", "verify"}
	if int(p) >= 0 && int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// Orchestrator coordinates discovery and merging for one data root.
type Orchestrator interface {
	// Scan inventories the root and classifies its columns.
	Scan(ctx context.Context, sink progress.Func) (*ScanOutcome, error)

	// RunCombine combines and verifies the selected columns.
	RunCombine(ctx context.Context, selected []string, sink progress.Func) (*RunResult, error)
}
