// Package export renders scan and combine results as JSON reports and
// Mermaid diagrams.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/colmerge/internal/combine"
	"github.com/dusk-indust/colmerge/internal/orchestrator"
	"github.com/dusk-indust/colmerge/internal/scan"
	"github.com/dusk-indust/colmerge/internal/status"
	"github.com/dusk-indust/colmerge/internal/verify"
)

// Report is the top-level JSON export structure.
type Report struct {
	ExportedAt string `json:"exportedAt"`
	Root       string `json:"root"`
	OutputDir  string `json:"outputDir"`

	Participants   []string             `json:"participants"`
	Classification *scan.Classification `json:"classification,omitempty"`
	Files          []FileExport         `json:"files,omitempty"`
	ScanFailures   []FailureExport      `json:"scanFailures,omitempty"`

	Run      *RunExport            `json:"run,omitempty"`
	Combined []status.ColumnStatus `json:"combined,omitempty"`
}

// FileExport describes one (column, filename) pair of the inventory.
type FileExport struct {
	Column       string   `json:"column"`
	File         string   `json:"file"`
	Lines        int      `json:"lines"`
	Participants []string `json:"participants"`
}

// FailureExport is a flattened scan or combine failure.
type FailureExport struct {
	Column      string `json:"column,omitempty"`
	File        string `json:"file,omitempty"`
	Participant string `json:"participant,omitempty"`
	Path        string `json:"path,omitempty"`
	Error       string `json:"error"`
}

// RunExport describes one combine run.
type RunExport struct {
	RunID        string           `json:"runId"`
	OK           bool             `json:"ok"`
	Selected     []string         `json:"selected"`
	Rejected     []string         `json:"rejected,omitempty"`
	Written      []combine.Target `json:"written"`
	Failures     []FailureExport  `json:"failures,omitempty"`
	Missing      []string         `json:"missing,omitempty"`
	Verification []verify.Record  `json:"verification,omitempty"`
}

// BuildReport assembles a Report. outcome and run may each be nil; the
// combined outputs already on disk are always listed.
func BuildReport(cfg orchestrator.Config, outcome *orchestrator.ScanOutcome, run *orchestrator.RunResult) *Report {
	r := &Report{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Root:       cfg.Root,
		OutputDir:  cfg.OutputDir,
	}

	if outcome != nil {
		r.Classification = outcome.Classification
		for _, p := range outcome.Participants {
			r.Participants = append(r.Participants, p.ID)
		}
		inv := outcome.Inventory
		for _, column := range inv.FileColumns() {
			for _, file := range inv.FileNames(column) {
				r.Files = append(r.Files, FileExport{
					Column:       column,
					File:         file,
					Lines:        inv.Files[column][file].Lines,
					Participants: inv.Participants(column, file),
				})
			}
		}
		for _, f := range outcome.Failures {
			r.ScanFailures = append(r.ScanFailures, FailureExport{
				Participant: f.Participant,
				Path:        f.Path,
				Error:       f.Err.Error(),
			})
		}
	}

	if run != nil {
		re := &RunExport{
			RunID:    run.RunID,
			OK:       run.OK,
			Selected: run.Selected,
			Rejected: run.Rejected,
		}
		if run.Combine != nil {
			re.Written = run.Combine.Written
			re.Missing = run.Combine.Missing
			for _, f := range run.Combine.Failures {
				re.Failures = append(re.Failures, FailureExport{
					Column:      f.Column,
					File:        f.File,
					Participant: f.Participant,
					Path:        f.Path,
					Error:       f.Err.Error(),
				})
			}
		}
		if run.Verification != nil {
			re.Verification = run.Verification.Records
		}
		r.Run = re
	}

	r.Combined, _ = status.ListCombined(cfg.OutputDir)
	return r
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("export: encode report: %w", err)
	}
	return nil
}
