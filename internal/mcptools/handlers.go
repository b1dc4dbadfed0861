package mcptools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dusk-indust/colmerge/internal/graph"
	"github.com/dusk-indust/colmerge/internal/logging"
	"github.com/dusk-indust/colmerge/internal/orchestrator"
	"github.com/dusk-indust/colmerge/internal/progress"
	"github.com/dusk-indust/colmerge/internal/status"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FailureNotice is the aggregate message reported when a run does not pass.
const FailureNotice = "Combine failed, please retry"

// ColumnService handles MCP tool calls. It wraps an Orchestrator and keeps
// the latest scan indexed in a graph store.
type ColumnService struct {
	pipeline orchestrator.Orchestrator
	cfg      orchestrator.Config
	store    graph.Store

	mu      sync.Mutex
	scanned *orchestrator.ScanOutcome
}

// NewColumnService creates a ColumnService. store receives every scan.
func NewColumnService(pipeline orchestrator.Orchestrator, cfg orchestrator.Config, store graph.Store) *ColumnService {
	return &ColumnService{pipeline: pipeline, cfg: cfg, store: store}
}

// ScanColumns scans the data root and indexes the inventory.
func (s *ColumnService) ScanColumns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ScanColumnsInput,
) (*mcp.CallToolResult, ScanColumnsOutput, error) {
	outcome, err := s.scan(ctx)
	if outcome == nil {
		return nil, ScanColumnsOutput{}, err
	}

	out := ScanColumnsOutput{Classification: outcome.Classification}
	for _, p := range outcome.Participants {
		out.Participants = append(out.Participants, p.ID)
	}
	for _, f := range outcome.Failures {
		out.Failures = append(out.Failures, f.Error())
	}
	stats, statErr := s.store.Stats(ctx)
	if statErr != nil {
		return nil, out, fmt.Errorf("graph stats: %w", statErr)
	}
	out.Graph = *stats
	return nil, out, nil
}

// CombineColumns combines and verifies the requested columns.
func (s *ColumnService) CombineColumns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CombineColumnsInput,
) (*mcp.CallToolResult, CombineColumnsOutput, error) {
	outcome := s.latest()
	if outcome == nil {
		var err error
		if outcome, err = s.scan(ctx); outcome == nil {
			return nil, CombineColumnsOutput{}, err
		}
	}

	columns := input.Columns
	if input.All {
		columns = outcome.Classification.AvailableForSelect
	}
	if len(columns) == 0 {
		return nil, CombineColumnsOutput{}, errors.New("columns is required unless all is true")
	}

	log := logging.FromContext(ctx)
	sink := func(ev progress.Event) {
		log.Debug("combine progress", "percent", ev.Percent)
	}

	run, err := s.pipeline.RunCombine(ctx, columns, sink)
	if run == nil {
		return nil, CombineColumnsOutput{}, err
	}

	out := CombineColumnsOutput{
		RunID:    run.RunID,
		OK:       run.OK && err == nil,
		Selected: run.Selected,
		Rejected: run.Rejected,
	}
	if run.Combine != nil {
		out.Written = run.Combine.Written
		for _, f := range run.Combine.Failures {
			out.Failures = append(out.Failures, f.Error())
		}
	}
	if run.Verification != nil {
		out.VerificationFailures = run.Verification.Failed()
	}
	if !out.OK {
		out.Message = FailureNotice
	}
	return nil, out, nil
}

// CombinedStatus lists the combined outputs present on disk. With a column it
// compares that column's scanned files against their combined outputs.
func (s *ColumnService) CombinedStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CombinedStatusInput,
) (*mcp.CallToolResult, CombinedStatusOutput, error) {
	columns, ok := status.ListCombined(s.cfg.OutputDir)
	out := CombinedStatusOutput{OutputDir: s.cfg.OutputDir, Exists: ok, Columns: columns}
	if input.Column == "" {
		return nil, out, nil
	}

	outcome := s.latest()
	if outcome == nil {
		var err error
		if outcome, err = s.scan(ctx); outcome == nil {
			return nil, CombinedStatusOutput{}, err
		}
	}
	if _, known := outcome.Classification.Label(input.Column); !known {
		return nil, CombinedStatusOutput{}, fmt.Errorf("unknown column %q", input.Column)
	}
	out.Columns = []status.ColumnStatus{status.GetColumnStatus(s.cfg.OutputDir, outcome.Inventory, input.Column)}
	return nil, out, nil
}

// ColumnParticipants lists which participants supplied a column's files.
func (s *ColumnService) ColumnParticipants(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ColumnParticipantsInput,
) (*mcp.CallToolResult, ColumnParticipantsOutput, error) {
	if input.Column == "" {
		return nil, ColumnParticipantsOutput{}, errors.New("column is required")
	}
	if s.latest() == nil {
		if _, err := s.scan(ctx); err != nil && s.latest() == nil {
			return nil, ColumnParticipantsOutput{}, err
		}
	}

	columns, err := s.store.Columns(ctx)
	if err != nil {
		return nil, ColumnParticipantsOutput{}, fmt.Errorf("graph columns: %w", err)
	}
	out := ColumnParticipantsOutput{Column: input.Column}
	for _, c := range columns {
		if c.Name == input.Column {
			out.Label = c.Label
		}
	}
	if out.Label == "" {
		return nil, out, fmt.Errorf("unknown column %q", input.Column)
	}

	files := []string{input.File}
	if input.File == "" {
		nodes, err := s.store.Files(ctx, input.Column)
		if err != nil {
			return nil, out, fmt.Errorf("graph files: %w", err)
		}
		files = files[:0]
		for _, n := range nodes {
			files = append(files, n.Name)
		}
	}
	for _, f := range files {
		contributions, err := s.store.Participants(ctx, input.Column, f)
		if err != nil {
			return nil, out, fmt.Errorf("graph participants: %w", err)
		}
		out.Contributions = append(out.Contributions, contributions...)
	}
	return nil, out, nil
}

// scan runs a scan and indexes it. An outcome with errors is still indexed.
func (s *ColumnService) scan(ctx context.Context) (*orchestrator.ScanOutcome, error) {
	outcome, err := s.pipeline.Scan(ctx, nil)
	if outcome == nil {
		return nil, err
	}
	if err := graph.Index(ctx, s.store, outcome.Inventory); err != nil {
		return nil, fmt.Errorf("index inventory: %w", err)
	}

	s.mu.Lock()
	s.scanned = outcome
	s.mu.Unlock()

	if err != nil {
		logging.FromContext(ctx).Warn("scan reported errors", "error", err)
	}
	return outcome, nil
}

func (s *ColumnService) latest() *orchestrator.ScanOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanned
}
