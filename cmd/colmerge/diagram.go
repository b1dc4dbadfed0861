package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dusk-indust/colmerge/internal/export"
	"github.com/dusk-indust/colmerge/internal/graph"
	"github.com/dusk-indust/colmerge/internal/orchestrator"
)

// runDiagram scans, indexes the inventory and prints it as Mermaid.
func runDiagram(ctx context.Context, p *orchestrator.Pipeline, graphDB string, w io.Writer) error {
	outcome, err := p.Scan(ctx, nil)
	if outcome == nil {
		return err
	}

	store, err := openGraphStore(graphDB)
	if err != nil {
		return fmt.Errorf("open graph: %w", err)
	}
	defer store.Close()

	if err := graph.Index(ctx, store, outcome.Inventory); err != nil {
		return err
	}
	mermaid, err := export.GenerateMermaid(ctx, store)
	if err != nil {
		return err
	}
	fmt.Fprint(w, mermaid)
	return nil
}
