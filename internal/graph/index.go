// Package graph catalogs a scanned inventory as a participant/column/file
// graph so contributions can be queried after the scan.
package graph

import (
	"context"
	"fmt"

	"github.com/dusk-indust/colmerge/internal/scan"
)

// Index replaces the contents of store with inv. Every discovered column is
// added with its classification label; excluded and unmergeable columns have
// no files.
func Index(ctx context.Context, store Store, inv *scan.Inventory) error {
	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("graph: reset: %w", err)
	}

	classification := scan.Classify(inv)
	for _, name := range classification.Columns {
		label, _ := classification.Label(name)
		if err := store.AddColumn(ctx, ColumnNode{Name: name, Label: string(label)}); err != nil {
			return fmt.Errorf("graph: index column %s: %w", name, err)
		}
	}

	seen := make(map[string]bool)
	for _, column := range inv.FileColumns() {
		for _, file := range inv.FileNames(column) {
			if err := ctx.Err(); err != nil {
				return err
			}
			fi := inv.Files[column][file]
			if err := store.AddFile(ctx, FileNode{Column: column, Name: file, Lines: fi.Lines}); err != nil {
				return fmt.Errorf("graph: index file %s/%s: %w", column, file, err)
			}
			for _, participant := range inv.Participants(column, file) {
				if !seen[participant] {
					if err := store.AddParticipant(ctx, ParticipantNode{ID: participant}); err != nil {
						return fmt.Errorf("graph: index participant %s: %w", participant, err)
					}
					seen[participant] = true
				}
				path, _ := inv.Source(column, file, participant)
				c := Contribution{Participant: participant, Column: column, File: file, Path: path}
				if err := store.AddContribution(ctx, c); err != nil {
					return fmt.Errorf("graph: index contribution %s -> %s/%s: %w", participant, column, file, err)
				}
			}
		}
	}
	return nil
}
