package graph

import (
	"context"
	"io"
)

// Store is the interface for the inventory graph backend.
// Implementations: KuzuStore (cgo builds), MemStore (default and tests).
//
// Adds are idempotent: adding an existing node or contribution replaces its
// properties.
type Store interface {
	io.Closer

	// InitSchema is called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Reset removes every node and relationship, keeping the schema.
	Reset(ctx context.Context) error

	AddParticipant(ctx context.Context, node ParticipantNode) error
	AddColumn(ctx context.Context, node ColumnNode) error
	AddFile(ctx context.Context, node FileNode) error

	// AddContribution links an existing participant to an existing file.
	AddContribution(ctx context.Context, c Contribution) error

	// Columns returns every column sorted by name.
	Columns(ctx context.Context) ([]ColumnNode, error)

	// Files returns the files of column sorted by name.
	Files(ctx context.Context, column string) ([]FileNode, error)

	// Participants returns the contributions to column/file sorted by
	// participant.
	Participants(ctx context.Context, column, file string) ([]Contribution, error)

	Stats(ctx context.Context) (*GraphStats, error)
}
