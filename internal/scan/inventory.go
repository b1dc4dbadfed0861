package scan

import (
	"maps"
	"slices"
)

// FileInventory records every participant's copy of one (column, filename)
// pair.
type FileInventory struct {
	// Sources maps participant ID to the absolute source file path.
	Sources map[string]string

	// Lines is the line count recorded for this filename: the true count when
	// the file has more than two lines, otherwise 0. When participants
	// disagree, the value comes from the participant merged last (highest
	// participant ID).
	Lines int
}

// Inventory is the merged outcome of a tree scan. It is treated as immutable
// once returned by Scan.
type Inventory struct {
	// Columns is every column directory name seen under any participant,
	// including excluded ones.
	Columns map[string]struct{}

	// Files maps column -> filename -> inventory. Columns that never yielded
	// a matching file are absent.
	Files map[string]map[string]*FileInventory
}

// NewInventory returns an empty Inventory.
func NewInventory() *Inventory {
	return &Inventory{
		Columns: make(map[string]struct{}),
		Files:   make(map[string]map[string]*FileInventory),
	}
}

// AddColumn records a discovered column name.
func (inv *Inventory) AddColumn(column string) {
	inv.Columns[column] = struct{}{}
}

// AddSource records participant's copy of column/file. lines overwrites any
// previously recorded count.
func (inv *Inventory) AddSource(column, file, participant, path string, lines int) {
	inv.AddColumn(column)
	files, ok := inv.Files[column]
	if !ok {
		files = make(map[string]*FileInventory)
		inv.Files[column] = files
	}
	fi, ok := files[file]
	if !ok {
		fi = &FileInventory{Sources: make(map[string]string)}
		files[file] = fi
	}
	fi.Sources[participant] = path
	fi.Lines = lines
}

// ColumnNames returns every discovered column, sorted.
func (inv *Inventory) ColumnNames() []string {
	return slices.Sorted(maps.Keys(inv.Columns))
}

// FileColumns returns the columns that have at least one matching file, sorted.
func (inv *Inventory) FileColumns() []string {
	return slices.Sorted(maps.Keys(inv.Files))
}

// FileNames returns the distinct filenames under column, sorted.
func (inv *Inventory) FileNames(column string) []string {
	return slices.Sorted(maps.Keys(inv.Files[column]))
}

// Participants returns the participants contributing column/file, sorted.
func (inv *Inventory) Participants(column, file string) []string {
	fi := inv.Files[column][file]
	if fi == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(fi.Sources))
}

// Source returns the source path of participant's copy of column/file.
func (inv *Inventory) Source(column, file, participant string) (string, bool) {
	fi := inv.Files[column][file]
	if fi == nil {
		return "", false
	}
	p, ok := fi.Sources[participant]
	return p, ok
}

// Merge folds other into inv keyed by column, filename and participant, so
// the result does not depend on the order in which scans completed, except
// for Lines, which other overwrites.
func (inv *Inventory) Merge(other *Inventory) {
	for c := range other.Columns {
		inv.AddColumn(c)
	}
	for column, files := range other.Files {
		for file, fi := range files {
			for _, participant := range slices.Sorted(maps.Keys(fi.Sources)) {
				inv.AddSource(column, file, participant, fi.Sources[participant], fi.Lines)
			}
		}
	}
}
