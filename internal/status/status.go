// Package status reports which combined outputs already exist on disk.
package status

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/colmerge/internal/combine"
	"github.com/dusk-indust/colmerge/internal/scan"
	"github.com/dusk-indust/colmerge/internal/tabular"
)

// FileInfo describes one combined file.
type FileInfo struct {
	Name     string `json:"name"`
	Complete bool   `json:"complete"`
	Path     string `json:"path,omitempty"` // set when complete
	Rows     int    `json:"rows"`           // data rows, excluding the header
}

// ColumnStatus holds the combined outputs of one column.
type ColumnStatus struct {
	Column   string     `json:"column"`
	Dir      string     `json:"dir"`
	Files    []FileInfo `json:"files"`
	Complete bool       `json:"complete"`
}

// GetColumnStatus reports which of column's inventory files have a combined
// output in outDir.
func GetColumnStatus(outDir string, inv *scan.Inventory, column string) ColumnStatus {
	cs := ColumnStatus{
		Column:   column,
		Dir:      combine.CombinedDir(outDir, column),
		Complete: true,
	}
	for _, name := range inv.FileNames(column) {
		fi := inspect(combine.CombinedPath(outDir, column, name), name)
		if !fi.Complete {
			cs.Complete = false
		}
		cs.Files = append(cs.Files, fi)
	}
	if len(cs.Files) == 0 {
		cs.Complete = false
	}
	return cs
}

// ListCombined scans outDir for <column>_combined directories. The second
// result is false when outDir does not exist or cannot be read.
func ListCombined(outDir string) ([]ColumnStatus, bool) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, false
	}

	var results []ColumnStatus
	for _, entry := range entries {
		column, ok := strings.CutSuffix(entry.Name(), combine.CombinedSuffix)
		if !entry.IsDir() || !ok || column == "" {
			continue
		}
		dir := filepath.Join(outDir, entry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		cs := ColumnStatus{Column: column, Dir: dir, Complete: true}
		for _, f := range files {
			// Dot files are temporaries left by an interrupted write.
			if !f.Type().IsRegular() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			cs.Files = append(cs.Files, inspect(filepath.Join(dir, f.Name()), f.Name()))
		}
		results = append(results, cs)
	}
	return results, true
}

// inspect reports whether path holds a readable table and counts its records.
func inspect(path, name string) FileInfo {
	t, err := tabular.Read(path)
	if err != nil {
		return FileInfo{Name: name}
	}
	return FileInfo{Name: name, Complete: true, Path: path, Rows: len(t.Rows)}
}
