//go:build cgo

package main

import "github.com/dusk-indust/colmerge/internal/graph"

// openGraphStore opens a KuzuDB catalog at path, or an in-memory one when
// path is empty.
func openGraphStore(path string) (graph.Store, error) {
	if path == "" {
		return graph.NewKuzuStore()
	}
	return graph.NewKuzuFileStore(path)
}
