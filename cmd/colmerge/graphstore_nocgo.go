//go:build !cgo

package main

import (
	"errors"

	"github.com/dusk-indust/colmerge/internal/graph"
)

// openGraphStore returns an in-memory store; persistent catalogs need cgo.
func openGraphStore(path string) (graph.Store, error) {
	if path != "" {
		return nil, errors.New("-graph-db requires a cgo build")
	}
	return graph.NewMemStore(), nil
}
