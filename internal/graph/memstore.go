package graph

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu            sync.RWMutex
	participants  map[string]ParticipantNode
	columns       map[string]ColumnNode
	files         map[string]FileNode
	contributions map[string]map[string]Contribution // file id -> participant
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		participants:  make(map[string]ParticipantNode),
		columns:       make(map[string]ColumnNode),
		files:         make(map[string]FileNode),
		contributions: make(map[string]map[string]Contribution),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

func (m *MemStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants = make(map[string]ParticipantNode)
	m.columns = make(map[string]ColumnNode)
	m.files = make(map[string]FileNode)
	m.contributions = make(map[string]map[string]Contribution)
	return nil
}

func (m *MemStore) AddParticipant(_ context.Context, node ParticipantNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[node.ID] = node
	return nil
}

func (m *MemStore) AddColumn(_ context.Context, node ColumnNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.columns[node.Name] = node
	return nil
}

// AddFile stores a file node; its column must already exist.
func (m *MemStore) AddFile(_ context.Context, node FileNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.columns[node.Column]; !ok {
		return fmt.Errorf("memstore: add file %s: unknown column %q", node.Name, node.Column)
	}
	m.files[fileID(node.Column, node.Name)] = node
	return nil
}

func (m *MemStore) AddContribution(_ context.Context, c Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.participants[c.Participant]; !ok {
		return fmt.Errorf("memstore: add contribution: unknown participant %q", c.Participant)
	}
	id := fileID(c.Column, c.File)
	if _, ok := m.files[id]; !ok {
		return fmt.Errorf("memstore: add contribution: unknown file %q", id)
	}
	if m.contributions[id] == nil {
		m.contributions[id] = make(map[string]Contribution)
	}
	m.contributions[id][c.Participant] = c
	return nil
}

func (m *MemStore) Columns(_ context.Context) ([]ColumnNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Collect(maps.Values(m.columns))
	slices.SortFunc(out, func(a, b ColumnNode) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemStore) Files(_ context.Context, column string) ([]FileNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []FileNode
	for _, f := range m.files {
		if f.Column == column {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b FileNode) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemStore) Participants(_ context.Context, column, file string) ([]Contribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Collect(maps.Values(m.contributions[fileID(column, file)]))
	slices.SortFunc(out, func(a, b Contribution) int { return strings.Compare(a.Participant, b.Participant) })
	return out, nil
}

func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	contributions := 0
	for _, c := range m.contributions {
		contributions += len(c)
	}
	return &GraphStats{
		ParticipantCount:  len(m.participants),
		ColumnCount:       len(m.columns),
		FileCount:         len(m.files),
		ContributionCount: contributions,
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
