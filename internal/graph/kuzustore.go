//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path, so a catalog survives across runs. KuzuDB creates the leaf
// itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Participant(
		id STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS DataColumn(
		name STRING,
		label STRING,
		PRIMARY KEY(name)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS DataFile(
		id STRING,
		column_name STRING,
		name STRING,
		lines INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_FILE(FROM DataColumn TO DataFile)`,
	`CREATE REL TABLE IF NOT EXISTS CONTRIBUTES(FROM Participant TO DataFile, path STRING)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// Reset deletes every node; DETACH DELETE drops their relationships too.
func (s *KuzuStore) Reset(_ context.Context) error {
	for _, table := range []string{"Participant", "DataFile", "DataColumn"} {
		res, err := s.conn.Query("MATCH (n:" + table + ") DETACH DELETE n")
		if err != nil {
			return fmt.Errorf("kuzu: reset %s: %w", table, err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

func (s *KuzuStore) AddParticipant(_ context.Context, node ParticipantNode) error {
	return s.exec("MERGE (p:Participant {id: $id})", map[string]any{"id": node.ID})
}

func (s *KuzuStore) AddColumn(_ context.Context, node ColumnNode) error {
	return s.exec(
		"MERGE (c:DataColumn {name: $name}) SET c.label = $label",
		map[string]any{"name": node.Name, "label": node.Label},
	)
}

// AddFile inserts a DataFile node and links it to its column.
func (s *KuzuStore) AddFile(_ context.Context, node FileNode) error {
	params := map[string]any{
		"id":     fileID(node.Column, node.Name),
		"column": node.Column,
		"name":   node.Name,
		"lines":  int64(node.Lines),
	}
	rows, err := s.query("MATCH (c:DataColumn {name: $column}) RETURN c.name", map[string]any{"column": node.Column})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("kuzu: add file %s: unknown column %q", node.Name, node.Column)
	}
	if err := s.exec(
		"MERGE (f:DataFile {id: $id}) SET f.column_name = $column, f.name = $name, f.lines = $lines",
		params,
	); err != nil {
		return err
	}
	return s.exec(
		`MATCH (c:DataColumn {name: $column}), (f:DataFile {id: $id})
		 MERGE (c)-[:HAS_FILE]->(f)`,
		map[string]any{"column": node.Column, "id": params["id"]},
	)
}

func (s *KuzuStore) AddContribution(_ context.Context, c Contribution) error {
	params := map[string]any{"p": c.Participant, "f": fileID(c.Column, c.File)}
	rows, err := s.query(
		"MATCH (p:Participant {id: $p}), (f:DataFile {id: $f}) RETURN p.id",
		params,
	)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("kuzu: add contribution: unknown participant %q or file %q", c.Participant, params["f"])
	}
	params["path"] = c.Path
	return s.exec(
		`MATCH (p:Participant {id: $p}), (f:DataFile {id: $f})
		 MERGE (p)-[r:CONTRIBUTES]->(f)
		 SET r.path = $path`,
		params,
	)
}

// ---------- Read operations ----------

func (s *KuzuStore) Columns(_ context.Context) ([]ColumnNode, error) {
	rows, err := s.query("MATCH (c:DataColumn) RETURN c.name, c.label ORDER BY c.name", nil)
	if err != nil {
		return nil, err
	}
	out := make([]ColumnNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, ColumnNode{Name: toString(r[0]), Label: toString(r[1])})
	}
	return out, nil
}

func (s *KuzuStore) Files(_ context.Context, column string) ([]FileNode, error) {
	rows, err := s.query(
		`MATCH (c:DataColumn {name: $column})-[:HAS_FILE]->(f:DataFile)
		 RETURN f.name, f.lines
		 ORDER BY f.name`,
		map[string]any{"column": column},
	)
	if err != nil {
		return nil, err
	}
	out := make([]FileNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, FileNode{Column: column, Name: toString(r[0]), Lines: toInt(r[1])})
	}
	return out, nil
}

func (s *KuzuStore) Participants(_ context.Context, column, file string) ([]Contribution, error) {
	rows, err := s.query(
		`MATCH (p:Participant)-[r:CONTRIBUTES]->(f:DataFile {id: $f})
		 RETURN p.id, r.path
		 ORDER BY p.id`,
		map[string]any{"f": fileID(column, file)},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Contribution, 0, len(rows))
	for _, r := range rows {
		out = append(out, Contribution{
			Participant: toString(r[0]),
			Column:      column,
			File:        file,
			Path:        toString(r[1]),
		})
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of all node tables and contributions.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	participants, err := s.count("MATCH (n:Participant) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	columns, err := s.count("MATCH (n:DataColumn) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	files, err := s.count("MATCH (n:DataFile) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	contributions, err := s.count("MATCH ()-[r:CONTRIBUTES]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		ParticipantCount:  participants,
		ColumnCount:       columns,
		FileCount:         files,
		ContributionCount: contributions,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
