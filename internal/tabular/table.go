// Package tabular reads, reshapes and writes the CSV tables that are merged
// across participants.
//
// Values are kept as the exact strings found in the source file. A table is
// a header plus rows that are always exactly as wide as the header.
package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// ParticipantField is the leading field injected into every combined table.
const ParticipantField = "participant_id"

var (
	// ErrNoColumns is returned for input without a header row.
	ErrNoColumns = errors.New("tabular: no columns to parse")

	// ErrMalformed is returned when a row is wider than the header.
	ErrMalformed = errors.New("tabular: malformed row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a parsed CSV file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of the named field, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Read parses the CSV file at path.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Decode parses CSV from r. A leading UTF-8 BOM is skipped, blank lines are
// ignored, rows shorter than the header are padded with empty values and
// duplicate header names get a ".N" suffix.
func Decode(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("tabular: %w", err)
	}

	t := &Table{Header: dedupeHeader(header)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: %w", err)
		}
		if len(rec) > len(t.Header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrMalformed, line, len(rec), len(t.Header))
		}
		for len(rec) < len(t.Header) {
			rec = append(rec, "")
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		for n := seen[h]; n > 0; n++ {
			candidate := h + "." + strconv.Itoa(n)
			if _, taken := seen[candidate]; !taken {
				name = candidate
				seen[h] = n + 1
				break
			}
		}
		if name == h {
			seen[h] = 1
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

// WithParticipant returns a copy of t whose first field is ParticipantField,
// set to id on every row. An existing ParticipantField column is replaced.
// The remaining fields keep their source order.
func WithParticipant(t *Table, id string) *Table {
	drop := t.Index(ParticipantField)

	header := make([]string, 0, len(t.Header)+1)
	header = append(header, ParticipantField)
	for i, h := range t.Header {
		if i != drop {
			header = append(header, h)
		}
	}

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, 0, len(header))
		out = append(out, id)
		for i, v := range row {
			if i != drop {
				out = append(out, v)
			}
		}
		rows[r] = out
	}
	return &Table{Header: header, Rows: rows}
}

// Concat stacks tables vertically. The result header is the union of the
// input headers in first-seen order; fields absent from a table are empty.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	pos := make(map[string]int)
	for _, t := range tables {
		for _, h := range t.Header {
			if _, ok := pos[h]; !ok {
				pos[h] = len(out.Header)
				out.Header = append(out.Header, h)
			}
		}
	}

	for _, t := range tables {
		idx := make([]int, len(t.Header))
		for i, h := range t.Header {
			idx[i] = pos[h]
		}
		for _, row := range t.Rows {
			merged := make([]string, len(out.Header))
			for i, v := range row {
				merged[idx[i]] = v
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// Encode writes t as comma-separated, "\n"-terminated CSV.
func Encode(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("tabular: write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("tabular: write rows: %w", err)
	}
	return nil
}

// Write encodes t to path, creating parent directories as needed. The file is
// written to a temporary sibling first and renamed into place.
func Write(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("tabular: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("tabular: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, t); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("tabular: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tabular: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tabular: rename: %w", err)
	}
	return nil
}
