// Package ingest turns CSV input into core tables and writes them back out.
//
// Parsing is whole-file: the reader is consumed before the table is returned.
// Row width problems do not abort the read; they are carried into the table
// so the pipeline can report them per row.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/core"
)

var (
	// ErrEmptyFile is returned when the input has no bytes or no records.
	ErrEmptyFile = errors.New("empty file")

	// ErrNoHeader is returned when the header row has blank or repeated names.
	ErrNoHeader = errors.New("no header row")
)

// DefaultMissingMarkers are cell texts treated as missing values.
var DefaultMissingMarkers = []string{"", "NA", "N/A", "null", "NULL", "NaN", "None"}

// Options controls how raw text maps to cells.
type Options struct {
	// MissingMarkers lists cell texts (after trimming) that become the
	// missing-value sentinel. Nil uses DefaultMissingMarkers. Empty cells
	// are always missing.
	MissingMarkers []string

	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// MaxBytes caps the raw input size. Zero or less means no cap.
	MaxBytes int64
}

func (o Options) missingSet() map[string]bool {
	markers := o.MissingMarkers
	if markers == nil {
		markers = DefaultMissingMarkers
	}
	set := make(map[string]bool, len(markers)+1)
	set[""] = true
	for _, m := range markers {
		set[m] = true
	}
	return set
}

// ReadCSV parses a header row followed by data rows into a table. Columns
// start untyped; the pipeline assigns declared or inferred types.
func ReadCSV(r io.Reader, opts Options) (*core.Table, error) {
	if opts.MaxBytes > 0 {
		r = &sizeLimiter{src: r, max: opts.MaxBytes}
	}
	br := bufio.NewReader(newUTF8Sanitizer(r))
	skipBOM(br)

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns, err := buildColumns(header)
	if err != nil {
		return nil, err
	}

	missing := opts.missingSet()
	var records [][]core.Cell
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, toCells(rec, missing))
	}

	return core.NewTable(columns, records), nil
}

// skipBOM drops a leading UTF-8 byte order mark written by Windows tools.
func skipBOM(br *bufio.Reader) {
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
}

func buildColumns(header []string) ([]core.Column, error) {
	seen := make(map[string]bool, len(header))
	columns := make([]core.Column, len(header))

	for i, h := range header {
		name := CleanCell(h)
		if name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrNoHeader, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: column %q appears twice", ErrNoHeader, name)
		}
		seen[name] = true
		columns[i] = core.Column{Name: name}
	}
	return columns, nil
}

func toCells(rec []string, missing map[string]bool) []core.Cell {
	cells := make([]core.Cell, len(rec))
	for i, raw := range rec {
		v := CleanCell(raw)
		if missing[v] {
			cells[i] = core.Missing()
			continue
		}
		cells[i] = core.Text(v)
	}
	return cells
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace and the Excel formula wrapper (="...").
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// WriteCSV writes the table with a header row. Missing cells become empty fields.
func WriteCSV(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range rec {
			rec[i] = ""
			if i < len(row.Cells) && !row.Cells[i].IsMissing() {
				rec[i] = row.Cells[i].Value
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", row.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
