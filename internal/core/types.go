package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ColumnType is the logical type expected for a column.
type ColumnType int

const (
	ColumnUnknown ColumnType = iota
	ColumnInteger
	ColumnFloat
	ColumnString
	ColumnBoolean
	ColumnDatetime
)

func (t ColumnType) String() string {
	switch t {
	case ColumnInteger:
		return "integer"
	case ColumnFloat:
		return "float"
	case ColumnString:
		return "string"
	case ColumnBoolean:
		return "boolean"
	case ColumnDatetime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Numeric reports whether values of this type take part in mean imputation.
func (t ColumnType) Numeric() bool {
	return t == ColumnInteger || t == ColumnFloat
}

// ParseColumnType accepts the long names returned by String as well as the
// short aliases used in rule files ("int", "str", "bool", "date").
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integer", "int":
		return ColumnInteger, nil
	case "float", "double", "numeric":
		return ColumnFloat, nil
	case "string", "str", "text":
		return ColumnString, nil
	case "boolean", "bool":
		return ColumnBoolean, nil
	case "datetime", "date":
		return ColumnDatetime, nil
	default:
		return ColumnUnknown, fmt.Errorf("unknown column type %q", s)
	}
}

func (t ColumnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ColumnType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == ColumnUnknown.String() {
		*t = ColumnUnknown
		return nil
	}
	parsed, err := ParseColumnType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Column describes one position in the table schema.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Cell is a single value. Valid=false is the missing-value sentinel.
type Cell struct {
	Value string
	Valid bool
}

// Text returns a present cell holding s.
func Text(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Missing returns the missing-value sentinel.
func Missing() Cell {
	return Cell{}
}

// IsMissing reports whether the cell has no usable value.
func (c Cell) IsMissing() bool {
	return !c.Valid
}

func (c Cell) String() string {
	if !c.Valid {
		return "<missing>"
	}
	return c.Value
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Missing()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = Text(s)
	return nil
}

// RowID identifies a row by its position in the original table. It is
// assigned once at ingestion and never re-derived after rows are removed.
type RowID int

// Row is an ordered sequence of cells plus its stable identifier.
type Row struct {
	ID    RowID  `json:"id"`
	Cells []Cell `json:"cells"`
}

func (r Row) clone() Row {
	cells := make([]Cell, len(r.Cells))
	copy(cells, r.Cells)
	return Row{ID: r.ID, Cells: cells}
}

// Table is a rectangular set of rows sharing one schema.
//
// Tables are handled as values: cleaners clone before writing, so a table
// passed into a stage is never modified by it.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`

	// Malformed records rows whose raw width differed from the schema.
	// Those rows were padded with missing cells or truncated on ingestion.
	Malformed map[RowID]string `json:"malformed,omitempty"`
}

// NewTable builds a table from raw records, assigning each record a RowID
// equal to its position. Records that are shorter or longer than the schema
// are padded or truncated and noted in Malformed instead of failing the batch.
func NewTable(columns []Column, records [][]Cell) *Table {
	t := &Table{
		Columns: append([]Column(nil), columns...),
		Rows:    make([]Row, 0, len(records)),
	}
	width := len(columns)

	for i, rec := range records {
		id := RowID(i)
		cells := make([]Cell, width)
		copy(cells, rec)

		if len(rec) != width {
			if t.Malformed == nil {
				t.Malformed = make(map[RowID]string)
			}
			t.Malformed[id] = fmt.Sprintf("expected %d columns, got %d", width, len(rec))
		}

		t.Rows = append(t.Rows, Row{ID: id, Cells: cells})
	}

	return t
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.clone()
	}
	if len(t.Malformed) > 0 {
		out.Malformed = make(map[RowID]string, len(t.Malformed))
		for id, msg := range t.Malformed {
			out.Malformed[id] = msg
		}
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ColumnNames returns the schema's column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// positions maps each present RowID to its current slice index.
func (t *Table) positions() map[RowID]int {
	pos := make(map[RowID]int, len(t.Rows))
	for i, r := range t.Rows {
		pos[r.ID] = i
	}
	return pos
}

// Has reports whether a row with the given ID is still present.
func (t *Table) Has(id RowID) bool {
	for _, r := range t.Rows {
		if r.ID == id {
			return true
		}
	}
	return false
}

// RowIDs returns the identifiers of the present rows in table order.
func (t *Table) RowIDs() []RowID {
	ids := make([]RowID, len(t.Rows))
	for i, r := range t.Rows {
		ids[i] = r.ID
	}
	return ids
}

// without returns a copy of the table omitting the given rows.
func (t *Table) without(drop map[RowID]bool) *Table {
	out := t.Clone()
	kept := out.Rows[:0]
	for _, r := range out.Rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	out.Rows = kept
	return out
}
