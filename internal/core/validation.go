package core

// validation.go detects per-cell problems and collects them into an IssueIndex.
//
// Validation happens at two levels:
//  1. Row validators (null, type) look at one row at a time and are pure.
//  2. Table validators (duplicate, schema) need the whole table.
//
// The ValidationOrchestrator runs both and merges the findings. Findings are
// additive: a repeated (column, kind) pair for the same row is recorded once,
// and validators never suppress each other.

import (
	"context"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// typePatterns are the strict formats a raw value must match for its
// expected type.
var typePatterns = map[ColumnType]*regexp.Regexp{
	ColumnInteger:  regexp.MustCompile(`^-?\d+$`),
	ColumnFloat:    regexp.MustCompile(`^-?\d+\.\d+$`),
	ColumnString:   regexp.MustCompile(`(?s)^.+$`),
	ColumnBoolean:  regexp.MustCompile(`^(?i)(true|false|1|0|yes|no)$`),
	ColumnDatetime: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}( \d{2}:\d{2}:\d{2})?$`),
}

// matchesType reports whether value conforms to the strict format for t.
// Datetime values must also name a real calendar date.
func matchesType(value string, t ColumnType) bool {
	re, ok := typePatterns[t]
	if !ok || !re.MatchString(value) {
		return false
	}
	if t == ColumnDatetime {
		layout := "2006-01-02"
		if len(value) > len(layout) {
			layout = "2006-01-02 15:04:05"
		}
		if _, err := time.Parse(layout, value); err != nil {
			return false
		}
	}
	return true
}

// RowValidator inspects a single row. Implementations must be free of shared
// mutable state so rows can be scanned in parallel.
type RowValidator interface {
	Name() string
	ValidateRow(row Row, columns []Column) []Issue
}

// TableValidator inspects the table as a whole.
type TableValidator interface {
	Name() string
	ValidateTable(t *Table) IssueIndex
}

// NullValidator flags cells holding the missing-value sentinel or an empty string.
type NullValidator struct{}

func (NullValidator) Name() string { return "null" }

// ValidateRow returns one Null issue per empty cell.
func (NullValidator) ValidateRow(row Row, columns []Column) []Issue {
	var issues []Issue
	for i, c := range row.Cells {
		if i >= len(columns) {
			break
		}
		if c.IsMissing() || c.Value == "" {
			issues = append(issues, Issue{Column: columns[i].Name, Kind: KindNull})
		}
	}
	return issues
}

// TypeValidator flags cells whose raw text does not match the strict format
// for the column's expected type. Columns outside Mapping are never flagged.
type TypeValidator struct {
	Mapping map[string]ColumnType
}

func (TypeValidator) Name() string { return "type" }

// ValidateRow returns one TypeMismatch issue per non-conforming mapped cell.
// A missing cell in a mapped column does not conform.
func (v TypeValidator) ValidateRow(row Row, columns []Column) []Issue {
	var issues []Issue
	for i, c := range row.Cells {
		if i >= len(columns) {
			break
		}
		expected, ok := v.Mapping[columns[i].Name]
		if !ok {
			continue
		}
		if c.IsMissing() || !matchesType(c.Value, expected) {
			issues = append(issues, Issue{Column: columns[i].Name, Kind: KindTypeMismatch})
		}
	}
	return issues
}

// DuplicateValidator flags every row whose compared cells equal those of at
// least one other row. All occurrences are flagged, the first included.
type DuplicateValidator struct {
	Columns []string
}

func (DuplicateValidator) Name() string { return "duplicate" }

// ValidateTable returns a wildcard Duplicate issue for each repeated row.
func (v DuplicateValidator) ValidateTable(t *Table) IssueIndex {
	idx := make(IssueIndex)
	cols := compareIndexes(t, v.Columns)

	groups := make(map[string][]RowID)
	var order []string
	for _, r := range t.Rows {
		key := rowKey(r, cols)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r.ID)
	}

	for _, key := range order {
		ids := groups[key]
		if len(ids) < 2 {
			continue
		}
		for _, id := range ids {
			idx.add(id, Issue{Column: WildcardColumn, Kind: KindDuplicate})
		}
	}
	return idx
}

// SchemaValidator reports rows whose raw width did not match the schema.
type SchemaValidator struct{}

func (SchemaValidator) Name() string { return "schema" }

// ValidateTable returns a wildcard SchemaMismatch issue per malformed row.
func (SchemaValidator) ValidateTable(t *Table) IssueIndex {
	idx := make(IssueIndex)
	for _, r := range t.Rows {
		if _, bad := t.Malformed[r.ID]; bad {
			idx.add(r.ID, Issue{Column: WildcardColumn, Kind: KindSchemaMismatch})
		}
	}
	return idx
}

// compareIndexes resolves duplicate comparison columns to positions.
// Empty names means every column; unknown names are skipped.
func compareIndexes(t *Table, names []string) []int {
	if len(names) == 0 {
		cols := make([]int, len(t.Columns))
		for i := range cols {
			cols[i] = i
		}
		return cols
	}
	cols := make([]int, 0, len(names))
	for _, name := range names {
		if i, ok := t.ColumnIndex(name); ok {
			cols = append(cols, i)
		}
	}
	return cols
}

// rowKey builds a comparison key from the selected cells. A missing cell
// and an empty string produce different keys.
func rowKey(r Row, cols []int) string {
	var b strings.Builder
	for _, i := range cols {
		c := r.Cells[i]
		if c.IsMissing() {
			b.WriteString("\x00")
		} else {
			b.WriteString("\x01")
			b.WriteString(c.Value)
		}
		b.WriteString("\x1f")
	}
	return b.String()
}

// ValidationState tracks the orchestrator's progress through a pass.
type ValidationState int

const (
	ValidationIdle ValidationState = iota
	ValidationScanning
	ValidationDone
)

func (s ValidationState) String() string {
	switch s {
	case ValidationScanning:
		return "scanning"
	case ValidationDone:
		return "done"
	default:
		return "idle"
	}
}

// ValidationOrchestrator runs every enabled validator over a table and
// merges their findings into one IssueIndex.
//
// An orchestrator is not safe for concurrent use; build one per pass.
type ValidationOrchestrator struct {
	rowValidators   []RowValidator
	tableValidators []TableValidator
	workers         int
	state           ValidationState
}

// NewValidationOrchestrator builds an orchestrator for the enabled validators.
// The schema validator always runs.
func NewValidationOrchestrator(rules Rules) *ValidationOrchestrator {
	o := &ValidationOrchestrator{workers: rules.Workers}

	if rules.CheckNulls {
		o.rowValidators = append(o.rowValidators, NullValidator{})
	}
	if rules.CheckTypes && len(rules.TypeMapping) > 0 {
		o.rowValidators = append(o.rowValidators, TypeValidator{Mapping: rules.TypeMapping})
	}
	if rules.CheckDuplicates {
		o.tableValidators = append(o.tableValidators, DuplicateValidator{Columns: rules.CompareColumns})
	}
	o.tableValidators = append(o.tableValidators, SchemaValidator{})

	return o
}

// State returns where the orchestrator is in its current or last pass.
func (o *ValidationOrchestrator) State() ValidationState {
	return o.state
}

// Validators returns the names of the validators that will run.
func (o *ValidationOrchestrator) Validators() []string {
	names := make([]string, 0, len(o.rowValidators)+len(o.tableValidators))
	for _, v := range o.rowValidators {
		names = append(names, v.Name())
	}
	for _, v := range o.tableValidators {
		names = append(names, v.Name())
	}
	return names
}

// Validate scans the table and returns the merged IssueIndex.
// Rows without findings are absent from the result. The scan stops with
// ctx's error once ctx is done.
func (o *ValidationOrchestrator) Validate(ctx context.Context, t *Table) (IssueIndex, error) {
	o.state = ValidationScanning
	defer func() { o.state = ValidationDone }()

	findings, err := o.scanRows(ctx, t)
	if err != nil {
		return nil, err
	}

	idx := make(IssueIndex)
	for i, r := range t.Rows {
		if len(findings[i]) > 0 {
			idx.merge(r.ID, findings[i])
		}
	}

	for _, v := range o.tableValidators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := v.ValidateTable(t)
		for _, id := range found.SortedIDs() {
			idx.merge(id, found[id])
		}
	}

	return idx, nil
}

// cancelCheckInterval is how many rows are scanned between context checks.
const cancelCheckInterval = 1024

// scanRows collects each row's findings, in parallel when workers > 1.
// Every row's slot is written by exactly one goroutine and read only after
// all of them finish.
func (o *ValidationOrchestrator) scanRows(ctx context.Context, t *Table) ([][]Issue, error) {
	findings := make([][]Issue, len(t.Rows))
	if len(o.rowValidators) == 0 {
		return findings, ctx.Err()
	}

	scan := func(ctx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if (i-start)%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			var issues []Issue
			for _, v := range o.rowValidators {
				issues = append(issues, v.ValidateRow(t.Rows[i], t.Columns)...)
			}
			findings[i] = issues
		}
		return nil
	}

	if o.workers < 2 || len(t.Rows) < 2 {
		if err := scan(ctx, 0, len(t.Rows)); err != nil {
			return nil, err
		}
		return findings, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	chunk := (len(t.Rows) + o.workers - 1) / o.workers
	for start := 0; start < len(t.Rows); start += chunk {
		end := min(start+chunk, len(t.Rows))
		g.Go(func() error {
			return scan(gctx, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return findings, nil
}
