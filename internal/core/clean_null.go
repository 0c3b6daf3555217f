package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Cleaner repairs or discards the rows and cells flagged with the issue kind
// it owns. Clean never modifies its inputs and only acts on rows still
// present in t, which may be smaller than the table the index was built for.
type Cleaner interface {
	Name() string
	Clean(t *Table, issues IssueIndex) (*Table, *CorrectionReport)
}

// NullCleaner handles cells flagged Null.
type NullCleaner struct {
	Strategy NullStrategy
}

func (NullCleaner) Name() string { return "null" }

// Clean drops or imputes flagged cells according to the strategy.
func (c NullCleaner) Clean(t *Table, issues IssueIndex) (*Table, *CorrectionReport) {
	switch s := c.Strategy.(type) {
	case DropNulls:
		return c.drop(t, issues)
	case ImputeNulls:
		return c.impute(t, issues, s.Fill)
	default:
		return t.Clone(), NewCorrectionReport()
	}
}

// drop removes every present row flagged Null, recording one wildcard
// correction per removed row.
func (c NullCleaner) drop(t *Table, issues IssueIndex) (*Table, *CorrectionReport) {
	report := NewCorrectionReport()
	remove := make(map[RowID]bool)
	present := t.positions()

	for _, id := range issues.RowsWith(KindNull) {
		if _, ok := present[id]; !ok {
			continue
		}
		remove[id] = true
		report.Record(id, WildcardColumn, CorrectionRemovedNull)
	}

	return t.without(remove), report
}

// impute fills flagged cells that are still empty. Fill values are computed
// once per column from the input table, before any cell is written.
func (c NullCleaner) impute(t *Table, issues IssueIndex, fill FillPolicy) (*Table, *CorrectionReport) {
	out := t.Clone()
	report := NewCorrectionReport()
	fills := make(map[string]columnFill)

	for _, row := range out.Rows {
		for _, col := range issues.Columns(row.ID, KindNull) {
			i, ok := out.ColumnIndex(col)
			if !ok {
				continue
			}
			cell := row.Cells[i]
			if !cell.IsMissing() && cell.Value != "" {
				continue
			}

			f, ok := fills[col]
			if !ok {
				f = computeFill(t, i, fill)
				fills[col] = f
			}

			row.Cells[i] = Text(f.value)
			report.Record(row.ID, col, f.kind)
		}
	}

	return out, report
}

type columnFill struct {
	value string
	kind  CorrectionKind
}

// computeFill decides the replacement for one column. Numeric columns take
// the exact mean of their parseable values, or 0 when there are none; integer
// columns keep the fraction until the type cleaner casts them. Other columns
// follow the fill policy. A mode fill with no values to count falls back to
// the placeholder and is recorded as a constant fill.
func computeFill(t *Table, col int, fill FillPolicy) columnFill {
	if t.Columns[col].Type.Numeric() {
		return columnFill{value: columnMean(t, col).String(), kind: CorrectionFilledMean}
	}

	switch f := fill.(type) {
	case FillMode:
		if v, ok := columnMode(t, col); ok {
			return columnFill{value: v, kind: CorrectionFilledMode}
		}
		return columnFill{value: placeholderOr(f.Placeholder), kind: CorrectionFilledConstant}
	case FillConstant:
		return columnFill{value: placeholderOr(f.Value), kind: CorrectionFilledConstant}
	default:
		return columnFill{value: DefaultPlaceholder, kind: CorrectionFilledConstant}
	}
}

func placeholderOr(s string) string {
	if s == "" {
		return DefaultPlaceholder
	}
	return s
}

// columnMean returns the exact arithmetic mean of the column's numeric values.
func columnMean(t *Table, col int) decimal.Decimal {
	sum := decimal.Zero
	n := int64(0)
	for _, r := range t.Rows {
		c := r.Cells[col]
		if c.IsMissing() {
			continue
		}
		if d, ok := ParseNumber(c.Value); ok {
			sum = sum.Add(d)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(n))
}

// columnMode returns the most frequent non-empty value. Ties go to the
// smallest value so the result does not depend on row order.
func columnMode(t *Table, col int) (string, bool) {
	counts := make(map[string]int)
	for _, r := range t.Rows {
		c := r.Cells[col]
		if c.IsMissing() || c.Value == "" {
			continue
		}
		counts[c.Value]++
	}
	if len(counts) == 0 {
		return "", false
	}

	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)

	best := values[0]
	for _, v := range values[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}
