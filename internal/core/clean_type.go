package core

// TypeCleaner coerces cells flagged TypeMismatch to their expected type.
//
// A cell that cannot be coerced becomes the missing-value sentinel; its row is
// kept and no correction is recorded. A coercion that changes the value is
// recorded as type-fixed. A value already in canonical form is left alone, so
// running the cleaner again over its own output records nothing new.
type TypeCleaner struct {
	Mapping map[string]ColumnType
}

func (TypeCleaner) Name() string { return "type" }

// Clean coerces every flagged cell of the rows still present in t.
func (c TypeCleaner) Clean(t *Table, issues IssueIndex) (*Table, *CorrectionReport) {
	out := t.Clone()
	report := NewCorrectionReport()

	for _, row := range out.Rows {
		for _, col := range issues.Columns(row.ID, KindTypeMismatch) {
			i, ok := out.ColumnIndex(col)
			if !ok {
				continue
			}
			expected, ok := c.Mapping[col]
			if !ok {
				expected = out.Columns[i].Type
			}
			if expected == ColumnUnknown {
				continue
			}

			cell := row.Cells[i]
			if cell.IsMissing() {
				continue
			}

			fixed, ok := Coerce(cell.Value, expected)
			if !ok {
				row.Cells[i] = Missing()
				continue
			}
			if fixed == cell.Value {
				continue
			}

			row.Cells[i] = Text(fixed)
			report.Record(row.ID, col, CorrectionTypeFixed)
		}
	}

	return out, report
}
