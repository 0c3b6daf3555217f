package core

// InferColumnType guesses a column's logical type from its present values.
// The narrowest type every value satisfies wins: integer, float, boolean,
// datetime, then string. A column with no present values stays unknown.
func InferColumnType(values []Cell) ColumnType {
	seen := 0
	isInt, isFloat, isBool, isDate := true, true, true, true

	for _, c := range values {
		if c.IsMissing() || c.Value == "" {
			continue
		}
		seen++
		v := c.Value

		if isInt && !matchesType(v, ColumnInteger) {
			isInt = false
		}
		if isFloat && !matchesType(v, ColumnInteger) && !matchesType(v, ColumnFloat) {
			isFloat = false
		}
		if isBool && !matchesType(v, ColumnBoolean) {
			isBool = false
		}
		if isDate && !matchesType(v, ColumnDatetime) {
			isDate = false
		}
	}

	switch {
	case seen == 0:
		return ColumnUnknown
	case isInt:
		return ColumnInteger
	case isFloat:
		return ColumnFloat
	case isBool:
		return ColumnBoolean
	case isDate:
		return ColumnDatetime
	default:
		return ColumnString
	}
}

// resolveColumnTypes returns a copy of the table whose schema carries the
// declared type from mapping, or the inferred type for unmapped columns
// that arrived without one.
func resolveColumnTypes(t *Table, mapping map[string]ColumnType) *Table {
	out := t.Clone()
	for i, col := range out.Columns {
		if declared, ok := mapping[col.Name]; ok {
			out.Columns[i].Type = declared
			continue
		}
		if col.Type != ColumnUnknown {
			continue
		}
		values := make([]Cell, 0, len(out.Rows))
		for _, r := range out.Rows {
			values = append(values, r.Cells[i])
		}
		out.Columns[i].Type = InferColumnType(values)
	}
	return out
}
