package core

import "sort"

// DuplicateCleaner removes repeated rows.
//
// DropAllDuplicates trusts the IssueIndex. KeepFirst and KeepLast rescan the
// current table and ignore the index, so rows repaired by earlier cleaners are
// compared in their cleaned form. The two approaches agree when the index was
// produced by DuplicateValidator over the same comparison columns.
type DuplicateCleaner struct {
	Strategy DuplicateStrategy

	// Columns restricts comparison to these columns; empty means all.
	Columns []string
}

func (DuplicateCleaner) Name() string { return "duplicate" }

// Clean removes duplicates and records one wildcard correction per removed row.
func (c DuplicateCleaner) Clean(t *Table, issues IssueIndex) (*Table, *CorrectionReport) {
	report := NewCorrectionReport()
	var remove map[RowID]bool

	switch c.Strategy.(type) {
	case DropAllDuplicates:
		remove = make(map[RowID]bool)
		present := t.positions()
		for _, id := range issues.RowsWith(KindDuplicate) {
			if _, ok := present[id]; ok {
				remove[id] = true
			}
		}
	case KeepFirst:
		remove = c.scan(t, false)
	case KeepLast:
		remove = c.scan(t, true)
	default:
		return t.Clone(), report
	}

	ids := make([]RowID, 0, len(remove))
	for id := range remove {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		report.Record(id, WildcardColumn, CorrectionRemovedDuplicate)
	}

	return t.without(remove), report
}

// scan marks every row whose compared content was already seen. Walking
// backwards keeps the last occurrence instead of the first.
func (c DuplicateCleaner) scan(t *Table, fromEnd bool) map[RowID]bool {
	cols := compareIndexes(t, c.Columns)
	seen := make(map[string]bool, len(t.Rows))
	remove := make(map[RowID]bool)

	visit := func(r Row) {
		key := rowKey(r, cols)
		if seen[key] {
			remove[r.ID] = true
			return
		}
		seen[key] = true
	}

	if fromEnd {
		for i := len(t.Rows) - 1; i >= 0; i-- {
			visit(t.Rows[i])
		}
	} else {
		for _, r := range t.Rows {
			visit(r)
		}
	}
	return remove
}
