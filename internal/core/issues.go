package core

import "sort"

// Issue is one problem found in a row.
type Issue struct {
	Column string    `json:"column"`
	Kind   ErrorKind `json:"kind"`
}

// IssueIndex maps a row to the problems found in it. A row appears only if it
// has at least one issue. The index is built once per validation pass and is
// read-only afterwards.
type IssueIndex map[RowID][]Issue

// add records an issue, ignoring an exact (column, kind) repeat.
func (idx IssueIndex) add(id RowID, issue Issue) {
	for _, existing := range idx[id] {
		if existing == issue {
			return
		}
	}
	idx[id] = append(idx[id], issue)
}

// merge records a full row's findings at once.
func (idx IssueIndex) merge(id RowID, issues []Issue) {
	for _, issue := range issues {
		idx.add(id, issue)
	}
}

// RowsWith returns the rows having at least one issue of the given kind,
// in ascending RowID order.
func (idx IssueIndex) RowsWith(kind ErrorKind) []RowID {
	var ids []RowID
	for id, issues := range idx {
		for _, is := range issues {
			if is.Kind == kind {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Columns returns the columns of a row flagged with the given kind, in the
// order they were recorded.
func (idx IssueIndex) Columns(id RowID, kind ErrorKind) []string {
	var cols []string
	for _, is := range idx[id] {
		if is.Kind == kind {
			cols = append(cols, is.Column)
		}
	}
	return cols
}

// Has reports whether the row carries the given (column, kind) pair.
func (idx IssueIndex) Has(id RowID, column string, kind ErrorKind) bool {
	for _, is := range idx[id] {
		if is.Column == column && is.Kind == kind {
			return true
		}
	}
	return false
}

// Count returns the total number of issues of the given kind.
func (idx IssueIndex) Count(kind ErrorKind) int {
	n := 0
	for _, issues := range idx {
		for _, is := range issues {
			if is.Kind == kind {
				n++
			}
		}
	}
	return n
}

// SortedIDs returns every indexed row in ascending order.
func (idx IssueIndex) SortedIDs() []RowID {
	ids := make([]RowID, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
