package core

// cleaning.go sequences the cleaners.
//
// The order is fixed: Null, then Type, then Duplicate. Null handling may
// remove rows, so type coercion does not spend work on cells about to be
// discarded; duplicate detection runs last so repaired rows are compared in
// their final form. Every cleaner receives the original IssueIndex and the
// table left by its predecessor.

import (
	"context"
	"fmt"
)

// CleaningOrchestrator runs the enabled cleaners in order and merges their
// reports.
type CleaningOrchestrator struct {
	cleaners []Cleaner
}

// NewCleaningOrchestrator builds the cleaner sequence for the given rules.
func NewCleaningOrchestrator(rules Rules) *CleaningOrchestrator {
	o := &CleaningOrchestrator{}

	if rules.Nulls != nil {
		o.cleaners = append(o.cleaners, NullCleaner{Strategy: rules.Nulls})
	}
	if rules.FixTypes {
		o.cleaners = append(o.cleaners, TypeCleaner{Mapping: rules.TypeMapping})
	}
	if rules.Duplicates != nil {
		o.cleaners = append(o.cleaners, DuplicateCleaner{
			Strategy: rules.Duplicates,
			Columns:  rules.CompareColumns,
		})
	}

	return o
}

// Cleaners returns the names of the cleaners that will run, in order.
func (o *CleaningOrchestrator) Cleaners() []string {
	names := make([]string, len(o.cleaners))
	for i, c := range o.cleaners {
		names[i] = c.Name()
	}
	return names
}

// StageResult records what one cleaner did.
type StageResult struct {
	Cleaner    string `json:"cleaner"`
	RowsBefore int    `json:"rows_before"`
	RowsAfter  int    `json:"rows_after"`
	Corrected  int    `json:"corrections"`
}

// Clean threads the table through each cleaner. Per-row correction lists
// concatenate in execution order and counters are summed. ctx is checked
// before every stage; a done context stops the run with its error.
func (o *CleaningOrchestrator) Clean(ctx context.Context, t *Table, issues IssueIndex) (*Table, *CorrectionReport, []StageResult, error) {
	current := t.Clone()
	merged := NewCorrectionReport()
	stages := make([]StageResult, 0, len(o.cleaners))

	for _, c := range o.cleaners {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("%s cleaner: %w", c.Name(), err)
		}

		before := current.Len()
		next, report := c.Clean(current, issues)

		stages = append(stages, StageResult{
			Cleaner:    c.Name(),
			RowsBefore: before,
			RowsAfter:  next.Len(),
			Corrected:  report.Total(),
		})

		merged.Merge(report)
		current = next
	}

	return current, merged, stages, nil
}
