package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pipeline runs validation followed by cleaning under one set of rules.
type Pipeline struct {
	rules Rules
}

// NewPipeline validates the rules and returns a pipeline holding its own copy.
// Configuration errors are returned here, before any table is seen.
func NewPipeline(rules Rules) (*Pipeline, error) {
	if err := rules.validate(); err != nil {
		return nil, err
	}
	return &Pipeline{rules: rules.clone()}, nil
}

// Rules returns a copy of the pipeline's configuration.
func (p *Pipeline) Rules() Rules {
	return p.rules.clone()
}

// Result is the outcome of one pipeline run.
type Result struct {
	Columns  []Column          `json:"columns"`
	RowsIn   int               `json:"rows_in"`
	RowsOut  int               `json:"rows_out"`
	Issues   IssueIndex        `json:"issues"`
	Table    *Table            `json:"table"`
	Report   *CorrectionReport `json:"report"`
	Stages   []StageResult     `json:"stages"`
	Duration time.Duration     `json:"duration"`
}

// IssueCount returns the number of issues of each kind found by validation.
func (r *Result) IssueCount() map[string]int {
	counts := make(map[string]int)
	for _, issues := range r.Issues {
		for _, is := range issues {
			counts[is.Kind.String()]++
		}
	}
	return counts
}

// Run validates and cleans t. The input table is not modified.
//
// Column names referenced by the rules are checked against the table before
// any row is scanned. Column types come from the type mapping, or are
// inferred for unmapped columns that arrive untyped. The run stops with ctx's
// error once ctx is done.
func (p *Pipeline) Run(ctx context.Context, t *Table) (*Result, error) {
	if t == nil {
		return nil, fmt.Errorf("run pipeline: nil table")
	}
	if err := p.rules.checkSchema(t); err != nil {
		return nil, err
	}

	start := time.Now()
	typed := resolveColumnTypes(t, p.rules.TypeMapping)

	validator := NewValidationOrchestrator(p.rules)
	issues, err := validator.Validate(ctx, typed)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	slog.DebugContext(ctx, "validation complete",
		"rows", typed.Len(),
		"rows_with_issues", len(issues),
		"validators", validator.Validators(),
	)

	cleaner := NewCleaningOrchestrator(p.rules)
	cleaned, report, stages, err := cleaner.Clean(ctx, typed, issues)
	if err != nil {
		return nil, err
	}

	for _, st := range stages {
		slog.DebugContext(ctx, "cleaner finished",
			"cleaner", st.Cleaner,
			"rows_before", st.RowsBefore,
			"rows_after", st.RowsAfter,
			"corrections", st.Corrected,
		)
	}

	if err := report.Check(); err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	return &Result{
		Columns:  typed.Columns,
		RowsIn:   t.Len(),
		RowsOut:  cleaned.Len(),
		Issues:   issues,
		Table:    cleaned,
		Report:   report,
		Stages:   stages,
		Duration: time.Since(start),
	}, nil
}
