// Package core provides the validation and cleaning pipeline for tabular data.
//
// The package holds all domain logic and has no transport or storage
// dependencies. Web handlers, CLI tools and tests use it the same way.
//
// # Architecture
//
// A run moves a [Table] through two phases:
//
//   - Validation: the [ValidationOrchestrator] runs the enabled validators and
//     collects their findings into an [IssueIndex]. Nothing is modified.
//   - Cleaning: the [CleaningOrchestrator] threads the table through the
//     enabled cleaners (null, then type, then duplicate). Each cleaner returns
//     a new table and a [CorrectionReport]; the reports are merged.
//
// [Pipeline] ties the two together under one set of [Rules]. [Service] adds
// what a server needs around it: bounded concurrency, a run timeout, an LRU
// cache of finished runs and an optional [RunStore].
//
// # Rules
//
// Rules arrive as a [RuleSpec] (strings from env vars, YAML or JSON) and are
// compiled once:
//
//	spec := core.RuleSpec{
//	    NullStrategy:      "impute",
//	    ImputeStrategy:    "mode",
//	    TypeMapping:       map[string]string{"age": "int", "signup": "date"},
//	    DuplicateStrategy: "keep_first",
//	}
//	rules, err := spec.Compile()
//
// Every naming mistake is reported by Compile or by [Pipeline.Run] before any
// row is read, wrapped in [ErrInvalidConfig].
//
// # Row Identity
//
// Each row carries the [RowID] it was given at ingestion. Cleaners that drop
// rows never renumber the rest, so issues and corrections always refer to the
// row of the original file.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError]. Each
// category has a code for support reference:
//
//   - CFG001-CFG005: Rule configuration errors
//   - FILE001-FILE006: Upload and parsing errors
//   - RUN002-RUN005: Run admission, lookup and timeouts
//   - RATE001: Per-client rate limit
//   - DB004-DB006: Database errors
package core
