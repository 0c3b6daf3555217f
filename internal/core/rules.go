package core

// rules.go holds the pipeline configuration.
//
// RuleSpec is the textual form that arrives from environment variables, rule
// files, or request bodies. Compile turns it into Rules, the typed and
// validated form the pipeline runs on. Every naming mistake is reported by
// Compile, before any row is touched.

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidConfig marks configuration errors. They are raised before any row
// is processed.
var ErrInvalidConfig = errors.New("invalid configuration")

// Rules is the compiled pipeline configuration. Treat it as immutable once
// passed to NewPipeline; the pipeline keeps its own copy.
type Rules struct {
	// Validators
	CheckNulls      bool
	CheckTypes      bool
	CheckDuplicates bool

	// TypeMapping maps column name to expected type. Columns absent from the
	// mapping are never flagged by the type validator.
	TypeMapping map[string]ColumnType

	// Cleaners. A nil strategy disables the corresponding cleaner.
	Nulls      NullStrategy
	FixTypes   bool
	Duplicates DuplicateStrategy

	// CompareColumns restricts duplicate comparison to these columns.
	// Empty means every column participates.
	CompareColumns []string

	// Workers bounds the parallel validation scan. Values below 2 scan
	// sequentially.
	Workers int
}

// clone returns a copy that shares nothing mutable with r.
func (r Rules) clone() Rules {
	out := r
	if r.TypeMapping != nil {
		out.TypeMapping = make(map[string]ColumnType, len(r.TypeMapping))
		for k, v := range r.TypeMapping {
			out.TypeMapping[k] = v
		}
	}
	out.CompareColumns = append([]string(nil), r.CompareColumns...)
	return out
}

// validate checks the parts of the rules that do not depend on a table.
func (r Rules) validate() error {
	var errs []string

	if r.FixTypes && len(r.TypeMapping) == 0 {
		errs = append(errs, "type cleaning is enabled but the type mapping is empty")
	}
	for col, t := range r.TypeMapping {
		if t == ColumnUnknown {
			errs = append(errs, fmt.Sprintf("column %q has no expected type", col))
		}
	}
	if s, ok := r.Nulls.(ImputeNulls); ok && s.Fill == nil {
		errs = append(errs, "impute null strategy has no fill policy")
	}
	if r.Workers < 0 {
		errs = append(errs, "workers must be non-negative")
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// checkSchema verifies that every column the rules name exists in the table.
func (r Rules) checkSchema(t *Table) error {
	var missing []string
	for col := range r.TypeMapping {
		if _, ok := t.ColumnIndex(col); !ok {
			missing = append(missing, col)
		}
	}
	for _, col := range r.CompareColumns {
		if _, ok := t.ColumnIndex(col); !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: unknown columns: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// RuleSpec is the textual pipeline configuration used by config files and
// request bodies.
type RuleSpec struct {
	NullStrategy      string            `json:"null_strategy,omitempty" yaml:"null_strategy"`
	ImputeStrategy    string            `json:"impute_strategy,omitempty" yaml:"impute_strategy"`
	Placeholder       string            `json:"placeholder,omitempty" yaml:"placeholder"`
	TypeMapping       map[string]string `json:"type_mapping,omitempty" yaml:"type_mapping"`
	FixTypes          *bool             `json:"fix_types,omitempty" yaml:"fix_types"`
	DuplicateStrategy string            `json:"duplicate_strategy,omitempty" yaml:"duplicate_strategy"`
	CompareColumns    []string          `json:"compare_columns,omitempty" yaml:"compare_columns"`

	// Validators lists enabled validators by name: "null", "type",
	// "duplicate". Nil enables those each configured cleaner depends on.
	Validators []string `json:"validators,omitempty" yaml:"validators"`
}

// Override returns a copy of s with every field set in o replacing its value.
func (s RuleSpec) Override(o RuleSpec) RuleSpec {
	out := s
	if o.NullStrategy != "" {
		out.NullStrategy = o.NullStrategy
	}
	if o.ImputeStrategy != "" {
		out.ImputeStrategy = o.ImputeStrategy
	}
	if o.Placeholder != "" {
		out.Placeholder = o.Placeholder
	}
	if o.TypeMapping != nil {
		out.TypeMapping = o.TypeMapping
	}
	if o.FixTypes != nil {
		out.FixTypes = o.FixTypes
	}
	if o.DuplicateStrategy != "" {
		out.DuplicateStrategy = o.DuplicateStrategy
	}
	if o.CompareColumns != nil {
		out.CompareColumns = o.CompareColumns
	}
	if o.Validators != nil {
		out.Validators = o.Validators
	}
	return out
}

// Compile converts the spec into Rules. All problems are reported together.
func (s RuleSpec) Compile() (Rules, error) {
	var errs []error
	rules := Rules{CompareColumns: append([]string(nil), s.CompareColumns...)}

	nulls, err := ParseNullStrategy(s.NullStrategy, s.ImputeStrategy, s.Placeholder)
	if err != nil {
		errs = append(errs, err)
	}
	rules.Nulls = nulls

	dups, err := ParseDuplicateStrategy(s.DuplicateStrategy)
	if err != nil {
		errs = append(errs, err)
	}
	rules.Duplicates = dups

	if len(s.TypeMapping) > 0 {
		rules.TypeMapping = make(map[string]ColumnType, len(s.TypeMapping))
		for col, name := range s.TypeMapping {
			t, err := ParseColumnType(name)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: column %q: %v", ErrInvalidConfig, col, err))
				continue
			}
			rules.TypeMapping[col] = t
		}
	}

	if s.FixTypes != nil {
		rules.FixTypes = *s.FixTypes
	} else {
		rules.FixTypes = len(rules.TypeMapping) > 0
	}

	if s.Validators == nil {
		rules.CheckNulls = rules.Nulls != nil
		rules.CheckTypes = len(rules.TypeMapping) > 0
		rules.CheckDuplicates = rules.Duplicates != nil
	} else {
		for _, v := range s.Validators {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "null":
				rules.CheckNulls = true
			case "type":
				rules.CheckTypes = true
			case "duplicate":
				rules.CheckDuplicates = true
			default:
				errs = append(errs, fmt.Errorf("%w: unknown validator %q", ErrInvalidConfig, v))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Rules{}, err
	}
	if err := rules.validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
