package core

// strategy.go defines the policy variants that parameterize each cleaner.
//
// Each strategy family is a sealed interface; a variant carries only the
// parameters it needs. Cleaners switch on the concrete type.

import (
	"fmt"
	"strings"
)

// DefaultPlaceholder fills non-numeric nulls under FillConstant, and under
// FillMode when a column has no non-null values.
const DefaultPlaceholder = "unknown"

// NullStrategy selects how NullCleaner treats flagged cells.
type NullStrategy interface {
	isNullStrategy()
	String() string
}

// DropNulls removes every row that has a null issue.
type DropNulls struct{}

// ImputeNulls fills flagged cells. Numeric columns always take the column
// mean; Fill decides the value for every other column.
type ImputeNulls struct {
	Fill FillPolicy
}

func (DropNulls) isNullStrategy()   {}
func (ImputeNulls) isNullStrategy() {}

func (DropNulls) String() string { return "drop" }

func (s ImputeNulls) String() string {
	if s.Fill == nil {
		return "impute"
	}
	return "impute/" + s.Fill.String()
}

// FillPolicy selects the value used for non-numeric imputation.
type FillPolicy interface {
	isFillPolicy()
	String() string
}

// FillConstant writes a fixed placeholder.
type FillConstant struct {
	Value string
}

// FillMode writes the column's most frequent non-null value, or Placeholder
// when the column has none.
type FillMode struct {
	Placeholder string
}

func (FillConstant) isFillPolicy() {}
func (FillMode) isFillPolicy()     {}

func (FillConstant) String() string { return "constant" }
func (FillMode) String() string     { return "mode" }

// DuplicateStrategy selects how DuplicateCleaner resolves repeated rows.
type DuplicateStrategy interface {
	isDuplicateStrategy()
	String() string
}

// DropAllDuplicates removes every row the IssueIndex flags as a duplicate.
type DropAllDuplicates struct{}

// KeepFirst rescans the table and keeps the first occurrence of each row.
type KeepFirst struct{}

// KeepLast rescans the table and keeps the last occurrence of each row.
type KeepLast struct{}

func (DropAllDuplicates) isDuplicateStrategy() {}
func (KeepFirst) isDuplicateStrategy()         {}
func (KeepLast) isDuplicateStrategy()          {}

func (DropAllDuplicates) String() string { return "drop_all" }
func (KeepFirst) String() string         { return "keep_first" }
func (KeepLast) String() string          { return "keep_last" }

// ParseNullStrategy builds a NullStrategy from its configuration names.
// An empty or "none" name disables null cleaning and returns nil.
//
// Fill names: "constant" (alias "unknown") and "mode". "mean" is accepted and
// behaves like "constant", since numeric columns take the mean regardless.
func ParseNullStrategy(name, fill, placeholder string) (NullStrategy, error) {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "off":
		return nil, nil
	case "drop":
		return DropNulls{}, nil
	case "impute":
		switch strings.ToLower(strings.TrimSpace(fill)) {
		case "", "constant", "unknown", "mean":
			return ImputeNulls{Fill: FillConstant{Value: placeholder}}, nil
		case "mode":
			return ImputeNulls{Fill: FillMode{Placeholder: placeholder}}, nil
		default:
			return nil, fmt.Errorf("%w: unknown impute strategy %q (want constant, mean or mode)", ErrInvalidConfig, fill)
		}
	default:
		return nil, fmt.Errorf("%w: unknown null strategy %q (want drop or impute)", ErrInvalidConfig, name)
	}
}

// ParseDuplicateStrategy builds a DuplicateStrategy from its configuration
// name. An empty or "none" name disables duplicate cleaning and returns nil.
func ParseDuplicateStrategy(name string) (DuplicateStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "off":
		return nil, nil
	case "drop_all", "drop-all":
		return DropAllDuplicates{}, nil
	case "keep_first", "keep-first":
		return KeepFirst{}, nil
	case "keep_last", "keep-last":
		return KeepLast{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown duplicate strategy %q (want drop_all, keep_first or keep_last)", ErrInvalidConfig, name)
	}
}
