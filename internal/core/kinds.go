package core

// kinds.go holds the enumerations shared by validators and cleaners.
//
// Validators emit ErrorKinds into the IssueIndex; cleaners record
// CorrectionKinds into the CorrectionReport. Both sides import the same
// definitions from here.

import (
	"encoding/json"
	"fmt"
)

// WildcardColumn is the column name used when an issue or correction applies
// to an entire row rather than a single cell.
const WildcardColumn = "*"

// ErrorKind classifies a problem detected by a validator.
type ErrorKind int

const (
	KindNull ErrorKind = iota + 1
	KindTypeMismatch
	KindDuplicate
	KindSchemaMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindDuplicate:
		return "duplicate"
	case KindSchemaMismatch:
		return "schema_mismatch"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ErrorKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for c := KindNull; c <= KindSchemaMismatch; c++ {
		if c.String() == s {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", s)
}

// CorrectionKind describes the repair a cleaner performed.
type CorrectionKind int

const (
	CorrectionRemovedNull CorrectionKind = iota + 1
	CorrectionFilledMean
	CorrectionFilledConstant
	CorrectionFilledMode
	CorrectionTypeFixed
	CorrectionRemovedDuplicate
)

func (k CorrectionKind) String() string {
	switch k {
	case CorrectionRemovedNull:
		return "removed-due-to-null"
	case CorrectionFilledMean:
		return "filled-by-mean"
	case CorrectionFilledConstant:
		return "filled-by-constant"
	case CorrectionFilledMode:
		return "filled-by-mode"
	case CorrectionTypeFixed:
		return "type-fixed"
	case CorrectionRemovedDuplicate:
		return "removed-duplicate"
	default:
		return fmt.Sprintf("correction_kind(%d)", int(k))
	}
}

func (k CorrectionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *CorrectionKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCorrectionKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseCorrectionKind converts the String form back into a CorrectionKind.
// Used when loading persisted reports.
func ParseCorrectionKind(s string) (CorrectionKind, error) {
	for k := CorrectionRemovedNull; k <= CorrectionRemovedDuplicate; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown correction kind %q", s)
}

// Counter names used in CorrectionReport.Counters.
const (
	CounterNullsFilled       = "nulls_filled"
	CounterNullsRemoved      = "nulls_removed"
	CounterTypesFixed        = "types_fixed"
	CounterDuplicatesRemoved = "duplicates_removed"
)

// CounterKeys lists every counter a merged report always carries.
var CounterKeys = []string{
	CounterNullsFilled,
	CounterNullsRemoved,
	CounterTypesFixed,
	CounterDuplicatesRemoved,
}

// counterFor returns the counter a correction kind contributes to.
func counterFor(k CorrectionKind) string {
	switch k {
	case CorrectionRemovedNull:
		return CounterNullsRemoved
	case CorrectionFilledMean, CorrectionFilledConstant, CorrectionFilledMode:
		return CounterNullsFilled
	case CorrectionTypeFixed:
		return CounterTypesFixed
	case CorrectionRemovedDuplicate:
		return CounterDuplicatesRemoved
	default:
		return ""
	}
}
