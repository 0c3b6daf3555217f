package core

// convert.go parses raw cell text into typed values and back into canonical
// text for the type cleaner.
//
// The parsers are lenient in the same way users' spreadsheets are messy:
//   - Multiple date layouts (US, EU, ISO), with 2-digit year pivoting
//   - Currency symbols, thousands separators, accounting negatives "(12.50)"
//   - Several boolean spellings (yes/no, true/false, t/f, 1/0)
//
// The validators use the strict patterns in validation.go; these parsers are
// only used once a cell has already been flagged.

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// MaxExponent bounds the decimal exponent ParseNumber accepts. Canonical text
// is written without exponents, so 1e200000000 would expand to a string of
// that many digits.
const MaxExponent = 1000

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// CanonicalDateLayout is the normalized output for datetime columns.
const CanonicalDateLayout = "2006-01-02"

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05",
		time.RFC3339,
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// ParseNumber converts a string to an exact decimal.
// Handles currency symbols, thousands separators, and accounting format.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > MaxExponent || exp < -MaxExponent {
		return decimal.Zero, false
	}
	return d, true
}

// ParseDate converts a string to a calendar time.
// Tries 4-digit year layouts first, then 2-digit years with the pivot applied.
// Impossible dates such as 2023-02-30 fail.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0 in any case.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

// FormatFloat renders a decimal so it always carries a fractional part.
func FormatFloat(d decimal.Decimal) string {
	if d.Exponent() >= 0 || d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}

// Coerce converts a raw value into the canonical text for the given type.
// Returns false when the value cannot represent that type.
func Coerce(value string, t ColumnType) (string, bool) {
	switch t {
	case ColumnInteger:
		d, ok := ParseNumber(value)
		if !ok {
			return "", false
		}
		return d.Truncate(0).String(), true

	case ColumnFloat:
		d, ok := ParseNumber(value)
		if !ok {
			return "", false
		}
		return FormatFloat(d), true

	case ColumnDatetime:
		ts, ok := ParseDate(value)
		if !ok {
			return "", false
		}
		return ts.Format(CanonicalDateLayout), true

	case ColumnBoolean:
		b, ok := ParseBool(value)
		if !ok {
			return "", false
		}
		if b {
			return "true", true
		}
		return "false", true

	case ColumnString:
		return value, true

	default:
		return "", false
	}
}
