package core

import (
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue string
	}{
		// Valid: Basic numbers
		{"positive integer", "123", true, "123"},
		{"negative integer", "-456", true, "-456"},
		{"decimal number", "123.45", true, "123.45"},
		{"leading decimal point", ".99", true, "0.99"},
		{"trailing decimal point", "99.", true, "99"},
		{"scientific notation", "1e3", true, "1000"},

		// Valid: Spreadsheet formatting
		{"dollar sign", "$1,234.56", true, "1234.56"},
		{"euro sign", "€1234.56", true, "1234.56"},
		{"accounting negative", "(12.50)", true, "-12.5"},
		{"surrounding whitespace", "  42  ", true, "42"},

		// Invalid
		{"empty", "", false, ""},
		{"text", "abc", false, ""},
		{"two points", "1.2.3", false, ""},
		{"unit suffix", "12kg", false, ""},
		{"huge exponent", "1e200000000", false, ""},
		{"tiny exponent", "1e-200000000", false, ""},
		{"exponent past bound", "1e1001", false, ""},
		{"negative exponent at bound", "1e-1000", true, "0." + strings.Repeat("0", 999) + "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && got.String() != tt.wantValue {
				t.Errorf("ParseNumber(%q) = %s, want %s", tt.input, got.String(), tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2023-01-15", "2023-01-15", true},
		{"2023-01-15 08:30:00", "2023-01-15", true},
		{"2023-01-15T08:30:00", "2023-01-15", true},
		{"03/15/2023", "2023-03-15", true},
		{"2023/03/15", "2023-03-15", true},
		{"Jan 5, 2023", "2023-01-05", true},
		{"20230315", "2023-03-15", true},
		{"3/15/99", "1999-03-15", true},
		{"2023-02-30", "", false},
		{"invalid", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got.Format(CanonicalDateLayout) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format(CanonicalDateLayout), tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseBool Tests
// ----------------------------------------------------------------------------

func TestParseBool(t *testing.T) {
	tests := []struct {
		input     string
		wantValue bool
		wantOK    bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"yes", true, true},
		{"Y", true, true},
		{"1", true, true},
		{"false", false, true},
		{"No", false, true},
		{"f", false, true},
		{"0", false, true},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		value, ok := ParseBool(tt.input)
		if value != tt.wantValue || ok != tt.wantOK {
			t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tt.input, value, ok, tt.wantValue, tt.wantOK)
		}
	}
}

// ----------------------------------------------------------------------------
// Coerce Tests
// ----------------------------------------------------------------------------

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		value string
		typ   ColumnType
		want  string
		ok    bool
	}{
		{"integer truncates mean", "27.5", ColumnInteger, "27", true},
		{"integer truncates toward zero", "-3.9", ColumnInteger, "-3", true},
		{"integer strips formatting", "$1,200", ColumnInteger, "1200", true},
		{"integer from text fails", "thirty", ColumnInteger, "", false},
		{"integer huge exponent fails", "1e200000000", ColumnInteger, "", false},
		{"float huge exponent fails", "1e300000000", ColumnFloat, "", false},
		{"float gains fraction", "3", ColumnFloat, "3.0", true},
		{"float trims zeros", "2.50", ColumnFloat, "2.5", true},
		{"float whole decimal", "4.00", ColumnFloat, "4.0", true},
		{"datetime normalized", "03/15/2023", ColumnDatetime, "2023-03-15", true},
		{"datetime impossible", "2023-02-30", ColumnDatetime, "", false},
		{"boolean yes", "yes", ColumnBoolean, "true", true},
		{"boolean zero", "0", ColumnBoolean, "false", true},
		{"boolean unknown", "maybe", ColumnBoolean, "", false},
		{"string passes through", " x ", ColumnString, " x ", true},
		{"unknown type fails", "x", ColumnUnknown, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Coerce(tt.value, tt.typ)
			if ok != tt.ok {
				t.Fatalf("Coerce(%q, %s) ok = %v, want %v", tt.value, tt.typ, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Coerce(%q, %s) = %q, want %q", tt.value, tt.typ, got, tt.want)
			}
		})
	}
}

// Canonical output must pass the strict validator for its type, otherwise a
// cleaned table would be flagged again on the next run.
func TestCoerce_OutputMatchesType(t *testing.T) {
	inputs := map[ColumnType][]string{
		ColumnInteger:  {"27.5", "-3.9", "$1,200", "1e2"},
		ColumnFloat:    {"3", "2.50", "(1.25)"},
		ColumnDatetime: {"03/15/2023", "Jan 5, 2023", "2023-01-15T08:30:00"},
		ColumnBoolean:  {"yes", "N", "1"},
	}

	for typ, values := range inputs {
		for _, v := range values {
			got, ok := Coerce(v, typ)
			if !ok {
				t.Errorf("Coerce(%q, %s) failed", v, typ)
				continue
			}
			if !matchesType(got, typ) {
				t.Errorf("Coerce(%q, %s) = %q, which does not match %s", v, typ, got, typ)
			}
		}
	}
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		input   string
		want    ColumnType
		wantErr bool
	}{
		{"int", ColumnInteger, false},
		{"Integer", ColumnInteger, false},
		{"float", ColumnFloat, false},
		{"str", ColumnString, false},
		{"bool", ColumnBoolean, false},
		{"date", ColumnDatetime, false},
		{" datetime ", ColumnDatetime, false},
		{"money", ColumnUnknown, true},
	}

	for _, tt := range tests {
		got, err := ParseColumnType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColumnType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseColumnType(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}
