package core

import (
	"errors"
	"strings"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestRuleSpec_Compile(t *testing.T) {
	tests := []struct {
		name  string
		spec  RuleSpec
		check func(t *testing.T, r Rules)
	}{
		{
			name: "empty spec disables everything",
			spec: RuleSpec{},
			check: func(t *testing.T, r Rules) {
				if r.Nulls != nil || r.Duplicates != nil || r.FixTypes {
					t.Errorf("rules = %+v, want all cleaners off", r)
				}
				if r.CheckNulls || r.CheckTypes || r.CheckDuplicates {
					t.Errorf("rules = %+v, want all validators off", r)
				}
			},
		},
		{
			name: "impute mode with placeholder",
			spec: RuleSpec{NullStrategy: "impute", ImputeStrategy: "mode", Placeholder: "?"},
			check: func(t *testing.T, r Rules) {
				s, ok := r.Nulls.(ImputeNulls)
				if !ok {
					t.Fatalf("Nulls = %T, want ImputeNulls", r.Nulls)
				}
				if f, ok := s.Fill.(FillMode); !ok || f.Placeholder != "?" {
					t.Errorf("Fill = %#v, want FillMode{?}", s.Fill)
				}
				if !r.CheckNulls {
					t.Error("null validator should follow the null cleaner")
				}
			},
		},
		{
			name: "mean behaves like constant",
			spec: RuleSpec{NullStrategy: "impute", ImputeStrategy: "mean"},
			check: func(t *testing.T, r Rules) {
				if s := r.Nulls.(ImputeNulls); s.Fill != (FillConstant{Value: DefaultPlaceholder}) {
					t.Errorf("Fill = %#v, want FillConstant{unknown}", s.Fill)
				}
			},
		},
		{
			name: "type mapping enables type fixing",
			spec: RuleSpec{TypeMapping: map[string]string{"a": "int"}},
			check: func(t *testing.T, r Rules) {
				if !r.FixTypes || !r.CheckTypes {
					t.Errorf("rules = %+v, want type checking and fixing", r)
				}
				if r.TypeMapping["a"] != ColumnInteger {
					t.Errorf("TypeMapping = %v", r.TypeMapping)
				}
			},
		},
		{
			name: "fix types can be turned off",
			spec: RuleSpec{TypeMapping: map[string]string{"a": "int"}, FixTypes: boolPtr(false)},
			check: func(t *testing.T, r Rules) {
				if r.FixTypes || !r.CheckTypes {
					t.Errorf("rules = %+v, want checking without fixing", r)
				}
			},
		},
		{
			name: "explicit validators",
			spec: RuleSpec{DuplicateStrategy: "keep_last", Validators: []string{"null"}},
			check: func(t *testing.T, r Rules) {
				if !r.CheckNulls || r.CheckDuplicates {
					t.Errorf("rules = %+v, want only the null validator", r)
				}
				if _, ok := r.Duplicates.(KeepLast); !ok {
					t.Errorf("Duplicates = %T, want KeepLast", r.Duplicates)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.spec.Compile()
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			tt.check(t, r)
		})
	}
}

func TestRuleSpec_CompileErrors(t *testing.T) {
	spec := RuleSpec{
		NullStrategy:      "ignore",
		DuplicateStrategy: "keep_middle",
		TypeMapping:       map[string]string{"a": "money"},
		Validators:        []string{"spelling"},
	}

	_, err := spec.Compile()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Compile() error = %v, want ErrInvalidConfig", err)
	}
	for _, want := range []string{"null strategy", "duplicate strategy", "unknown column type", "unknown validator"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestRuleSpec_FixTypesNeedsMapping(t *testing.T) {
	_, err := RuleSpec{FixTypes: boolPtr(true)}.Compile()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Compile() error = %v, want ErrInvalidConfig", err)
	}
}

func TestRuleSpec_Override(t *testing.T) {
	base := RuleSpec{
		NullStrategy:      "impute",
		ImputeStrategy:    "mean",
		DuplicateStrategy: "keep_first",
		TypeMapping:       map[string]string{"a": "int"},
	}

	got := base.Override(RuleSpec{
		DuplicateStrategy: "none",
		TypeMapping:       map[string]string{},
		FixTypes:          boolPtr(false),
	})

	if got.NullStrategy != "impute" || got.ImputeStrategy != "mean" {
		t.Errorf("unset fields changed: %+v", got)
	}
	if got.DuplicateStrategy != "none" {
		t.Errorf("DuplicateStrategy = %q, want none", got.DuplicateStrategy)
	}
	if got.TypeMapping == nil || len(got.TypeMapping) != 0 {
		t.Errorf("TypeMapping = %v, want the empty override", got.TypeMapping)
	}
	if got.FixTypes == nil || *got.FixTypes {
		t.Error("FixTypes override lost")
	}
	if base.DuplicateStrategy != "keep_first" {
		t.Error("Override modified the receiver")
	}
}

func TestParseDuplicateStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    DuplicateStrategy
		wantErr bool
	}{
		{"", nil, false},
		{"none", nil, false},
		{"drop_all", DropAllDuplicates{}, false},
		{"keep-first", KeepFirst{}, false},
		{"KEEP_LAST", KeepLast{}, false},
		{"keep_some", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseDuplicateStrategy(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuplicateStrategy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDuplicateStrategy(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []Cell
		want   ColumnType
	}{
		{"integers", []Cell{Text("1"), Text("-2"), Missing()}, ColumnInteger},
		{"mixed numbers", []Cell{Text("1"), Text("2.5")}, ColumnFloat},
		{"booleans", []Cell{Text("yes"), Text("no")}, ColumnBoolean},
		{"dates", []Cell{Text("2023-01-01"), Text("2024-12-31 08:00:00")}, ColumnDatetime},
		{"text", []Cell{Text("1"), Text("abc")}, ColumnString},
		{"nothing present", []Cell{Missing(), Text("")}, ColumnUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferColumnType(tt.values); got != tt.want {
				t.Errorf("InferColumnType() = %s, want %s", got, tt.want)
			}
		})
	}
}
