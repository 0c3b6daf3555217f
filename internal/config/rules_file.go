package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/csvclean/internal/core"
)

// loadFile reads File, if set, into the rules that override the env values.
func (c *RulesConfig) loadFile() error {
	if c.File == "" {
		return nil
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}

	spec, err := ParseRules(data)
	if err != nil {
		return fmt.Errorf("rules file %s: %w", c.File, err)
	}
	c.file = spec
	return nil
}

// ParseRules decodes a YAML rules document. Unknown keys are rejected so a
// misspelled setting is not silently ignored. An empty document yields
// empty rules.
//
//	null_strategy: impute
//	impute_strategy: mean
//	type_mapping:
//	  age: integer
//	  signup: datetime
//	duplicate_strategy: keep_first
//	compare_columns: [name, email]
func ParseRules(data []byte) (core.RuleSpec, error) {
	var spec core.RuleSpec

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return core.RuleSpec{}, fmt.Errorf("decode rules: %w", err)
	}
	return spec, nil
}
