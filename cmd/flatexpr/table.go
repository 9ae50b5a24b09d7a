package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/flatexpr"
)

// table is an operator table file. It selects operators and constants from
// the defaults and renames or reprioritizes them.
type table struct {
	// Grouping is "left" or "right". Empty means right.
	Grouping  string          `yaml:"grouping,omitempty"`
	Brackets  *bracketEntry   `yaml:"brackets,omitempty"`
	Operators []operatorEntry `yaml:"operators,omitempty"`
	Constants []constantEntry `yaml:"constants,omitempty"`
}

type bracketEntry struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

type operatorEntry struct {
	// Use is the name of a default operator.
	Use  string `yaml:"use"`
	Name string `yaml:"name,omitempty"`
	// Signs replaces the operator's signs if present. An empty list leaves
	// the operator with only its name.
	Signs    *[]string `yaml:"signs,omitempty"`
	Priority *int      `yaml:"priority,omitempty"`
}

type constantEntry struct {
	// Use is the name of a default constant recognizer.
	Use     string `yaml:"use"`
	Pattern string `yaml:"pattern,omitempty"`
}

// loadTable reads an operator table from a file.
func loadTable(name string, prec uint, left bool) (*flatexpr.Registry, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := readTable(f, prec, left)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return r, nil
}

// readTable decodes an operator table and builds its registry. If left is
// true, the registry groups from the left regardless of the table.
func readTable(in io.Reader, prec uint, left bool) (*flatexpr.Registry, error) {
	var t table
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && err != io.EOF {
		return nil, err
	}

	var opts []flatexpr.RegistryOption
	switch t.Grouping {
	case "", "right":
	case "left":
		left = true
	default:
		return nil, fmt.Errorf(`grouping must be "left" or "right", not %q`, t.Grouping)
	}
	if left {
		opts = append(opts, flatexpr.LeftToRight())
	}
	if t.Brackets != nil {
		b, err := brackets(t.Brackets.Open, t.Brackets.Close)
		if err != nil {
			return nil, err
		}
		opts = append(opts, b)
	}

	ops, err := t.operators(flatexpr.DefaultOperators(prec))
	if err != nil {
		return nil, err
	}
	consts, err := t.constants(flatexpr.DefaultConstants(prec))
	if err != nil {
		return nil, err
	}
	return flatexpr.NewRegistry(ops, consts, opts...)
}

// operators picks the table's operators from the presets. With no operator
// entries, all presets are used.
func (t *table) operators(presets []flatexpr.Operator) ([]flatexpr.Operator, error) {
	if len(t.Operators) == 0 {
		return presets, nil
	}
	byname := make(map[string]flatexpr.Operator, len(presets))
	for _, op := range presets {
		byname[op.Name] = op
	}
	r := make([]flatexpr.Operator, 0, len(t.Operators))
	for i, e := range t.Operators {
		op, ok := byname[e.Use]
		if !ok {
			return nil, fmt.Errorf("operator %d: no operator named %q", i+1, e.Use)
		}
		if e.Name != "" {
			op.Name = e.Name
		}
		if e.Signs != nil {
			op.Signs = *e.Signs
		}
		if e.Priority != nil {
			op.Priority = *e.Priority
		}
		r = append(r, op)
	}
	return r, nil
}

// constants picks the table's constant recognizers from the presets, in the
// table's order. With no constant entries, all presets are used.
func (t *table) constants(presets []flatexpr.Constant) ([]flatexpr.Constant, error) {
	if len(t.Constants) == 0 {
		return presets, nil
	}
	byname := make(map[string]flatexpr.Constant, len(presets))
	for _, c := range presets {
		byname[c.Name] = c
	}
	r := make([]flatexpr.Constant, 0, len(t.Constants))
	for i, e := range t.Constants {
		c, ok := byname[e.Use]
		if !ok {
			return nil, fmt.Errorf("constant %d: no constant named %q", i+1, e.Use)
		}
		if e.Pattern != "" {
			c.Pattern = e.Pattern
		}
		r = append(r, c)
	}
	return r, nil
}

// brackets creates a Brackets option, reporting bad bracket sets as errors.
func brackets(open, close string) (opt flatexpr.RegistryOption, err error) {
	defer func() {
		if p := recover(); p != nil {
			opt, err = nil, fmt.Errorf("brackets: %v", p)
		}
	}()
	return flatexpr.Brackets(open, close), nil
}
