package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a YAML-authored conformance test: one graph, many
// queries.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what behavior the scenario pins down.
	Description string `yaml:"description,omitempty"`

	// Graph is the CUE graph source path, relative to the scenario
	// file.
	Graph string `yaml:"graph"`

	// Queries are resolved in order, each with a fresh resolver.
	Queries []Query `yaml:"queries"`
}

// Query is one resolution request with its entity stand-in.
type Query struct {
	Name string `yaml:"name"`

	Callback int64 `yaml:"callback,omitempty"`
	Param    int64 `yaml:"param,omitempty"`

	// Vars binds entity variables on the stub scope. Unbound variables
	// read as unavailable.
	Vars []VarBinding `yaml:"vars,omitempty"`

	RandomBits int64 `yaml:"random_bits,omitempty"`
	Triggers   int64 `yaml:"triggers,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// VarBinding is one variable answer of the stub scope. A binding with
// AnyParam answers the variable regardless of parameter.
type VarBinding struct {
	Variable  int64 `yaml:"variable"`
	Parameter int64 `yaml:"parameter,omitempty"`
	AnyParam  bool  `yaml:"any_param,omitempty"`
	Value     int64 `yaml:"value"`
}

// Expect pins a query outcome. Nil fields are not checked.
type Expect struct {
	Result *int64 `yaml:"result,omitempty"`
	Reseed *int64 `yaml:"reseed,omitempty"`
}

// LoadScenario reads and decodes a scenario file, strictly: unknown
// YAML fields are errors, since a typoed expectation that silently
// checks nothing is worse than a failing one.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if sc.Graph == "" {
		return nil, fmt.Errorf("scenario %s: graph is required", path)
	}
	if len(sc.Queries) == 0 {
		return nil, fmt.Errorf("scenario %s: at least one query is required", path)
	}
	return &sc, nil
}
