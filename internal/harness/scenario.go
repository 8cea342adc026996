package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/burrowdb/burrow/internal/schemafile"
)

// Scenario is one YAML scenario file: a schema, the root type to
// instantiate, and the steps to run against it.
type Scenario struct {
	Name   string              `yaml:"name"`
	Schema schemafile.Document `yaml:"schema"`
	Root   string              `yaml:"root"`
	Steps  []Step              `yaml:"steps"`
}

// LoadScenario reads and strictly decodes a scenario file. Unknown fields
// are errors so scripts fail loudly on typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harness: read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes scenario bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("harness: parse scenario: %w", err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("harness: scenario needs a name")
	}
	if sc.Root == "" {
		return nil, fmt.Errorf("harness: scenario %q needs a root type", sc.Name)
	}
	return &sc, nil
}
