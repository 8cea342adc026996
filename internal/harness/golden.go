package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/burrowdb/burrow/internal/handle"
)

// Snapshot is the serialized form of a completed run, compared against
// golden files byte for byte.
type Snapshot struct {
	Scenario string       `json:"scenario"`
	Trace    []TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario file against st and compares the trace
// with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, path string, st handle.Store) error {
	t.Helper()

	scenario, err := LoadScenario(path)
	if err != nil {
		return err
	}
	result, err := Run(scenario, st)
	if err != nil {
		return err
	}

	snapshot := Snapshot{Scenario: scenario.Name, Trace: result.Trace}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
