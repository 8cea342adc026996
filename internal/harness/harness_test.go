package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowdb/burrow/internal/handle"
	"github.com/burrowdb/burrow/internal/memstore"
	"github.com/burrowdb/burrow/internal/sqlstore"
)

func scenarioFiles(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	return files
}

// Both backends must produce byte-identical traces: the protocol, not the
// storage, defines the semantics.

func TestScenariosMemory(t *testing.T) {
	for _, path := range scenarioFiles(t) {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".yaml"), func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, path, memstore.New()))
		})
	}
}

func TestScenariosSQLite(t *testing.T) {
	for _, path := range scenarioFiles(t) {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".yaml"), func(t *testing.T) {
			st, err := sqlstore.Open(filepath.Join(t.TempDir(), "harness.db"))
			require.NoError(t, err)
			defer st.Close()
			require.NoError(t, RunWithGolden(t, path, st))
		})
	}
}

func TestParseScenarioStrict(t *testing.T) {
	_, err := ParseScenario([]byte("name: x\nroot: T\nstepz: []\n"))
	require.Error(t, err)
}

func TestParseScenarioRequiresName(t *testing.T) {
	_, err := ParseScenario([]byte("root: T\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestRunUnknownRootType(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: bad-root
schema:
  types:
    - name: A
      struct:
        - name: N
          type: int
root: B
steps: []
`))
	require.NoError(t, err)
	_, err = Run(sc, memstore.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no type "B"`)
}

func TestRunRecordsStepErrors(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: errors
schema:
  types:
    - name: A
      struct:
        - name: N
          type: int
root: A
steps:
  - op: get
    path: N
  - op: size
    path: N
  - op: get
    path: Missing
`))
	require.NoError(t, err)

	res, err := Run(sc, memstore.New())
	require.NoError(t, err)
	require.Len(t, res.Trace, 3)

	assert.Empty(t, res.Trace[0].Error)
	assert.Equal(t, "type_incompatible", res.Trace[1].Error)
	assert.Equal(t, "type_incompatible", res.Trace[2].Error)
}

var _ handle.Store = (*memstore.Store)(nil)
var _ handle.Store = (*sqlstore.Store)(nil)
