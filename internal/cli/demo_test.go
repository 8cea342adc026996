package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoMemory(t *testing.T) {
	out, err := runCLI(t, "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "memory backend")
	assert.Contains(t, out, "Frequency: 4")
	assert.Contains(t, out, `Name: "Something"`)
	assert.Contains(t, out, "IsHappy: true")
	assert.Contains(t, out, "Tags: sample, demo")
}

func TestDemoSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.db")
	out, err := runCLI(t, "demo", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite backend")
	assert.Contains(t, out, "Frequency: 4")
}

func TestDemoJSON(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "demo")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result DemoResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "memory", result.Backend)
	assert.Equal(t, "Stuff", result.Type)
	assert.Equal(t, uint32(4), result.Frequency)
	assert.Equal(t, "Something", result.Name)
	assert.True(t, result.IsHappy)
	assert.Equal(t, []string{"sample", "demo"}, result.Tags)
}
