package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDir = "../../testdata/scenarios"

func TestTestCommand_Pass(t *testing.T) {
	out, _, err := execute(t, "test", scenarioDir)
	require.NoError(t, err)

	assert.Contains(t, out, "PASS range_condition")
	assert.Contains(t, out, "PASS two_stage")
	assert.Contains(t, out, "4 passed, 0 failed, 4 total")
}

func TestTestCommand_FilterJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", scenarioDir, "--filter", "query_*")
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(1), data["passed"])
}

func TestTestCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	src := `
name: failing
description: expects the wrong keys
dataset:
  stars: [{handle: a}]
queries:
  - {name: q, query: "table,1,teff", expect: {keys: [b]}}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yaml"), []byte(src), 0o644))

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL failing")
	assert.Contains(t, out, "expected keys [b], got [a]")
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_Empty(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
