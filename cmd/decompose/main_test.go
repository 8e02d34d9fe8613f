package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/driver"
)

// A path A-B-C whose seven statements exceed a 1x1 grid.
const pathDoc = `{
  "statements": [
    {"text": "a1"}, {"text": "a2"}, {"text": "ab"},
    {"text": "b1"}, {"text": "bc"}, {"text": "c1"},
    {"text": "c2"}
  ],
  "entities": [{"name": "A"}, {"name": "B"}, {"name": "C"}],
  "entity_statements": {"0": [0, 1, 2], "1": [2, 3, 4], "2": [4, 5, 6]}
}`

const cliqueDoc = `{
  "statements": [{"text": "shared"}, {"text": "x"}, {"text": "y"}, {"text": "z"}, {"text": "w"}, {"text": "v"}],
  "entities": [{"name": "A"}, {"name": "B"}, {"name": "C"}],
  "entity_statements": {"0": [0, 1, 2], "1": [0, 3, 4], "2": [0, 5]}
}`

func executeCommand(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

const smallGrid = `
split:
  max_deletions: 1
optimizer:
  kind: capacity
  dimensions: 1
`

func TestRunWritesReport(t *testing.T) {
	input := writeFile(t, "path.json", pathDoc)
	cfg := writeFile(t, "decompose.yaml", smallGrid)

	stdout, stderr, err := executeCommand(context.Background(), "run", "--config", cfg, "--input", input)
	require.NoError(t, err)

	var rep report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, 3, rep.Entities)
	assert.Equal(t, []int{1}, rep.DeletedEntities)
	assert.Equal(t, 1, rep.Splits)
	require.Len(t, rep.Solutions, 2)
	assert.Equal(t, []int{0, 1, 2, 3}, rep.Solutions[0].StatementIDs)
	assert.Equal(t, []int{4, 5, 6}, rep.Solutions[1].StatementIDs)
	assert.Empty(t, rep.Unsolvable)
	assert.NotEmpty(t, rep.RunID)

	assert.Contains(t, stderr, "Decomposition "+rep.RunID)
}

func TestRunWritesReportFile(t *testing.T) {
	input := writeFile(t, "path.json", pathDoc)
	cfg := writeFile(t, "decompose.yaml", smallGrid)
	output := filepath.Join(t.TempDir(), "out", "report.json")

	stdout, _, err := executeCommand(context.Background(),
		"run", "-c", cfg, "-i", input, "-o", output, "--quiet", "--strategy", "greedy")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var rep report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Len(t, rep.Solutions, 2)
}

func TestRunReportsUnsolvable(t *testing.T) {
	input := writeFile(t, "clique.json", cliqueDoc)
	cfg := writeFile(t, "decompose.yaml", smallGrid)

	stdout, stderr, err := executeCommand(context.Background(), "run", "-c", cfg, "-i", input)
	require.ErrorIs(t, err, driver.ErrIndivisible)

	var rep report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	require.Len(t, rep.Unsolvable, 1)
	assert.Equal(t, []int{0, 1, 2}, rep.Unsolvable[0].EntityIDs)
	assert.Contains(t, stderr, "unsolvable")
}

func TestRunRequiresInput(t *testing.T) {
	_, _, err := executeCommand(context.Background(), "run")
	assert.Error(t, err)
}

func TestRunRejectsInvalidOverride(t *testing.T) {
	input := writeFile(t, "path.json", pathDoc)
	_, _, err := executeCommand(context.Background(), "run", "-i", input, "--max-deletions", "0")
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, _, err := executeCommand(ctx, "serve", "--addr", "inproc://decompose-serve-test")
	assert.NoError(t, err)
}
