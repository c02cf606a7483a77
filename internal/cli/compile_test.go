package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grfkit/grfscope/internal/ir"
)

func TestCompileText(t *testing.T) {
	path := writeGraph(t, dispatchGraphCUE)

	out, _, err := execute(t, "compile", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Compiled "dispatch": 4 group(s)`)
	assert.Contains(t, out, "hash: ")
}

func TestCompileJSON(t *testing.T) {
	path := writeGraph(t, dispatchGraphCUE)

	out, _, err := execute(t, "--format", "json", "compile", path)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "dispatch", resp.Data.Name)
	assert.Equal(t, 4, resp.Data.Groups)
	assert.Len(t, resp.Data.Hash, 64)
}

func TestCompileWritesCanonicalOutput(t *testing.T) {
	path := writeGraph(t, dispatchGraphCUE)
	outFile := filepath.Join(t.TempDir(), "graph.json")

	_, _, err := execute(t, "compile", path, "-o", outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	// The written form is already canonical: re-canonicalizing is the
	// identity.
	v, err := ir.FromJSON(data)
	require.NoError(t, err)
	again, err := ir.MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestCompileHashIgnoresSpelling(t *testing.T) {
	// Same graph, fields in a different order.
	reordered := `graph: {
	root: "switch"
	groups: [
		{
			kind: "deterministic"
			name: "switch"
			size: "dword"
			default: "fail"
			adjusts: [{variable: 0x0C, op: "rst", and_mask: 0xFFFFFFFF}]
			ranges: [
				{low: 0x15, high: 0x15, group: "refit_cost"},
				{group: "modify", low: 0x36, high: 0x36},
			]
		},
		{name: "refit_cost", kind: "callback_result", result: 0x20},
		{name: "modify", kind: "callback_result", result: 0x100},
		{name: "fail", kind: "callback_result", result: 0x7FFF},
	]
	name: "dispatch"
}
`
	hashOf := func(src string) string {
		out, _, err := execute(t, "--format", "json", "compile", writeGraph(t, src))
		require.NoError(t, err)
		var resp struct {
			Data CompileResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.Hash
	}

	assert.Equal(t, hashOf(dispatchGraphCUE), hashOf(reordered))
}

func TestCompileMissingFile(t *testing.T) {
	_, _, err := execute(t, "compile", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileInvalidGraphFails(t *testing.T) {
	path := writeGraph(t, `graph: {
	name: "bad"
	root: "missing"
	groups: [{name: "leaf", kind: "callback_result", result: 1}]
}
`)
	out, _, err := execute(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E101")
}
