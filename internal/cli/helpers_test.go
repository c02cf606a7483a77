package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const dispatchGraphCUE = `graph: {
	name: "dispatch"
	root: "switch"
	groups: [
		{
			name: "switch"
			kind: "deterministic"
			size: "dword"
			adjusts: [{op: "rst", variable: 0x0C, and_mask: 0xFFFFFFFF}]
			ranges: [
				{low: 0x15, high: 0x15, group: "refit_cost"},
				{low: 0x36, high: 0x36, group: "modify"},
			]
			default: "fail"
		},
		{name: "refit_cost", kind: "callback_result", result: 0x20},
		{name: "modify", kind: "callback_result", result: 0x100},
		{name: "fail", kind: "callback_result", result: 0x7FFF},
	]
}
`

// execute runs the CLI with captured output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeGraph(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
