package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario("testdata/refit.yaml")
	require.NoError(t, err)

	assert.Equal(t, "callback-dispatch", sc.Name)
	assert.Equal(t, "refit.cue", sc.Graph)
	require.Len(t, sc.Queries, 3)

	q := sc.Queries[0]
	assert.Equal(t, "refit_cost", q.Name)
	assert.Equal(t, int64(0x15), q.Callback)
	require.NotNil(t, q.Expect)
	require.NotNil(t, q.Expect.Result)
	assert.Equal(t, int64(0x20), *q.Expect.Result)
	assert.Nil(t, q.Expect.Reseed)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
graph: g.cue
queries:
  - name: q
    calback: 0x15
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calback")
}

func TestLoadScenarioRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing name",
			src:  "graph: g.cue\nqueries:\n  - name: q\n",
			want: "name is required",
		},
		{
			name: "missing graph",
			src:  "name: s\nqueries:\n  - name: q\n",
			want: "graph is required",
		},
		{
			name: "no queries",
			src:  "name: s\ngraph: g.cue\n",
			want: "at least one query",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
