package harness

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/grfkit/grfscope/internal/ir"
)

// Snapshot renders a result as canonical JSON, so golden files are
// byte-stable across Go versions and map iteration orders.
func Snapshot(scenarioName string, res *Result) ([]byte, error) {
	outcomes := make(ir.Array, len(res.Outcomes))
	for i, o := range res.Outcomes {
		outcomes[i] = ir.Object{
			"name":   ir.String(o.Name),
			"result": ir.Int(o.Result),
			"reseed": ir.Int(o.Reseed),
		}
	}
	return ir.MarshalCanonical(ir.Object{
		"name":     ir.String(scenarioName),
		"outcomes": outcomes,
	})
}

// RunWithGolden runs the scenario at path, fails the test on any
// expectation mismatch, and compares the outcome snapshot against
// testdata/golden/{name}.golden. Regenerate goldens with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, path string) {
	t.Helper()

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	res, err := Run(sc, filepath.Dir(path))
	if err != nil {
		t.Fatalf("run scenario: %v", err)
	}
	for _, msg := range res.Errors {
		t.Error(msg)
	}

	snapshot, err := Snapshot(sc.Name, res)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, sc.Name, snapshot)
}
