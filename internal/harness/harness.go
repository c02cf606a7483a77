package harness

import (
	"fmt"
	"path/filepath"

	"github.com/grfkit/grfscope/internal/compiler"
	"github.com/grfkit/grfscope/internal/eval"
	"github.com/grfkit/grfscope/internal/spritegroup"
	"github.com/grfkit/grfscope/internal/testutil"
)

// QueryOutcome is what one query produced.
type QueryOutcome struct {
	Name   string `json:"name"`
	Result uint16 `json:"result"`
	Reseed uint32 `json:"reseed"`
}

// Result is the outcome of running a whole scenario.
type Result struct {
	Pass     bool           `json:"pass"`
	Outcomes []QueryOutcome `json:"outcomes"`
	Errors   []string       `json:"errors,omitempty"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// RunFile loads and runs the scenario at path. Graph paths inside the
// scenario resolve relative to the scenario file.
func RunFile(path string) (*Result, error) {
	sc, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return Run(sc, filepath.Dir(path))
}

// Run compiles, validates, and links the scenario's graph once, then
// resolves every query against a fresh resolver and stub scope.
// Expectation mismatches land in Result.Errors; an unbuildable graph is
// an error instead, since no query outcome would mean anything.
func Run(sc *Scenario, baseDir string) (*Result, error) {
	def, err := compiler.CompileGraphFile(filepath.Join(baseDir, sc.Graph))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	if errs := compiler.Validate(def); len(errs) > 0 {
		return nil, fmt.Errorf("scenario %s: graph invalid: %v", sc.Name, errs[0])
	}
	arena, root, err := compiler.Link(def)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	res := &Result{Pass: true}
	for i := range sc.Queries {
		res.Outcomes = append(res.Outcomes, runQuery(res, arena, root, &sc.Queries[i]))
	}
	return res, nil
}

func runQuery(res *Result, arena *spritegroup.Arena, root spritegroup.GroupID, q *Query) QueryOutcome {
	scope := testutil.NewStubScope()
	scope.RandomBits = uint32(q.RandomBits)
	scope.Triggers = uint32(q.Triggers)
	for _, b := range q.Vars {
		if b.AnyParam {
			scope.SetVar(uint8(b.Variable), uint32(b.Value))
		} else {
			scope.SetVarParam(uint8(b.Variable), uint32(b.Parameter), uint32(b.Value))
		}
	}

	ro := eval.NewResolver(arena, scope,
		eval.WithCallback(spritegroup.CallbackID(q.Callback), uint32(q.Param)))

	outcome := QueryOutcome{
		Name:   q.Name,
		Result: ro.ResolveCallback(root),
		Reseed: ro.GetReseedSum(),
	}

	if q.Expect != nil {
		if want := q.Expect.Result; want != nil && uint16(*want) != outcome.Result {
			res.addError("query %q: result 0x%X, want 0x%X", q.Name, outcome.Result, uint16(*want))
		}
		if want := q.Expect.Reseed; want != nil && uint32(*want) != outcome.Reseed {
			res.addError("query %q: reseed 0x%X, want 0x%X", q.Name, outcome.Reseed, uint32(*want))
		}
	}
	return outcome
}
