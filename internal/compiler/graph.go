package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/grfkit/grfscope/internal/ir"
)

// CompileGraph parses a CUE value into a GraphDef. The value should be
// the graph struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`graph: { name: "x", ... }`)
//	def, err := CompileGraph(v.LookupPath(cue.ParsePath("graph")))
func CompileGraph(v cue.Value) (*ir.GraphDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	for _, field := range []string{"name", "root", "groups"} {
		if !v.LookupPath(cue.ParsePath(field)).Exists() {
			return nil, &CompileError{
				Field:   field,
				Message: field + " is required",
				Pos:     v.Pos(),
			}
		}
	}

	def := &ir.GraphDef{IRVersion: ir.Version}
	if err := v.Decode(def); err != nil {
		return nil, formatCUEError(err)
	}
	if def.IRVersion == "" {
		def.IRVersion = ir.Version
	}

	if len(def.Groups) == 0 {
		return nil, &CompileError{
			Field:   "groups",
			Message: "at least one group is required",
			Pos:     v.Pos(),
		}
	}

	return def, nil
}

// CompileGraphFile reads and compiles a CUE source file containing a
// top-level "graph" struct.
func CompileGraphFile(path string) (*ir.GraphDef, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph source: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	graphVal := v.LookupPath(cue.ParsePath("graph"))
	if !graphVal.Exists() {
		return nil, &CompileError{
			Field:   "graph",
			Message: "no top-level graph struct",
			Pos:     v.Pos(),
		}
	}
	return CompileGraph(graphVal)
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors, which may wrap
// several underlying errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
