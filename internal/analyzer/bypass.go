package analyzer

import (
	"github.com/grfkit/grfscope/internal/eval"
	"github.com/grfkit/grfscope/internal/spritegroup"
)

// dummyInput is the maximal input assumed when a bypass evaluation
// needs a caller accumulator. Some graph authors route a switch through
// a constant pass-through to disable branches; the convention is that
// the constant decides the branch regardless of input, so any fixed
// input works and the maximal one matches what authoring tools emit.
const dummyInput uint32 = 0xFFFFFFFF

// maxStaticDepth bounds constant sub-expression evaluation. The static
// evaluator has no entity context, so a cyclic constant chain would
// recurse forever without this cap; real constant chains are shallow.
const maxStaticDepth = 8

// isBypassCandidate reports whether a deterministic group is a trivial
// pass-through of a constant sub-expression: exactly one adjust, an
// ADD or RST with no shift, an identity mask and no type transform.
//
// This is the exact shape authoring tools emit for "commented-out"
// switch branches. It is a reverse-engineered compatibility shim, not a
// general constant folder; widening the pattern changes which graphs
// get partially evaluated and must not be done casually.
func isBypassCandidate(g *spritegroup.DeterministicGroup) bool {
	if len(g.Adjusts) != 1 {
		return false
	}
	adj := &g.Adjusts[0]
	if adj.Operation != spritegroup.OpAdd && adj.Operation != spritegroup.OpRst {
		return false
	}
	return adj.Shift == 0 && adj.AndMask == 0xFFFFFFFF && adj.Type == spritegroup.TypeNone
}

// staticAdjustValue evaluates the value an adjust would read, when that
// value provably does not depend on entity state. ok=false means the
// adjust is not entity-independent.
func (a *Analyzer) staticAdjustValue(adj *spritegroup.Adjust, depth int) (uint32, bool) {
	switch adj.Variable {
	case spritegroup.VarConstant:
		return (0xFFFFFFFF >> adj.Shift) & adj.AndMask, true
	case spritegroup.VarLastComputed:
		// Fixed input assumption: the caller's accumulator is taken as
		// the maximal dummy input.
		return (dummyInput >> adj.Shift) & adj.AndMask, true
	case spritegroup.VarProcedure:
		v, ok := a.staticEvalGroup(adj.Subroutine, depth+1)
		if !ok {
			return 0, false
		}
		return (v >> adj.Shift) & adj.AndMask, true
	default:
		return 0, false
	}
}

// staticEvalGroup evaluates a subgraph as a pure constant expression:
// deterministic groups whose every adjust is entity-independent, ending
// in a callback-result terminal. ok=false means the subgraph touches
// entity state or exceeds the depth cap.
func (a *Analyzer) staticEvalGroup(id spritegroup.GroupID, depth int) (uint32, bool) {
	if depth > maxStaticDepth {
		return 0, false
	}
	g := a.arena.Get(id)
	if g == nil {
		return 0, false
	}

	switch g.Kind {
	case spritegroup.KindCallbackResult:
		return uint32(g.CallbackResult.Result), true

	case spritegroup.KindDeterministic:
		d := g.Deterministic
		var last uint32
		for i := range d.Adjusts {
			adj := &d.Adjusts[i]
			if adj.Operation.HasSideEffect() || adj.Operation.IsJump() {
				return 0, false
			}
			raw, ok := a.staticAdjustValue(adj, depth)
			if !ok {
				return 0, false
			}
			// Shaping was already applied by staticAdjustValue; feed
			// the raw value back through the evaluator's own step
			// function with an identity shape, so static arithmetic
			// can never drift from runtime arithmetic.
			shaped := spritegroup.Adjust{
				Operation: adj.Operation,
				Type:      adj.Type,
				AndMask:   0xFFFFFFFF,
				AddVal:    adj.AddVal,
				DivMod:    adj.DivMod,
			}
			last = eval.EvalAdjust(d.Size, &shaped, nil, eval.EmptyScope{}, last, raw)
		}
		if d.Flags&spritegroup.DetFlagCalculatedResult != 0 {
			return last & uint32(spritegroup.CallbackResultMask), true
		}
		for _, r := range d.Ranges {
			if r.Contains(last) {
				return a.staticEvalGroup(r.Group, depth+1)
			}
		}
		return a.staticEvalGroup(d.Default, depth+1)

	default:
		return 0, false
	}
}

// bypassTarget partially evaluates a bypass candidate and returns the
// single range arm its constant value selects, or ok=false when the
// value is not entity-independent after all.
func (a *Analyzer) bypassTarget(g *spritegroup.DeterministicGroup) (spritegroup.GroupID, bool) {
	adj := &g.Adjusts[0]
	raw, ok := a.staticAdjustValue(adj, 0)
	if !ok {
		return spritegroup.NilGroup, false
	}

	// The accumulator starts at zero, so ADD and RST both reduce to the
	// constant itself.
	value := raw & g.Size.Mask()

	for _, r := range g.Ranges {
		if r.Contains(value) {
			return r.Group, true
		}
	}
	return spritegroup.NilGroup, true
}
