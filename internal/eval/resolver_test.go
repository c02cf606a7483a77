package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grfkit/grfscope/internal/eval"
	"github.com/grfkit/grfscope/internal/spritegroup"
	"github.com/grfkit/grfscope/internal/testutil"
)

// readVar builds an identity-shaped adjust replacing the accumulator
// with an entity variable.
func readVar(variable uint8) spritegroup.Adjust {
	return spritegroup.Adjust{
		Operation: spritegroup.OpRst,
		Variable:  variable,
		AndMask:   0xFFFFFFFF,
	}
}

func TestResolve_DeterministicEmptyRangesUsesDefault(t *testing.T) {
	a := spritegroup.NewArena()
	def := a.AddCallbackResult(0x11)
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Adjusts: []spritegroup.Adjust{readVar(0x42)},
		Default: def,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 1234)
	ro := eval.NewResolver(a, scope)

	g := ro.Resolve(root)
	require.NotNil(t, g)
	assert.Equal(t, uint16(0x11), g.CallbackResult.Result, "no ranges means default wins regardless of the accumulator")
}

func TestResolve_DeterministicNilDefaultYieldsNoResult(t *testing.T) {
	a := spritegroup.NewArena()
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	ro := eval.NewResolver(a, testutil.NewStubScope())
	assert.Nil(t, ro.Resolve(root))
	assert.Equal(t, spritegroup.CallbackFailed, ro.ResolveCallback(root))
}

func TestResolve_FirstMatchingRangeWins(t *testing.T) {
	a := spritegroup.NewArena()
	first := a.AddCallbackResult(1)
	second := a.AddCallbackResult(2)
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Adjusts: []spritegroup.Adjust{readVar(0x42)},
		Ranges: []spritegroup.Range{
			// Both arms contain 5; declaration order decides.
			{Low: 0, High: 10, Group: first},
			{Low: 5, High: 5, Group: second},
		},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 5)
	ro := eval.NewResolver(a, scope)

	assert.Equal(t, uint16(1), ro.ResolveCallback(root))
}

func TestResolve_RangeAliasingIsLegal(t *testing.T) {
	a := spritegroup.NewArena()
	shared := a.AddCallbackResult(9)
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Adjusts: []spritegroup.Adjust{readVar(0x42)},
		Ranges: []spritegroup.Range{
			{Low: 0, High: 0, Group: shared},
			{Low: 1, High: 1, Group: shared},
		},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 1)
	ro := eval.NewResolver(a, scope)
	assert.Equal(t, uint16(9), ro.ResolveCallback(root))
}

func TestResolve_CalculatedResult(t *testing.T) {
	a := spritegroup.NewArena()
	ignored := a.AddCallbackResult(0x7777)
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Flags:   spritegroup.DetFlagCalculatedResult,
		Adjusts: []spritegroup.Adjust{readVar(0x42)},
		Ranges:  []spritegroup.Range{{Low: 0, High: 0xFFFFFFFF, Group: ignored}},
		Default: ignored,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 0x1234)
	ro := eval.NewResolver(a, scope)

	// The accumulator is the result; the ranges never fire.
	assert.Equal(t, uint16(0x1234), ro.ResolveCallback(root))
}

func TestResolve_UnavailableVariableFallsToErrorGroup(t *testing.T) {
	a := spritegroup.NewArena()
	errGroup := a.AddCallbackResult(0xEE)
	def := a.AddCallbackResult(0x11)
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Adjusts: []spritegroup.Adjust{readVar(0x42)},
		Default: def,
		Error:   errGroup,
	})

	// Scope answers nothing: variable 0x42 is unavailable.
	ro := eval.NewResolver(a, testutil.NewStubScope())
	assert.Equal(t, uint16(0xEE), ro.ResolveCallback(root))
}

func TestResolve_JumpSkipsAdjusts(t *testing.T) {
	a := spritegroup.NewArena()
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:  spritegroup.SizeDWord,
		Flags: spritegroup.DetFlagCalculatedResult,
		Adjusts: []spritegroup.Adjust{
			// Accumulator := var 0x42.
			readVar(0x42),
			// Skip the next adjust when the value read is zero.
			{
				Operation: spritegroup.OpJZ,
				Variable:  spritegroup.VarConstant,
				Shift:     31,
				AndMask:   0, // shaped value is 0: jump always taken
				SkipCount: 1,
			},
			{Operation: spritegroup.OpAdd, Variable: spritegroup.VarConstant, AndMask: 1},
			// Lands here: add 100.
			{
				Operation: spritegroup.OpAdd,
				Variable:  spritegroup.VarConstant,
				Shift:     0,
				AndMask:   0xFFFFFFFF,
				Type:      spritegroup.TypeEq,
				DivMod:    0, // (v+0)==0 is false: adds 0
			},
		},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 7)
	ro := eval.NewResolver(a, scope)

	// The JZ result replaces the accumulator with the shaped value 0,
	// the skipped add never fires, and the final eq-test adds 0.
	assert.Equal(t, uint16(0), ro.ResolveCallback(root))
}

func TestResolve_JumpLastValueKeepsAccumulator(t *testing.T) {
	a := spritegroup.NewArena()
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:  spritegroup.SizeDWord,
		Flags: spritegroup.DetFlagCalculatedResult,
		Adjusts: []spritegroup.Adjust{
			readVar(0x42),
			// Accumulator is nonzero: no jump, and it survives the test.
			{
				Operation: spritegroup.OpJZLastValue,
				Variable:  spritegroup.VarConstant,
				AndMask:   0xFFFFFFFF,
				SkipCount: 1,
			},
			{Operation: spritegroup.OpAdd, Variable: spritegroup.VarConstant, AndMask: 1},
		},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 41)
	ro := eval.NewResolver(a, scope)
	assert.Equal(t, uint16(42), ro.ResolveCallback(root))
}

func TestResolve_SubroutineSharesAccumulatorAndRegisters(t *testing.T) {
	a := spritegroup.NewArena()

	// Subroutine: read the caller's accumulator, double it, store to
	// register 5, calculated result.
	sub := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:  spritegroup.SizeDWord,
		Flags: spritegroup.DetFlagCalculatedResult,
		Adjusts: []spritegroup.Adjust{
			readVar(spritegroup.VarLastComputed),
			{Operation: spritegroup.OpAdd, Variable: spritegroup.VarLastComputed, AndMask: 0xFFFFFFFF},
			{Operation: spritegroup.OpSto, Variable: spritegroup.VarConstant, Shift: 0, AndMask: 5},
		},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:  spritegroup.SizeDWord,
		Flags: spritegroup.DetFlagCalculatedResult,
		Adjusts: []spritegroup.Adjust{
			readVar(0x42),
			{
				Operation:  spritegroup.OpRst,
				Variable:   spritegroup.VarProcedure,
				AndMask:    0xFFFFFFFF,
				Subroutine: sub,
			},
		},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 21)
	ro := eval.NewResolver(a, scope)

	assert.Equal(t, uint16(42), ro.ResolveCallback(root), "subroutine reads the caller's last value")
	assert.Equal(t, uint32(42), ro.Registers.Get(5), "subroutine stores persist in the shared file")
}

func TestResolve_RealGroupLoadingFallback(t *testing.T) {
	a := spritegroup.NewArena()
	s1 := a.AddResult(100, 1)
	root := a.AddReal(&spritegroup.RealGroup{
		Loaded:  []spritegroup.GroupID{s1},
		Loading: nil,
	})

	ro := eval.NewResolver(a, testutil.NewStubScope(),
		eval.WithLoadState(eval.LoadState{Attached: true, Loading: true, Capacity: 10}))

	g := ro.Resolve(root)
	require.NotNil(t, g, "empty loading set must fall back to loaded")
	assert.Equal(t, uint32(100), g.Result.FirstSprite)
}

func TestResolve_RealGroupFillRatio(t *testing.T) {
	a := spritegroup.NewArena()
	low := a.AddResult(1, 1)
	mid := a.AddResult(2, 1)
	high := a.AddResult(3, 1)
	root := a.AddReal(&spritegroup.RealGroup{
		Loaded: []spritegroup.GroupID{low, mid, high},
	})

	resolveAt := func(stored uint32) uint32 {
		ro := eval.NewResolver(a, testutil.NewStubScope(),
			eval.WithLoadState(eval.LoadState{Attached: true, Stored: stored, Capacity: 30}))
		g := ro.Resolve(root)
		require.NotNil(t, g)
		return g.Result.FirstSprite
	}

	assert.Equal(t, uint32(1), resolveAt(0))
	assert.Equal(t, uint32(2), resolveAt(15))
	assert.Equal(t, uint32(3), resolveAt(29))
	assert.Equal(t, uint32(3), resolveAt(30), "full load clamps to the last set")
}

func TestResolve_RealGroupNoEntityPrefersLoading(t *testing.T) {
	a := spritegroup.NewArena()
	loaded := a.AddResult(1, 1)
	loading := a.AddResult(2, 1)
	root := a.AddReal(&spritegroup.RealGroup{
		Loaded:  []spritegroup.GroupID{loaded},
		Loading: []spritegroup.GroupID{loading},
	})

	ro := eval.NewResolver(a, testutil.NewStubScope())
	g := ro.Resolve(root)
	require.NotNil(t, g)
	assert.Equal(t, uint32(2), g.Result.FirstSprite)
}

func TestResolve_RealGroupEmptyYieldsNil(t *testing.T) {
	a := spritegroup.NewArena()
	root := a.AddReal(&spritegroup.RealGroup{})
	ro := eval.NewResolver(a, testutil.NewStubScope())
	assert.Nil(t, ro.Resolve(root))
}

func TestResolve_RandomizedSelectsByRandomBits(t *testing.T) {
	a := spritegroup.NewArena()
	g0 := a.AddCallbackResult(0)
	g1 := a.AddCallbackResult(1)
	g2 := a.AddCallbackResult(2)
	g3 := a.AddCallbackResult(3)
	root := a.AddRandomized(&spritegroup.RandomizedGroup{
		Scope:         spritegroup.ScopeSelf,
		LowestRandbit: 2,
		Groups:        []spritegroup.GroupID{g0, g1, g2, g3},
	})

	scope := testutil.NewStubScope()
	scope.RandomBits = 0b1000 // bits 2..3 = 0b10
	ro := eval.NewResolver(a, scope)

	assert.Equal(t, uint16(2), ro.ResolveCallback(root))
}

func TestResolve_RandomizedTriggerAnyVsAll(t *testing.T) {
	build := func(mode spritegroup.RandCmpMode) (*spritegroup.Arena, spritegroup.GroupID) {
		a := spritegroup.NewArena()
		g0 := a.AddCallbackResult(0)
		g1 := a.AddCallbackResult(1)
		root := a.AddRandomized(&spritegroup.RandomizedGroup{
			Scope:    spritegroup.ScopeSelf,
			CmpMode:  mode,
			Triggers: 0b0011,
			Groups:   []spritegroup.GroupID{g0, g1},
		})
		return a, root
	}

	scope := testutil.NewStubScope()
	scope.Triggers = 0b0001 // only one of the two mask bits waiting

	a, root := build(spritegroup.CmpAny)
	ro := eval.NewResolver(a, scope)
	ro.ResolveCallback(root)
	assert.NotZero(t, ro.GetReseedSum(), "ANY fires on a partial overlap")
	assert.Equal(t, uint32(0), ro.GetRemainingTriggers()&0b0001, "fired triggers are consumed")

	a, root = build(spritegroup.CmpAll)
	ro = eval.NewResolver(a, scope)
	ro.ResolveCallback(root)
	assert.Zero(t, ro.GetReseedSum(), "ALL needs the full mask waiting")
	assert.Equal(t, uint32(0b0001), ro.GetRemainingTriggers(), "unconsumed triggers remain")
}

func TestResolve_ReseedSumMergesScopes(t *testing.T) {
	a := spritegroup.NewArena()
	leaf := a.AddCallbackResult(0)

	// Parent-scoped group reseeds bit 3.
	parentRand := a.AddRandomized(&spritegroup.RandomizedGroup{
		Scope:         spritegroup.ScopeParent,
		Triggers:      0b1,
		LowestRandbit: 3,
		Groups:        []spritegroup.GroupID{leaf, leaf},
	})
	// Self-scoped groups reseed bits 0 and 2.
	selfRand2 := a.AddRandomized(&spritegroup.RandomizedGroup{
		Scope:         spritegroup.ScopeSelf,
		Triggers:      0b1,
		LowestRandbit: 2,
		Groups:        []spritegroup.GroupID{parentRand, parentRand},
	})
	root := a.AddRandomized(&spritegroup.RandomizedGroup{
		Scope:         spritegroup.ScopeSelf,
		Triggers:      0b1,
		LowestRandbit: 0,
		Groups:        []spritegroup.GroupID{selfRand2, selfRand2},
	})

	self := testutil.NewStubScope()
	self.Triggers = 0b1
	parent := testutil.NewStubScope()
	parent.Triggers = 0b1

	ro := eval.NewResolver(a, self, eval.WithParent(parent))
	ro.ResolveCallback(root)

	assert.Equal(t, uint32(0b0101), ro.Reseed(spritegroup.ScopeSelf))
	assert.Equal(t, uint32(0b1000), ro.Reseed(spritegroup.ScopeParent))
	assert.Equal(t, uint32(0b1101), ro.GetReseedSum())
}

func TestResolve_Idempotence(t *testing.T) {
	a := spritegroup.NewArena()
	lowGroup := a.AddCallbackResult(1)
	highGroup := a.AddCallbackResult(2)
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Adjusts: []spritegroup.Adjust{readVar(0x42)},
		Ranges: []spritegroup.Range{
			{Low: 0, High: 99, Group: lowGroup},
			{Low: 100, High: 0xFFFFFFFF, Group: highGroup},
		},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 150)
	ro := eval.NewResolver(a, scope)

	first := ro.ResolveCallback(root)
	ro.Reset()
	second := ro.ResolveCallback(root)
	assert.Equal(t, first, second, "identical state must resolve identically")
	assert.Equal(t, uint16(2), first)
}

func TestResolve_CallbackIDVariable(t *testing.T) {
	a := spritegroup.NewArena()
	refit := a.AddCallbackResult(0xA)
	other := a.AddCallbackResult(0xB)
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Adjusts: []spritegroup.Adjust{readVar(spritegroup.VarCallbackID)},
		Ranges: []spritegroup.Range{
			{Low: uint32(spritegroup.CallbackRefitCost), High: uint32(spritegroup.CallbackRefitCost), Group: refit},
		},
		Default: other,
		Error:   spritegroup.NilGroup,
	})

	ro := eval.NewResolver(a, testutil.NewStubScope(),
		eval.WithCallback(spritegroup.CallbackRefitCost, 0))
	assert.Equal(t, uint16(0xA), ro.ResolveCallback(root))

	ro = eval.NewResolver(a, testutil.NewStubScope(),
		eval.WithCallback(spritegroup.Callback32DayTick, 0))
	assert.Equal(t, uint16(0xB), ro.ResolveCallback(root))
}

func TestRegisterSnapshot_RestoresSharedState(t *testing.T) {
	a := spritegroup.NewArena()
	ro := eval.NewResolver(a, testutil.NewStubScope())
	ro.Registers.Set(7, 111)

	snap := eval.SnapshotRegisters(&ro.Registers)
	ro.Registers.Set(7, 222)
	ro.Registers.Set(8, 333)
	snap.Restore()

	assert.Equal(t, uint32(111), ro.Registers.Get(7))
	assert.Equal(t, uint32(0), ro.Registers.Get(8))

	// Restore is idempotent.
	snap.Restore()
	assert.Equal(t, uint32(111), ro.Registers.Get(7))
}

func TestResolve_CheckTracksEntityVarReads(t *testing.T) {
	a := spritegroup.NewArena()
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Flags:   spritegroup.DetFlagCalculatedResult,
		Adjusts: []spritegroup.Adjust{readVar(spritegroup.VarConstant)},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	scope := testutil.NewStubScope().SetVar(0x42, 1)
	ro := eval.NewResolver(a, scope)
	ro.Check.Enabled = true

	ro.Resolve(root)
	assert.False(t, ro.Check.SawEntityVar, "constant reads are entity-independent")

	entityRoot := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Flags:   spritegroup.DetFlagCalculatedResult,
		Adjusts: []spritegroup.Adjust{readVar(0x42)},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})
	ro.Reset()
	ro.Resolve(entityRoot)
	assert.True(t, ro.Check.SawEntityVar)
}

type tracerStep struct {
	kind  string
	id    spritegroup.GroupID
	value uint32
}

type recordingTracer struct {
	steps []tracerStep
}

func (r *recordingTracer) Enter(id spritegroup.GroupID) {
	r.steps = append(r.steps, tracerStep{kind: "enter", id: id})
}

func (r *recordingTracer) Branch(id spritegroup.GroupID, value uint32) {
	r.steps = append(r.steps, tracerStep{kind: "branch", id: id, value: value})
}

func (r *recordingTracer) Result(id spritegroup.GroupID, result uint16) {
	r.steps = append(r.steps, tracerStep{kind: "result", id: id, value: uint32(result)})
}

func TestResolve_TracerObservesWalk(t *testing.T) {
	a := spritegroup.NewArena()
	leaf := a.AddCallbackResult(0x22)
	root := a.AddDeterministic(&spritegroup.DeterministicGroup{
		Size:    spritegroup.SizeDWord,
		Adjusts: []spritegroup.Adjust{readVar(0x42)},
		Ranges:  []spritegroup.Range{{Low: 5, High: 5, Group: leaf}},
		Default: spritegroup.NilGroup,
		Error:   spritegroup.NilGroup,
	})

	tr := &recordingTracer{}
	scope := testutil.NewStubScope().SetVar(0x42, 5)
	ro := eval.NewResolver(a, scope, eval.WithTracer(tr))

	assert.Equal(t, uint16(0x22), ro.ResolveCallback(root))
	require.Equal(t, []tracerStep{
		{kind: "enter", id: root},
		{kind: "branch", id: root, value: 5},
		{kind: "enter", id: leaf},
		{kind: "result", id: leaf, value: 0x22},
	}, tr.steps)
}
