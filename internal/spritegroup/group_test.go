package spritegroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvertRelationalOp_XorIdentity(t *testing.T) {
	// The encoding must keep inversion at exactly op ^ 1, and double
	// inversion must round-trip.
	for _, op := range []AdjustOp{OpSLT, OpSGE, OpSLE, OpSGT} {
		inv := InvertRelationalOp(op)
		assert.Equal(t, op^1, inv, "inversion of %s must be op^1", op)
		assert.Equal(t, op, InvertRelationalOp(inv), "double inversion of %s must round-trip", op)
	}
}

func TestInvertRelationalOp_Pairs(t *testing.T) {
	assert.Equal(t, OpSGE, InvertRelationalOp(OpSLT))
	assert.Equal(t, OpSLT, InvertRelationalOp(OpSGE))
	assert.Equal(t, OpSGT, InvertRelationalOp(OpSLE))
	assert.Equal(t, OpSLE, InvertRelationalOp(OpSGT))
}

func TestInvertRelationalOp_NonRelationalUnchanged(t *testing.T) {
	assert.Equal(t, OpAdd, InvertRelationalOp(OpAdd))
	assert.Equal(t, OpSCmp, InvertRelationalOp(OpSCmp))
}

func TestAdjustOp_Names(t *testing.T) {
	// Every defined op has a mnemonic; the table must stay in sync with
	// the enum.
	for op := AdjustOp(0); op < NumAdjustOps; op++ {
		assert.NotEmpty(t, op.String())
		assert.NotEqual(t, "unknown", op.String(), "op %d missing mnemonic", op)
	}
	assert.Equal(t, "unknown", AdjustOp(200).String())
}

func TestAdjustOp_Classification(t *testing.T) {
	assert.True(t, OpJZ.IsJump())
	assert.True(t, OpJNZLastValue.IsJump())
	assert.False(t, OpAdd.IsJump())
	assert.True(t, OpSto.HasSideEffect())
	assert.True(t, OpStoP.HasSideEffect())
	assert.False(t, OpRst.HasSideEffect())
}

func TestVarSize_MaskAndBits(t *testing.T) {
	tests := []struct {
		size VarSize
		mask uint32
		bits uint
	}{
		{SizeByte, 0xFF, 8},
		{SizeWord, 0xFFFF, 16},
		{SizeDWord, 0xFFFFFFFF, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.mask, tt.size.Mask())
		assert.Equal(t, tt.bits, tt.size.Bits())
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{Low: 5, High: 10}
	assert.True(t, r.Contains(5))
	assert.True(t, r.Contains(10))
	assert.False(t, r.Contains(4))
	assert.False(t, r.Contains(11))

	// Single-point arm.
	p := Range{Low: 7, High: 7}
	assert.True(t, p.Contains(7))
	assert.False(t, p.Contains(8))
}

func TestArena_AddAndGet(t *testing.T) {
	a := NewArena()
	require.Equal(t, 0, a.Len())

	cb := a.AddCallbackResult(0x1234)
	res := a.AddResult(100, 4)
	require.Equal(t, 2, a.Len())

	g := a.Get(cb)
	require.NotNil(t, g)
	assert.Equal(t, KindCallbackResult, g.Kind)
	assert.Equal(t, uint16(0x1234), g.CallbackResult.Result)
	assert.True(t, g.IsTerminal())

	g = a.Get(res)
	require.NotNil(t, g)
	assert.Equal(t, KindResult, g.Kind)
	assert.Equal(t, uint32(100), g.Result.FirstSprite)
}

func TestArena_GetNilAndOutOfRange(t *testing.T) {
	a := NewArena()
	a.AddCallbackResult(1)

	assert.Nil(t, a.Get(NilGroup))
	assert.Nil(t, a.Get(GroupID(99)))

	_, ok := a.Kind(NilGroup)
	assert.False(t, ok)
}

func TestArena_CheckHandles(t *testing.T) {
	a := NewArena()
	child := a.AddCallbackResult(7)
	a.AddDeterministic(&DeterministicGroup{
		Ranges:  []Range{{Low: 0, High: 1, Group: child}},
		Default: NilGroup,
		Error:   NilGroup,
	})
	require.NoError(t, a.CheckHandles())
}

func TestArena_CheckHandles_Dangling(t *testing.T) {
	a := NewArena()
	a.AddDeterministic(&DeterministicGroup{
		Ranges:  []Range{{Low: 0, High: 1, Group: GroupID(42)}},
		Default: NilGroup,
		Error:   NilGroup,
	})
	err := a.CheckHandles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out-of-range")
}

func TestArena_CheckHandles_SubroutineEdge(t *testing.T) {
	a := NewArena()
	a.AddDeterministic(&DeterministicGroup{
		Adjusts: []Adjust{{Operation: OpRst, Variable: VarProcedure, Subroutine: GroupID(9)}},
		Default: NilGroup,
		Error:   NilGroup,
	})
	require.Error(t, a.CheckHandles())
}
