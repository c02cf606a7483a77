package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grfkit/grfscope/internal/ir"
)

func validGraph() *ir.GraphDef {
	return &ir.GraphDef{
		Name:      "g",
		IRVersion: ir.Version,
		Root:      "root",
		Groups: []ir.GroupDef{
			{
				Name: "root",
				Kind: "deterministic",
				Size: "byte",
				Adjusts: []ir.AdjustDef{
					{Op: "rst", Variable: 0x0C, AndMask: 0xFF},
				},
				Ranges:  []ir.RangeDef{{Low: 1, High: 2, Group: "leaf"}},
				Default: "leaf",
			},
			{Name: "leaf", Kind: "callback_result", Result: 0x11},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	assert.Empty(t, Validate(validGraph()))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	def := validGraph()
	def.Name = " "
	def.Root = "nowhere"

	errs := Validate(def)
	assert.Contains(t, codes(errs), ErrGraphNameEmpty)
	assert.Contains(t, codes(errs), ErrGraphNoRoot)
	assert.Len(t, errs, 2)
}

func TestValidateDuplicateGroupName(t *testing.T) {
	def := validGraph()
	def.Groups = append(def.Groups, ir.GroupDef{Name: "leaf", Kind: "result"})

	assert.Contains(t, codes(Validate(def)), ErrDuplicateGroup)
}

func TestValidateDanglingReferences(t *testing.T) {
	def := validGraph()
	def.Groups[0].Ranges[0].Group = "ghost"
	def.Groups[0].Default = "phantom"
	def.Groups[0].Error = "wraith"

	errs := Validate(def)
	require.Len(t, errs, 3)
	for _, e := range errs {
		assert.Equal(t, ErrDanglingRef, e.Code)
		assert.Equal(t, "root", e.Group)
	}
}

func TestValidateUnknownMnemonics(t *testing.T) {
	def := validGraph()
	def.Groups[0].Size = "qword"
	def.Groups[0].Adjusts[0].Op = "frob"

	errs := Validate(def)
	assert.Contains(t, codes(errs), ErrUnknownMnemonic)
	assert.Len(t, errs, 2)

	def = validGraph()
	def.Groups[1].Kind = "switch"
	assert.Contains(t, codes(Validate(def)), ErrUnknownKind)
}

func TestValidateRealGroupNeedsSpriteSets(t *testing.T) {
	def := validGraph()
	def.Groups = append(def.Groups, ir.GroupDef{Name: "real", Kind: "real"})

	assert.Contains(t, codes(Validate(def)), ErrEmptyRealGroup)
}

func TestValidateRandomizedFanoutPowerOfTwo(t *testing.T) {
	def := validGraph()
	def.Groups = append(def.Groups, ir.GroupDef{
		Name:   "rnd",
		Kind:   "randomized",
		Groups: []string{"leaf", "leaf", "leaf"},
	})

	assert.Contains(t, codes(Validate(def)), ErrBadRandomFanout)
}

func TestValidateRangeOrdering(t *testing.T) {
	def := validGraph()
	def.Groups[0].Ranges[0] = ir.RangeDef{Low: 5, High: 2, Group: "leaf"}

	assert.Contains(t, codes(Validate(def)), ErrBadRange)
}

func TestValidateCallbackResultWidth(t *testing.T) {
	def := validGraph()
	def.Groups[1].Result = 0x10000

	assert.Contains(t, codes(Validate(def)), ErrBadResult)
}

func TestValidateJumpNeedsTarget(t *testing.T) {
	def := validGraph()
	def.Groups[0].Adjusts = []ir.AdjustDef{
		{Op: "jz", Variable: 0x1A, AndMask: 0xFF},
		{Op: "rst", Variable: 0x1A, AndMask: 0xFF},
	}
	assert.Contains(t, codes(Validate(def)), ErrUnresolvableJump)

	def.Groups[0].Adjusts[1].EndBlock = true
	assert.Empty(t, Validate(def))

	def.Groups[0].Adjusts[1].EndBlock = false
	def.Groups[0].Adjusts[0].Skip = 1
	assert.Empty(t, Validate(def))
}

func TestValidateProcedureNeedsSubroutine(t *testing.T) {
	def := validGraph()
	def.Groups[0].Adjusts = []ir.AdjustDef{
		{Op: "rst", Variable: 0x7E, AndMask: 0xFF},
	}
	assert.Contains(t, codes(Validate(def)), ErrMissingSub)

	def.Groups[0].Adjusts[0].Subroutine = "leaf"
	assert.Empty(t, Validate(def))
}
