package ir

import (
	"fmt"

	"github.com/grfkit/grfscope/internal/spritegroup"
)

// GraphDef is one authored sprite-group graph. Group references are
// symbolic names; the compiler resolves them to arena handles.
type GraphDef struct {
	Name      string     `json:"name"`
	IRVersion string     `json:"ir_version"`
	Groups    []GroupDef `json:"groups"`

	// Root names the entry group queries resolve against.
	Root string `json:"root"`
}

// GroupDef is one authored node. Kind selects which fields are
// meaningful; the compiler rejects fields set on the wrong kind.
type GroupDef struct {
	Name string `json:"name"`
	Kind string `json:"kind"`

	// Deterministic.
	Scope            string      `json:"scope,omitempty"`
	Relative         int64       `json:"relative,omitempty"`
	Size             string      `json:"size,omitempty"`
	CalculatedResult bool        `json:"calculated_result,omitempty"`
	NoDoubleEval     bool        `json:"no_double_eval,omitempty"`
	Adjusts          []AdjustDef `json:"adjusts,omitempty"`
	Ranges           []RangeDef  `json:"ranges,omitempty"`
	Default          string      `json:"default,omitempty"`
	Error            string      `json:"error,omitempty"`

	// Randomized.
	CmpMode       string   `json:"cmp_mode,omitempty"`
	Triggers      int64    `json:"triggers,omitempty"`
	LowestRandbit int64    `json:"lowest_randbit,omitempty"`
	Groups        []string `json:"groups,omitempty"`

	// Real.
	Loaded  []string `json:"loaded,omitempty"`
	Loading []string `json:"loading,omitempty"`

	// Terminals.
	Result      int64 `json:"result,omitempty"`
	FirstSprite int64 `json:"first_sprite,omitempty"`
	NumSprites  int64 `json:"num_sprites,omitempty"`
}

// AdjustDef is one authored instruction. Jump operations either carry an
// explicit Skip distance or leave it zero and let the compiler resolve
// the distance to the next end-block marker.
type AdjustDef struct {
	Op   string `json:"op"`
	Type string `json:"type,omitempty"`

	Variable  int64 `json:"variable"`
	Parameter int64 `json:"parameter,omitempty"`

	Shift   int64 `json:"shift,omitempty"`
	AndMask int64 `json:"and_mask"`
	AddVal  int64 `json:"add_val,omitempty"`
	DivMod  int64 `json:"div_mod,omitempty"`

	Subroutine string `json:"subroutine,omitempty"`
	Skip       int64  `json:"skip,omitempty"`

	SkipOnZero  bool `json:"skip_on_zero,omitempty"`
	SkipOnLSB   bool `json:"skip_on_lsb,omitempty"`
	LastVarRead bool `json:"last_var_read,omitempty"`
	EndBlock    bool `json:"end_block,omitempty"`
}

// RangeDef is one authored dispatch arm. Declaration order is identity:
// the first containing arm wins at runtime, so reordering arms changes
// the graph and its hash.
type RangeDef struct {
	Low   int64  `json:"low"`
	High  int64  `json:"high"`
	Group string `json:"group"`
}

// Enum mnemonics follow the String forms of the runtime types, so a
// round trip through the IR is spelling-stable.

var kindByName = map[string]spritegroup.GroupKind{
	"real":                spritegroup.KindReal,
	"deterministic":       spritegroup.KindDeterministic,
	"randomized":          spritegroup.KindRandomized,
	"callback_result":     spritegroup.KindCallbackResult,
	"result":              spritegroup.KindResult,
	"tile_layout":         spritegroup.KindTileLayout,
	"industry_production": spritegroup.KindIndustryProduction,
}

// ParseKind maps a kind mnemonic to the runtime enum.
func ParseKind(s string) (spritegroup.GroupKind, error) {
	k, ok := kindByName[s]
	if !ok {
		return 0, fmt.Errorf("unknown group kind %q", s)
	}
	return k, nil
}

// ParseScope maps a scope mnemonic to the runtime enum. Empty defaults
// to self.
func ParseScope(s string) (spritegroup.ScopeTag, error) {
	switch s {
	case "", "self":
		return spritegroup.ScopeSelf, nil
	case "parent":
		return spritegroup.ScopeParent, nil
	case "relative":
		return spritegroup.ScopeRelative, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", s)
	}
}

// ParseSize maps a size mnemonic to the runtime enum. Empty defaults to
// dword.
func ParseSize(s string) (spritegroup.VarSize, error) {
	switch s {
	case "byte":
		return spritegroup.SizeByte, nil
	case "word":
		return spritegroup.SizeWord, nil
	case "", "dword":
		return spritegroup.SizeDWord, nil
	default:
		return 0, fmt.Errorf("unknown size %q", s)
	}
}

// ParseCmpMode maps a randomized compare-mode mnemonic. Empty defaults
// to any.
func ParseCmpMode(s string) (spritegroup.RandCmpMode, error) {
	switch s {
	case "", "any":
		return spritegroup.CmpAny, nil
	case "all":
		return spritegroup.CmpAll, nil
	default:
		return 0, fmt.Errorf("unknown cmp_mode %q", s)
	}
}

var opByName = func() map[string]spritegroup.AdjustOp {
	m := make(map[string]spritegroup.AdjustOp, int(spritegroup.NumAdjustOps))
	for op := spritegroup.AdjustOp(0); op < spritegroup.NumAdjustOps; op++ {
		m[op.String()] = op
	}
	return m
}()

// ParseOp maps an operation mnemonic to the runtime enum.
func ParseOp(s string) (spritegroup.AdjustOp, error) {
	op, ok := opByName[s]
	if !ok {
		return 0, fmt.Errorf("unknown adjust op %q", s)
	}
	return op, nil
}

// ParseAdjustType maps a type-transform mnemonic. Empty defaults to
// none.
func ParseAdjustType(s string) (spritegroup.AdjustType, error) {
	switch s {
	case "", "none":
		return spritegroup.TypeNone, nil
	case "div":
		return spritegroup.TypeDiv, nil
	case "mod":
		return spritegroup.TypeMod, nil
	case "eq":
		return spritegroup.TypeEq, nil
	default:
		return 0, fmt.Errorf("unknown adjust type %q", s)
	}
}
