package spritegroup

// GroupID is a dense handle into an Arena. Node references are always
// handles, never pointers, so a graph can be relocated or serialized
// without fixups.
type GroupID uint32

// NilGroup is the absent-node sentinel ("no result"). Index 0 is a valid
// arena slot; the sentinel is the all-ones handle instead.
const NilGroup GroupID = ^GroupID(0)

// IsNil reports whether the handle is the absent-node sentinel.
func (id GroupID) IsNil() bool { return id == NilGroup }

// GroupKind identifies the payload variant of a SpriteGroup.
type GroupKind uint8

const (
	// KindReal selects between loaded/loading sprite sets by fill ratio.
	KindReal GroupKind = iota

	// KindDeterministic evaluates an adjust sequence and branches on
	// range arms.
	KindDeterministic

	// KindRandomized selects a child by entity random bits and consumes
	// triggers.
	KindRandomized

	// KindCallbackResult is a terminal 15-bit callback result.
	KindCallbackResult

	// KindResult is a terminal sprite range.
	KindResult

	// KindTileLayout is a terminal tile-drawing payload.
	KindTileLayout

	// KindIndustryProduction is a terminal production-rule payload.
	KindIndustryProduction
)

var groupKindNames = [...]string{
	"real",
	"deterministic",
	"randomized",
	"callback_result",
	"result",
	"tile_layout",
	"industry_production",
}

// String returns the lowercase kind name used in IR and diagnostics.
func (k GroupKind) String() string {
	if int(k) < len(groupKindNames) {
		return groupKindNames[k]
	}
	return "unknown"
}

// ScopeTag identifies which entity a variable read resolves against.
type ScopeTag uint8

const (
	// ScopeSelf reads from the entity being resolved.
	ScopeSelf ScopeTag = iota

	// ScopeParent reads from the entity's logical parent (the consist
	// head, the industry of a tile, the town of a station).
	ScopeParent

	// ScopeRelative reads from another chain member located by a packed
	// offset+mode value.
	ScopeRelative

	// NumScopes is the number of scope tags; sized for per-scope arrays.
	NumScopes = 3
)

var scopeTagNames = [NumScopes]string{"self", "parent", "relative"}

func (s ScopeTag) String() string {
	if int(s) < len(scopeTagNames) {
		return scopeTagNames[s]
	}
	return "unknown"
}

// VarSize is the size class of a deterministic group. Results are
// truncated to the class width after every adjust step.
type VarSize uint8

const (
	SizeByte  VarSize = iota // 8-bit
	SizeWord                 // 16-bit
	SizeDWord                // 32-bit
)

// Mask returns the truncation mask for the size class.
func (s VarSize) Mask() uint32 {
	switch s {
	case SizeByte:
		return 0xFF
	case SizeWord:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// Bits returns the width of the size class in bits.
func (s VarSize) Bits() uint {
	switch s {
	case SizeByte:
		return 8
	case SizeWord:
		return 16
	default:
		return 32
	}
}

func (s VarSize) String() string {
	switch s {
	case SizeByte:
		return "byte"
	case SizeWord:
		return "word"
	default:
		return "dword"
	}
}

// DetFlags are behavior flags on a deterministic group.
type DetFlags uint8

const (
	// DetFlagCalculatedResult makes the accumulator itself the callback
	// result: ranges are ignored and resolution never recurses further.
	DetFlagCalculatedResult DetFlags = 1 << iota

	// DetFlagNoDoubleEval marks groups whose adjusts have side effects
	// (register stores), so cached re-evaluation must be suppressed.
	DetFlagNoDoubleEval
)

// RandCmpMode selects how a randomized group's trigger mask is matched
// against the entity's waiting triggers.
type RandCmpMode uint8

const (
	// CmpAny fires when any trigger bit overlaps the mask.
	CmpAny RandCmpMode = iota

	// CmpAll fires only when the mask is fully contained in the waiting
	// triggers.
	CmpAll
)

func (m RandCmpMode) String() string {
	if m == CmpAll {
		return "all"
	}
	return "any"
}

// Range is one branch arm of a deterministic group: an inclusive
// [Low, High] interval guarding a child handle. Arms are tried in
// declaration order and the first containing interval wins; arms are not
// required to be sorted or disjoint.
type Range struct {
	Low   uint32
	High  uint32
	Group GroupID
}

// Contains reports whether v falls inside the inclusive interval.
func (r Range) Contains(v uint32) bool { return r.Low <= v && v <= r.High }

// RealGroup selects a sprite set by run-time fill ratio. Loaded is used
// while the entity travels, Loading while it loads at a station; an empty
// chosen sequence falls back to the other one.
type RealGroup struct {
	Loaded  []GroupID
	Loading []GroupID
}

// DeterministicGroup is the switch node: an adjust program feeding an
// accumulator, then first-match range dispatch.
type DeterministicGroup struct {
	Scope ScopeTag

	// Relative is the packed offset+mode consulted when Scope is
	// ScopeRelative; see the eval package for the encoding.
	Relative uint16

	Size    VarSize
	Flags   DetFlags
	Adjusts []Adjust
	Ranges  []Range

	// Default receives the accumulator when no range arm matches. A nil
	// default means the group yields no result.
	Default GroupID

	// Error is a diagnostic-only child; it is never resolved at runtime.
	Error GroupID
}

// HasRanges reports whether any range arms exist. A group with zero
// adjusts and zero ranges still dispatches to Default.
func (g *DeterministicGroup) HasRanges() bool { return len(g.Ranges) > 0 }

// RandomizedGroup selects a child by the entity's random bits and
// consumes re-randomization triggers.
type RandomizedGroup struct {
	Scope         ScopeTag
	CmpMode       RandCmpMode
	Triggers      uint8
	LowestRandbit uint8

	// Groups must have power-of-two length; validated by the loader,
	// assumed by the evaluator.
	Groups []GroupID
}

// CallbackResultGroup is a terminal callback result value.
type CallbackResultGroup struct {
	Result uint16
}

// ResultGroup is a terminal drawable sprite range.
type ResultGroup struct {
	FirstSprite uint32
	NumSprites  uint8
}

// TileLayoutGroup is a terminal drawing payload. The layout bytes are
// opaque to the evaluator and analyzer; they are carried through for the
// rendering collaborator.
type TileLayoutGroup struct {
	Layout []byte
}

// IndustryProductionGroup is a terminal production rule. Version selects
// the register-based input/output form; the evaluator treats the payload
// as opaque.
type IndustryProductionGroup struct {
	Version       uint8
	InputRegs     []uint16
	OutputRegs    []uint16
	AgainRegister uint16
}

// SpriteGroup is the closed node variant: Kind plus exactly one non-nil
// payload pointer. Construct through the Arena Add helpers so the
// invariant holds.
type SpriteGroup struct {
	Kind GroupKind

	Real               *RealGroup
	Deterministic      *DeterministicGroup
	Randomized         *RandomizedGroup
	CallbackResult     *CallbackResultGroup
	Result             *ResultGroup
	TileLayout         *TileLayoutGroup
	IndustryProduction *IndustryProductionGroup
}

// IsTerminal reports whether the node never recurses during resolution.
func (g *SpriteGroup) IsTerminal() bool {
	switch g.Kind {
	case KindCallbackResult, KindResult, KindTileLayout, KindIndustryProduction:
		return true
	default:
		return false
	}
}
