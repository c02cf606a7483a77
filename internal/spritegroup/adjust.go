package spritegroup

// AdjustOp is one virtual-machine operation combining the freshly read
// value with the running accumulator.
//
// The relational block SLT/SGE/SLE/SGT is laid out so that `op ^ 1`
// flips an operation to its logical negation (SLT<->SGE, SLE<->SGT).
// The analyzer's inversion helper relies on this exact encoding; do not
// reorder the block.
type AdjustOp uint8

const (
	OpAdd AdjustOp = iota
	OpSub
	OpSMin
	OpSMax
	OpUMin
	OpUMax
	OpSDiv
	OpSMod
	OpUDiv
	OpUMod
	OpMul
	OpAnd
	OpOr
	OpXor
	OpSto  // write accumulator to temporary register [value], yield accumulator
	OpRst  // replace accumulator with value
	OpStoP // write accumulator to persistent register [value], yield accumulator
	OpRor
	OpSCmp // signed tri-state compare: {0,1,2} = {less, equal, greater}
	OpUCmp
	OpShl
	OpShr // logical right shift
	OpSar // arithmetic right shift
	OpTernary
	OpSLT // keep the xor-1 pairing: SLT^1 == SGE
	OpSGE
	OpSLE // SLE^1 == SGT
	OpSGT
	OpRSub // reverse subtract: value - accumulator
	OpJZ   // skip SkipCount adjusts when value == 0
	OpJNZ
	OpJZLastValue // skip when accumulator == 0; accumulator unchanged
	OpJNZLastValue
	OpNoop

	NumAdjustOps
)

var adjustOpNames = [NumAdjustOps]string{
	"add", "sub", "smin", "smax", "umin", "umax",
	"sdiv", "smod", "udiv", "umod", "mul", "and", "or", "xor",
	"sto", "rst", "stop", "ror", "scmp", "ucmp", "shl", "shr", "sar",
	"ternary", "slt", "sge", "sle", "sgt", "rsub",
	"jz", "jnz", "jz_lv", "jnz_lv", "noop",
}

// String returns the lowercase mnemonic used in IR and diagnostics.
func (op AdjustOp) String() string {
	if op < NumAdjustOps {
		return adjustOpNames[op]
	}
	return "unknown"
}

// IsRelational reports whether op is one of the four relational boolean
// operations subject to the xor-1 inversion identity.
func (op AdjustOp) IsRelational() bool {
	return op >= OpSLT && op <= OpSGT
}

// IsJump reports whether op is a forward-skip operation.
func (op AdjustOp) IsJump() bool {
	return op >= OpJZ && op <= OpJNZLastValue
}

// HasSideEffect reports whether op writes a storage register.
func (op AdjustOp) HasSideEffect() bool {
	return op == OpSto || op == OpStoP
}

// InvertRelationalOp returns the logical negation of a relational
// operation. The encoding guarantees this is exactly op ^ 1, and
// applying it twice returns the original operation. Calling it with a
// non-relational op is a programming error; the input is returned
// unchanged in that case.
func InvertRelationalOp(op AdjustOp) AdjustOp {
	if !op.IsRelational() {
		return op
	}
	return op ^ 1
}

// AdjustType is the optional post-read transform applied to a variable
// value before the operation combines it with the accumulator.
type AdjustType uint8

const (
	// TypeNone applies no transform.
	TypeNone AdjustType = iota

	// TypeDiv computes (value + AddVal) / DivMod, signed in the group's
	// size class.
	TypeDiv

	// TypeMod computes (value + AddVal) % DivMod, signed.
	TypeMod

	// TypeEq tests (value + AddVal) == DivMod, yielding 0 or 1.
	TypeEq
)

func (t AdjustType) String() string {
	switch t {
	case TypeDiv:
		return "div"
	case TypeMod:
		return "mod"
	case TypeEq:
		return "eq"
	default:
		return "none"
	}
}

// AdjustFlags carry loader hints and jump-structure markers.
type AdjustFlags uint8

const (
	// AdjustFlagSkipOnZero skips the whole adjust when the accumulator
	// is zero (short-circuit AND chains).
	AdjustFlagSkipOnZero AdjustFlags = 1 << iota

	// AdjustFlagSkipOnLSB skips the adjust when the accumulator's low
	// bit is set (short-circuit OR chains).
	AdjustFlagSkipOnLSB

	// AdjustFlagLastVarRead hints that no later adjust reads an entity
	// variable; the analyzer uses it to cut scans early.
	AdjustFlagLastVarRead

	// AdjustFlagEndBlock marks a jump target boundary. Jump distances
	// are resolved against these markers at load time; the evaluator
	// itself never inspects the flag.
	AdjustFlagEndBlock
)

// Adjust is one instruction of a deterministic group's program.
type Adjust struct {
	Operation AdjustOp
	Type      AdjustType
	Flags     AdjustFlags

	// Variable names what is read before the operation. VarProcedure
	// reads via Subroutine instead of the scope.
	Variable  uint8
	Parameter uint32

	// Shift and AndMask post-process the raw variable value; AddVal and
	// DivMod feed the Type transform. Ternary reuses AddVal as its
	// else-operand immediate.
	Shift   uint8
	AndMask uint32
	AddVal  uint32
	DivMod  uint32

	// Subroutine is the procedure target for VarProcedure reads.
	Subroutine GroupID

	// SkipCount is the jump distance for jump operations, pre-resolved
	// by the loader across nested end-block markers.
	SkipCount uint8
}

// IsConstantRead reports whether the adjust reads no entity state: the
// constant pseudo-variable shaped into an immediate by shift/mask.
func (a *Adjust) IsConstantRead() bool {
	return a.Variable == VarConstant
}
