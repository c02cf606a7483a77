package eval

import (
	"math/bits"

	"github.com/grfkit/grfscope/internal/spritegroup"
)

// signedVal sign-extends a value in the given size class.
func signedVal(size spritegroup.VarSize, v uint32) int32 {
	switch size {
	case spritegroup.SizeByte:
		return int32(int8(v))
	case spritegroup.SizeWord:
		return int32(int16(v))
	default:
		return int32(v)
	}
}

// EvalAdjust executes one adjust step: shape the freshly read raw value
// with shift/mask and the type transform, combine it with the
// accumulator, truncate to the size class.
//
// Pure except for the two store operations, which write the register
// file (OpSto) or the scope's persistent storage (OpStoP) and yield the
// unmodified accumulator. Jump operations yield the value the jump
// decision tested; the caller owns the actual skip.
func EvalAdjust(size spritegroup.VarSize, adj *spritegroup.Adjust, ro *ResolverObject, scope ScopeResolver, last, raw uint32) uint32 {
	value := (raw >> adj.Shift) & adj.AndMask

	switch adj.Type {
	case spritegroup.TypeDiv:
		if adj.DivMod != 0 {
			value = uint32(signedVal(size, value+adj.AddVal) / int32(adj.DivMod))
		}
	case spritegroup.TypeMod:
		if adj.DivMod != 0 {
			value = uint32(signedVal(size, value+adj.AddVal) % int32(adj.DivMod))
		}
	case spritegroup.TypeEq:
		if value+adj.AddVal == adj.DivMod {
			value = 1
		} else {
			value = 0
		}
	}

	result := applyOp(size, adj, ro, scope, last, value)
	return result & size.Mask()
}

func applyOp(size spritegroup.VarSize, adj *spritegroup.Adjust, ro *ResolverObject, scope ScopeResolver, a, b uint32) uint32 {
	sa, sb := signedVal(size, a), signedVal(size, b)

	switch adj.Operation {
	case spritegroup.OpAdd:
		return a + b
	case spritegroup.OpSub:
		return a - b
	case spritegroup.OpSMin:
		if sa < sb {
			return a
		}
		return b
	case spritegroup.OpSMax:
		if sa > sb {
			return a
		}
		return b
	case spritegroup.OpUMin:
		if a < b {
			return a
		}
		return b
	case spritegroup.OpUMax:
		if a > b {
			return a
		}
		return b
	case spritegroup.OpSDiv:
		if sb == 0 {
			return a
		}
		return uint32(sa / sb)
	case spritegroup.OpSMod:
		if sb == 0 {
			return a
		}
		return uint32(sa % sb)
	case spritegroup.OpUDiv:
		if b == 0 {
			return a
		}
		return a / b
	case spritegroup.OpUMod:
		if b == 0 {
			return a
		}
		return a % b
	case spritegroup.OpMul:
		return a * b
	case spritegroup.OpAnd:
		return a & b
	case spritegroup.OpOr:
		return a | b
	case spritegroup.OpXor:
		return a ^ b
	case spritegroup.OpSto:
		ro.Registers.Set(b, a)
		return a
	case spritegroup.OpRst:
		return b
	case spritegroup.OpStoP:
		scope.StorePSA(int(b&(spritegroup.NumPSARegisters-1)), a)
		return a
	case spritegroup.OpRor:
		return bits.RotateLeft32(a, -int(b&0x1F))
	case spritegroup.OpSCmp:
		return triState(sa < sb, sa == sb)
	case spritegroup.OpUCmp:
		return triState(a < b, a == b)
	case spritegroup.OpShl:
		return a << (b & 0x1F)
	case spritegroup.OpShr:
		return a >> (b & 0x1F)
	case spritegroup.OpSar:
		return uint32(sa >> (b & 0x1F))
	case spritegroup.OpTernary:
		if a != 0 {
			return b
		}
		return adj.AddVal
	case spritegroup.OpSLT:
		return boolVal(sa < sb)
	case spritegroup.OpSGE:
		return boolVal(sa >= sb)
	case spritegroup.OpSLE:
		return boolVal(sa <= sb)
	case spritegroup.OpSGT:
		return boolVal(sa > sb)
	case spritegroup.OpRSub:
		return b - a
	case spritegroup.OpJZ, spritegroup.OpJNZ:
		// The shaped value is both the jump condition and the new
		// accumulator.
		return b
	case spritegroup.OpJZLastValue, spritegroup.OpJNZLastValue:
		// Test-only jumps leave the accumulator untouched.
		return a
	default:
		// OpNoop and anything unknown keep the accumulator.
		return a
	}
}

// triState encodes {less, equal, greater} as {0, 1, 2}.
func triState(less, equal bool) uint32 {
	switch {
	case less:
		return 0
	case equal:
		return 1
	default:
		return 2
	}
}

func boolVal(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// jumpTaken decides a jump from the step result EvalAdjust produced for
// a jump operation.
func jumpTaken(op spritegroup.AdjustOp, result uint32) bool {
	switch op {
	case spritegroup.OpJZ, spritegroup.OpJZLastValue:
		return result == 0
	case spritegroup.OpJNZ, spritegroup.OpJNZLastValue:
		return result != 0
	default:
		return false
	}
}
