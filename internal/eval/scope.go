package eval

import "math"

// VarUnavailable is the sentinel returned for a variable the scope
// cannot answer. It is also a legal value for some variables, so
// callers must check VariableExtra.Available rather than comparing the
// return value.
const VarUnavailable uint32 = math.MaxUint32

// VariableExtra is the out-parameter side channel of a variable read.
// Available starts true for every read; a resolver clears it when the
// variable is unknown or cannot be answered for the current entity.
type VariableExtra struct {
	Available bool
}

// ScopeResolver answers variable reads for one entity scope. A query
// carries up to three of these (self, parent, relative); implementations
// live with the game-object collaborators, the engine only consumes the
// interface.
type ScopeResolver interface {
	// GetVariable returns the raw value of a variable. Unknown
	// variables clear extra.Available and return VarUnavailable.
	GetVariable(variable uint8, parameter uint32, extra *VariableExtra) uint32

	// GetRandomBits returns the entity's random bits.
	GetRandomBits() uint32

	// GetTriggers returns the entity's waiting re-randomization
	// triggers.
	GetTriggers() uint32

	// StorePSA writes a persistent storage register. Implementations
	// without persistent storage ignore the write.
	StorePSA(reg int, value uint32)
}

// ChainLink is one entity in a consist-style chain, walked by
// relative-scope addressing. Implementations are supplied by callers;
// the test stubs in internal/testutil are the reference shape.
type ChainLink interface {
	// NextInChain returns the following chain member, nil at the tail.
	NextInChain() ChainLink

	// PrevInChain returns the preceding chain member, nil at the head.
	PrevInChain() ChainLink

	// EntityType is the type-identity compared by same-type-run
	// addressing.
	EntityType() uint32

	// Resolver returns the scope resolver for this chain member.
	Resolver() ScopeResolver
}

// EmptyScope is the embeddable default resolver: every variable is
// unavailable, random bits and triggers are zero, persistent stores are
// dropped. Concrete resolvers embed it and override what they answer.
type EmptyScope struct{}

// GetVariable reports every variable as unavailable.
func (EmptyScope) GetVariable(variable uint8, parameter uint32, extra *VariableExtra) uint32 {
	extra.Available = false
	return VarUnavailable
}

// GetRandomBits returns zero.
func (EmptyScope) GetRandomBits() uint32 { return 0 }

// GetTriggers returns zero.
func (EmptyScope) GetTriggers() uint32 { return 0 }

// StorePSA drops the write.
func (EmptyScope) StorePSA(reg int, value uint32) {}

// chainHead walks to the first link of a chain.
func chainHead(link ChainLink) ChainLink {
	for {
		prev := link.PrevInChain()
		if prev == nil {
			return link
		}
		link = prev
	}
}
