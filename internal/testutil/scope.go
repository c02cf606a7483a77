// Package testutil provides deterministic stand-ins for the game-object
// collaborators: scope resolvers with fixed variable tables, entity
// chains, and fixed query tokens. Only tests and the scenario harness
// import it.
package testutil

import "github.com/grfkit/grfscope/internal/eval"

// varKey addresses one (variable, parameter) answer in a StubScope.
type varKey struct {
	Variable  uint8
	Parameter uint32
}

// StubScope is a scope resolver answering from a fixed table.
//
// Variables are registered per (variable, parameter) pair or per
// variable for any parameter; everything else is unavailable. Persistent
// stores are captured for assertions.
type StubScope struct {
	eval.EmptyScope

	RandomBits uint32
	Triggers   uint32

	exact  map[varKey]uint32
	anyPar map[uint8]uint32

	// PSA records StorePSA writes in register order.
	PSA map[int]uint32
}

// NewStubScope creates an empty stub scope.
func NewStubScope() *StubScope {
	return &StubScope{
		exact:  make(map[varKey]uint32),
		anyPar: make(map[uint8]uint32),
		PSA:    make(map[int]uint32),
	}
}

// SetVar registers a variable answer for any parameter.
func (s *StubScope) SetVar(variable uint8, value uint32) *StubScope {
	s.anyPar[variable] = value
	return s
}

// SetVarParam registers a variable answer for one exact parameter.
func (s *StubScope) SetVarParam(variable uint8, parameter, value uint32) *StubScope {
	s.exact[varKey{variable, parameter}] = value
	return s
}

// GetVariable answers from the registered tables, unavailable otherwise.
func (s *StubScope) GetVariable(variable uint8, parameter uint32, extra *eval.VariableExtra) uint32 {
	if v, ok := s.exact[varKey{variable, parameter}]; ok {
		return v
	}
	if v, ok := s.anyPar[variable]; ok {
		return v
	}
	extra.Available = false
	return eval.VarUnavailable
}

// GetRandomBits returns the fixed random bits.
func (s *StubScope) GetRandomBits() uint32 { return s.RandomBits }

// GetTriggers returns the fixed waiting triggers.
func (s *StubScope) GetTriggers() uint32 { return s.Triggers }

// StorePSA captures the write.
func (s *StubScope) StorePSA(reg int, value uint32) { s.PSA[reg] = value }
