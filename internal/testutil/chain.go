package testutil

import "github.com/grfkit/grfscope/internal/eval"

// StubLink is one member of a doubly linked stub chain.
type StubLink struct {
	Type  uint32
	Scope *StubScope

	prev, next *StubLink
}

// NewChain links members in order, head first, and returns them. Each
// member gets its own empty StubScope unless one was assigned.
func NewChain(types ...uint32) []*StubLink {
	links := make([]*StubLink, len(types))
	for i, typ := range types {
		links[i] = &StubLink{Type: typ, Scope: NewStubScope()}
		if i > 0 {
			links[i].prev = links[i-1]
			links[i-1].next = links[i]
		}
	}
	return links
}

// NextInChain implements eval.ChainLink.
func (l *StubLink) NextInChain() eval.ChainLink {
	if l.next == nil {
		return nil
	}
	return l.next
}

// PrevInChain implements eval.ChainLink.
func (l *StubLink) PrevInChain() eval.ChainLink {
	if l.prev == nil {
		return nil
	}
	return l.prev
}

// EntityType implements eval.ChainLink.
func (l *StubLink) EntityType() uint32 { return l.Type }

// Resolver implements eval.ChainLink.
func (l *StubLink) Resolver() eval.ScopeResolver { return l.Scope }
