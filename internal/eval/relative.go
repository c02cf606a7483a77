package eval

import "github.com/grfkit/grfscope/internal/spritegroup"

// RelativeMode is the addressing sub-mode of a relative-scope lookup.
type RelativeMode uint8

const (
	// BackwardSelf steps toward the chain head from the entity itself.
	BackwardSelf RelativeMode = iota

	// ForwardSelf steps toward the chain tail from the entity itself.
	ForwardSelf

	// BackwardEngine steps forward from the chain head.
	BackwardEngine

	// BackwardSameID steps backward from the entity but never past the
	// start of the run of consecutive same-typed members containing it.
	// The run is found by scanning from the chain head and resetting
	// the anchor on every type mismatch, so it anchors to the first
	// run, not merely the nearest same-typed neighbor.
	BackwardSameID
)

// Relative-offset packing: low byte is the step count, bits 8..9 the
// mode, and RelativeRecomputeBit forces the step count to be re-read
// from temporary register 0x100 on every lookup.
const (
	relativeModeShift           = 8
	relativeModeMask     uint16 = 0x3 << relativeModeShift
	RelativeRecomputeBit uint16 = 0x8000
)

// PackRelative builds the packed offset+mode value stored on
// deterministic groups.
func PackRelative(mode RelativeMode, offset uint8) uint16 {
	return uint16(mode)<<relativeModeShift | uint16(offset)
}

// relativeCache memoizes the last relative-scope lookup of one query.
// A hit requires the same packed key and an unset recompute bit; a
// recompute lookup always re-reads register 0x100.
type relativeCache struct {
	valid bool
	key   uint16
	scope ScopeResolver
}

// walkRelative locates the chain member addressed by mode+offset
// starting from self. Walks clamp at chain boundaries rather than
// failing.
func walkRelative(self ChainLink, mode RelativeMode, offset uint8) ChainLink {
	switch mode {
	case BackwardSelf:
		link := self
		for i := uint8(0); i < offset; i++ {
			prev := link.PrevInChain()
			if prev == nil {
				break
			}
			link = prev
		}
		return link

	case ForwardSelf:
		link := self
		for i := uint8(0); i < offset; i++ {
			next := link.NextInChain()
			if next == nil {
				break
			}
			link = next
		}
		return link

	case BackwardEngine:
		link := chainHead(self)
		for i := uint8(0); i < offset; i++ {
			next := link.NextInChain()
			if next == nil {
				break
			}
			link = next
		}
		return link

	case BackwardSameID:
		anchor := sameTypeRunStart(self)
		link := self
		for i := uint8(0); i < offset; i++ {
			if link == anchor {
				break
			}
			prev := link.PrevInChain()
			if prev == nil {
				break
			}
			link = prev
		}
		return link

	default:
		return self
	}
}

// sameTypeRunStart scans from the chain head and returns the first
// member of the run of consecutive same-typed entities that contains
// self. The candidate resets on every type mismatch.
func sameTypeRunStart(self ChainLink) ChainLink {
	want := self.EntityType()
	var anchor ChainLink
	for link := chainHead(self); link != nil; link = link.NextInChain() {
		if link.EntityType() == want {
			if anchor == nil {
				anchor = link
			}
		} else {
			anchor = nil
		}
		if link == self {
			break
		}
	}
	if anchor == nil {
		return self
	}
	return anchor
}

// resolveRelative answers a relative-scope request against the query's
// chain, consulting the cache.
func (ro *ResolverObject) resolveRelative(relative uint16) ScopeResolver {
	if ro.chain == nil {
		// No chain attached: relative degrades to self.
		return ro.scopes[spritegroup.ScopeSelf]
	}

	recompute := relative&RelativeRecomputeBit != 0
	if !recompute && ro.relCache.valid && ro.relCache.key == relative {
		return ro.relCache.scope
	}

	offset := uint8(relative)
	if recompute {
		offset = uint8(ro.Registers.Get(spritegroup.RegRelativeOffset))
	}
	mode := RelativeMode((relative & relativeModeMask) >> relativeModeShift)

	link := walkRelative(ro.chain, mode, offset)
	scope := link.Resolver()
	if scope == nil {
		scope = EmptyScope{}
	}

	if !recompute {
		ro.relCache = relativeCache{valid: true, key: relative, scope: scope}
	}
	return scope
}
