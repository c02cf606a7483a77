package eval

import (
	"log/slog"

	"github.com/grfkit/grfscope/internal/spritegroup"
)

// LoadState describes the cargo fill of the entity a real group selects
// sprites for. Attached=false models resolution without a live entity
// (purchase lists, previews).
type LoadState struct {
	Attached bool
	Loading  bool // currently loading at a station
	Stored   uint32
	Capacity uint32
}

// ResolveCheck tracks, for one query, whether any entity-state variable
// was read. Callers use it to decide whether a resolved result may be
// cached independently of the entity. It replaces the free-standing
// global flag the evaluation loop would otherwise flip.
type ResolveCheck struct {
	Enabled      bool
	SawEntityVar bool
}

// ResolverObject orchestrates one evaluation pass over a sprite-group
// graph: the scope resolvers, the accumulator, the shared register
// file, and the trigger/reseed bookkeeping. It is ephemeral; build one
// per query and discard it, or Reset it between queries.
type ResolverObject struct {
	arena  *spritegroup.Arena
	logger *slog.Logger
	tracer Tracer

	scopes   [spritegroup.NumScopes]ScopeResolver
	chain    ChainLink
	relCache relativeCache

	// CallbackID and CallbackParam answer the callback-id and
	// callback-parameter variables for the query being resolved.
	CallbackID    spritegroup.CallbackID
	CallbackParam uint32

	// LastValue is the accumulator, shared across nested resolves so a
	// subroutine can observe its caller's last computed value.
	LastValue uint32

	// Registers is the temporary register file, shared across every
	// nested resolve of this query. See RegisterSnapshot for the
	// save/restore discipline across top-level queries.
	Registers RegisterFile

	Load  LoadState
	Check ResolveCheck

	extraTriggers   uint32
	waitingTriggers uint32
	usedTriggers    uint32
	reseed          [spritegroup.NumScopes]uint32

	// calcResult is scratch for wrapping a calculated-result
	// accumulator as a terminal node without touching the arena.
	calcResult       spritegroup.SpriteGroup
	calcResultVal spritegroup.CallbackResultGroup
}

// Tracer observes resolution steps. Enter fires for every group the
// walk visits, Branch for every deterministic dispatch with the final
// accumulator value, and Result when a callback-result terminal is
// reached. Calls are inline with resolution; implementations must be
// cheap.
type Tracer interface {
	Enter(id spritegroup.GroupID)
	Branch(id spritegroup.GroupID, value uint32)
	Result(id spritegroup.GroupID, result uint16)
}

// ResolverOption configures a ResolverObject.
type ResolverOption func(*ResolverObject)

// WithParent attaches the parent-scope resolver.
func WithParent(scope ScopeResolver) ResolverOption {
	return func(ro *ResolverObject) { ro.scopes[spritegroup.ScopeParent] = scope }
}

// WithChain attaches the entity chain used by relative-scope lookups.
func WithChain(link ChainLink) ResolverOption {
	return func(ro *ResolverObject) { ro.chain = link }
}

// WithCallback sets the callback being resolved and its parameter.
func WithCallback(id spritegroup.CallbackID, param uint32) ResolverOption {
	return func(ro *ResolverObject) {
		ro.CallbackID = id
		ro.CallbackParam = param
	}
}

// WithLoadState attaches the fill state consulted by real groups.
func WithLoadState(ls LoadState) ResolverOption {
	return func(ro *ResolverObject) { ro.Load = ls }
}

// WithTriggers adds re-randomization triggers the caller is delivering
// with this query.
func WithTriggers(triggers uint32) ResolverOption {
	return func(ro *ResolverObject) { ro.extraTriggers = triggers }
}

// WithTracer attaches a resolution tracer.
func WithTracer(t Tracer) ResolverOption {
	return func(ro *ResolverObject) { ro.tracer = t }
}

// WithLogger replaces the diagnostic logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(ro *ResolverObject) { ro.logger = logger }
}

// NewResolver builds a ResolverObject for one query. The self scope is
// mandatory; everything else is optional.
func NewResolver(arena *spritegroup.Arena, self ScopeResolver, opts ...ResolverOption) *ResolverObject {
	ro := &ResolverObject{
		arena:  arena,
		logger: slog.Default(),
	}
	ro.scopes[spritegroup.ScopeSelf] = self
	for _, opt := range opts {
		opt(ro)
	}
	return ro
}

// GetScope returns the resolver for a scope tag. Relative lookups take
// the packed offset+mode value; other scopes ignore it. A missing
// parent scope degrades to the empty scope.
func (ro *ResolverObject) GetScope(scope spritegroup.ScopeTag, relative uint16) ScopeResolver {
	switch scope {
	case spritegroup.ScopeRelative:
		return ro.resolveRelative(relative)
	default:
		if s := ro.scopes[scope]; s != nil {
			return s
		}
		return EmptyScope{}
	}
}

// Reset clears per-query state so the object can serve another query
// against the same scopes. The register file is left alone; use
// RegisterSnapshot when queries must not see each other's stores.
func (ro *ResolverObject) Reset() {
	ro.LastValue = 0
	ro.relCache = relativeCache{}
	ro.waitingTriggers = 0
	ro.usedTriggers = 0
	ro.reseed = [spritegroup.NumScopes]uint32{}
	ro.Check.SawEntityVar = false
}

// GetReseedSum returns the union of the reseed masks accumulated for
// every scope during resolution.
func (ro *ResolverObject) GetReseedSum() uint32 {
	var sum uint32
	for _, r := range ro.reseed {
		sum |= r
	}
	return sum
}

// Reseed returns the reseed mask accumulated for one scope.
func (ro *ResolverObject) Reseed(scope spritegroup.ScopeTag) uint32 {
	return ro.reseed[scope]
}

// GetRemainingTriggers returns the waiting triggers no randomized group
// consumed; callers merge them back into persistent entity state.
func (ro *ResolverObject) GetRemainingTriggers() uint32 {
	return ro.waitingTriggers &^ ro.usedTriggers
}

// Resolve walks the graph from root to a terminal node. Nil means "no
// result". Calculated-result groups yield a synthetic callback-result
// terminal owned by the ResolverObject, valid until the next Resolve.
func (ro *ResolverObject) Resolve(root spritegroup.GroupID) *spritegroup.SpriteGroup {
	return ro.resolveID(root)
}

// ResolveCallback resolves the graph and extracts a callback result.
// Anything but a callback-result terminal is CallbackFailed.
func (ro *ResolverObject) ResolveCallback(root spritegroup.GroupID) uint16 {
	g := ro.resolveID(root)
	if g == nil || g.Kind != spritegroup.KindCallbackResult {
		return spritegroup.CallbackFailed
	}
	return g.CallbackResult.Result
}

func (ro *ResolverObject) resolveID(id spritegroup.GroupID) *spritegroup.SpriteGroup {
	if id.IsNil() {
		return nil
	}
	g := ro.arena.Get(id)
	if g == nil {
		ro.logger.Debug("resolve: dangling group handle", "group", uint32(id))
		return nil
	}
	if ro.tracer != nil {
		ro.tracer.Enter(id)
	}
	return ro.resolveGroup(id, g)
}

func (ro *ResolverObject) resolveGroup(id spritegroup.GroupID, g *spritegroup.SpriteGroup) *spritegroup.SpriteGroup {
	switch g.Kind {
	case spritegroup.KindReal:
		return ro.resolveReal(g.Real)
	case spritegroup.KindDeterministic:
		return ro.resolveDeterministic(id, g.Deterministic)
	case spritegroup.KindRandomized:
		return ro.resolveRandomized(g.Randomized)
	default:
		// Terminals resolve to themselves.
		if ro.tracer != nil && g.Kind == spritegroup.KindCallbackResult {
			ro.tracer.Result(id, g.CallbackResult.Result)
		}
		return g
	}
}

// resolveReal picks a sprite set by fill ratio. Without an attached
// entity the loading set is preferred, falling back to loaded; with one
// the set matches the entity's loading state, again falling back to the
// other when empty.
func (ro *ResolverObject) resolveReal(g *spritegroup.RealGroup) *spritegroup.SpriteGroup {
	set := g.Loaded
	if !ro.Load.Attached {
		if len(g.Loading) > 0 {
			set = g.Loading
		}
		if len(set) == 0 {
			return nil
		}
		return ro.resolveID(set[0])
	}

	if ro.Load.Loading {
		set = g.Loading
	}
	if len(set) == 0 {
		// Single-sided groups serve both states.
		if ro.Load.Loading {
			set = g.Loaded
		} else {
			set = g.Loading
		}
	}
	if len(set) == 0 {
		return nil
	}

	index := 0
	if ro.Load.Capacity > 0 && len(set) > 1 {
		index = int(uint64(ro.Load.Stored) * uint64(len(set)) / uint64(ro.Load.Capacity))
		if index >= len(set) {
			index = len(set) - 1
		}
	}
	return ro.resolveID(set[index])
}

func (ro *ResolverObject) resolveDeterministic(id spritegroup.GroupID, g *spritegroup.DeterministicGroup) *spritegroup.SpriteGroup {
	scope := ro.GetScope(g.Scope, g.Relative)

	var last uint32
	i := 0
	for i < len(g.Adjusts) {
		adj := &g.Adjusts[i]

		if adj.Flags&spritegroup.AdjustFlagSkipOnZero != 0 && last == 0 {
			i++
			continue
		}
		if adj.Flags&spritegroup.AdjustFlagSkipOnLSB != 0 && last&1 != 0 {
			i++
			continue
		}

		raw, ok := ro.readVariable(adj, scope)
		if !ok {
			// Unsupported variable: stop evaluating and hand the
			// query to the diagnostic child, if any.
			ro.logger.Debug("resolve: variable unavailable",
				"variable", adj.Variable, "parameter", adj.Parameter)
			return ro.resolveID(g.Error)
		}

		last = EvalAdjust(g.Size, adj, ro, scope, last, raw)
		ro.LastValue = last

		if adj.Operation.IsJump() && jumpTaken(adj.Operation, last) {
			i += 1 + int(adj.SkipCount)
			continue
		}
		i++
	}

	if ro.tracer != nil {
		ro.tracer.Branch(id, last)
	}

	if g.Flags&spritegroup.DetFlagCalculatedResult != 0 {
		// The accumulator is the result; never recurse further.
		ro.calcResultVal.Result = uint16(last & uint32(spritegroup.CallbackResultMask))
		ro.calcResult = spritegroup.SpriteGroup{
			Kind:           spritegroup.KindCallbackResult,
			CallbackResult: &ro.calcResultVal,
		}
		if ro.tracer != nil {
			ro.tracer.Result(id, ro.calcResultVal.Result)
		}
		return &ro.calcResult
	}

	for _, r := range g.Ranges {
		if r.Contains(last) {
			return ro.resolveID(r.Group)
		}
	}
	return ro.resolveID(g.Default)
}

func (ro *ResolverObject) resolveRandomized(g *spritegroup.RandomizedGroup) *spritegroup.SpriteGroup {
	if len(g.Groups) == 0 {
		ro.logger.Debug("resolve: randomized group with no children")
		return nil
	}

	scope := ro.GetScope(g.Scope, 0)
	waiting := scope.GetTriggers() | ro.extraTriggers
	ro.waitingTriggers |= waiting

	if g.Triggers != 0 {
		match := false
		switch g.CmpMode {
		case spritegroup.CmpAll:
			match = waiting&uint32(g.Triggers) == uint32(g.Triggers)
		default:
			match = waiting&uint32(g.Triggers) != 0
		}
		if match {
			ro.usedTriggers |= uint32(g.Triggers)
			ro.reseed[g.Scope] |= uint32(len(g.Groups)-1) << g.LowestRandbit
		}
	}

	index := (scope.GetRandomBits() >> g.LowestRandbit) & uint32(len(g.Groups)-1)
	return ro.resolveID(g.Groups[index])
}

// readVariable produces the raw value an adjust reads, before shift and
// mask shaping. Engine-level pseudo-variables are answered here; entity
// variables go to the scope. ok=false reports an unavailable variable.
func (ro *ResolverObject) readVariable(adj *spritegroup.Adjust, scope ScopeResolver) (uint32, bool) {
	switch adj.Variable {
	case spritegroup.VarConstant:
		return 0xFFFFFFFF, true

	case spritegroup.VarLastComputed:
		return ro.LastValue, true

	case spritegroup.VarCallbackID:
		return uint32(ro.CallbackID), true

	case spritegroup.VarCallbackParam:
		return ro.CallbackParam, true

	case spritegroup.VarTemp:
		return ro.Registers.Get(adj.Parameter), true

	case spritegroup.VarRandomBits:
		return scope.GetRandomBits(), true

	case spritegroup.VarProcedure:
		return ro.callProcedure(adj.Subroutine), true

	default:
		if ro.Check.Enabled {
			ro.Check.SawEntityVar = true
		}
		extra := VariableExtra{Available: true}
		value := scope.GetVariable(adj.Variable, adj.Parameter, &extra)
		return value, extra.Available
	}
}

// callProcedure resolves a subroutine graph and reads its value: the
// result of a callback-result terminal, otherwise the subroutine's
// final accumulator. The register file and accumulator are shared with
// the caller on purpose.
func (ro *ResolverObject) callProcedure(sub spritegroup.GroupID) uint32 {
	g := ro.resolveID(sub)
	if g != nil && g.Kind == spritegroup.KindCallbackResult {
		return uint32(g.CallbackResult.Result)
	}
	return ro.LastValue
}
