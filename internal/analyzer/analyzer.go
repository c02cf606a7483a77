package analyzer

import (
	"github.com/grfkit/grfscope/internal/spritegroup"
)

// Analyzer walks a sprite-group graph once, after loading, and records
// which callbacks and variables the graph can reach. One Analyzer
// answers one question; dependent questions run on fresh sub-analyzers
// so their bookkeeping cannot leak into the parent traversal.
type Analyzer struct {
	arena *spritegroup.Arena
	op    AnalysisOp
	seen  map[spritegroup.GroupID]struct{}
	res   Result
}

// New returns an analyzer for one question over one graph.
func New(arena *spritegroup.Arena, op AnalysisOp) *Analyzer {
	return &Analyzer{
		arena: arena,
		op:    op,
		seen:  make(map[spritegroup.GroupID]struct{}),
	}
}

// Analyse runs a single traversal and returns its result.
func Analyse(arena *spritegroup.Arena, op AnalysisOp, root spritegroup.GroupID) *Result {
	a := New(arena, op)
	a.Analyse(root)
	return a.Result()
}

// AnalyseCallbacks reports which callbacks a graph can dispatch on.
// This is the question asked of every vehicle graph at load completion;
// the result is cached and consulted instead of resolving speculative
// callbacks at runtime.
func AnalyseCallbacks(arena *spritegroup.Arena, root spritegroup.GroupID) *Result {
	return Analyse(arena, OpCBVar, root)
}

// Result returns the accumulated answer. Valid after Analyse.
func (a *Analyzer) Result() *Result { return &a.res }

// sub runs a dependent question over a subtree with fresh bookkeeping
// and returns its result for selective merging.
func (a *Analyzer) sub(op AnalysisOp, root spritegroup.GroupID) *Result {
	return Analyse(a.arena, op, root)
}

// Analyse traverses the graph rooted at id. Revisits of deterministic
// and randomized nodes are cut by the shared seen set, so mutually
// recursive subroutines terminate and contribute their usage exactly
// once per traversal.
func (a *Analyzer) Analyse(id spritegroup.GroupID) {
	g := a.arena.Get(id)
	if g == nil {
		return
	}

	switch g.Kind {
	case spritegroup.KindReal:
		for _, child := range g.Real.Loaded {
			a.Analyse(child)
		}
		for _, child := range g.Real.Loading {
			a.Analyse(child)
		}

	case spritegroup.KindRandomized:
		if _, ok := a.seen[id]; ok {
			return
		}
		a.seen[id] = struct{}{}
		a.analyseRandomized(g.Randomized)

	case spritegroup.KindDeterministic:
		if _, ok := a.seen[id]; ok {
			return
		}
		a.seen[id] = struct{}{}
		a.analyseDeterministic(id, g.Deterministic)

	case spritegroup.KindCallbackResult:
		if a.op == OpFindCBResult && !a.res.Flags.Has(UsageFoundCBResult) {
			a.res.Flags |= UsageFoundCBResult
			a.res.CBResult = g.CallbackResult.Result & spritegroup.CallbackResultMask
		}

	default:
		// Sprite, layout and production terminals carry no variable
		// reads.
	}
}

func (a *Analyzer) analyseRandomized(g *spritegroup.RandomizedGroup) {
	// Selecting by random bits is an entity-state read no whitelist
	// admits.
	a.res.Flags |= UsageNonWhitelistedVar
	if a.op == OpFindRandomTrigger && g.Triggers != 0 {
		a.res.Flags |= UsageRandomTrigger
	}
	for _, child := range g.Groups {
		a.Analyse(child)
	}
}

func (a *Analyzer) analyseDeterministic(id spritegroup.GroupID, d *spritegroup.DeterministicGroup) {
	// Authoring tools disable switch branches by routing them through a
	// constant pass-through. Recursing into the dead arms would claim
	// usage the graph can never exercise, so partially evaluate the
	// constant and follow only the arm it selects.
	if isBypassCandidate(d) {
		if target, ok := a.bypassTarget(d); ok {
			if target.IsNil() {
				a.Analyse(d.Default)
			} else {
				a.Analyse(target)
			}
			return
		}
	}

	if a.op == OpFindCBResult {
		if v, ok := a.staticEvalGroup(id, 0); ok {
			if !a.res.Flags.Has(UsageFoundCBResult) {
				a.res.Flags |= UsageFoundCBResult
				a.res.CBResult = uint16(v) & spritegroup.CallbackResultMask
			}
			return
		}
	}

	if a.op == OpCBVar && a.classifyCallbackSwitch(d) {
		return
	}
	if a.op == OpCB36Prop && a.classifyPropertySwitch(d) {
		return
	}

	a.scanAdjusts(d)

	for _, r := range d.Ranges {
		a.Analyse(r.Group)
	}
	a.Analyse(d.Default)
	// The error child is a load-time diagnostic and never resolved, so
	// it contributes no usage.
}

// classifyCallbackSwitch recognizes the canonical callback dispatch
// shape: a single unshifted read of the callback-id variable with every
// range arm guarding exactly one callback. Arms for known callbacks set
// their dedicated flags, and the dependent questions the engine caches
// against run on the classified arm alone. Returns false when the group
// does not have the shape, leaving it to the generic scan.
func (a *Analyzer) classifyCallbackSwitch(d *spritegroup.DeterministicGroup) bool {
	if !isSinglePointSwitch(d, spritegroup.VarCallbackID) {
		return false
	}

	for _, r := range d.Ranges {
		a.res.markCallback(r.Low)

		switch spritegroup.CallbackID(r.Low) {
		case spritegroup.Callback32DayTick:
			a.res.Flags |= Usage32DayTick

		case spritegroup.CallbackRefitCost:
			a.res.Flags |= UsageRefitCost

		case spritegroup.CallbackModifyProperty:
			a.res.Flags |= UsageModifyProperty
			sub := a.sub(OpCB36Prop, r.Group)
			a.res.CB36Properties |= sub.CB36Properties
			a.res.Flags |= sub.Flags & (UsageRailtypeVar | UsageNonWhitelistedVar)

		case spritegroup.CallbackRefitCapacity:
			a.res.Flags |= UsageRefitCapacity
			sub := a.sub(OpRefitCapacity, r.Group)
			a.res.Flags |= sub.Flags & UsageNonWhitelistedVar

		case spritegroup.CallbackRandomTrigger:
			sub := a.sub(OpFindRandomTrigger, r.Group)
			a.res.Flags |= sub.Flags & UsageRandomTrigger

		default:
			// Unrecognized callback: the arm may dispatch further, so
			// keep walking it under the same question.
			a.Analyse(r.Group)
		}
	}

	a.Analyse(d.Default)
	return true
}

// classifyPropertySwitch recognizes a modify-property dispatch: a single
// read of the callback parameter with single-property arms. Each arm
// marks its property; the speed property additionally asks whether the
// railtype variable is reachable under it, because speed overrides are
// cached per railtype only when they depend on it.
func (a *Analyzer) classifyPropertySwitch(d *spritegroup.DeterministicGroup) bool {
	if !isSinglePointSwitch(d, spritegroup.VarCallbackParam) {
		return false
	}
	for _, r := range d.Ranges {
		if r.Low >= 64 {
			return false
		}
	}

	for _, r := range d.Ranges {
		a.res.CB36Properties |= 1 << r.Low
		if r.Low == spritegroup.PropVehicleSpeed {
			sub := a.sub(OpRailtypeSpeed, r.Group)
			a.res.Flags |= sub.Flags & UsageRailtypeVar
		}
	}

	a.Analyse(d.Default)
	return true
}

// isSinglePointSwitch reports whether a deterministic group is a plain
// dispatch on one variable: a single unshifted identity-masked read and
// only single-value range arms.
func isSinglePointSwitch(d *spritegroup.DeterministicGroup, variable uint8) bool {
	if len(d.Adjusts) != 1 {
		return false
	}
	adj := &d.Adjusts[0]
	if adj.Variable != variable || adj.Shift != 0 || adj.Type != spritegroup.TypeNone {
		return false
	}
	if adj.AndMask != d.Size.Mask() && adj.AndMask != 0xFFFFFFFF {
		return false
	}
	for _, r := range d.Ranges {
		if r.Low != r.High {
			return false
		}
	}
	return true
}

// refitCapacityWhitelisted reports whether a refit-capacity subtree may
// read the variable while remaining a pure function of the refit
// request. Anything else makes the capacity result entity-dependent and
// uncacheable.
func refitCapacityWhitelisted(variable uint8) bool {
	switch variable {
	case spritegroup.VarConstant,
		spritegroup.VarLastComputed,
		spritegroup.VarCallbackID,
		spritegroup.VarCallbackParam,
		spritegroup.VarTemp:
		return true
	default:
		return false
	}
}

// scanAdjusts examines each instruction of an unclassified group for
// reads the active question cares about. Subroutine calls recurse under
// the same question and the same seen set, which is what makes mutually
// recursive procedures terminate.
func (a *Analyzer) scanAdjusts(d *spritegroup.DeterministicGroup) {
	for i := range d.Adjusts {
		adj := &d.Adjusts[i]

		if adj.Variable == spritegroup.VarProcedure {
			a.Analyse(adj.Subroutine)
		}

		switch a.op {
		case OpCBVar:
			if adj.Variable == spritegroup.VarCallbackID {
				// A shifted or masked callback-id read cannot be
				// classified arm by arm.
				a.res.Flags |= UsageAllCallbacks
			}

		case OpCB36Prop:
			if adj.Variable == spritegroup.VarCallbackParam {
				a.res.CB36Properties = ^uint64(0)
				a.res.Flags |= UsageNonWhitelistedVar
			}

		case OpRailtypeSpeed:
			if adj.Variable == spritegroup.VarRailtype {
				a.res.Flags |= UsageRailtypeVar
			}

		case OpRefitCapacity:
			if adj.Variable != spritegroup.VarProcedure && !refitCapacityWhitelisted(adj.Variable) {
				a.res.Flags |= UsageNonWhitelistedVar
			}

		case OpIndustryTileAnim:
			switch adj.Variable {
			case spritegroup.VarAnimFrame:
				a.res.Flags |= UsageAnimationFrame
				a.res.addAnimOffset(0)
			case spritegroup.VarNearbyAnimFrame:
				a.res.Flags |= UsageAnimationFrame
				a.res.addAnimOffset(uint8(adj.Parameter))
			}
		}

		if adj.Flags&spritegroup.AdjustFlagLastVarRead != 0 {
			break
		}
	}
}
