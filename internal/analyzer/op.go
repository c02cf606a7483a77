package analyzer

import "github.com/grfkit/grfscope/internal/spritegroup"

// AnalysisOp selects which question a traversal answers.
type AnalysisOp uint8

const (
	// OpCBVar asks which callbacks the graph can dispatch on.
	OpCBVar AnalysisOp = iota

	// OpCB36Prop asks which modify-property indices a subtree can
	// serve. Entered from OpCBVar on a classified modify-property arm.
	OpCB36Prop

	// OpRefitCapacity asks whether a refit-capacity subtree reads only
	// whitelisted variables, making its result safe to precompute.
	OpRefitCapacity

	// OpRailtypeSpeed asks whether the railtype variable is reachable;
	// asked of speed-property subtrees.
	OpRailtypeSpeed

	// OpFindCBResult looks for the first literal callback-result
	// constant reachable under fixed input assumptions.
	OpFindCBResult

	// OpIndustryTileAnim asks whether animation-frame state is read,
	// and through which positional offsets.
	OpIndustryTileAnim

	// OpFindRandomTrigger looks for any random-trigger usage.
	OpFindRandomTrigger
)

var analysisOpNames = [...]string{
	"cb_var", "cb36_prop", "refit_capacity", "railtype_speed",
	"find_cb_result", "industry_tile_anim", "find_random_trigger",
}

func (op AnalysisOp) String() string {
	if int(op) < len(analysisOpNames) {
		return analysisOpNames[op]
	}
	return "unknown"
}

// Usage is the bit-flag summary a traversal accumulates.
type Usage uint16

const (
	// UsageFoundCBResult marks that a literal callback result was
	// found (OpFindCBResult).
	UsageFoundCBResult Usage = 1 << iota

	// Usage32DayTick marks the 32-day tick callback reachable.
	Usage32DayTick

	// UsageRefitCost marks the refit cost callback reachable.
	UsageRefitCost

	// UsageModifyProperty marks the modify-property callback reachable.
	UsageModifyProperty

	// UsageRefitCapacity marks the refit capacity callback reachable.
	UsageRefitCapacity

	// UsageRandomTrigger marks random-trigger usage.
	UsageRandomTrigger

	// UsageNonWhitelistedVar marks a variable read outside the active
	// mode's whitelist; the subtree is not analyzable as a pure
	// function of listed variables.
	UsageNonWhitelistedVar

	// UsageRailtypeVar marks the railtype variable reachable.
	UsageRailtypeVar

	// UsageAnimationFrame marks animation-frame reads.
	UsageAnimationFrame

	// UsageAllCallbacks marks an unclassifiable callback-id read: every
	// callback must be assumed reachable.
	UsageAllCallbacks
)

// Has reports whether all given flags are set.
func (u Usage) Has(flags Usage) bool { return u&flags == flags }

var usageNames = []struct {
	flag Usage
	name string
}{
	{UsageFoundCBResult, "found_cb_result"},
	{Usage32DayTick, "32_day_tick"},
	{UsageRefitCost, "refit_cost"},
	{UsageModifyProperty, "modify_property"},
	{UsageRefitCapacity, "refit_capacity"},
	{UsageRandomTrigger, "random_trigger"},
	{UsageNonWhitelistedVar, "non_whitelisted_var"},
	{UsageRailtypeVar, "railtype_var"},
	{UsageAnimationFrame, "animation_frame"},
	{UsageAllCallbacks, "all_callbacks"},
}

func (u Usage) String() string {
	if u == 0 {
		return "none"
	}
	s := ""
	for _, n := range usageNames {
		if u&n.flag == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	return s
}

// Result is the output of one analysis traversal, cached at load
// completion and consulted on the hot path instead of re-running the
// analysis.
type Result struct {
	Flags Usage

	// CallbacksUsed has one bit per classified callback ID below 64.
	// Unclassifiable reads set UsageAllCallbacks instead.
	CallbacksUsed uint64

	// CB36Properties has one bit per modify-property index below 64.
	CB36Properties uint64

	// CBResult is the literal found by OpFindCBResult when
	// UsageFoundCBResult is set.
	CBResult uint16

	// AnimOffsets lists the positional offsets of nearby
	// animation-frame reads, in first-seen order.
	AnimOffsets []uint8
}

// CallbackUsed reports whether a specific callback was classified as
// reachable, or every callback must be assumed reachable.
func (r *Result) CallbackUsed(id spritegroup.CallbackID) bool {
	if r.Flags.Has(UsageAllCallbacks) {
		return true
	}
	if id >= 64 {
		return false
	}
	return r.CallbacksUsed&(1<<id) != 0
}

// PropertyUsed reports whether a modify-property index was marked.
func (r *Result) PropertyUsed(prop uint32) bool {
	if prop >= 64 {
		return false
	}
	return r.CB36Properties&(1<<prop) != 0
}

func (r *Result) addAnimOffset(offset uint8) {
	for _, o := range r.AnimOffsets {
		if o == offset {
			return
		}
	}
	r.AnimOffsets = append(r.AnimOffsets, offset)
}

func (r *Result) markCallback(id uint32) {
	if id < 64 {
		r.CallbacksUsed |= 1 << id
	} else {
		r.Flags |= UsageAllCallbacks
	}
}
