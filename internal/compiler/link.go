package compiler

import (
	"fmt"

	"github.com/grfkit/grfscope/internal/ir"
	"github.com/grfkit/grfscope/internal/spritegroup"
)

// LinkError is a reference-resolution failure during linking.
type LinkError struct {
	Group   string
	Field   string
	Message string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link group %q: %s: %s", e.Group, e.Field, e.Message)
}

// Link lowers a validated graph definition into an arena and returns
// the root handle. Symbolic names become dense handles in definition
// order, jump distances are resolved against end-block markers, and
// range order is preserved exactly as authored.
//
// Link assumes Validate passed; on malformed input it returns an error
// rather than building a graph the evaluator would misread.
func Link(def *ir.GraphDef) (*spritegroup.Arena, spritegroup.GroupID, error) {
	arena := spritegroup.NewArena()

	ids := make(map[string]spritegroup.GroupID, len(def.Groups))
	for i := range def.Groups {
		g := &def.Groups[i]
		if _, dup := ids[g.Name]; dup {
			return nil, spritegroup.NilGroup, &LinkError{Group: g.Name, Field: "name", Message: "duplicate group name"}
		}
		id, err := allocate(arena, g)
		if err != nil {
			return nil, spritegroup.NilGroup, err
		}
		ids[g.Name] = id
	}

	// Second pass fills in the handle references now that every name
	// has an ID, so definition order never constrains reference order.
	for i := range def.Groups {
		g := &def.Groups[i]
		if err := populate(arena, g, ids); err != nil {
			return nil, spritegroup.NilGroup, err
		}
	}

	if err := arena.CheckHandles(); err != nil {
		return nil, spritegroup.NilGroup, err
	}

	root, ok := ids[def.Root]
	if !ok {
		return nil, spritegroup.NilGroup, &LinkError{Field: "root", Message: fmt.Sprintf("undefined root group %q", def.Root)}
	}
	return arena, root, nil
}

func allocate(arena *spritegroup.Arena, g *ir.GroupDef) (spritegroup.GroupID, error) {
	kind, err := ir.ParseKind(g.Kind)
	if err != nil {
		return spritegroup.NilGroup, &LinkError{Group: g.Name, Field: "kind", Message: err.Error()}
	}

	switch kind {
	case spritegroup.KindReal:
		return arena.AddReal(&spritegroup.RealGroup{}), nil
	case spritegroup.KindDeterministic:
		return arena.AddDeterministic(&spritegroup.DeterministicGroup{
			Default: spritegroup.NilGroup,
			Error:   spritegroup.NilGroup,
		}), nil
	case spritegroup.KindRandomized:
		return arena.AddRandomized(&spritegroup.RandomizedGroup{}), nil
	case spritegroup.KindCallbackResult:
		return arena.AddCallbackResult(uint16(g.Result)), nil
	case spritegroup.KindResult:
		return arena.AddResult(uint32(g.FirstSprite), uint8(g.NumSprites)), nil
	case spritegroup.KindTileLayout:
		return arena.AddTileLayout(&spritegroup.TileLayoutGroup{}), nil
	default:
		return arena.AddIndustryProduction(&spritegroup.IndustryProductionGroup{}), nil
	}
}

func populate(arena *spritegroup.Arena, g *ir.GroupDef, ids map[string]spritegroup.GroupID) error {
	resolve := func(field, name string) (spritegroup.GroupID, error) {
		if name == "" {
			return spritegroup.NilGroup, nil
		}
		id, ok := ids[name]
		if !ok {
			return spritegroup.NilGroup, &LinkError{Group: g.Name, Field: field, Message: fmt.Sprintf("undefined group %q", name)}
		}
		return id, nil
	}
	resolveAll := func(field string, names []string) ([]spritegroup.GroupID, error) {
		if len(names) == 0 {
			return nil, nil
		}
		out := make([]spritegroup.GroupID, len(names))
		for i, name := range names {
			id, err := resolve(field, name)
			if err != nil {
				return nil, err
			}
			out[i] = id
		}
		return out, nil
	}

	node := arena.Get(ids[g.Name])

	switch node.Kind {
	case spritegroup.KindReal:
		loaded, err := resolveAll("loaded", g.Loaded)
		if err != nil {
			return err
		}
		loading, err := resolveAll("loading", g.Loading)
		if err != nil {
			return err
		}
		node.Real.Loaded = loaded
		node.Real.Loading = loading

	case spritegroup.KindDeterministic:
		return populateDeterministic(node.Deterministic, g, resolve)

	case spritegroup.KindRandomized:
		scope, err := ir.ParseScope(g.Scope)
		if err != nil {
			return &LinkError{Group: g.Name, Field: "scope", Message: err.Error()}
		}
		mode, err := ir.ParseCmpMode(g.CmpMode)
		if err != nil {
			return &LinkError{Group: g.Name, Field: "cmp_mode", Message: err.Error()}
		}
		groups, err := resolveAll("groups", g.Groups)
		if err != nil {
			return err
		}
		node.Randomized.Scope = scope
		node.Randomized.CmpMode = mode
		node.Randomized.Triggers = uint8(g.Triggers)
		node.Randomized.LowestRandbit = uint8(g.LowestRandbit)
		node.Randomized.Groups = groups
	}

	return nil
}

type resolveFunc func(field, name string) (spritegroup.GroupID, error)

func populateDeterministic(d *spritegroup.DeterministicGroup, g *ir.GroupDef, resolve resolveFunc) error {
	scope, err := ir.ParseScope(g.Scope)
	if err != nil {
		return &LinkError{Group: g.Name, Field: "scope", Message: err.Error()}
	}
	size, err := ir.ParseSize(g.Size)
	if err != nil {
		return &LinkError{Group: g.Name, Field: "size", Message: err.Error()}
	}

	d.Scope = scope
	d.Size = size
	d.Relative = uint16(g.Relative)
	if g.CalculatedResult {
		d.Flags |= spritegroup.DetFlagCalculatedResult
	}

	d.Adjusts = make([]spritegroup.Adjust, len(g.Adjusts))
	for i := range g.Adjusts {
		adj, err := linkAdjust(g, i, resolve)
		if err != nil {
			return err
		}
		d.Adjusts[i] = adj
		if adj.Operation.HasSideEffect() {
			d.Flags |= spritegroup.DetFlagNoDoubleEval
		}
	}
	if g.NoDoubleEval {
		d.Flags |= spritegroup.DetFlagNoDoubleEval
	}

	d.Ranges = make([]spritegroup.Range, len(g.Ranges))
	for i, r := range g.Ranges {
		group, err := resolve(fmt.Sprintf("ranges[%d]", i), r.Group)
		if err != nil {
			return err
		}
		d.Ranges[i] = spritegroup.Range{Low: uint32(r.Low), High: uint32(r.High), Group: group}
	}

	if d.Default, err = resolve("default", g.Default); err != nil {
		return err
	}
	if d.Error, err = resolve("error", g.Error); err != nil {
		return err
	}
	return nil
}

func linkAdjust(g *ir.GroupDef, i int, resolve resolveFunc) (spritegroup.Adjust, error) {
	def := &g.Adjusts[i]
	field := fmt.Sprintf("adjusts[%d]", i)

	op, err := ir.ParseOp(def.Op)
	if err != nil {
		return spritegroup.Adjust{}, &LinkError{Group: g.Name, Field: field, Message: err.Error()}
	}
	typ, err := ir.ParseAdjustType(def.Type)
	if err != nil {
		return spritegroup.Adjust{}, &LinkError{Group: g.Name, Field: field, Message: err.Error()}
	}

	adj := spritegroup.Adjust{
		Operation:  op,
		Type:       typ,
		Variable:   uint8(def.Variable),
		Parameter:  uint32(def.Parameter),
		Shift:      uint8(def.Shift),
		AndMask:    uint32(def.AndMask),
		AddVal:     uint32(def.AddVal),
		DivMod:     uint32(def.DivMod),
		Subroutine: spritegroup.NilGroup,
	}

	if def.SkipOnZero {
		adj.Flags |= spritegroup.AdjustFlagSkipOnZero
	}
	if def.SkipOnLSB {
		adj.Flags |= spritegroup.AdjustFlagSkipOnLSB
	}
	if def.LastVarRead {
		adj.Flags |= spritegroup.AdjustFlagLastVarRead
	}
	if def.EndBlock {
		adj.Flags |= spritegroup.AdjustFlagEndBlock
	}

	if adj.Variable == spritegroup.VarProcedure {
		if adj.Subroutine, err = resolve(field, def.Subroutine); err != nil {
			return spritegroup.Adjust{}, err
		}
		if adj.Subroutine.IsNil() {
			return spritegroup.Adjust{}, &LinkError{Group: g.Name, Field: field, Message: "procedure read needs a subroutine"}
		}
	}

	if op.IsJump() {
		skip, err := resolveSkip(g.Adjusts, i, def.Skip)
		if err != nil {
			return spritegroup.Adjust{}, &LinkError{Group: g.Name, Field: field, Message: err.Error()}
		}
		adj.SkipCount = skip
	}

	return adj, nil
}

// resolveSkip turns a jump's authored target into an instruction count.
// An explicit skip wins; otherwise the jump lands just past the next
// end-block marker. Authors nest blocks by writing explicit skips on
// the inner jumps.
func resolveSkip(adjusts []ir.AdjustDef, i int, explicit int64) (uint8, error) {
	if explicit != 0 {
		if explicit < 0 || explicit > 0xFF {
			return 0, fmt.Errorf("skip %d must fit a byte", explicit)
		}
		return uint8(explicit), nil
	}
	for j := i + 1; j < len(adjusts); j++ {
		if adjusts[j].EndBlock {
			if j-i > 0xFF {
				return 0, fmt.Errorf("jump distance %d must fit a byte", j-i)
			}
			return uint8(j - i), nil
		}
	}
	return 0, fmt.Errorf("jump has no skip count and no later end-block marker")
}
