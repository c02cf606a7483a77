package spritegroup

import "fmt"

// Arena owns every sprite-group node of one loaded data set. Nodes are
// appended during graph construction, addressed by dense GroupID, and
// never individually freed; dropping the arena drops the whole graph.
//
// The arena is not safe for concurrent mutation. After construction it
// is read-only and may be walked by any number of concurrent queries.
type Arena struct {
	nodes []SpriteGroup
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of nodes.
func (a *Arena) Len() int { return len(a.nodes) }

// Get returns the node for a handle, or nil for NilGroup or an
// out-of-range handle. Out-of-range handles cannot be produced by the
// graph compiler; nil is returned rather than panicking so a corrupt
// graph degrades to "no result".
func (a *Arena) Get(id GroupID) *SpriteGroup {
	if id.IsNil() || int(id) >= len(a.nodes) {
		return nil
	}
	return &a.nodes[id]
}

// Kind returns the kind of the node for a handle, with ok=false for an
// invalid handle.
func (a *Arena) Kind(id GroupID) (GroupKind, bool) {
	g := a.Get(id)
	if g == nil {
		return 0, false
	}
	return g.Kind, true
}

func (a *Arena) add(g SpriteGroup) GroupID {
	id := GroupID(len(a.nodes))
	a.nodes = append(a.nodes, g)
	return id
}

// AddReal appends a real group.
func (a *Arena) AddReal(g *RealGroup) GroupID {
	return a.add(SpriteGroup{Kind: KindReal, Real: g})
}

// AddDeterministic appends a deterministic group.
func (a *Arena) AddDeterministic(g *DeterministicGroup) GroupID {
	return a.add(SpriteGroup{Kind: KindDeterministic, Deterministic: g})
}

// AddRandomized appends a randomized group.
func (a *Arena) AddRandomized(g *RandomizedGroup) GroupID {
	return a.add(SpriteGroup{Kind: KindRandomized, Randomized: g})
}

// AddCallbackResult appends a terminal callback-result group.
func (a *Arena) AddCallbackResult(result uint16) GroupID {
	return a.add(SpriteGroup{Kind: KindCallbackResult, CallbackResult: &CallbackResultGroup{Result: result}})
}

// AddResult appends a terminal sprite-range group.
func (a *Arena) AddResult(firstSprite uint32, numSprites uint8) GroupID {
	return a.add(SpriteGroup{Kind: KindResult, Result: &ResultGroup{FirstSprite: firstSprite, NumSprites: numSprites}})
}

// AddTileLayout appends a terminal tile-layout group.
func (a *Arena) AddTileLayout(g *TileLayoutGroup) GroupID {
	return a.add(SpriteGroup{Kind: KindTileLayout, TileLayout: g})
}

// AddIndustryProduction appends a terminal industry-production group.
func (a *Arena) AddIndustryProduction(g *IndustryProductionGroup) GroupID {
	return a.add(SpriteGroup{Kind: KindIndustryProduction, IndustryProduction: g})
}

// CheckHandles verifies that every handle stored in the graph is either
// nil or in range. The compiler runs this once after linking; the
// evaluator assumes it.
func (a *Arena) CheckHandles() error {
	check := func(owner GroupID, id GroupID) error {
		if !id.IsNil() && int(id) >= len(a.nodes) {
			return fmt.Errorf("group %d references out-of-range handle %d (arena size %d)", owner, id, len(a.nodes))
		}
		return nil
	}
	for i := range a.nodes {
		owner := GroupID(i)
		switch g := &a.nodes[i]; g.Kind {
		case KindReal:
			for _, id := range g.Real.Loaded {
				if err := check(owner, id); err != nil {
					return err
				}
			}
			for _, id := range g.Real.Loading {
				if err := check(owner, id); err != nil {
					return err
				}
			}
		case KindDeterministic:
			d := g.Deterministic
			for _, r := range d.Ranges {
				if err := check(owner, r.Group); err != nil {
					return err
				}
			}
			if err := check(owner, d.Default); err != nil {
				return err
			}
			if err := check(owner, d.Error); err != nil {
				return err
			}
			for _, adj := range d.Adjusts {
				if adj.Variable == VarProcedure {
					if err := check(owner, adj.Subroutine); err != nil {
						return err
					}
				}
			}
		case KindRandomized:
			for _, id := range g.Randomized.Groups {
				if err := check(owner, id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
