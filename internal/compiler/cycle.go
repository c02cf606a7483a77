package compiler

import (
	"fmt"
	"strings"

	"github.com/grfkit/grfscope/internal/ir"
	"github.com/grfkit/grfscope/internal/spritegroup"
)

// CycleWarning reports a reference cycle between groups.
//
// Cycles are warnings, not errors: a cycle through a range arm or a
// subroutine can be legal when every lap consumes input (the runtime
// and the analyzer both carry their own re-entry guards). A cycle that
// never consumes input hangs resolution, which is an authoring bug this
// warning exists to surface early.
type CycleWarning struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// AnalyzeCycles finds strongly connected components over the group
// reference graph: subroutine, range, default, randomized, and real
// sprite-set edges. Each SCC larger than one node, and each self-loop,
// yields one warning. A DAG yields none.
func AnalyzeCycles(def *ir.GraphDef) []CycleWarning {
	graph := buildReferenceGraph(def)
	sccs := tarjanSCC(graph)

	var warnings []CycleWarning
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	return warnings
}

// referenceGraph maps group name to the names it references.
type referenceGraph map[string][]string

func buildReferenceGraph(def *ir.GraphDef) referenceGraph {
	graph := make(referenceGraph, len(def.Groups))

	for i := range def.Groups {
		g := &def.Groups[i]
		edges := []string{}

		add := func(name string) {
			if name != "" {
				edges = append(edges, name)
			}
		}

		for _, adj := range g.Adjusts {
			if adj.Variable == int64(spritegroup.VarProcedure) {
				add(adj.Subroutine)
			}
		}
		for _, r := range g.Ranges {
			add(r.Group)
		}
		add(g.Default)
		for _, name := range g.Groups {
			add(name)
		}
		for _, name := range g.Loaded {
			add(name)
		}
		for _, name := range g.Loading {
			add(name)
		}
		// The error child is diagnostic-only and unreachable at
		// runtime, so it cannot close a live cycle.

		graph[g.Name] = edges
	}

	return graph
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Single-node SCCs
// without self-loops are not cycles.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for node := range graph {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToWarning(scc []string, graph referenceGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("group %q references itself", name),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("reference cycle: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until the walk returns to the start, producing one concrete cycle for
// the message.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := map[string]bool{start: true}

	for {
		var next string
		for _, w := range graph[current] {
			if w == start {
				next = w
				break
			}
			if members[w] && !visited[w] {
				next = w
				break
			}
		}
		if next == "" {
			// SCC membership guarantees a closing edge exists; bail if
			// the walk stalls anyway rather than looping forever.
			return append(path, start)
		}
		path = append(path, next)
		if next == start {
			return path
		}
		visited[next] = true
		current = next
	}
}
