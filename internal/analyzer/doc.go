// Package analyzer is the load-time callback-usage analyzer: a second,
// independent traversal over the sprite-group graph that predicts which
// callbacks, properties, and variables a graph could ever need, without
// evaluating it.
//
// The runtime evaluator needs live entity context; the analyzer runs
// once at load completion, before any entity referencing the data
// exists. Every decision is therefore a structural pattern match over
// node and adjust shapes. The single exception is bypass detection,
// which partially evaluates sub-expressions proven entity-independent.
//
// Each top-level question is an AnalysisOp. Sub-questions (which cb36
// property, is the speed override railtype-sensitive) run as nested
// traversals with their own visited set and result, and only the flags
// the caller asked for are merged back; unrelated findings of a nested
// pass never leak upward.
//
// The visited set is the cycle guard. A deterministic node is marked
// before any child is traversed, so a cycle through subroutine or
// default edges is cut on its first re-entry. This guard, not any
// structural invariant of the graph, is what bounds the traversal.
package analyzer
