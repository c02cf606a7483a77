// Package spritegroup defines the sprite-group node model: the tagged
// node variants that form an Action-2 callback graph, the adjust
// instruction set evaluated against them, and the arena that owns every
// node for the lifetime of one loaded data set.
//
// ARCHITECTURE:
//
// Closed sum type:
// A SpriteGroup is a tagged variant (Kind plus exactly one non-nil
// payload). Dispatch over node kinds is a switch on Kind, so adding a
// variant forces every consumer switch to be revisited at compile time.
// There is no open inheritance hierarchy.
//
// Arena ownership:
// All nodes live in a single append-only Arena and reference each other
// through dense GroupID handles, never pointers. The arena is built once
// by the graph compiler, is read-only afterwards, and is torn down as a
// unit when the data set is unloaded. Handles stay valid for the arena's
// whole lifetime; nodes are never individually freed.
//
// Graphs are NOT guaranteed acyclic by construction. Subroutine and
// default edges may form cycles; the load-time analyzer carries the
// cycle guard, the runtime evaluator relies on the loader-validated
// precondition that evaluation terminates for well-formed graphs.
package spritegroup
