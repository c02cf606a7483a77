// Package eval is the runtime sprite-group evaluator.
//
// One ResolverObject orchestrates one query: it owns the scope
// resolvers, the in-flight accumulator and register state, and walks a
// read-only sprite-group graph depth-first until it reaches a terminal
// node. The per-step arithmetic lives in EvalAdjust, a pure function
// except for the two register-store operations.
//
// STATE MODEL:
//
// The temporary register file is shared across every nested resolve of
// one top-level query. Subroutine calls and relative-scope lookups
// deliberately observe each other's stores; this is how multi-part
// expressions communicate. Callers that need several top-level queries
// to be mutually invisible (vehicle construction wanting reproducible
// randomness) wrap each query in a RegisterSnapshot guard.
//
// The evaluator performs no cycle detection. Well-formed graphs, as
// emitted by the graph compiler, cannot recurse unboundedly for a fixed
// entity; that precondition is validated at load time, not defended
// here. Malformed lookups degrade to "no result" with a diagnostic log
// line, never a panic.
package eval
