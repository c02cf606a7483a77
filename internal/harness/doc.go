// Package harness runs YAML-authored resolution scenarios against
// compiled graphs.
//
// A scenario names a CUE graph source and a list of queries: callback,
// parameter, variable bindings, random bits, triggers. The runner
// compiles and links the graph once, resolves every query with a fresh
// resolver, and checks the expectations inline. RunWithGolden
// additionally snapshots all query outcomes as canonical JSON and
// compares against a goldie golden file, regenerated with -update.
package harness
