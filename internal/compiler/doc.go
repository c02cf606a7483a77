// Package compiler turns authored CUE graph sources into linked runtime
// arenas.
//
// The pipeline is CompileGraph (CUE value to ir.GraphDef), Validate
// (structural checks; the evaluator assumes a validated graph and never
// re-checks at runtime), AnalyzeCycles (reference cycles reported as
// warnings, since input-consuming cycles are legal), and Link
// (ir.GraphDef to a spritegroup.Arena with symbolic references resolved
// to handles and jump distances resolved against end-block markers).
package compiler
