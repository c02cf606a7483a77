// Package store persists analysis results and resolution traces in
// SQLite.
//
// Two tables. "analyses" caches the callback-usage analyzer's output
// keyed by graph content hash, so re-analyzing an unchanged graph is a
// single indexed read. "trace_events" records the step-by-step node
// walk of individual resolutions keyed by query token, which is what
// the trace CLI command replays.
//
// The database runs in WAL mode with a single writer connection; reads
// stay concurrent with writes.
package store
