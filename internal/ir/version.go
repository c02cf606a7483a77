package ir

// Schema and engine version constants.
const (
	// Version is the graph definition schema version.
	Version = "1"

	// EngineVersion is the grfscope engine version recorded alongside
	// cached analyses.
	EngineVersion = "0.1.0"
)
