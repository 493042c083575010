package ir

// Version constants for the IR schema and compiler.
const (
	// IRVersion is the IR schema version written to archives.
	IRVersion = "1"

	// CompilerVersion is the absc compiler version.
	CompilerVersion = "0.1.0"
)
