package ir

const (
	// FormatVersion is the version of the persisted record format.
	FormatVersion = "1"

	// EngineVersion is the barline engine version.
	EngineVersion = "0.1.0"
)
