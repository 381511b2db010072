package ir

// Version constants for the expansion engine and stored run format.
const (
	// FormatVersion is the stored run format version.
	FormatVersion = "1"

	// EngineVersion is the provtmpl engine version.
	EngineVersion = "0.1.0"
)
