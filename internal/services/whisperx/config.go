package whisperx

// Config captures runtime settings for WhisperX invocations.
type Config struct {
	// Command is the whisperx command line, split with shell quoting rules,
	// e.g. "whisperx" or "uvx whisperx".
	Command string
	// Device is "cpu" or "cuda".
	Device string
	// ComputeType is passed through as --compute_type, e.g. "int8".
	ComputeType string
	// Language is an ISO 639-1 code; empty lets WhisperX detect it.
	Language string
}

// WhisperX defaults.
const (
	DefaultCommand     = "whisperx"
	DefaultModel       = "small"
	DefaultDevice      = "cpu"
	DefaultComputeType = "int8"
	OutputFormat       = "json"
	BeamSize           = "5"
)
