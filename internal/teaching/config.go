package teaching

// LowUnderstanding is the checkpoint score below which a single response
// is flagged for remediation.
const LowUnderstanding = 0.4

// Config holds lesson content generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for lesson content.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   3000,
		Temperature: 0.7,
	}
}

// CheckpointConfig holds checkpoint analysis settings.
type CheckpointConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultCheckpointConfig returns sensible defaults for checkpoint analysis.
func DefaultCheckpointConfig() CheckpointConfig {
	return CheckpointConfig{
		MaxTokens:   256,
		Temperature: 0.3,
	}
}
