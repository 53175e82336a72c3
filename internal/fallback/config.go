package fallback

import "time"

// Default retry policy values.
const (
	DefaultMaxRetryAttempts = 3
	DefaultRetryDelay       = time.Second
)

// Config holds the orchestrator's retry policy and feature flags.
//
// In-flight loads capture the config at dispatch time; updates apply
// only to loads dispatched afterwards.
type Config struct {
	// EnableLogging controls the orchestrator's structured log output.
	EnableLogging bool

	// EnableChunkFallback gates fallback substitution for chunk loads.
	// When off, registered chunk fallbacks are kept but not consulted.
	EnableChunkFallback bool

	// EnableComponentFallback gates fallback substitution for component
	// loads.
	EnableComponentFallback bool

	// MaxRetryAttempts is the number of retries after the first failed
	// attempt. Zero disables retrying.
	MaxRetryAttempts int

	// RetryDelay is the wait before the first retry. Subsequent retries
	// double the wait (exponential backoff).
	RetryDelay time.Duration
}

// DefaultConfig returns the documented defaults: three retries starting
// at one second, both fallback kinds enabled, logging enabled.
func DefaultConfig() Config {
	return Config{
		EnableLogging:           true,
		EnableChunkFallback:     true,
		EnableComponentFallback: true,
		MaxRetryAttempts:        DefaultMaxRetryAttempts,
		RetryDelay:              DefaultRetryDelay,
	}
}

// ConfigPatch is a partial config update. Nil fields keep their current
// value; set fields overwrite it.
type ConfigPatch struct {
	EnableLogging           *bool
	EnableChunkFallback     *bool
	EnableComponentFallback *bool
	MaxRetryAttempts        *int
	RetryDelay              *time.Duration
}

// merged returns c with the patch applied.
func (c Config) merged(p ConfigPatch) Config {
	if p.EnableLogging != nil {
		c.EnableLogging = *p.EnableLogging
	}
	if p.EnableChunkFallback != nil {
		c.EnableChunkFallback = *p.EnableChunkFallback
	}
	if p.EnableComponentFallback != nil {
		c.EnableComponentFallback = *p.EnableComponentFallback
	}
	if p.MaxRetryAttempts != nil && *p.MaxRetryAttempts >= 0 {
		c.MaxRetryAttempts = *p.MaxRetryAttempts
	}
	if p.RetryDelay != nil && *p.RetryDelay >= 0 {
		c.RetryDelay = *p.RetryDelay
	}
	return c
}
