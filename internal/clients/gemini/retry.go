package gemini

import "time"

// RetryConfig defines retry behavior for transient Gemini API failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first call
	MaxAttempts int

	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to the backoff on each retry
	BackoffMultiplier float64
}

// Default retry constants.
const (
	DefaultMaxAttempts       = 3
	DefaultInitialBackoff    = 2 * time.Second
	DefaultMaxBackoff        = 60 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// NewDefaultRetryConfig returns the default retry configuration.
func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       DefaultMaxAttempts,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// Backoff computes the wait duration before retry number attempt (0-based
// retry index: attempt 0 waits InitialBackoff).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	backoff := c.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * c.BackoffMultiplier)
		if backoff >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}
