package classifier

import (
	"fmt"
	"time"
)

// Backoff kinds for the delay between poll attempts.
const (
	BackoffConstant    = "constant"
	BackoffExponential = "exponential"
)

// Config holds the classification client settings. It is built from the
// application configuration and passed in at construction.
type Config struct {
	// SubmitURL is the job submission endpoint; results are polled at SubmitURL/{event_id}.
	// An empty URL disables classification.
	SubmitURL string

	// MaxAttempts bounds the number of poll requests per job.
	MaxAttempts int
	// PollDelay is the wait between poll attempts (the base delay for exponential backoff).
	PollDelay time.Duration
	// MaxDelay caps a single exponential wait; zero means uncapped.
	MaxDelay time.Duration
	// Backoff is BackoffConstant or BackoffExponential.
	Backoff string

	// RequestTimeout bounds each HTTP request, including a streamed poll response.
	RequestTimeout time.Duration

	// SkipEmptyDescription skips the round trip when there is no description to classify.
	SkipEmptyDescription bool

	Breaker BreakerConfig
}

// BreakerConfig configures the circuit breaker around the classification service.
type BreakerConfig struct {
	Enabled bool
	// FailureThreshold is the number of consecutive failed jobs that opens the circuit.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before letting a probe through.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:          5,
		PollDelay:            time.Second,
		MaxDelay:             10 * time.Second,
		Backoff:              BackoffConstant,
		RequestTimeout:       30 * time.Second,
		SkipEmptyDescription: true,
		Breaker: BreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
			HalfOpenRequests: 1,
		},
	}
}

// Enabled reports whether a classification service is configured.
func (c Config) Enabled() bool {
	return c.SubmitURL != ""
}

// Validate checks the attempt budget and delays.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("classifier max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.PollDelay <= 0 {
		return fmt.Errorf("classifier poll delay must be positive, got %s", c.PollDelay)
	}
	if c.MaxDelay < 0 {
		return fmt.Errorf("classifier max delay must not be negative, got %s", c.MaxDelay)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("classifier request timeout must be positive, got %s", c.RequestTimeout)
	}
	switch c.Backoff {
	case BackoffConstant, BackoffExponential:
	default:
		return fmt.Errorf("classifier backoff must be %q or %q, got %q", BackoffConstant, BackoffExponential, c.Backoff)
	}
	if c.Breaker.Enabled && c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("classifier breaker failure threshold must be at least 1")
	}
	return nil
}
