package client

import (
	"github.com/vyrodovalexey/avagql/internal/retry"
	"github.com/vyrodovalexey/avagql/internal/util"
)

// ExecuteOptions controls the retry behaviour of a single execution.
type ExecuteOptions struct {
	// MaxTries is the total number of attempts. Must be at least 1.
	MaxTries int

	// Backoff is the full-jitter window, in seconds.
	Backoff retry.JitterConfig

	// ExcInfo attaches a stack trace to retry warnings.
	ExcInfo bool

	// RetryOnGraphQLErrors retries 2xx responses that carry errors and
	// no data.
	RetryOnGraphQLErrors bool
}

// DefaultExecuteOptions returns the default execution options.
func DefaultExecuteOptions() ExecuteOptions {
	return ExecuteOptions{
		MaxTries: retry.DefaultMaxTries,
		Backoff:  retry.DefaultJitterConfig(),
	}
}

// Validate checks the options before any request is sent.
func (o ExecuteOptions) Validate() error {
	if o.MaxTries < 1 {
		return util.NewConfigError("retry.maxTries", "must be at least 1")
	}
	return o.Backoff.Validate()
}

// ExecuteOption overrides execution options for one call.
type ExecuteOption func(*ExecuteOptions)

// WithMaxTries sets the total number of attempts.
func WithMaxTries(n int) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.MaxTries = n
	}
}

// WithBackoff replaces the whole jitter configuration.
func WithBackoff(cfg retry.JitterConfig) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.Backoff = cfg
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(v float64) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.Backoff.Multiplier = v
	}
}

// WithMaxSleep sets the backoff ceiling in seconds.
func WithMaxSleep(v float64) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.Backoff.MaxSleep = v
	}
}

// WithExpBase sets the backoff exponent base.
func WithExpBase(v float64) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.Backoff.ExpBase = v
	}
}

// WithMinSleep sets the backoff floor in seconds.
func WithMinSleep(v float64) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.Backoff.MinSleep = v
	}
}

// WithExcInfo enables stack traces on retry warnings.
func WithExcInfo(enabled bool) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.ExcInfo = enabled
	}
}

// WithRetryOnGraphQLErrors enables retrying error-only envelopes.
func WithRetryOnGraphQLErrors(enabled bool) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.RetryOnGraphQLErrors = enabled
	}
}
