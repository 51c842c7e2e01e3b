package retry

import (
	"context"
	"time"
)

// DefaultMaxTries is the default number of attempts, including the first.
const DefaultMaxTries = 5

// Config contains retry configuration parameters.
type Config struct {
	// MaxTries is the total number of attempts.
	// Default is 5.
	MaxTries int

	// Jitter configures the full-jitter backoff window.
	Jitter JitterConfig
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxTries: DefaultMaxTries,
		Jitter:   DefaultJitterConfig(),
	}
}

// GetMaxTries returns the effective number of attempts.
func (c *Config) GetMaxTries() int {
	if c == nil || c.MaxTries <= 0 {
		return DefaultMaxTries
	}
	return c.MaxTries
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// ShouldRetryFunc determines if an error should trigger a retry.
type ShouldRetryFunc func(error) bool

// OnRetryFunc is called before each backoff sleep.
type OnRetryFunc func(attempt int, err error, backoff time.Duration)

// Options contains optional retry behavior configuration.
type Options struct {
	// ShouldRetry determines if an error should trigger a retry.
	// If nil, all errors are retried.
	ShouldRetry ShouldRetryFunc

	// OnRetry is called before each backoff sleep.
	OnRetry OnRetryFunc

	// Backoff overrides the backoff built from Config.Jitter.
	Backoff Backoff

	// Sleeper overrides TimerSleeper.
	Sleeper Sleeper
}

// Do executes fn until it succeeds, the attempts are exhausted, or ctx is
// done. It returns the last error from fn.
func Do(ctx context.Context, cfg *Config, fn RetryableFunc, opts *Options) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if opts == nil {
		opts = &Options{}
	}

	backoff := opts.Backoff
	if backoff == nil {
		backoff = NewRandomExponentialSleep(cfg.Jitter, nil)
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = TimerSleeper
	}

	maxTries := cfg.GetMaxTries()

	var lastErr error
	for attempt := 1; attempt <= maxTries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if opts.ShouldRetry != nil && !opts.ShouldRetry(lastErr) {
			return lastErr
		}

		// Don't sleep after the last attempt
		if attempt < maxTries {
			wait := backoff.Next(attempt)

			if opts.OnRetry != nil {
				opts.OnRetry(attempt, lastErr, wait)
			}

			if err := sleeper.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	return lastErr
}
