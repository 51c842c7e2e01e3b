package retry

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/vyrodovalexey/avagql/internal/util"
)

// Default jitter configuration, in seconds.
const (
	DefaultMultiplier = 1.0
	DefaultMaxSleep   = 300.0
	DefaultExpBase    = 2.0
	DefaultMinSleep   = 0.0
)

// Backoff defines the interface for backoff strategies.
type Backoff interface {
	// Next returns the duration to wait before the next retry attempt.
	Next(attempt int) time.Duration

	// Reset resets the backoff state.
	Reset()
}

// Source is a source of uniformly distributed floats in [0, 1).
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// JitterConfig holds the parameters of the full-jitter window. All values
// are expressed in seconds.
type JitterConfig struct {
	Multiplier float64
	MaxSleep   float64
	ExpBase    float64
	MinSleep   float64
}

// DefaultJitterConfig returns the default jitter configuration.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		Multiplier: DefaultMultiplier,
		MaxSleep:   DefaultMaxSleep,
		ExpBase:    DefaultExpBase,
		MinSleep:   DefaultMinSleep,
	}
}

// Validate checks that every parameter is usable.
func (c JitterConfig) Validate() error {
	switch {
	case c.Multiplier < 0 || math.IsNaN(c.Multiplier):
		return util.NewConfigError("retry.multiplier", "must be non-negative")
	case c.MaxSleep < 0 || math.IsNaN(c.MaxSleep):
		return util.NewConfigError("retry.maxSleep", "must be non-negative")
	case c.ExpBase <= 0 || math.IsNaN(c.ExpBase):
		return util.NewConfigError("retry.expBase", "must be positive")
	case c.MinSleep < 0 || math.IsNaN(c.MinSleep):
		return util.NewConfigError("retry.minSleep", "must be non-negative")
	}
	return nil
}

// RandomExponentialSleep implements full-jitter exponential backoff: each
// sleep is drawn uniformly from [0, High(attempt)].
type RandomExponentialSleep struct {
	cfg JitterConfig

	mu   sync.Mutex
	rand Source
}

// NewRandomExponentialSleep creates a full-jitter backoff. A nil src uses a
// time-seeded generator.
func NewRandomExponentialSleep(cfg JitterConfig, src Source) *RandomExponentialSleep {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // jitter is not security-sensitive
	}
	return &RandomExponentialSleep{
		cfg:  cfg,
		rand: src,
	}
}

// Config returns the jitter configuration.
func (b *RandomExponentialSleep) Config() JitterConfig {
	return b.cfg
}

// High returns the upper bound of the sleep window for attempt.
func (b *RandomExponentialSleep) High(attempt int) float64 {
	result := b.cfg.Multiplier * math.Pow(b.cfg.ExpBase, float64(attempt))
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return b.cfg.MaxSleep
	}
	return math.Max(math.Max(0, b.cfg.MinSleep), math.Min(result, b.cfg.MaxSleep))
}

// Seconds returns a random sleep in seconds for attempt.
func (b *RandomExponentialSleep) Seconds(attempt int) float64 {
	high := b.High(attempt)

	b.mu.Lock()
	r := b.rand.Float64()
	b.mu.Unlock()

	return r * high
}

// Next implements Backoff.
func (b *RandomExponentialSleep) Next(attempt int) time.Duration {
	return SecondsToDuration(b.Seconds(attempt))
}

// Reset implements Backoff.
func (b *RandomExponentialSleep) Reset() {
	// RandomExponentialSleep is stateless, nothing to reset
}

// SecondsToDuration converts fractional seconds to a Duration, saturating
// instead of overflowing.
func SecondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	d := seconds * float64(time.Second)
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
