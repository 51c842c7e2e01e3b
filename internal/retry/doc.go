// Package retry provides full-jitter exponential backoff and a
// context-aware retry loop.
//
// The backoff draws every sleep uniformly from [0, high], where high
// grows as multiplier*expBase^attempt and is clamped to
// [minSleep, maxSleep]. Spreading retries across the whole window keeps
// uncoordinated clients from retrying in lockstep.
//
// # Features
//
//   - Full-jitter exponential backoff with an injectable random source
//   - Overflow-safe window computation
//   - Sleeper abstraction so callers never block on time.Sleep
//   - Context-aware cancellation support
//   - Customizable retry condition functions
//
// # Usage
//
// Compute sleeps directly:
//
//	b := retry.NewRandomExponentialSleep(retry.DefaultJitterConfig(), nil)
//	wait := b.Next(attempt)
//
// Execute an operation with retry:
//
//	cfg := retry.DefaultConfig()
//	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
//	    return callExternalService(ctx)
//	}, nil)
package retry
