package transport

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avagql/internal/observability"
)

// errServerStatus marks 5xx responses as breaker failures without turning
// them into transport errors.
var errServerStatus = errors.New("server error status")

// BreakerConfig configures the circuit breaker decorator.
type BreakerConfig struct {
	// Name identifies the breaker in logs.
	Name string

	// Threshold is the minimum number of requests in a window before the
	// failure ratio is evaluated.
	Threshold int

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
}

// BreakerStateFunc is called on every state transition.
type BreakerStateFunc func(name string, from, to gobreaker.State)

// BreakerTransport rejects sends while the endpoint keeps failing.
type BreakerTransport struct {
	next Transport
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerTransport wraps next with a circuit breaker. Transport errors
// and 5xx responses count as failures; cancellations and expiry of the
// caller's context do not.
func NewBreakerTransport(
	next Transport,
	cfg BreakerConfig,
	logger observability.Logger,
	onStateChange BreakerStateFunc,
) *BreakerTransport {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if cfg.Name == "" {
		cfg.Name = "graphql"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	threshold := safeIntToUint32(cfg.Threshold)
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Timeout,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			if onStateChange != nil {
				onStateChange(name, from, to)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerTransport{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

// DefaultTimeout implements Transport.
func (b *BreakerTransport) DefaultTimeout() time.Duration {
	return b.next.DefaultTimeout()
}

// State returns the current breaker state.
func (b *BreakerTransport) State() gobreaker.State {
	return b.cb.State()
}

// callerAbort carries a failure caused by the caller's own context through
// the breaker without counting it against the endpoint.
type callerAbort struct {
	err error
}

// Send implements Transport.
func (b *BreakerTransport) Send(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		resp, err := b.next.Send(ctx, req, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return callerAbort{err: err}, nil
			}
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, errServerStatus):
		return out.(*Response), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, NewError(KindOther, timeout, err)
	case err != nil:
		return nil, err
	}

	if abort, ok := out.(callerAbort); ok {
		return nil, abort.err
	}
	return out.(*Response), nil
}
