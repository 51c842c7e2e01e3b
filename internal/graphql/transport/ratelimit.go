package transport

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedTransport spaces out sends with a token bucket shared by every
// caller of the transport.
type RateLimitedTransport struct {
	next    Transport
	limiter *rate.Limiter
}

// NewRateLimitedTransport wraps next with a limiter allowing rps requests
// per second and bursts of burst.
func NewRateLimitedTransport(next Transport, rps float64, burst int) *RateLimitedTransport {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// DefaultTimeout implements Transport.
func (r *RateLimitedTransport) DefaultTimeout() time.Duration {
	return r.next.DefaultTimeout()
}

// Send implements Transport. Waiting for a token honors ctx cancellation.
// When the next token lies beyond the ctx deadline, Send blocks until the
// deadline and returns ctx.Err() so the caller does not retry.
func (r *RateLimitedTransport) Send(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if _, ok := ctx.Deadline(); ok {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return nil, NewError(KindOther, timeout, err)
	}
	return r.next.Send(ctx, req, timeout)
}
