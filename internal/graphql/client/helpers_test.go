package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avagql/internal/graphql/transport"
)

const testEndpoint = "http://graphql.test/v1/graphql"

type sendFunc func(ctx context.Context, req *transport.Request, timeout time.Duration) (*transport.Response, error)

// fakeTransport runs scripted steps in order, repeating the last one, and
// records every request.
type fakeTransport struct {
	mu             sync.Mutex
	steps          []sendFunc
	requests       []*transport.Request
	timeouts       []time.Duration
	defaultTimeout time.Duration
}

func newFakeTransport(steps ...sendFunc) *fakeTransport {
	return &fakeTransport{steps: steps, defaultTimeout: 10 * time.Second}
}

func (f *fakeTransport) Send(ctx context.Context, req *transport.Request, timeout time.Duration) (*transport.Response, error) {
	f.mu.Lock()
	idx := len(f.requests)
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	f.requests = append(f.requests, &transport.Request{
		URL:    req.URL,
		Header: req.Header.Clone(),
		Body:   append([]byte(nil), req.Body...),
	})
	f.timeouts = append(f.timeouts, timeout)
	step := f.steps[idx]
	f.mu.Unlock()

	return step(ctx, req, timeout)
}

func (f *fakeTransport) DefaultTimeout() time.Duration {
	return f.defaultTimeout
}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeTransport) Timeouts() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.timeouts...)
}

func (f *fakeTransport) Request(i int) *transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

func respond(status int, body string) sendFunc {
	return func(context.Context, *transport.Request, time.Duration) (*transport.Response, error) {
		return &transport.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       []byte(body),
		}, nil
	}
}

func fail(err error) sendFunc {
	return func(context.Context, *transport.Request, time.Duration) (*transport.Response, error) {
		return nil, err
	}
}

func readTimeout() sendFunc {
	return func(_ context.Context, _ *transport.Request, timeout time.Duration) (*transport.Response, error) {
		return nil, transport.NewError(transport.KindReadTimeout, timeout, context.DeadlineExceeded)
	}
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

// recordingSleeper records requested sleeps without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
	err    error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

func (s *recordingSleeper) Sleeps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

// constSource always draws v.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func newTestClient(t *testing.T, ft *fakeTransport, sleeper *recordingSleeper, opts ...Option) *Client {
	t.Helper()

	base := []Option{
		WithTransport(ft),
		WithSleeper(sleeper),
		WithRandSource(constSource(0.5)),
	}
	c, err := New(Config{Endpoint: testEndpoint}, append(base, opts...)...)
	require.NoError(t, err)
	return c
}
