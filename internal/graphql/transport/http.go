package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/avagql/internal/observability"
)

const (
	// DefaultTimeout is the per-attempt timeout used when none is configured.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseBytes caps how much of a response body is read (10MB).
	DefaultMaxResponseBytes = 10 * 1024 * 1024

	// maxDrainBytes bounds how much unread body is discarded to reuse a
	// connection.
	maxDrainBytes = 64 * 1024
)

// HTTPTransport sends GraphQL requests over net/http.
type HTTPTransport struct {
	client           *http.Client
	roundTripper     http.RoundTripper
	timeout          time.Duration
	maxResponseBytes int64
	logger           observability.Logger
}

// HTTPOption is a functional option for configuring the HTTP transport.
type HTTPOption func(*HTTPTransport)

// WithRoundTripper sets the underlying round tripper.
func WithRoundTripper(rt http.RoundTripper) HTTPOption {
	return func(t *HTTPTransport) {
		t.roundTripper = rt
	}
}

// WithDefaultTimeout sets the per-attempt timeout used when Send receives 0.
func WithDefaultTimeout(timeout time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		if timeout > 0 {
			t.timeout = timeout
		}
	}
}

// WithMaxResponseBytes caps the response body size.
func WithMaxResponseBytes(n int64) HTTPOption {
	return func(t *HTTPTransport) {
		if n > 0 {
			t.maxResponseBytes = n
		}
	}
}

// WithLogger sets the logger for the transport.
func WithLogger(logger observability.Logger) HTTPOption {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// PoolConfig tunes the connection pool of the default round tripper.
type PoolConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// DefaultPoolConfig returns the default connection pool settings.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// NewRoundTripper builds a pooled http.Transport.
func NewRoundTripper(cfg PoolConfig) *http.Transport {
	def := DefaultPoolConfig()
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = def.IdleConnTimeout
	}

	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NewHTTPTransport creates a new HTTP transport.
func NewHTTPTransport(opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		timeout:          DefaultTimeout,
		maxResponseBytes: DefaultMaxResponseBytes,
		logger:           observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.roundTripper == nil {
		t.roundTripper = NewRoundTripper(DefaultPoolConfig())
	}

	// Deadlines are applied per attempt through the request context.
	t.client = &http.Client{Transport: t.roundTripper}

	return t
}

// DefaultTimeout implements Transport.
func (t *HTTPTransport) DefaultTimeout() time.Duration {
	return t.timeout
}

// Send implements Transport. The response body is always drained and
// closed so the connection returns to the pool.
func (t *HTTPTransport) Send(ctx context.Context, r *Request, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = t.timeout
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var progress sendProgress
	attemptCtx = httptrace.WithClientTrace(attemptCtx, progress.trace())

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, NewError(KindOther, timeout, err)
	}
	if r.Header != nil {
		req.Header = r.Header.Clone()
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classify(ctx, attemptCtx, err, &progress, timeout)
	}
	defer func() {
		// Large unread remainders are not drained; the connection is dropped instead.
		_, _ = io.CopyN(io.Discard, resp.Body, maxDrainBytes)
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxResponseBytes+1))
	if err != nil {
		progress.written.Store(true)
		return nil, classify(ctx, attemptCtx, err, &progress, timeout)
	}
	if int64(len(body)) > t.maxResponseBytes {
		t.logger.Warn("graphql response exceeds size limit",
			observability.String("url", r.URL),
			observability.Int("status", resp.StatusCode),
			observability.Int64("limit_bytes", t.maxResponseBytes),
		)
		return nil, NewError(KindOther, timeout,
			fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, t.maxResponseBytes))
	}

	elapsed := time.Since(start)
	t.logger.Debug("graphql response received",
		observability.String("url", r.URL),
		observability.Int("status", resp.StatusCode),
		observability.Int("bytes", len(body)),
		observability.Duration("duration", elapsed),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Elapsed:    elapsed,
	}, nil
}

// CloseIdleConnections releases pooled connections.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// sendProgress tracks how far a request got before failing.
type sendProgress struct {
	connected atomic.Bool
	written   atomic.Bool
}

func (p *sendProgress) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) {
			p.connected.Store(true)
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				p.written.Store(true)
			}
		},
	}
}

// classify maps a net/http failure to a transport error. Cancellation of
// the caller's context is returned as is so it is never retried.
func classify(parent, attemptCtx context.Context, err error, p *sendProgress, timeout time.Duration) error {
	if parentErr := parent.Err(); parentErr != nil {
		return parentErr
	}

	if !isTimeout(attemptCtx, err) {
		return NewError(KindOther, timeout, err)
	}

	switch {
	case p.written.Load():
		return NewError(KindReadTimeout, timeout, err)
	case p.connected.Load():
		return NewError(KindWriteTimeout, timeout, err)
	default:
		// Timing out while connecting is a connectivity failure, not a
		// write timeout.
		return NewError(KindOther, timeout, err)
	}
}

func isTimeout(attemptCtx context.Context, err error) bool {
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
