package client

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avagql/internal/auth"
	"github.com/vyrodovalexey/avagql/internal/graphql/transport"
	"github.com/vyrodovalexey/avagql/internal/observability"
	"github.com/vyrodovalexey/avagql/internal/retry"
	"github.com/vyrodovalexey/avagql/internal/util"
)

// EndpointEnv is consulted when Config.Endpoint is empty.
const EndpointEnv = "GRAPHQL_ENDPOINT"

// tracerName is the OpenTelemetry tracer name for GraphQL client operations.
const tracerName = "avagql/graphql-client"

// Config configures a Client.
type Config struct {
	// Endpoint is the GraphQL HTTP URL. Empty means $GRAPHQL_ENDPOINT.
	Endpoint string

	// Headers are added to every request.
	Headers map[string]string

	// Retry holds the client-level execution defaults. Nil means
	// DefaultExecuteOptions.
	Retry *ExecuteOptions
}

// MetricsRecorder records execution metrics.
type MetricsRecorder interface {
	ObserveAttempt(operation, outcome string, statusCode int, duration time.Duration)
	ObserveRetry(operation, reason string)
	ObserveBackoff(operation string, d time.Duration)
	ObserveTimeoutEscalation(operation string, timeout time.Duration)
	ObserveExecution(operation, result string, attempts int, duration time.Duration)
}

// Client executes GraphQL operations. It is safe for concurrent use.
type Client struct {
	endpoint  string
	headers   http.Header
	defaults  ExecuteOptions
	transport transport.Transport
	auth      auth.Decorator
	sleeper   retry.Sleeper
	rand      retry.Source
	metrics   MetricsRecorder
	tracer    trace.Tracer
	logger    observability.Logger

	tracerProvider trace.TracerProvider
	lookupEnv      func(string) (string, bool)
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport sets the transport used to send requests.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithAuth sets the credential decorator.
func WithAuth(d auth.Decorator) Option {
	return func(c *Client) {
		c.auth = d
	}
}

// WithSleeper sets the sleeper used between attempts.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Client) {
		c.sleeper = s
	}
}

// WithRandSource sets the random source of the backoff jitter.
func WithRandSource(src retry.Source) Option {
	return func(c *Client) {
		c.rand = src
	}
}

// WithMetrics sets the metrics recorder for the client.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracerProvider sets the tracer provider. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithLookupEnv replaces os.LookupEnv for endpoint resolution.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(c *Client) {
		c.lookupEnv = fn
	}
}

// New creates a new GraphQL client.
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		headers:   make(http.Header),
		logger:    observability.NopLogger(),
		lookupEnv: os.LookupEnv,
	}
	for k, v := range cfg.Headers {
		c.headers.Set(k, v)
	}

	for _, opt := range opts {
		opt(c)
	}

	endpoint, err := c.resolveEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	c.endpoint = endpoint

	c.defaults = DefaultExecuteOptions()
	if cfg.Retry != nil {
		c.defaults = *cfg.Retry
	}
	if err := c.defaults.Validate(); err != nil {
		return nil, err
	}

	if c.transport == nil {
		c.transport = transport.NewHTTPTransport(transport.WithLogger(c.logger))
	}
	if c.auth == nil {
		c.auth = auth.Nop{}
	}
	if c.sleeper == nil {
		c.sleeper = retry.TimerSleeper
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // jitter is not security-sensitive
	}
	c.rand = &lockedSource{src: c.rand}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	c.tracer = c.tracerProvider.Tracer(tracerName)

	c.logger.Debug("GraphQL client created",
		observability.String("endpoint", c.endpoint),
		observability.Int("max_tries", c.defaults.MaxTries),
	)

	return c, nil
}

func (c *Client) resolveEndpoint(explicit string) (string, error) {
	endpoint := explicit
	if endpoint == "" {
		if v, ok := c.lookupEnv(EndpointEnv); ok {
			endpoint = v
		}
	}
	if endpoint == "" {
		return "", util.NewConfigErrorWithCause("endpoint",
			fmt.Sprintf("no endpoint configured and %s is not set", EndpointEnv), util.ErrMissingEndpoint)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", util.NewConfigErrorWithCause("endpoint", "invalid URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", util.NewConfigError("endpoint", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return "", util.NewConfigError("endpoint", "missing host")
	}
	return endpoint, nil
}

// Endpoint returns the resolved endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Defaults returns the client-level execution options.
func (c *Client) Defaults() ExecuteOptions {
	return c.defaults
}

// Close releases idle connections held by the transport.
func (c *Client) Close() {
	if closer, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}

// lockedSource serializes access to a shared random source.
type lockedSource struct {
	mu  sync.Mutex
	src retry.Source
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Float64()
}

type nopMetrics struct{}

func (nopMetrics) ObserveAttempt(string, string, int, time.Duration) {}
func (nopMetrics) ObserveRetry(string, string) {}
func (nopMetrics) ObserveBackoff(string, time.Duration) {}
func (nopMetrics) ObserveTimeoutEscalation(string, time.Duration) {}
func (nopMetrics) ObserveExecution(string, string, int, time.Duration) {}
