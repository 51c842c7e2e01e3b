// Package metrics provides Prometheus metrics for GraphQL client executions.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "avagql"
	subsystem = "graphql"
)

// Attempt outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeStatus        = "status_error"
	OutcomeProtocol      = "protocol_error"
	OutcomeGraphQLErrors = "graphql_errors"
	OutcomeTimeout       = "timeout"
	OutcomeTransport     = "transport_error"
)

// Execution results.
const (
	ResultSuccess   = "success"
	ResultExhausted = "exhausted"
	ResultCanceled  = "canceled"
	ResultError     = "error"
)

// Metrics contains Prometheus metrics for GraphQL executions.
type Metrics struct {
	attemptsTotal      *prometheus.CounterVec
	attemptDuration    *prometheus.HistogramVec
	retriesTotal       *prometheus.CounterVec
	backoffSeconds     *prometheus.HistogramVec
	timeoutEscalations *prometheus.CounterVec
	timeoutSeconds     *prometheus.HistogramVec
	executionsTotal    *prometheus.CounterVec
	executionDuration  *prometheus.HistogramVec
	executionAttempts  *prometheus.HistogramVec
	breakerState       *prometheus.GaugeVec
}

// NewMetrics creates and registers GraphQL client metrics. If registerer is
// nil, metrics are registered with the default registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return newMetricsWithFactory(promauto.With(registerer))
}

// newMetricsWithFactory creates GraphQL metrics using the given promauto factory.
func newMetricsWithFactory(factory promauto.Factory) *Metrics {
	return &Metrics{
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attempts_total",
				Help:      "Total number of GraphQL request attempts",
			},
			[]string{"operation", "outcome", "status_code"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attempt_duration_seconds",
				Help:      "GraphQL request attempt duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "retries_total",
				Help:      "Total number of GraphQL retries by failure kind",
			},
			[]string{"operation", "reason"},
		),
		backoffSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "backoff_seconds",
				Help:      "Backoff sleep durations between GraphQL attempts",
				Buckets:   []float64{.01, .1, .5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
		timeoutEscalations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "timeout_escalations_total",
				Help:      "Total number of per-attempt timeout escalations",
			},
			[]string{"operation"},
		),
		timeoutSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "escalated_timeout_seconds",
				Help:      "Per-attempt timeout after escalation",
				Buckets:   prometheus.ExponentialBuckets(1, 1.5, 12),
			},
			[]string{"operation"},
		),
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "executions_total",
				Help:      "Total number of GraphQL executions by result",
			},
			[]string{"operation", "result"},
		),
		executionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "execution_duration_seconds",
				Help:      "GraphQL execution duration including retries",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"operation"},
		),
		executionAttempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "execution_attempts",
				Help:      "Distribution of attempts per GraphQL execution",
				Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15, 20},
			},
			[]string{"operation"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
	}
}

// InitVecMetrics pre-populates vector metrics for the given operations so
// they appear on /metrics immediately with zero values.
func (m *Metrics) InitVecMetrics(operations ...string) {
	outcomes := []string{
		OutcomeSuccess, OutcomeStatus, OutcomeProtocol,
		OutcomeGraphQLErrors, OutcomeTimeout, OutcomeTransport,
	}
	results := []string{ResultSuccess, ResultExhausted, ResultCanceled, ResultError}

	for _, op := range operations {
		for _, o := range outcomes {
			m.attemptsTotal.WithLabelValues(op, o, "0")
			if o != OutcomeSuccess {
				m.retriesTotal.WithLabelValues(op, o)
			}
		}
		for _, r := range results {
			m.executionsTotal.WithLabelValues(op, r)
		}
		m.attemptDuration.WithLabelValues(op)
		m.executionDuration.WithLabelValues(op)
		m.executionAttempts.WithLabelValues(op)
		m.backoffSeconds.WithLabelValues(op)
		m.timeoutEscalations.WithLabelValues(op)
	}
}

// ObserveAttempt records a single attempt. statusCode is 0 when no
// response was received.
func (m *Metrics) ObserveAttempt(operation, outcome string, statusCode int, duration time.Duration) {
	m.attemptsTotal.WithLabelValues(operation, outcome, strconv.Itoa(statusCode)).Inc()
	m.attemptDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRetry records a retry caused by reason.
func (m *Metrics) ObserveRetry(operation, reason string) {
	m.retriesTotal.WithLabelValues(operation, reason).Inc()
}

// ObserveBackoff records a backoff sleep.
func (m *Metrics) ObserveBackoff(operation string, d time.Duration) {
	m.backoffSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveTimeoutEscalation records a timeout escalation to timeout.
func (m *Metrics) ObserveTimeoutEscalation(operation string, timeout time.Duration) {
	m.timeoutEscalations.WithLabelValues(operation).Inc()
	m.timeoutSeconds.WithLabelValues(operation).Observe(timeout.Seconds())
}

// ObserveExecution records the end of an execution.
func (m *Metrics) ObserveExecution(operation, result string, attempts int, duration time.Duration) {
	m.executionsTotal.WithLabelValues(operation, result).Inc()
	m.executionDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.executionAttempts.WithLabelValues(operation).Observe(float64(attempts))
}

// SetBreakerState records a circuit breaker state transition.
func (m *Metrics) SetBreakerState(name string, state float64) {
	m.breakerState.WithLabelValues(name).Set(state)
}
