package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avagql/internal/graphql/metrics"
	"github.com/vyrodovalexey/avagql/internal/graphql/query"
	"github.com/vyrodovalexey/avagql/internal/graphql/transport"
	"github.com/vyrodovalexey/avagql/internal/observability"
	"github.com/vyrodovalexey/avagql/internal/retry"
	"github.com/vyrodovalexey/avagql/internal/util"
)

// timeoutEscalation multiplies the per-attempt timeout after a timeout.
const timeoutEscalation = 1.5

// Request headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerRequestID   = "X-Request-ID"
	contentTypeJSON   = "application/json"
)

type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// attemptResult is the outcome of a single send.
type attemptResult struct {
	result     *ExecutionResult
	outcome    string
	statusCode int
	err        error

	// fatal errors end the execution without retrying.
	fatal bool
}

// Execute runs q with variables and retries transient failures. q is a
// GraphQL string or a document from query.Parse.
func (c *Client) Execute(
	ctx context.Context, q any, variables map[string]any, opts ...ExecuteOption,
) (*ExecutionResult, error) {
	o := c.defaults
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	text, err := query.Normalize(q)
	if err != nil {
		return nil, err
	}
	op := describe(q, text)

	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(requestBody{Query: text, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request: %w", err)
	}

	requestID := uuid.NewString()
	ctx = util.ContextWithRequestID(ctx, requestID)

	ctx, span := c.tracer.Start(ctx, "graphql.client.execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("graphql.operation.name", op.Name),
			attribute.String("graphql.operation.type", op.Type),
			attribute.Int("graphql.max_tries", o.MaxTries),
			attribute.String("http.url", c.endpoint),
		),
	)
	defer span.End()

	start := time.Now()
	backoff := retry.NewRandomExponentialSleep(o.Backoff, c.rand)

	var (
		attempts int
		timeout  time.Duration
		lastErr  error
	)

	for attempts < o.MaxTries {
		attemptCtx := util.ContextWithAttempt(ctx, attempts+1)
		res := c.attempt(attemptCtx, op, body, requestID, timeout, o)

		if res.err == nil {
			span.SetAttributes(
				attribute.Int("graphql.attempts", attempts+1),
				attribute.Bool("graphql.has_errors", res.result.HasErrors()),
			)
			c.metrics.ObserveExecution(op.Name, metrics.ResultSuccess, attempts+1, time.Since(start))
			return res.result, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.abort(ctx, span, op, metrics.ResultCanceled, attempts+1, start, ctxErr)
		}
		if res.fatal {
			return nil, c.abort(ctx, span, op, metrics.ResultError, attempts+1, start, res.err)
		}

		attempts++
		lastErr = res.err
		logger := c.logger.WithContext(attemptCtx)

		if transport.IsTimeout(res.err) {
			base := timeout
			if base == 0 {
				base = c.transport.DefaultTimeout()
			}
			timeout = escalateTimeout(base)

			c.metrics.ObserveRetry(op.Name, res.outcome)
			c.metrics.ObserveTimeoutEscalation(op.Name, timeout)
			logger.Warn("GraphQL request timed out",
				retryFields(o, res.err,
					observability.String("kind", transport.KindOf(res.err).String()),
					observability.Duration("next_timeout", timeout),
				)...,
			)
			continue
		}

		c.metrics.ObserveRetry(op.Name, res.outcome)
		if attempts >= o.MaxTries {
			break
		}

		sleep := backoff.Next(attempts)
		c.metrics.ObserveBackoff(op.Name, sleep)
		logger.Warn("GraphQL request failed, retrying",
			retryFields(o, res.err, observability.Duration("backoff", sleep))...,
		)

		if err := c.sleeper.Sleep(ctx, sleep); err != nil {
			return nil, c.abort(ctx, span, op, metrics.ResultCanceled, attempts, start, err)
		}
	}

	retryErr := &RetryError{Retries: attempts, LastErr: lastErr}
	c.logger.WithContext(ctx).Error("GraphQL retries exhausted",
		observability.String("operation", op.Name),
		observability.Int("retries", attempts),
		observability.Error(lastErr),
	)
	span.SetAttributes(attribute.Int("graphql.attempts", attempts))
	span.RecordError(retryErr)
	span.SetStatus(codes.Error, retryErr.Error())
	c.metrics.ObserveExecution(op.Name, metrics.ResultExhausted, attempts, time.Since(start))

	return nil, retryErr
}

// abort ends an execution that is not retried.
func (c *Client) abort(
	ctx context.Context, span trace.Span, op query.Operation,
	result string, attempts int, start time.Time, err error,
) error {
	span.SetAttributes(attribute.Int("graphql.attempts", attempts))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.metrics.ObserveExecution(op.Name, result, attempts, time.Since(start))

	c.logger.WithContext(ctx).Debug("GraphQL execution aborted",
		observability.String("operation", op.Name),
		observability.String("result", result),
		observability.Error(err),
	)
	return err
}

// attempt sends the request once and classifies the outcome.
func (c *Client) attempt(
	ctx context.Context, op query.Operation, body []byte, requestID string,
	timeout time.Duration, o ExecuteOptions,
) attemptResult {
	ctx, span := c.tracer.Start(ctx, "graphql.client.attempt",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("graphql.attempt", util.AttemptFromContext(ctx)),
			attribute.Float64("graphql.timeout_seconds", timeout.Seconds()),
		),
	)
	defer span.End()

	header := c.headers.Clone()
	header.Set(headerContentType, contentTypeJSON)
	header.Set(headerAccept, contentTypeJSON)
	header.Set(headerRequestID, requestID)
	observability.InjectTraceContext(ctx, header)

	if err := c.auth.Apply(ctx, header); err != nil {
		err = fmt.Errorf("failed to apply authentication: %w", err)
		span.RecordError(err)
		return attemptResult{err: err, fatal: true}
	}

	start := time.Now()
	resp, err := c.transport.Send(ctx, &transport.Request{
		URL:    c.endpoint,
		Header: header,
		Body:   body,
	}, timeout)
	duration := time.Since(start)

	if err != nil {
		outcome := metrics.OutcomeTransport
		if transport.IsTimeout(err) {
			outcome = metrics.OutcomeTimeout
		}
		c.metrics.ObserveAttempt(op.Name, outcome, 0, duration)
		span.RecordError(err)
		return attemptResult{outcome: outcome, err: err}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	res := classifyResponse(resp, o)
	c.metrics.ObserveAttempt(op.Name, res.outcome, resp.StatusCode, duration)
	if res.err != nil {
		span.RecordError(res.err)
	}

	c.logger.WithContext(ctx).Debug("GraphQL attempt completed",
		observability.String("operation", op.Name),
		observability.Int("status", resp.StatusCode),
		observability.String("outcome", res.outcome),
		observability.Duration("duration", duration),
	)

	return res
}

// classifyResponse turns an HTTP response into a result or a retryable
// failure.
func classifyResponse(resp *transport.Response, o ExecuteOptions) attemptResult {
	res := attemptResult{statusCode: resp.StatusCode}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		res.outcome = metrics.OutcomeStatus
		res.err = &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
		return res
	}

	result, err := decodeResult(resp.Body)
	if err != nil {
		res.outcome = metrics.OutcomeProtocol
		res.err = err
		return res
	}

	if result.HasErrors() {
		res.outcome = metrics.OutcomeGraphQLErrors
		if o.RetryOnGraphQLErrors && result.Data() == nil {
			res.err = &GraphQLError{Errors: result.Errors()}
			return res
		}
	} else {
		res.outcome = metrics.OutcomeSuccess
	}

	res.result = result
	return res
}

// escalateTimeout grows base by timeoutEscalation, saturating at the
// largest Duration.
func escalateTimeout(base time.Duration) time.Duration {
	next := float64(base) * timeoutEscalation
	if next >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(next)
}

func retryFields(o ExecuteOptions, err error, extra ...observability.Field) []observability.Field {
	fields := make([]observability.Field, 0, len(extra)+4)
	fields = append(fields,
		observability.Int("max_tries", o.MaxTries),
		observability.Error(err),
	)
	fields = append(fields, extra...)
	if o.ExcInfo {
		fields = append(fields, observability.Stack("stacktrace"))
	}
	return fields
}

func describe(q any, text string) query.Operation {
	if doc, ok := q.(*ast.QueryDocument); ok {
		return query.DescribeDocument(doc)
	}
	return query.Describe(text)
}
