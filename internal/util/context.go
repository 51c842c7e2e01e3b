package util

import (
	"context"
)

// Context keys.
type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyAttempt   ctxKey = "attempt"
)

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// ContextWithAttempt records the 1-based execution attempt in the context.
func ContextWithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, ctxKeyAttempt, attempt)
}

// AttemptFromContext extracts the execution attempt from context, or 0.
func AttemptFromContext(ctx context.Context) int {
	if v, ok := ctx.Value(ctxKeyAttempt).(int); ok {
		return v
	}
	return 0
}
