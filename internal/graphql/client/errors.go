package client

import (
	"errors"
	"fmt"
)

// ErrRetriesExhausted is matched by every *RetryError.
var ErrRetriesExhausted = errors.New("graphql retries exhausted")

// maxErrorBody bounds the response excerpt carried in error messages.
const maxErrorBody = 512

// RetryError is returned when every attempt failed.
type RetryError struct {
	Retries int
	LastErr error
}

// Error implements the error interface.
func (e *RetryError) Error() string {
	return fmt.Sprintf("failed %d retries: %v", e.Retries, e.LastErr)
}

// Unwrap returns the last attempt's error.
func (e *RetryError) Unwrap() error {
	return e.LastErr
}

// Is reports whether target is ErrRetriesExhausted.
func (e *RetryError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("graphql endpoint responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("graphql endpoint responded with status %d: %s", e.StatusCode, excerpt(e.Body))
}

// ProtocolError is a 2xx response that is not a GraphQL envelope.
type ProtocolError struct {
	Body  []byte
	Cause error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid graphql response: %v", e.Cause)
	}
	return fmt.Sprintf("invalid graphql response: missing data and errors: %s", excerpt(e.Body))
}

// Unwrap returns the underlying decode error, if any.
func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// GraphQLError is an envelope carrying errors and no data. It is only
// treated as a failure when retrying on GraphQL errors is enabled.
type GraphQLError struct {
	Errors []any
}

// Error implements the error interface.
func (e *GraphQLError) Error() string {
	return fmt.Sprintf("graphql response carried %d errors and no data: %v", len(e.Errors), e.Errors)
}

func excerpt(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
