// Package transport sends GraphQL request bodies to an HTTP endpoint and
// classifies transport failures into read timeouts, write timeouts and
// everything else.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vyrodovalexey/avagql/internal/util"
)

// Request is an outgoing GraphQL POST.
type Request struct {
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

// Transport sends requests. A zero timeout means DefaultTimeout.
type Transport interface {
	Send(ctx context.Context, req *Request, timeout time.Duration) (*Response, error)
	DefaultTimeout() time.Duration
}

// ErrResponseTooLarge is returned when a response body exceeds the
// configured size cap.
var ErrResponseTooLarge = errors.New("graphql response body too large")

// Kind classifies transport failures.
type Kind int

const (
	// KindOther covers connection errors, refused requests and any failure
	// that is not a read or write timeout.
	KindOther Kind = iota

	// KindReadTimeout means the request was written but the response did not
	// arrive in time.
	KindReadTimeout

	// KindWriteTimeout means the request could not be written in time.
	KindWriteTimeout
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindReadTimeout:
		return "read_timeout"
	case KindWriteTimeout:
		return "write_timeout"
	default:
		return "other"
	}
}

// Error is returned by transports for every failed send.
type Error struct {
	Kind    Kind
	Timeout time.Duration
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindReadTimeout, KindWriteTimeout:
		return fmt.Sprintf("graphql transport %s after %v: %v", e.Kind, e.Timeout, e.Cause)
	default:
		return fmt.Sprintf("graphql transport error: %v", e.Cause)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *Error) Is(target error) bool {
	if target == util.ErrTimeout {
		return e.Kind == KindReadTimeout || e.Kind == KindWriteTimeout
	}
	_, ok := target.(*Error)
	return ok
}

// NewError creates a transport error of the given kind.
func NewError(kind Kind, timeout time.Duration, cause error) *Error {
	return &Error{Kind: kind, Timeout: timeout, Cause: cause}
}

// IsTimeout reports whether err is a read or write timeout.
func IsTimeout(err error) bool {
	var tErr *Error
	if !errors.As(err, &tErr) {
		return false
	}
	return tErr.Kind == KindReadTimeout || tErr.Kind == KindWriteTimeout
}

// KindOf returns the kind of a transport error, or KindOther.
func KindOf(err error) Kind {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.Kind
	}
	return KindOther
}
