package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ExecutionResult is the decoded GraphQL response envelope.
type ExecutionResult struct {
	data   map[string]any
	errors []any
}

// NewExecutionResult creates a result from its parts.
func NewExecutionResult(data map[string]any, errs []any) *ExecutionResult {
	return &ExecutionResult{data: data, errors: errs}
}

// Data returns the data member; nil when the server sent null or omitted it.
func (r *ExecutionResult) Data() map[string]any {
	return r.data
}

// Errors returns the errors member.
func (r *ExecutionResult) Errors() []any {
	return r.errors
}

// HasErrors reports whether the response carried GraphQL errors.
func (r *ExecutionResult) HasErrors() bool {
	return len(r.errors) > 0
}

// Unpack returns data and errors as a pair.
func (r *ExecutionResult) Unpack() (map[string]any, []any) {
	return r.data, r.errors
}

// Formatted returns the {"data": ..., "errors": ...} envelope.
func (r *ExecutionResult) Formatted() map[string]any {
	return map[string]any{
		"data":   nilIfEmpty(r.data),
		"errors": nilIfEmpty(r.errors),
	}
}

// MarshalJSON encodes the formatted envelope.
func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Formatted())
}

// String returns a readable representation.
func (r *ExecutionResult) String() string {
	return fmt.Sprintf("ExecutionResult(data=%s, errors=%s)", render(r.data), render(r.errors))
}

// Equal compares the result structurally with other. other may be another
// result, a {"data", "errors"} map, or a (data, errors) pair given as [2]any
// or a two-element []any.
func (r *ExecutionResult) Equal(other any) bool {
	if r == nil {
		return false
	}

	var data, errs any
	switch o := other.(type) {
	case *ExecutionResult:
		if o == nil {
			return false
		}
		data, errs = o.data, o.errors
	case ExecutionResult:
		data, errs = o.data, o.errors
	case map[string]any:
		if len(o) != 2 {
			return false
		}
		var okData, okErrs bool
		data, okData = o["data"]
		errs, okErrs = o["errors"]
		if !okData || !okErrs {
			return false
		}
	case [2]any:
		data, errs = o[0], o[1]
	case []any:
		if len(o) != 2 {
			return false
		}
		data, errs = o[0], o[1]
	default:
		return false
	}

	return reflect.DeepEqual(nilIfEmpty(r.data), nilIfEmpty(data)) &&
		reflect.DeepEqual(nilIfEmpty(r.errors), nilIfEmpty(errs))
}

// nilIfEmpty turns nil maps and slices into an untyped nil.
func nilIfEmpty(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return nil
		}
	case []any:
		if t == nil {
			return nil
		}
	}
	return v
}

func render(v any) string {
	v = nilIfEmpty(v)
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// decodeResult parses a response body into a result. The body must be a
// JSON object carrying data or errors.
func decodeResult(body []byte) (*ExecutionResult, error) {
	var envelope map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&envelope); err != nil {
		return nil, &ProtocolError{Body: body, Cause: err}
	}
	if envelope == nil {
		return nil, &ProtocolError{Body: body, Cause: errors.New("response is not a JSON object")}
	}

	rawData, hasData := envelope["data"]
	rawErrs, hasErrs := envelope["errors"]
	if !hasData && !hasErrs {
		return nil, &ProtocolError{Body: body}
	}

	var data map[string]any
	if rawData != nil {
		m, ok := rawData.(map[string]any)
		if !ok {
			return nil, &ProtocolError{Body: body, Cause: fmt.Errorf("data must be an object, got %T", rawData)}
		}
		data = m
	}

	var errs []any
	switch e := rawErrs.(type) {
	case nil:
	case []any:
		errs = e
	default:
		errs = []any{e}
	}

	return &ExecutionResult{data: data, errors: errs}, nil
}
