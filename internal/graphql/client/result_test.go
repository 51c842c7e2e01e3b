package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionResult_Accessors(t *testing.T) {
	t.Parallel()

	data := map[string]any{"a": 1.0}
	errs := []any{map[string]any{"message": "x"}}
	r := NewExecutionResult(data, errs)

	assert.Equal(t, data, r.Data())
	assert.Equal(t, errs, r.Errors())
	assert.True(t, r.HasErrors())

	d, e := r.Unpack()
	assert.Equal(t, data, d)
	assert.Equal(t, errs, e)

	assert.Equal(t, map[string]any{"data": data, "errors": errs}, r.Formatted())
}

func TestExecutionResult_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *ExecutionResult
		want   string
	}{
		{
			name:   "data only",
			result: NewExecutionResult(map[string]any{"a": 1.0}, nil),
			want:   `ExecutionResult(data={"a":1}, errors=null)`,
		},
		{
			name:   "errors only",
			result: NewExecutionResult(nil, []any{"boom"}),
			want:   `ExecutionResult(data=null, errors=["boom"])`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.String())
		})
	}
}

func TestExecutionResult_MarshalJSON(t *testing.T) {
	t.Parallel()

	r := NewExecutionResult(map[string]any{"a": "b"}, nil)
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"a":"b"},"errors":null}`, string(b))
}

func TestExecutionResult_Equal(t *testing.T) {
	t.Parallel()

	data := map[string]any{"user": map[string]any{"name": "ada"}}
	errs := []any{map[string]any{"message": "partial"}}
	r := NewExecutionResult(data, errs)

	tests := []struct {
		name   string
		result *ExecutionResult
		other  any
		want   bool
	}{
		{name: "same result", result: r, other: NewExecutionResult(data, errs), want: true},
		{name: "result value", result: r, other: *NewExecutionResult(data, errs), want: true},
		{name: "envelope map", result: r, other: map[string]any{"data": data, "errors": errs}, want: true},
		{name: "tuple", result: r, other: [2]any{data, errs}, want: true},
		{name: "slice pair", result: r, other: []any{data, errs}, want: true},
		{name: "different data", result: r, other: [2]any{map[string]any{}, errs}, want: false},
		{name: "different errors", result: r, other: [2]any{data, nil}, want: false},
		{name: "map with extra key", result: r, other: map[string]any{"data": data, "errors": errs, "x": 1}, want: false},
		{name: "map missing errors", result: r, other: map[string]any{"data": data}, want: false},
		{name: "slice of three", result: r, other: []any{data, errs, nil}, want: false},
		{name: "unrelated type", result: r, other: "result", want: false},
		{name: "nil result pointer", result: r, other: (*ExecutionResult)(nil), want: false},
		{
			name:   "nil parts equal untyped nil",
			result: NewExecutionResult(nil, nil),
			other:  [2]any{nil, nil},
			want:   true,
		},
		{
			name:   "typed nil map equals untyped nil",
			result: NewExecutionResult(nil, nil),
			other:  map[string]any{"data": map[string]any(nil), "errors": nil},
			want:   true,
		},
		{
			name:   "empty map is not nil",
			result: NewExecutionResult(nil, nil),
			other:  [2]any{map[string]any{}, nil},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.Equal(tt.other))
		})
	}
}

func TestDecodeResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantData   map[string]any
		wantErrors []any
		wantErr    bool
	}{
		{
			name:     "data only",
			body:     `{"data":{"n":1}}`,
			wantData: map[string]any{"n": 1.0},
		},
		{
			name:       "null data with errors",
			body:       `{"data":null,"errors":[{"message":"x"}]}`,
			wantErrors: []any{map[string]any{"message": "x"}},
		},
		{
			name:       "non-array errors are wrapped",
			body:       `{"errors":{"message":"x"}}`,
			wantErrors: []any{map[string]any{"message": "x"}},
		},
		{
			name:       "string error is wrapped",
			body:       `{"errors":"bad"}`,
			wantErrors: []any{"bad"},
		},
		{name: "missing envelope", body: `{"result":1}`, wantErr: true},
		{name: "array body", body: `[1,2]`, wantErr: true},
		{name: "null body", body: `null`, wantErr: true},
		{name: "data not an object", body: `{"data":[1]}`, wantErr: true},
		{name: "invalid json", body: `{"data":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := decodeResult([]byte(tt.body))
			if tt.wantErr {
				var protoErr *ProtocolError
				require.ErrorAs(t, err, &protoErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, res.Data())
			assert.Equal(t, tt.wantErrors, res.Errors())
		})
	}
}

func TestErrors_Messages(t *testing.T) {
	t.Parallel()

	retryErr := &RetryError{Retries: 5, LastErr: &StatusError{StatusCode: 502}}
	assert.Equal(t, "failed 5 retries: graphql endpoint responded with status 502", retryErr.Error())
	assert.ErrorIs(t, retryErr, ErrRetriesExhausted)

	long := make([]byte, maxErrorBody+10)
	for i := range long {
		long[i] = 'x'
	}
	statusErr := &StatusError{StatusCode: 500, Body: long}
	assert.Contains(t, statusErr.Error(), "...")

	protoErr := &ProtocolError{Body: []byte(`{"x":1}`)}
	assert.Contains(t, protoErr.Error(), "missing data and errors")

	gqlErr := &GraphQLError{Errors: []any{"a", "b"}}
	assert.Contains(t, gqlErr.Error(), "2 errors")
}
