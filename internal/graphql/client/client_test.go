package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avagql/internal/auth"
	"github.com/vyrodovalexey/avagql/internal/util"
)

func envOf(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestNew_EndpointResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		env      map[string]string
		want     string
		wantErr  error
	}{
		{
			name:     "explicit",
			endpoint: "https://api.example.com/graphql",
			env:      map[string]string{EndpointEnv: "http://ignored/graphql"},
			want:     "https://api.example.com/graphql",
		},
		{
			name: "from environment",
			env:  map[string]string{EndpointEnv: "http://localhost:8080/v1/graphql"},
			want: "http://localhost:8080/v1/graphql",
		},
		{
			name:    "missing",
			env:     map[string]string{},
			wantErr: util.ErrMissingEndpoint,
		},
		{
			name:     "unsupported scheme",
			endpoint: "ftp://example.com/graphql",
			wantErr:  util.ErrConfigInvalid,
		},
		{
			name:     "missing host",
			endpoint: "http:///graphql",
			wantErr:  util.ErrConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(Config{Endpoint: tt.endpoint}, WithLookupEnv(envOf(tt.env)))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, util.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Endpoint())
		})
	}
}

func TestNew_InvalidDefaults(t *testing.T) {
	t.Parallel()

	opts := DefaultExecuteOptions()
	opts.MaxTries = 0

	_, err := New(Config{Endpoint: testEndpoint, Retry: &opts})
	require.Error(t, err)
	assert.True(t, util.IsConfigError(err))
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	c, err := New(Config{Endpoint: testEndpoint})
	require.NoError(t, err)

	assert.Equal(t, DefaultExecuteOptions(), c.Defaults())
	assert.IsType(t, auth.Nop{}, c.auth)
	assert.NotNil(t, c.transport)
	assert.NotNil(t, c.sleeper)
	c.Close()
}

func TestClient_HTTPIntegration(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "s3cret", r.Header.Get("X-Hasura-Admin-Secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"hello":"world"}}`))
	}))
	defer server.Close()

	c, err := New(Config{Endpoint: server.URL},
		WithAuth(auth.NewHasuraAdmin("s3cret")),
		WithSleeper(&recordingSleeper{}),
	)
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Execute(context.Background(), "{ hello }", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hello": "world"}, res.Data())
	assert.Equal(t, int32(2), calls.Load())
}
