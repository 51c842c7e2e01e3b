package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avagql/internal/graphql/query"
	"github.com/vyrodovalexey/avagql/internal/util"
)

func TestNewQuery_InvalidType(t *testing.T) {
	t.Parallel()

	q, err := NewQuery(3.14)
	require.Error(t, err)
	assert.Nil(t, q)
	assert.ErrorIs(t, err, util.ErrInvalidQuery)
}

func TestQuery_BoundTo(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport(respond(http.StatusOK, `{"data":{"user":{"name":"ada"}}}`))
	c := newTestClient(t, ft, &recordingSleeper{})

	q, err := NewQuery(query.MustParse(usersQuery), BoundTo(c))
	require.NoError(t, err)
	assert.Equal(t, "GetUser", q.Operation().Name)

	res, err := q.Run(context.Background(), map[string]any{"id": "7"})
	require.NoError(t, err)
	assert.True(t, res.Equal([2]any{map[string]any{"user": map[string]any{"name": "ada"}}, nil}))

	var body map[string]any
	require.NoError(t, json.Unmarshal(ft.Request(0).Body, &body))
	assert.Equal(t, q.Text(), body["query"])
	assert.Equal(t, map[string]any{"id": "7"}, body["variables"])
}

func TestQuery_FromConfigBuildsClientOnce(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport(respond(http.StatusOK, `{"data":{}}`))
	q, err := NewQuery("{ ok }", FromConfig(Config{Endpoint: testEndpoint},
		WithTransport(ft), WithSleeper(&recordingSleeper{})))
	require.NoError(t, err)

	c1, err := q.Client()
	require.NoError(t, err)
	c2, err := q.Client()
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	_, err = q.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ft.Calls())
}

func TestQuery_FromConfigError(t *testing.T) {
	t.Parallel()

	q, err := NewQuery("{ ok }", FromConfig(Config{}, WithLookupEnv(envOf(nil))))
	require.NoError(t, err)

	_, err = q.Run(context.Background(), nil)
	assert.ErrorIs(t, err, util.ErrMissingEndpoint)
}

func TestQuery_DefaultsAndOverrides(t *testing.T) {
	t.Parallel()

	ft := newFakeTransport(respond(http.StatusInternalServerError, ""))
	c := newTestClient(t, ft, &recordingSleeper{})

	q, err := NewQuery("{ ok }", BoundTo(c), WithDefaults(WithMaxTries(2)))
	require.NoError(t, err)

	_, err = q.Run(context.Background(), nil)
	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 2, retryErr.Retries)

	_, err = q.Run(context.Background(), nil, WithMaxTries(1))
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 1, retryErr.Retries)
}
