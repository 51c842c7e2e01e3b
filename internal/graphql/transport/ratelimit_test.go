package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedTransport_Allows(t *testing.T) {
	t.Parallel()

	next := &fakeTransport{
		results: []fakeResult{{resp: &Response{StatusCode: http.StatusOK}}},
		timeout: 3 * time.Second,
	}
	r := NewRateLimitedTransport(next, 1000, 0)

	for i := 0; i < 3; i++ {
		resp, err := r.Send(context.Background(), &Request{}, 0)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 3, next.Calls())
	assert.Equal(t, 3*time.Second, r.DefaultTimeout())
}

func TestRateLimitedTransport_WouldExceedDeadline(t *testing.T) {
	t.Parallel()

	next := &fakeTransport{results: []fakeResult{{resp: &Response{StatusCode: http.StatusOK}}}}
	r := NewRateLimitedTransport(next, 0.001, 1)

	_, err := r.Send(context.Background(), &Request{}, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = r.Send(ctx, &Request{}, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, &Error{})
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 1, next.Calls())
}

func TestRateLimitedTransport_Cancelled(t *testing.T) {
	t.Parallel()

	next := &fakeTransport{results: []fakeResult{{resp: &Response{StatusCode: http.StatusOK}}}}
	r := NewRateLimitedTransport(next, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Send(ctx, &Request{}, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, next.Calls())
}
