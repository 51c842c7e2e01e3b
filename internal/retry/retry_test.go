package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, DefaultMaxTries, cfg.MaxTries)
	assert.Equal(t, DefaultJitterConfig(), cfg.Jitter)
}

func TestConfig_GetMaxTries(t *testing.T) {
	t.Parallel()

	var nilCfg *Config
	assert.Equal(t, DefaultMaxTries, nilCfg.GetMaxTries())
	assert.Equal(t, DefaultMaxTries, (&Config{MaxTries: 0}).GetMaxTries())
	assert.Equal(t, 2, (&Config{MaxTries: 2}).GetMaxTries())
}

func TestDo_Success(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(context.Context) error {
		calls++
		return nil
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryThenSuccess(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, &Options{
		Sleeper: sleeper,
		Backoff: NewRandomExponentialSleep(DefaultJitterConfig(), &scriptedSource{values: []float64{0.5}}),
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestDo_AllAttemptsFail(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), &Config{MaxTries: 3, Jitter: DefaultJitterConfig()}, func(context.Context) error {
		calls++
		return boom
	}, &Options{Sleeper: sleeper})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.waits, 2)
}

func TestDo_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, DefaultConfig(), func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	}, &Options{Sleeper: &recordingSleeper{}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_ShouldRetryFunc(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permanent")
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(context.Context) error {
		calls++
		return permanent
	}, &Options{
		ShouldRetry: func(err error) bool { return !errors.Is(err, permanent) },
		Sleeper:     &recordingSleeper{},
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCallback(t *testing.T) {
	t.Parallel()

	var attempts []int
	err := Do(context.Background(), &Config{MaxTries: 3, Jitter: DefaultJitterConfig()}, func(context.Context) error {
		return errors.New("fail")
	}, &Options{
		OnRetry: func(attempt int, err error, _ time.Duration) {
			attempts = append(attempts, attempt)
			require.Error(t, err)
		},
		Sleeper: &recordingSleeper{},
	})

	assert.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_NilConfig(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), nil, func(context.Context) error {
		calls++
		return errors.New("fail")
	}, &Options{Sleeper: &recordingSleeper{}})

	assert.Error(t, err)
	assert.Equal(t, DefaultMaxTries, calls)
}

func TestIsNetworkError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("nope"), want: false},
		{name: "op error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: true},
		{name: "eof", err: io.EOF, want: true},
		{name: "unexpected eof", err: io.ErrUnexpectedEOF, want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNetworkError(tt.err))
		})
	}
}
