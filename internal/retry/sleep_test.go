package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleep_Elapses(t *testing.T) {
	t.Parallel()

	start := time.Now()
	err := Sleep(context.Background(), 10*time.Millisecond)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestSleep_ZeroDuration(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}

func TestSleep_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := TimerSleeper.Sleep(ctx, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSleeperFunc(t *testing.T) {
	t.Parallel()

	var got time.Duration
	s := SleeperFunc(func(_ context.Context, d time.Duration) error {
		got = d
		return nil
	})

	assert.NoError(t, s.Sleep(context.Background(), 3*time.Second))
	assert.Equal(t, 3*time.Second, got)
}
