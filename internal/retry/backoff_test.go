package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingSleep captures requested delays without actually sleeping.
func recordingSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestPoller_SucceedsOnFirstTrue(t *testing.T) {
	var delays []time.Duration
	p := Poller{MaxAttempts: 10, Delay: time.Second, Sleep: recordingSleep(&delays)}

	attempts := 0
	err := p.Wait(context.Background(), func(ctx context.Context) (bool, error) {
		attempts++
		return attempts == 3, nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Len(t, delays, 2, "no sleep after the successful attempt")
}

func TestPoller_ExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	p := Poller{MaxAttempts: 5, Delay: time.Second, Sleep: recordingSleep(&delays)}

	attempts := 0
	err := p.Wait(context.Background(), func(ctx context.Context) (bool, error) {
		attempts++
		return false, nil
	})

	require.ErrorIs(t, err, ErrExhaustedRetries)
	require.Equal(t, 5, attempts)
	require.Len(t, delays, 4, "no sleep after the final attempt")
}

func TestPoller_UpstreamErrorAbortsImmediately(t *testing.T) {
	upstream := errors.New("throttled")
	p := Poller{MaxAttempts: 10, Delay: time.Second, Sleep: recordingSleep(&[]time.Duration{})}

	attempts := 0
	err := p.Wait(context.Background(), func(ctx context.Context) (bool, error) {
		attempts++
		return false, upstream
	})

	require.ErrorIs(t, err, upstream)
	require.ErrorIs(t, err, ErrUpstream)
	require.NotErrorIs(t, err, ErrExhaustedRetries)
	require.NotErrorIs(t, err, ErrDeadlineExceeded)
	require.Equal(t, 1, attempts)
}

func TestPoller_DeadlineExceededIsDistinct(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Poller{MaxAttempts: 10, Delay: time.Second}
	err := p.Wait(ctx, func(ctx context.Context) (bool, error) {
		return false, nil
	})

	require.ErrorIs(t, err, ErrDeadlineExceeded)
	require.NotErrorIs(t, err, ErrExhaustedRetries)
}

func TestPoller_RejectsZeroAttempts(t *testing.T) {
	p := Poller{}
	err := p.Wait(context.Background(), func(ctx context.Context) (bool, error) {
		return true, nil
	})
	require.Error(t, err)
}

func TestPoller_ExponentialDelaysGrow(t *testing.T) {
	var delays []time.Duration
	p := Poller{
		MaxAttempts: 5,
		DelayFactor: 100 * time.Millisecond,
		Jitter:      func() float64 { return 0.5 },
		Sleep:       recordingSleep(&delays),
	}

	err := p.Wait(context.Background(), func(ctx context.Context) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, ErrExhaustedRetries)

	// jitter(0.5) * 2^n * 100ms: 50ms, 100ms, 200ms, 400ms
	require.Equal(t, []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, delays)

	for i := 1; i < len(delays); i++ {
		require.GreaterOrEqual(t, delays[i], delays[i-1], "delays must be non-decreasing")
	}
}

func TestPoller_JitterVariesDelay(t *testing.T) {
	delayWithJitter := func(j float64) time.Duration {
		var delays []time.Duration
		p := Poller{
			MaxAttempts: 2,
			DelayFactor: 100 * time.Millisecond,
			Jitter:      func() float64 { return j },
			Sleep:       recordingSleep(&delays),
		}
		_ = p.Wait(context.Background(), func(ctx context.Context) (bool, error) {
			return false, nil
		})
		require.Len(t, delays, 1)
		return delays[0]
	}

	require.NotEqual(t, delayWithJitter(0.3), delayWithJitter(0.7),
		"different jitter draws must produce different delays at the same attempt")
	require.Positive(t, delayWithJitter(0.001), "jittered component must stay strictly positive")
}

func TestPoller_ConstantProfileAddsFixedDelay(t *testing.T) {
	var delays []time.Duration
	p := Poller{MaxAttempts: 3, Delay: 30 * time.Second, Sleep: recordingSleep(&delays)}

	err := p.Wait(context.Background(), func(ctx context.Context) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, ErrExhaustedRetries)
	require.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, delays)
}
