// Package retry provides a bounded polling primitive for waiting on
// eventually-consistent remote state.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrExhaustedRetries indicates the attempt budget was spent without the
	// condition ever becoming true.
	ErrExhaustedRetries = errors.New("retry: attempts exhausted")

	// ErrDeadlineExceeded indicates the caller's deadline expired before the
	// attempt budget did.
	ErrDeadlineExceeded = errors.New("retry: deadline exceeded")

	// ErrUpstream indicates the condition itself failed. The original error
	// stays in the chain for errors.Is/As.
	ErrUpstream = errors.New("retry: upstream error")
)

// Condition reports whether the awaited remote state has been reached.
// Returning an error aborts polling immediately; "not ready yet" must be
// reported as (false, nil).
type Condition func(ctx context.Context) (bool, error)

// Poller repeatedly evaluates a condition with a bounded attempt budget,
// sleeping between attempts. The delay before attempt n+1 is
//
//	Delay + jitter()*2^n*DelayFactor + 2^n*DelayFixed
//
// so a constant profile sets only Delay, and an exponential profile sets
// DelayFactor (jittered) and optionally DelayFixed. Jitter and Sleep are
// injectable so tests can run many attempts without wall-clock time; the
// zero values use math/rand and a context-aware timer.
type Poller struct {
	MaxAttempts int
	Delay       time.Duration
	DelayFactor time.Duration
	DelayFixed  time.Duration

	Jitter func() float64
	Sleep  func(ctx context.Context, d time.Duration) error
}

// Wait polls cond until it returns true, it returns an error, the attempt
// budget is exhausted, or ctx is done. Errors from cond are never retried;
// they come back wrapped in ErrUpstream with the original error intact.
func (p Poller) Wait(ctx context.Context, cond Condition) error {
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("retry: max attempts must be positive, got %d", p.MaxAttempts)
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}

		ok, err := cond(ctx)
		if err != nil {
			return fmt.Errorf("%w: attempt %d: %w", ErrUpstream, attempt+1, err)
		}
		if ok {
			return nil
		}

		// No sleep after the final attempt.
		if attempt == p.MaxAttempts-1 {
			break
		}
		if err := sleep(ctx, p.backoff(attempt)); err != nil {
			return fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrExhaustedRetries, p.MaxAttempts)
}

// backoff computes the delay after the given zero-based attempt.
func (p Poller) backoff(attempt int) time.Duration {
	jitter := p.Jitter
	if jitter == nil {
		jitter = positiveJitter
	}
	scale := int64(1) << uint(attempt)
	d := p.Delay
	d += time.Duration(jitter() * float64(scale) * float64(p.DelayFactor))
	d += time.Duration(scale) * p.DelayFixed
	return d
}

// positiveJitter draws from (0, 1] so a jittered component is never zero.
func positiveJitter() float64 {
	return 1 - rand.Float64()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
