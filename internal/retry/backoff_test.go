package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/timeweaver/internal/testutil/testlog"
)

func TestNextDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: 250 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second}
	want := []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, time.Second, time.Second}
	for i, w := range want {
		if got := NextDelay(cfg, i+1, nil); got != w {
			t.Fatalf("attempt %d: got %v want %v", i+1, got, w)
		}
	}
}

func TestNextDelayJitterWithoutRNGHalves(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2, Jitter: true}
	if got := NextDelay(cfg, 2, nil); got != 100*time.Millisecond {
		t.Fatalf("unexpected jittered delay: %v", got)
	}
	if got := NextDelay(BackoffConfig{}, 3, nil); got != 0 {
		t.Fatalf("zero config should not wait, got %v", got)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1}
	calls := 0
	err := Do(context.Background(), cfg, 5, func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, calls=%d err=%v", calls, err)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	testlog.Start(t)
	cause := errors.New("connection refused")
	calls := 0
	err := Do(context.Background(), BackoffConfig{}, 2, func(int) error {
		calls++
		return cause
	})
	if !errors.Is(err, cause) || calls != 2 {
		t.Fatalf("expected last error after 2 calls, calls=%d err=%v", calls, err)
	}
	if err := Do(context.Background(), BackoffConfig{}, 0, func(int) error { return nil }); !errors.Is(err, ErrInvalidAttempts) {
		t.Fatalf("expected ErrInvalidAttempts, got %v", err)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cause := errors.New("down")
	err := Do(ctx, BackoffConfig{InitialDelay: time.Hour}, 3, func(int) error { return cause })
	if !errors.Is(err, context.Canceled) || !errors.Is(err, cause) {
		t.Fatalf("expected cancellation joined with cause, got %v", err)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	testlog.Start(t)
	cause := errors.New("unauthorized")
	calls := 0
	err := Do(context.Background(), BackoffConfig{InitialDelay: time.Hour}, 5, func(int) error {
		calls++
		return Permanent(cause)
	})
	if err != cause || calls != 1 {
		t.Fatalf("expected unwrapped permanent error after one call, calls=%d err=%v", calls, err)
	}
	if Permanent(nil) != nil {
		t.Fatalf("Permanent(nil) must be nil")
	}
}
