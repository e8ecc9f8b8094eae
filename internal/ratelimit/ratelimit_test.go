package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock backs a limiter with virtual time: sleeps advance the clock
// instantly instead of blocking.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
		c.sleeps = append(c.sleeps, d)
	}
	return ctx.Err()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(ceiling int, minSpacing time.Duration) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	return NewWithClock(ceiling, minSpacing, clock.Now, clock.Sleep), clock
}

func TestWait_FirstCallImmediate(t *testing.T) {
	l, clock := newTestLimiter(5, 100*time.Millisecond)

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("Expected no waits for first call, got %v", clock.sleeps)
	}
	if l.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", l.Pending())
	}
}

func TestWait_MinSpacing(t *testing.T) {
	l, clock := newTestLimiter(100, 100*time.Millisecond)
	ctx := context.Background()

	start := clock.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	// Two spacing waits of 100ms each for the tight loop.
	if elapsed := clock.Now().Sub(start); elapsed != 200*time.Millisecond {
		t.Errorf("elapsed = %v, want 200ms of spacing waits", elapsed)
	}
}

func TestWait_CeilingDelaysOverflowCall(t *testing.T) {
	const ceiling = 10
	l, clock := newTestLimiter(ceiling, 0)
	ctx := context.Background()

	start := clock.Now()
	for i := 0; i < ceiling; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
	if got := clock.Now().Sub(start); got != 0 {
		t.Fatalf("First %d calls should not wait, elapsed %v", ceiling, got)
	}

	// The (ceiling+1)th call must be pushed past the window edge.
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Overflow Wait failed: %v", err)
	}
	if got := clock.Now().Sub(start); got < time.Minute {
		t.Errorf("Overflow call admitted after %v, want >= 1m", got)
	}
	if l.Pending() > ceiling {
		t.Errorf("Pending = %d, exceeds ceiling %d", l.Pending(), ceiling)
	}
}

func TestWait_SlidingWindowNotFixed(t *testing.T) {
	const ceiling = 4
	l, clock := newTestLimiter(ceiling, 0)
	ctx := context.Background()

	// Two calls, then a half-window pause, then fill the ceiling.
	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	clock.Advance(30 * time.Second)
	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	// The next call sees 4 calls inside the trailing minute and must wait
	// only until the two oldest age out (30s more), not a full minute.
	before := clock.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	waited := clock.Now().Sub(before)
	if waited != 30*time.Second {
		t.Errorf("waited %v, want 30s until oldest timestamp leaves the window", waited)
	}
}

func TestWait_TimestampRecordedAfterWaits(t *testing.T) {
	l, clock := newTestLimiter(100, 100*time.Millisecond)
	ctx := context.Background()

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	// The second timestamp must reflect send time (after the spacing wait):
	// a third immediate call therefore waits the full spacing again.
	before := clock.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if waited := clock.Now().Sub(before); waited != 100*time.Millisecond {
		t.Errorf("waited %v, want 100ms measured from previous send time", waited)
	}
}

func TestWait_ContextCanceled(t *testing.T) {
	l, _ := newTestLimiter(1, 0)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Expected context error from Wait after cancel")
	}
}

func TestNew_Defaults(t *testing.T) {
	l := New(0, -1)
	if l.ceiling != DefaultCeiling {
		t.Errorf("ceiling = %d, want %d", l.ceiling, DefaultCeiling)
	}
	if l.minSpacing != DefaultMinSpacing {
		t.Errorf("minSpacing = %v, want %v", l.minSpacing, DefaultMinSpacing)
	}
}
