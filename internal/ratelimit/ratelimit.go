// Package ratelimit throttles outgoing API calls with a sliding-window
// requests-per-minute ceiling plus a minimum inter-request spacing.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Defaults match the Sheets API per-user quota headroom.
const (
	DefaultCeiling    = 60
	DefaultMinSpacing = 100 * time.Millisecond

	// window is the trailing interval the ceiling applies to.
	window = time.Minute
)

// Limiter is a sliding-window rate limiter. Unlike a fixed-window counter it
// never admits more than the ceiling's worth of calls in any trailing
// 60-second interval, not just calendar-aligned minutes. A single instance is
// shared process-wide by the sheets client, so a burst from one service
// throttles the others. Safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	ceiling    int
	minSpacing time.Duration
	calls      []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given per-minute ceiling and minimum spacing.
// Non-positive arguments fall back to the defaults.
func New(ceiling int, minSpacing time.Duration) *Limiter {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if minSpacing < 0 {
		minSpacing = DefaultMinSpacing
	}
	return &Limiter{
		ceiling:    ceiling,
		minSpacing: minSpacing,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// NewWithClock creates a limiter with injected time functions. Test hook: the
// sleep function is expected to advance whatever clock backs now.
func NewWithClock(ceiling int, minSpacing time.Duration, now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *Limiter {
	l := New(ceiling, minSpacing)
	l.now = now
	l.sleep = sleep
	return l
}

// Wait blocks until issuing a call would keep the trailing window under the
// ceiling and the spacing since the previous call at or above the minimum,
// then records the call. The timestamp is recorded after all waits complete,
// so it reflects actual send time.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := l.now()
		l.prune(now)

		if len(l.calls) >= l.ceiling {
			// Wait for the oldest retained call to age out of the window.
			wait := window - now.Sub(l.calls[0])
			if wait > 0 {
				if err := l.sleep(ctx, wait); err != nil {
					return err
				}
			}
			continue
		}

		if n := len(l.calls); n > 0 && l.minSpacing > 0 {
			since := now.Sub(l.calls[n-1])
			if since < l.minSpacing {
				if err := l.sleep(ctx, l.minSpacing-since); err != nil {
					return err
				}
				continue
			}
		}

		l.calls = append(l.calls, now)
		return nil
	}
}

// Pending reports how many calls are currently inside the trailing window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.calls)
}

// prune drops timestamps older than the window. Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
