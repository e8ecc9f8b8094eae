// Package retry wraps an operation with bounded, jittered exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"google.golang.org/api/googleapi"
)

// Defaults for Do when no options are supplied.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1000 * time.Millisecond
	DefaultMaxDelay   = 30000 * time.Millisecond

	// JitterFraction is the multiplicative jitter applied to each computed
	// delay: the final wait is uniform in [delay*(1-f), delay*(1+f)].
	JitterFraction = 0.25
)

// Options configures Do.
type Options struct {
	// MaxRetries is the number of retries after the initial attempt, so the
	// operation runs at most MaxRetries+1 times.
	MaxRetries int

	// BaseDelay is the delay before the first retry; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed delay before jitter is applied.
	MaxDelay time.Duration

	// Retryable decides whether a failure is worth another attempt. A
	// rejected error propagates immediately without waiting.
	Retryable func(error) bool

	// OnRetry, if set, is invoked before each wait with the error, the
	// 1-based attempt number and the jittered delay. Observability only.
	OnRetry func(err error, attempt int, delay time.Duration)

	sleep func(ctx context.Context, d time.Duration) error
	randf func() float64
}

// Option mutates Options.
type Option func(*Options)

// WithMaxRetries sets the retry ceiling.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithBaseDelay sets the first-retry delay.
func WithBaseDelay(d time.Duration) Option {
	return func(o *Options) { o.BaseDelay = d }
}

// WithMaxDelay sets the delay cap.
func WithMaxDelay(d time.Duration) Option {
	return func(o *Options) { o.MaxDelay = d }
}

// WithRetryable sets the retryability predicate.
func WithRetryable(fn func(error) bool) Option {
	return func(o *Options) { o.Retryable = fn }
}

// WithOnRetry sets the pre-wait observer callback.
func WithOnRetry(fn func(err error, attempt int, delay time.Duration)) Option {
	return func(o *Options) { o.OnRetry = fn }
}

// withSleep overrides the wait implementation. Test hook.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Options) { o.sleep = fn }
}

// withRand overrides the jitter randomness source. Test hook.
func withRand(fn func() float64) Option {
	return func(o *Options) { o.randf = fn }
}

// Do executes op, retrying on retryable failure with jittered exponential
// backoff, and returns the last error when attempts are exhausted.
func Do(ctx context.Context, op func(context.Context) error, opts ...Option) error {
	o := Options{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Retryable:  func(error) bool { return true },
		sleep:      sleepContext,
		randf:      rand.Float64,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= o.MaxRetries || !o.Retryable(lastErr) {
			return lastErr
		}

		delay := jitter(Delay(attempt, o.BaseDelay, o.MaxDelay), o.randf)
		if o.OnRetry != nil {
			o.OnRetry(lastErr, attempt+1, delay)
		}
		if err := o.sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
}

// Delay computes the capped exponential delay for the given 0-based retry
// attempt, before jitter: min(base * 2^attempt, max).
func Delay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max || d < 0 {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// jitter perturbs d by ±JitterFraction uniformly at random and floors the
// result to a non-negative whole millisecond.
func jitter(d time.Duration, randf func() float64) time.Duration {
	factor := 1 - JitterFraction + 2*JitterFraction*randf()
	j := time.Duration(float64(d) * factor)
	j = j / time.Millisecond * time.Millisecond
	if j < 0 {
		j = 0
	}
	return j
}

// retryableStatus holds the HTTP status codes worth retrying: timeouts,
// rate limiting, and server-side failures.
var retryableStatus = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// DefaultRetryable classifies network-level failures, timeouts, and
// transient HTTP statuses as retryable. Client errors (400, 401, 404) and
// anything unrecognized are not.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus[apiErr.Code]
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return false
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
