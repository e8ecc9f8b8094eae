package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

// noSleep makes Do complete instantly while recording requested delays.
func noSleep(delays *[]time.Duration) Option {
	return withSleep(func(ctx context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	})
}

func TestDelay_MonotonicCap(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1000 * time.Millisecond},
		{1, 2000 * time.Millisecond},
		{2, 4000 * time.Millisecond},
		{3, 8000 * time.Millisecond},
		{4, 16000 * time.Millisecond},
		{5, 30000 * time.Millisecond},
		{6, 30000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			got := Delay(tt.attempt, DefaultBaseDelay, DefaultMaxDelay)
			if got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDelay_LargeAttemptDoesNotOverflow(t *testing.T) {
	got := Delay(500, DefaultBaseDelay, DefaultMaxDelay)
	if got != DefaultMaxDelay {
		t.Errorf("Delay(500) = %v, want %v", got, DefaultMaxDelay)
	}
}

func TestJitter_Bounds(t *testing.T) {
	base := 8000 * time.Millisecond
	lo := time.Duration(float64(base) * (1 - JitterFraction))
	hi := time.Duration(float64(base) * (1 + JitterFraction))

	for i := 0; i < 1000; i++ {
		got := jitter(base, func() float64 { return float64(i) / 999 })
		if got < lo-time.Millisecond || got > hi {
			t.Fatalf("jitter(%v) = %v, outside [%v, %v]", base, got, lo, hi)
		}
		if got < 0 {
			t.Fatalf("jitter produced negative delay %v", got)
		}
		if got%time.Millisecond != 0 {
			t.Fatalf("jitter(%v) = %v, not a whole millisecond", base, got)
		}
	}
}

func TestJitter_ZeroDelay(t *testing.T) {
	if got := jitter(0, func() float64 { return 0 }); got != 0 {
		t.Errorf("jitter(0) = %v, want 0", got)
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	}, noSleep(nil))

	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_Termination(t *testing.T) {
	calls := 0
	wantErr := errors.New("always fails")

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	}, WithMaxRetries(3), noSleep(nil))

	if !errors.Is(err, wantErr) {
		t.Errorf("Do returned %v, want last error %v", err, wantErr)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 initial + 3 retries)", calls)
	}
}

func TestDo_NonRetryableShortCircuits(t *testing.T) {
	calls := 0
	authErr := &googleapi.Error{Code: 401}

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return authErr
	}, WithMaxRetries(10), WithRetryable(DefaultRetryable), noSleep(nil))

	if !errors.Is(err, authErr) {
		t.Errorf("Do returned %v, want %v", err, authErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for non-retryable error", calls)
	}
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: 503}
		}
		return nil
	}, WithRetryable(DefaultRetryable), noSleep(nil))

	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_OnRetryObserver(t *testing.T) {
	var attempts []int
	var delays []time.Duration

	err := Do(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	},
		WithMaxRetries(2),
		WithOnRetry(func(err error, attempt int, delay time.Duration) {
			attempts = append(attempts, attempt)
			delays = append(delays, delay)
		}),
		withRand(func() float64 { return 0.5 }), // no jitter
		noSleep(nil),
	)

	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("attempts = %v, want [1 2]", attempts)
	}
	if len(delays) != 2 || delays[0] != 1000*time.Millisecond || delays[1] != 2000*time.Millisecond {
		t.Errorf("delays = %v, want [1s 2s]", delays)
	}
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	wantErr := errors.New("transient")
	calls := 0

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	}, WithMaxRetries(5), withSleep(func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}))

	if !errors.Is(err, wantErr) {
		t.Errorf("Do returned %v, want last operation error %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 when wait is canceled", calls)
	}
}

func TestDefaultRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"timeout 408", &googleapi.Error{Code: 408}, true},
		{"rate limited 429", &googleapi.Error{Code: 429}, true},
		{"server error 500", &googleapi.Error{Code: 500}, true},
		{"bad gateway 502", &googleapi.Error{Code: 502}, true},
		{"unavailable 503", &googleapi.Error{Code: 503}, true},
		{"gateway timeout 504", &googleapi.Error{Code: 504}, true},
		{"bad request 400", &googleapi.Error{Code: 400}, false},
		{"unauthorized 401", &googleapi.Error{Code: 401}, false},
		{"not found 404", &googleapi.Error{Code: 404}, false},
		{"wrapped 503", fmt.Errorf("call: %w", &googleapi.Error{Code: 503}), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryable(tt.err); got != tt.want {
				t.Errorf("DefaultRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
