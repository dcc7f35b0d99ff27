package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func onlyTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, IsRetryable: onlyTransient}, func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errTransient
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExhaustedSurfacesLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, IsRetryable: onlyTransient}, func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})

	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, errTransient) {
		t.Error("expected last error to be wrapped")
	}
}

func TestRetry_PermanentFailsFast(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 5, IsRetryable: onlyTransient}, func(ctx context.Context, attempt int) error {
		calls++
		return errPermanent
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, errPermanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Error("permanent failure should not be reported as exhausted")
	}
}

func TestRetry_NilClassifierRetriesEverything(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), RetryPolicy{MaxAttempts: 2}, func(ctx context.Context, attempt int) error {
		calls++
		return errPermanent
	})

	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), RetryPolicy{}, func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var seen []int
	policy := RetryPolicy{
		MaxAttempts: 3,
		OnRetry: func(attempt int, err error) {
			seen = append(seen, attempt)
		},
	}

	_ = Retry(context.Background(), policy, func(ctx context.Context, attempt int) error {
		return errTransient
	})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("expected retries after attempts 1 and 2, got %v", seen)
	}
}

func TestRetry_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Hour}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, policy, func(ctx context.Context, attempt int) error {
			calls++
			return errTransient
		})
	}()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}
