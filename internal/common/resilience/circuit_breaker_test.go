package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	commonerrors "github.com/ventionteams/medfast-credentials/internal/common/errors"
)

func newTestBreaker(c clock.Clock) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Threshold:  2,
		Timeout:    time.Second,
		ResetAfter: 10 * time.Second,
		Name:       "test",
		Clock:      c,
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	mockClock := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cb := newTestBreaker(mockClock)
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		if err := cb.Call(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}

	err := cb.Call(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, commonerrors.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	mockClock.Advance(11 * time.Second)
	if err := cb.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("expected breaker to close after reset window, got %v", err)
	}
}

func TestCircuitBreaker_DomainErrorsDoNotTrip(t *testing.T) {
	cb := newTestBreaker(clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))

	for i := 0; i < 5; i++ {
		_ = cb.Call(context.Background(), func(context.Context) error { return commonerrors.ErrUserNotFound })
	}

	if cb.IsOpen() {
		t.Error("expected breaker to stay closed on domain errors")
	}
}

func TestCircuitBreaker_HalfOpenAllowsSingleTrialCall(t *testing.T) {
	mockClock := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cb := newTestBreaker(mockClock)
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		_ = cb.Call(context.Background(), func(context.Context) error { return boom })
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	mockClock.Advance(11 * time.Second)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half_open, got %s", cb.State())
	}

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Call(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return boom
		})
	}()
	<-started

	if err := cb.Call(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, commonerrors.ErrCircuitOpen) {
		t.Errorf("expected concurrent call to be rejected during the trial call, got %v", err)
	}

	close(release)
	<-done
	if cb.State() != StateOpen {
		t.Errorf("expected failed trial call to reopen, got %s", cb.State())
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := newTestBreaker(clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	boom := errors.New("timeout")

	_ = cb.Call(context.Background(), func(context.Context) error { return boom })
	_ = cb.Call(context.Background(), func(context.Context) error { return nil })
	_ = cb.Call(context.Background(), func(context.Context) error { return boom })

	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_PanickingTrialCallReleasesHalfOpen(t *testing.T) {
	mockClock := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cb := newTestBreaker(mockClock)
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		_ = cb.Call(context.Background(), func(context.Context) error { return boom })
	}
	mockClock.Advance(11 * time.Second)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to propagate")
			}
		}()
		_ = cb.Call(context.Background(), func(context.Context) error { panic("driver bug") })
	}()

	if cb.State() != StateOpen {
		t.Fatalf("expected panicking trial call to reopen the breaker, got %s", cb.State())
	}

	mockClock.Advance(11 * time.Second)
	if err := cb.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected a new trial call after the reset window, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}
