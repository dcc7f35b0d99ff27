package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	commonerrors "github.com/ventionteams/medfast-credentials/internal/common/errors"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/observability/metrics"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker guards calls to the credential store. After Threshold
// consecutive infrastructure failures it rejects calls for ResetAfter, then
// lets a single trial call through; its result closes or reopens it.
type CircuitBreaker struct {
	mu            sync.Mutex
	state         State
	failures      int32
	openedAt      time.Time
	trialInFlight bool
	threshold     int32
	timeout       time.Duration
	resetAfter    time.Duration
	name          string
	clock         clock.Clock
	log           *logger.Logger
}

type CircuitBreakerConfig struct {
	Threshold  int32
	Timeout    time.Duration
	ResetAfter time.Duration
	Name       string
	Clock      clock.Clock
	Logger     *logger.Logger
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	c := config.Clock
	if c == nil {
		c = clock.NewRealClock()
	}
	threshold := config.Threshold
	if threshold < 1 {
		threshold = 1
	}
	return &CircuitBreaker{
		threshold:  threshold,
		timeout:    config.Timeout,
		resetAfter: config.ResetAfter,
		name:       config.Name,
		clock:      c,
		log:        config.Logger,
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.clock.Since(cb.openedAt) > cb.resetAfter {
		return StateHalfOpen
	}
	return cb.state
}

func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// Call runs fn under the breaker timeout. Not-found, conflict and other
// domain answers do not count as failures; only infrastructure errors do.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allow() {
		if cb.log != nil {
			cb.log.Warnf("circuit breaker [%s]: circuit is open, rejecting request", cb.name)
		}
		return commonerrors.ErrCircuitOpen
	}

	callCtx := ctx
	if cb.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	completed := false
	defer func() {
		// a panicking fn counts as a failure and still releases the trial call
		if !completed {
			cb.record(false)
		}
	}()

	err := fn(callCtx)
	completed = true
	cb.record(err == nil || !countsAsFailure(err))
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.clock.Since(cb.openedAt) <= cb.resetAfter {
			return false
		}
		cb.transition(StateHalfOpen)
		cb.trialInFlight = true
		return true
	case StateHalfOpen:
		if cb.trialInFlight {
			return false
		}
		cb.trialInFlight = true
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if success {
		cb.failures = 0
		cb.trialInFlight = false
		if cb.state != StateClosed {
			cb.transition(StateClosed)
		}
		return
	}

	cb.failures++
	if cb.name != "" {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}

	if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
		cb.trialInFlight = false
		cb.openedAt = cb.clock.Now()
		if cb.state != StateOpen {
			cb.transition(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	if cb.name != "" {
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(float64(to))
		metrics.CircuitBreakerTransitions.WithLabelValues(cb.name, from.String(), to.String()).Inc()
	}
	if cb.log != nil {
		cb.log.Warnf("circuit breaker [%s]: %s -> %s", cb.name, from, to)
	}
}

func countsAsFailure(err error) bool {
	return commonerrors.CategoryOf(err).Infrastructure()
}
