package service

import (
	"context"
	"errors"

	commonerrors "github.com/ventionteams/medfast-credentials/internal/common/errors"
	"github.com/ventionteams/medfast-credentials/internal/common/resilience"
	"github.com/ventionteams/medfast-credentials/internal/observability/metrics"
)

// callDB runs fn through the database breaker when one is configured.
func callDB(ctx context.Context, cb *resilience.CircuitBreaker, fn func(context.Context) error) error {
	if cb == nil {
		return fn(ctx)
	}
	return handleCircuitBreakerError(cb.Call(ctx, fn))
}

func handleCircuitBreakerError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	return err
}

func recordDomainError(err error) {
	if de, ok := commonerrors.AsDomainError(err); ok {
		metrics.DomainErrorsTotal.WithLabelValues(string(de.Category()), de.Code()).Inc()
	}
}
