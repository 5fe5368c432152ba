package service

import (
	"context"
	"errors"
	"time"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/infra/observability"

	"go.uber.org/zap"
)

// protected runs an operation under a deadline and converts
// infrastructure failures (remote errors, open breakers, timeouts)
// into a service-unavailable result. Business errors pass through
// untouched.
func protected[T any](
	ctx context.Context,
	timeout time.Duration,
	op string,
	logger *zap.Logger,
	metrics *observability.Metrics,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(ctx)
	if err == nil {
		return v, nil
	}

	var zero T
	var external *domain.ErrExternalService
	var circuitOpen *domain.ErrCircuitOpen
	var timedOut *domain.ErrTimeout

	switch {
	case errors.As(err, &external),
		errors.As(err, &circuitOpen),
		errors.As(err, &timedOut),
		errors.Is(err, context.DeadlineExceeded):
		logger.Error("operation fell back to service unavailable",
			zap.String("operation", op),
			zap.Error(err),
		)
		metrics.IncrFallback(op)
		return zero, &domain.ErrServiceUnavailable{Operation: op}
	}

	return zero, err
}
