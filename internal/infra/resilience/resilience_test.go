package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bankapp/debit-cards-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
)

func TestRetryWithBackoff_TransientFailureRecovers(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     2,
		InitialBackoff: 5 * time.Millisecond,
	}

	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		if attempts == 1 {
			return errors.New("connection reset")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected recovery on second attempt, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_ReturnsLastErrorAfterExhaustion(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	}

	lastErr := errors.New("account API returned status 500")
	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		return lastErr
	})

	if !errors.Is(err, lastErr) {
		t.Fatalf("expected the final attempt's error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected MaxRetries+1 = 3 attempts, got %d", attempts)
	}
}

// A zero InitialBackoff is a valid configuration (used by the client
// tests to retry without waiting); the jitter draw must accept it.
func TestRetryWithBackoff_ZeroInitialBackoff(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 0,
	}

	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		return errors.New("still failing")
	})

	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_CancelledContextSkipsAttempts(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		attempts++
		return errors.New("unreachable")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Errorf("expected no attempts on a dead context, got %d", attempts)
	}
}

func TestCircuitBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker("accounts")

	for i := 0; i < 5; i++ {
		cb.Execute(func() (any, error) {
			return nil, errors.New("account API returned status 500")
		})
	}

	executed := false
	_, err := cb.Execute(func() (any, error) {
		executed = true
		return nil, nil
	})

	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if executed {
		t.Error("open breaker must not run the call")
	}
}

// Each remote owns its own breaker; a tripped transaction breaker must
// not affect calls to the account service.
func TestCircuitBreaker_IsolatesCollaborators(t *testing.T) {
	transactions := resilience.NewCircuitBreaker("transactions")
	accounts := resilience.NewCircuitBreaker("accounts")

	for i := 0; i < 5; i++ {
		transactions.Execute(func() (any, error) {
			return nil, errors.New("transaction API returned status 500")
		})
	}
	if state := transactions.State(); state != gobreaker.StateOpen {
		t.Fatalf("expected transactions breaker open, got %v", state)
	}

	result, err := accounts.Execute(func() (any, error) {
		return "balance", nil
	})
	if err != nil {
		t.Fatalf("expected accounts breaker closed, got %v", err)
	}
	if result != "balance" {
		t.Errorf("unexpected result %v", result)
	}
}

func TestBulkhead_CapsInFlightCalls(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("second acquire: %v", err)
	}

	// With both slots held the next caller waits until its deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := bh.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline on third acquire, got %v", err)
	}

	bh.Release()
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}
