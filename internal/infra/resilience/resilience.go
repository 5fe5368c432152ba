// Package resilience guards the outbound HTTP surface. Every
// collaborator client (customers, accounts, transactions) and the
// store adapter owns a circuit breaker and retries transient failures
// with exponential backoff; the account client additionally caps
// in-flight requests with a bulkhead because it absorbs the concurrent
// fan-out from association checks and movement lookups.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config carries the retry and bulkhead parameters shared by the
// collaborator clients and the store adapter.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// RetryWithBackoff runs fn up to MaxRetries+1 times, doubling the
// backoff on each failed attempt and adding jitter drawn from
// [0, backoff/2]. A zero InitialBackoff retries without waiting.
// Context cancellation stops both the attempts and the waits.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	backoff := cfg.InitialBackoff
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxRetries {
			wait := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			backoff *= 2
		}
	}
	return lastErr
}

// NewCircuitBreaker builds the breaker one collaborator gets. Each
// remote (customers, accounts, transactions, store) owns its own
// instance so a failing transaction service cannot open the path to
// the account service. Trips after 5+ requests with a 60% failure
// ratio.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})
}

// Bulkhead caps concurrent access to a remote. The account client
// holds one sized by Config.MaxConcurrency; ownership checks and
// account-number lookups from a single request can fan out into many
// simultaneous calls.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}
