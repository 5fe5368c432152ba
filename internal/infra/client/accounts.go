package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AccountClient talks to the account service. It takes the concurrent
// fan-out traffic (ownership checks, number lookups), so every call
// goes through a bulkhead in addition to the shared breaker + retry.
type AccountClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewAccountClient creates a new AccountClient.
func NewAccountClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, bulkhead *resilience.Bulkhead, logger *zap.Logger) *AccountClient {
	return &AccountClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   bulkhead,
		logger:     logger,
	}
}

// AccountExists reports whether the account is registered. Degrades to
// false on remote failure.
func (c *AccountClient) AccountExists(ctx context.Context, accountID string) bool {
	ctx, span := tracer.Start(ctx, "AccountClient.AccountExists")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	var exists bool
	err := c.getJSON(ctx, fmt.Sprintf("%s/accounts/%s/exists", c.baseURL, accountID), &exists)
	if err != nil {
		c.logger.Warn("account exists check degraded to false",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return false
	}
	return exists
}

// VerifyOwnership reports whether the account belongs to the customer.
// Degrades to false on remote failure.
func (c *AccountClient) VerifyOwnership(ctx context.Context, accountID, customerID string) bool {
	ctx, span := tracer.Start(ctx, "AccountClient.VerifyOwnership")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.id", accountID),
		attribute.String("customer.id", customerID),
	)

	var owned bool
	err := c.getJSON(ctx, fmt.Sprintf("%s/accounts/%s/owner/%s", c.baseURL, accountID, customerID), &owned)
	if err != nil {
		c.logger.Warn("account ownership check degraded to false",
			zap.String("account_id", accountID),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return false
	}
	return owned
}

// GetBalance reads the current balance of an account. Failures
// propagate: a payment must never guess at funds.
func (c *AccountClient) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	ctx, span := tracer.Start(ctx, "AccountClient.GetBalance")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	var balance domain.Balance
	if err := c.getJSON(ctx, fmt.Sprintf("%s/accounts/%s/balance", c.baseURL, accountID), &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// UpdateBalance applies a signed amount to the account balance
// (negative amounts are withdrawals). Failures propagate. The write is
// attempted exactly once: the account service exposes no idempotency
// key, so a retry after a lost response could debit the account twice.
// The breaker still records the failure.
func (c *AccountClient) UpdateBalance(ctx context.Context, accountID string, amount float64) (*domain.Balance, error) {
	ctx, span := tracer.Start(ctx, "AccountClient.UpdateBalance")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.id", accountID),
		attribute.Float64("amount", amount),
	)

	payload, err := json.Marshal(map[string]float64{"amount": amount})
	if err != nil {
		return nil, err
	}

	var balance domain.Balance

	result, err := c.cb.Execute(func() (any, error) {
		if err := c.bulkhead.Acquire(ctx); err != nil {
			return nil, err
		}
		defer c.bulkhead.Release()

		url := fmt.Sprintf("%s/accounts/%s/balance", c.baseURL, accountID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("account API returned status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
			return nil, err
		}
		return &balance, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "accounts", Err: err}
	}

	return result.(*domain.Balance), nil
}

// GetAccountNumber resolves the display number of an account. Failures
// propagate; the movement report fails as a whole when one lookup fails.
func (c *AccountClient) GetAccountNumber(ctx context.Context, accountID string) (string, error) {
	ctx, span := tracer.Start(ctx, "AccountClient.GetAccountNumber")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	var number string
	if err := c.getJSON(ctx, fmt.Sprintf("%s/accounts/%s/number", c.baseURL, accountID), &number); err != nil {
		return "", err
	}
	return number, nil
}

// getJSON executes a GET through bulkhead, breaker and retry, decoding
// the body into out.
func (c *AccountClient) getJSON(ctx context.Context, url string, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			if err := c.bulkhead.Acquire(ctx); err != nil {
				return err
			}
			defer c.bulkhead.Release()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("account API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(out)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "accounts", Err: err}
	}
	return nil
}
