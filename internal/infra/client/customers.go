// Package client contains the HTTP adapters for the sibling banking
// services (customer, account, transaction). Advisory boolean checks
// absorb transport failures into a false answer; the money paths
// (balance read/write, transaction creation, account-number lookup)
// propagate failures to the caller.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// CustomerClient asks the customer service about customer standing.
type CustomerClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewCustomerClient creates a new CustomerClient.
func NewCustomerClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *CustomerClient {
	return &CustomerClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// CustomerExists reports whether the customer is registered. Any remote
// failure degrades to false; an unreachable directory reads the same as
// an unknown customer.
func (c *CustomerClient) CustomerExists(ctx context.Context, customerID string) bool {
	ctx, span := tracer.Start(ctx, "CustomerClient.CustomerExists")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	exists, err := c.getBool(ctx, fmt.Sprintf("%s/customers/%s/exists", c.baseURL, customerID))
	if err != nil {
		c.logger.Warn("customer exists check degraded to false",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return false
	}
	return exists
}

// HasOverdueDebts reports whether the customer carries overdue debt.
// Degrades to false on remote failure.
func (c *CustomerClient) HasOverdueDebts(ctx context.Context, customerID string) bool {
	ctx, span := tracer.Start(ctx, "CustomerClient.HasOverdueDebts")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	hasDebts, err := c.getBool(ctx, fmt.Sprintf("%s/customers/%s/has-overdue-debts", c.baseURL, customerID))
	if err != nil {
		c.logger.Warn("overdue debts check degraded to false",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return false
	}
	return hasDebts
}

func (c *CustomerClient) getBool(ctx context.Context, url string) (bool, error) {
	var value bool

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
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
				return fmt.Errorf("customer API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&value)
		})
		if innerErr != nil {
			return false, innerErr
		}
		return value, nil
	})

	if err != nil {
		return false, &domain.ErrExternalService{Service: "customers", Err: err}
	}

	return result.(bool), nil
}
