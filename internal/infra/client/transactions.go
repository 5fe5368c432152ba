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

// TransactionClient talks to the transaction service. Both operations
// propagate failures: a payment without its ledger entry is incomplete,
// and a movement report over partial history would lie.
type TransactionClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewTransactionClient creates a new TransactionClient.
func NewTransactionClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *TransactionClient {
	return &TransactionClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// CreateCardTransaction records a successful card payment.
func (c *TransactionClient) CreateCardTransaction(ctx context.Context, txReq *domain.CardTransactionRequest) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionClient.CreateCardTransaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("debit_card.id", txReq.DebitCardID),
		attribute.String("account.id", txReq.AccountID),
	)

	payload, err := json.Marshal(txReq)
	if err != nil {
		return nil, err
	}

	var tx domain.Transaction

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/transactions/debit-card", c.baseURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("transaction API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&tx)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &tx, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "transactions", Err: err}
	}

	return result.(*domain.Transaction), nil
}

// ListCardTransactions fetches up to limit most recent transactions for
// a card. Recency ordering is the transaction service's contract.
func (c *TransactionClient) ListCardTransactions(ctx context.Context, debitCardID string, limit int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionClient.ListCardTransactions")
	defer span.End()
	span.SetAttributes(
		attribute.String("debit_card.id", debitCardID),
		attribute.Int("limit", limit),
	)

	var transactions []domain.Transaction

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/transactions/debit-card/%s?limit=%d", c.baseURL, debitCardID, limit)
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
				return fmt.Errorf("transaction API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&transactions)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return transactions, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "transactions", Err: err}
	}

	return result.([]domain.Transaction), nil
}
