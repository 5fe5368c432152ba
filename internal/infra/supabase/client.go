// Package supabase provides the document-store adapter for debit
// cards, backed by Supabase PostgREST. The debit_cards table carries a
// unique index on card_number.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// doGet executes an authenticated GET against PostgREST, with breaker
// and retry. Returns nil body on 404/204.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	result, err := c.cb.Execute(func() (any, error) {
		var body []byte
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			c.setHeaders(req, "return=representation")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Error("supabase: request failed",
					zap.String("path", path),
					zap.Error(err),
				)
				return err
			}
			defer resp.Body.Close()

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
				body = nil
				return nil
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				c.logger.Warn("supabase: non-2xx response",
					zap.String("path", path),
					zap.Int("status", resp.StatusCode),
					zap.String("body", string(b)),
				)
				return fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(b))
			}

			body = b
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return body, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "store", Err: err}
	}
	if result == nil {
		return nil, nil
	}
	return result.([]byte), nil
}

func (c *Client) setHeaders(req *http.Request, prefer string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", prefer)
}
