package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for POST, PATCH, DELETE
// ============================================================

// Write helpers go through the same breaker and retry as doGet so a
// failing store trips the breaker regardless of verb, and every
// failure surfaces as ErrExternalService for the fallback guard.

func (c *Client) doPost(ctx context.Context, table string, data map[string]any) ([]byte, error) {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	result, err := c.cb.Execute(func() (any, error) {
		var body []byte
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
			if err != nil {
				return err
			}
			c.setHeaders(req, "return=representation")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Error("supabase: POST request failed",
					zap.String("table", table),
					zap.Error(err),
				)
				return err
			}
			defer resp.Body.Close()

			b, err := readBody(resp)
			if err != nil {
				return err
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				c.logger.Warn("supabase: POST non-2xx",
					zap.String("table", table),
					zap.Int("status", resp.StatusCode),
					zap.String("body", string(b)),
				)
				return fmt.Errorf("supabase POST %s returned %d: %s", table, resp.StatusCode, string(b))
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

	c.logger.Debug("supabase: POST OK", zap.String("table", table))
	return result.([]byte), nil
}

func (c *Client) doPatch(ctx context.Context, path string, data map[string]any) error {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
			req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(jsonBody))
			if err != nil {
				return err
			}
			c.setHeaders(req, "return=minimal")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Error("supabase: PATCH request failed",
					zap.String("path", path),
					zap.Error(err),
				)
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				body, _ := readBody(resp)
				c.logger.Warn("supabase: PATCH non-2xx",
					zap.String("path", path),
					zap.Int("status", resp.StatusCode),
					zap.String("body", string(body)),
				)
				return fmt.Errorf("supabase PATCH returned %d: %s", resp.StatusCode, string(body))
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "store", Err: err}
	}

	c.logger.Debug("supabase: PATCH OK", zap.String("path", path))
	return nil
}

func (c *Client) doDelete(ctx context.Context, path string) error {
	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
			req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
			if err != nil {
				return err
			}
			c.setHeaders(req, "return=minimal")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Error("supabase: DELETE request failed",
					zap.String("path", path),
					zap.Error(err),
				)
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				body, _ := readBody(resp)
				c.logger.Warn("supabase: DELETE non-2xx",
					zap.String("path", path),
					zap.Int("status", resp.StatusCode),
					zap.String("body", string(body)),
				)
				return fmt.Errorf("supabase DELETE returned %d: %s", resp.StatusCode, string(body))
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "store", Err: err}
	}

	c.logger.Debug("supabase: DELETE OK", zap.String("path", path))
	return nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
