package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bankapp/debit-cards-go/internal/domain"
)

// ============================================================
// Debit Cards — CRUD via PostgREST
// ============================================================

func (c *Client) ListCards(ctx context.Context) ([]domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCards")
	defer span.End()

	body, err := c.doGet(ctx, "debit_cards?order=created_at.desc")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return []domain.DebitCard{}, nil
	}

	var rows []domain.DebitCard
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode debit_cards: %w", err)
	}
	return rows, nil
}

func (c *Client) GetCard(ctx context.Context, id string) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCard")
	defer span.End()

	path := fmt.Sprintf("debit_cards?id=eq.%s&limit=1", id)
	return c.getOne(ctx, path, id)
}

func (c *Client) GetCardByNumber(ctx context.Context, cardNumber string) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCardByNumber")
	defer span.End()

	path := fmt.Sprintf("debit_cards?card_number=eq.%s&limit=1", cardNumber)
	return c.getOne(ctx, path, cardNumber)
}

func (c *Client) ListCardsByCustomer(ctx context.Context, customerID string) ([]domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCardsByCustomer")
	defer span.End()

	path := fmt.Sprintf("debit_cards?customer_id=eq.%s&order=created_at.desc", customerID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return []domain.DebitCard{}, nil
	}

	var rows []domain.DebitCard
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode debit_cards: %w", err)
	}
	return rows, nil
}

func (c *Client) InsertCard(ctx context.Context, card *domain.DebitCard) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertCard")
	defer span.End()

	row := map[string]any{
		"id":                     card.ID,
		"card_number":            card.CardNumber,
		"customer_id":            card.CustomerID,
		"primary_account_id":     card.PrimaryAccountID,
		"associated_account_ids": card.AssociatedAccountIDs,
		"expiration_date":        card.ExpirationDate,
		"cvv":                    card.CVV,
		"active":                 card.Active,
		"created_at":             card.CreatedAt.Format(time.RFC3339),
		"updated_at":             card.UpdatedAt.Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "debit_cards", row)
	if err != nil {
		return nil, err
	}

	var results []domain.DebitCard
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode debit_card: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result from debit_cards insert")
	}
	return &results[0], nil
}

func (c *Client) UpdateCard(ctx context.Context, card *domain.DebitCard) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCard")
	defer span.End()

	patch := map[string]any{
		"primary_account_id":     card.PrimaryAccountID,
		"associated_account_ids": card.AssociatedAccountIDs,
		"active":                 card.Active,
		"updated_at":             card.UpdatedAt.Format(time.RFC3339),
	}

	if err := c.doPatch(ctx, fmt.Sprintf("debit_cards?id=eq.%s", card.ID), patch); err != nil {
		return nil, err
	}
	return c.GetCard(ctx, card.ID)
}

func (c *Client) DeleteCard(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCard")
	defer span.End()

	return c.doDelete(ctx, fmt.Sprintf("debit_cards?id=eq.%s", id))
}

func (c *Client) getOne(ctx context.Context, path, id string) (*domain.DebitCard, error) {
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "debit_card", ID: id}
	}

	var rows []domain.DebitCard
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode debit_card: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "debit_card", ID: id}
	}
	return &rows[0], nil
}

// Ping checks connectivity to the store; backs the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/rest/v1/debit_cards?limit=1", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req, "count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("supabase ping returned status %d", resp.StatusCode)
	}
	return nil
}
