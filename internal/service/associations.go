package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bankapp/debit-cards-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AssociateAccounts rewrites the set of accounts a card can draw from.
// Every check must pass before anything is written: the card must
// belong to the customer, the primary account must exist and be owned
// by the customer, and every requested associated account must be
// owned by the customer. The ownership checks are independent reads
// and run concurrently; the first failure fails the whole operation.
// An empty requested list is valid and leaves the card associated with
// the primary account alone.
func (s *CardService) AssociateAccounts(ctx context.Context, req *domain.AccountAssociationRequest) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "CardService.AssociateAccounts")
	defer span.End()
	span.SetAttributes(
		attribute.String("card.id", req.DebitCardID),
		attribute.Int("accounts", len(req.AssociatedAccountIDs)),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("associate_accounts", time.Since(start))
	}()

	return protected(ctx, s.opTimeout, "associate accounts", s.logger, s.metrics, func(ctx context.Context) (*domain.DebitCard, error) {
		card, err := s.store.GetCard(ctx, req.DebitCardID)
		if err != nil {
			return nil, err
		}
		if card.CustomerID != req.CustomerID {
			return nil, &domain.ErrInvalidOperation{Reason: "debit card does not belong to the customer"}
		}
		if !s.accounts.AccountExists(ctx, req.PrimaryAccountID) {
			return nil, &domain.ErrInvalidOperation{Reason: fmt.Sprintf("primary account not found with id: %s", req.PrimaryAccountID)}
		}
		if !s.accounts.VerifyOwnership(ctx, req.PrimaryAccountID, req.CustomerID) {
			return nil, &domain.ErrInvalidOperation{Reason: "primary account does not belong to the customer"}
		}

		g, gCtx := errgroup.WithContext(ctx)
		for _, accountID := range req.AssociatedAccountIDs {
			accountID := accountID
			g.Go(func() error {
				if !s.accounts.VerifyOwnership(gCtx, accountID, req.CustomerID) {
					return &domain.ErrInvalidOperation{Reason: fmt.Sprintf("account with id %s does not belong to the customer", accountID)}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		card.PrimaryAccountID = req.PrimaryAccountID
		card.AssociatedAccountIDs = buildAssociationList(req.PrimaryAccountID, req.AssociatedAccountIDs)
		card.UpdatedAt = time.Now()

		updated, err := s.store.UpdateCard(ctx, card)
		if err != nil {
			return nil, err
		}

		s.logger.Info("accounts associated",
			zap.String("card_id", card.ID),
			zap.String("primary_account_id", updated.PrimaryAccountID),
			zap.Int("associated", len(updated.AssociatedAccountIDs)),
		)
		return updated, nil
	})
}

// buildAssociationList puts the primary account at index 0 and keeps
// the remaining requested accounts in their original relative order,
// dropping duplicates (including any extra occurrence of the primary).
func buildAssociationList(primaryAccountID string, requested []string) []string {
	out := []string{primaryAccountID}
	seen := map[string]struct{}{primaryAccountID: {}}
	for _, id := range requested {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
