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

// GetLastMovements joins the card's recent transactions with the
// display number of the account each one hit. The lookups are
// independent and run concurrently; the final list keeps the order the
// transaction service returned. A single failed lookup fails the whole
// report.
func (s *CardService) GetLastMovements(ctx context.Context, cardID string, limit int) (*domain.MovementReport, error) {
	ctx, span := tracer.Start(ctx, "CardService.GetLastMovements")
	defer span.End()
	span.SetAttributes(
		attribute.String("card.id", cardID),
		attribute.Int("limit", limit),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("movements", time.Since(start))
	}()

	return protected(ctx, s.opTimeout, "get last movements", s.logger, s.metrics, func(ctx context.Context) (*domain.MovementReport, error) {
		card, err := s.store.GetCard(ctx, cardID)
		if err != nil {
			return nil, err
		}

		transactions, err := s.transactions.ListCardTransactions(ctx, cardID, limit)
		if err != nil {
			return nil, err
		}

		movements := make([]domain.Movement, len(transactions))

		g, gCtx := errgroup.WithContext(ctx)
		for i, tx := range transactions {
			i, tx := i, tx
			g.Go(func() error {
				accountNumber, err := s.lookupAccountNumber(gCtx, tx.AccountID)
				if err != nil {
					return err
				}
				movements[i] = domain.Movement{
					TransactionID:   tx.ID,
					TransactionType: tx.Type,
					TransactionDate: tx.TransactionDate,
					Description:     tx.Description,
					Amount:          tx.Amount,
					AccountNumber:   accountNumber,
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		s.logger.Debug("movement report built",
			zap.String("card_id", cardID),
			zap.Int("movements", len(movements)),
		)

		return &domain.MovementReport{
			CardID:     card.ID,
			CardNumber: card.CardNumber,
			CardType:   "DEBIT_CARD",
			Movements:  movements,
		}, nil
	})
}

// lookupAccountNumber resolves an account's display number through the
// TTL cache; numbers are stable so a hit skips the account service.
func (s *CardService) lookupAccountNumber(ctx context.Context, accountID string) (string, error) {
	key := fmt.Sprintf("account_number:%s", accountID)
	if number, ok := s.accountNumbers.Get(key); ok {
		s.metrics.IncrCacheHit("account_numbers")
		return number, nil
	}
	s.metrics.IncrCacheMiss("account_numbers")

	number, err := s.accounts.GetAccountNumber(ctx, accountID)
	if err != nil {
		s.metrics.IncrExternalError("accounts")
		return "", err
	}
	s.accountNumbers.Set(key, number)
	return number, nil
}
