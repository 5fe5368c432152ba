package service

import (
	"context"
	"time"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProcessPayment charges a debit card. The associated accounts are
// tried strictly in stored order (primary first): read the balance,
// and if it covers the amount, debit that account and record the
// transaction. An account with insufficient funds is skipped; if no
// account can cover the amount the payment fails with
// ErrInsufficientFunds.
//
// Routing is sequential: accounts are in priority order and each
// balance read is followed immediately by the write on that same
// account. A balance-read failure aborts the whole chain rather than
// skipping to the next candidate.
func (s *CardService) ProcessPayment(ctx context.Context, req *domain.CardPaymentRequest) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "CardService.ProcessPayment")
	defer span.End()
	span.SetAttributes(
		attribute.String("card.id", req.DebitCardID),
		attribute.Float64("amount", req.Amount),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("payment", time.Since(start))
	}()

	tx, err := protected(ctx, s.opTimeout, "process payment", s.logger, s.metrics, func(ctx context.Context) (*domain.Transaction, error) {
		if req.Amount <= 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "must be greater than 0"}
		}

		card, err := s.store.GetCard(ctx, req.DebitCardID)
		if err != nil {
			return nil, err
		}
		if card.CustomerID != req.CustomerID {
			return nil, &domain.ErrInvalidOperation{Reason: "debit card does not belong to the customer"}
		}
		if !card.Active {
			return nil, &domain.ErrInvalidOperation{Reason: "debit card is not active"}
		}

		accountID, err := s.routePayment(ctx, card.AssociatedAccountIDs, req.Amount)
		if err != nil {
			return nil, err
		}

		s.logger.Info("payment routed",
			zap.String("card_id", card.ID),
			zap.String("account_id", accountID),
			zap.Float64("amount", req.Amount),
		)

		return s.transactions.CreateCardTransaction(ctx, &domain.CardTransactionRequest{
			DebitCardID: card.ID,
			AccountID:   accountID,
			Amount:      req.Amount,
			Description: req.Description,
			CustomerID:  req.CustomerID,
		})
	})

	switch err.(type) {
	case nil:
		s.metrics.IncrPayment(observability.PaymentApproved)
	case *domain.ErrInsufficientFunds:
		s.metrics.IncrPayment(observability.PaymentInsufficient)
	case *domain.ErrServiceUnavailable:
		s.metrics.IncrPayment(observability.PaymentUnavailable)
	}

	return tx, err
}

// routePayment walks the candidate accounts in order and returns the id
// of the first one that covered the amount, after debiting it.
func (s *CardService) routePayment(ctx context.Context, accountIDs []string, amount float64) (string, error) {
	for _, accountID := range accountIDs {
		balance, err := s.accounts.GetBalance(ctx, accountID)
		if err != nil {
			return "", err
		}
		if balance.Balance < amount {
			continue
		}
		if _, err := s.accounts.UpdateBalance(ctx, accountID, -amount); err != nil {
			return "", err
		}
		return accountID, nil
	}
	return "", &domain.ErrInsufficientFunds{Required: amount}
}
