package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/infra/observability"
	"github.com/bankapp/debit-cards-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/cards")

// CardService owns the debit card lifecycle and the card business
// operations: payment routing, account association, movement reporting.
type CardService struct {
	store          port.CardStore
	customers      port.CustomerDirectory
	accounts       port.AccountLedger
	transactions   port.TransactionLog
	accountNumbers port.Cache[string]
	metrics        *observability.Metrics
	logger         *zap.Logger
	opTimeout      time.Duration
}

// NewCardService creates the card service with all dependencies injected.
func NewCardService(
	store port.CardStore,
	customers port.CustomerDirectory,
	accounts port.AccountLedger,
	transactions port.TransactionLog,
	accountNumbers port.Cache[string],
	metrics *observability.Metrics,
	logger *zap.Logger,
	opTimeout time.Duration,
) *CardService {
	return &CardService{
		store:          store,
		customers:      customers,
		accounts:       accounts,
		transactions:   transactions,
		accountNumbers: accountNumbers,
		metrics:        metrics,
		logger:         logger,
		opTimeout:      opTimeout,
	}
}

// FindAll lists every debit card.
func (s *CardService) FindAll(ctx context.Context) ([]domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "CardService.FindAll")
	defer span.End()

	return s.store.ListCards(ctx)
}

// FindByID returns one card or ErrNotFound.
func (s *CardService) FindByID(ctx context.Context, id string) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "CardService.FindByID")
	defer span.End()

	return s.store.GetCard(ctx, id)
}

// FindByCustomerID lists the cards a customer holds.
func (s *CardService) FindByCustomerID(ctx context.Context, customerID string) ([]domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "CardService.FindByCustomerID")
	defer span.End()

	return s.store.ListCardsByCustomer(ctx, customerID)
}

// FindByCardNumber returns the card carrying a number or ErrNotFound.
func (s *CardService) FindByCardNumber(ctx context.Context, cardNumber string) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "CardService.FindByCardNumber")
	defer span.End()

	return s.store.GetCardByNumber(ctx, cardNumber)
}

// Create validates the customer and primary account, then issues a new
// card with a generated number, CVV and a 4-year expiration.
func (s *CardService) Create(ctx context.Context, req *domain.CreateCardRequest) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "CardService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", req.CustomerID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("create", time.Since(start))
	}()

	return protected(ctx, s.opTimeout, "create debit card", s.logger, s.metrics, func(ctx context.Context) (*domain.DebitCard, error) {
		if req.CustomerID == "" {
			return nil, &domain.ErrValidation{Field: "customer_id", Message: "required"}
		}
		if req.PrimaryAccountID == "" {
			return nil, &domain.ErrValidation{Field: "primary_account_id", Message: "required"}
		}

		if !s.customers.CustomerExists(ctx, req.CustomerID) {
			return nil, &domain.ErrInvalidOperation{Reason: fmt.Sprintf("customer not found with id: %s", req.CustomerID)}
		}
		if s.customers.HasOverdueDebts(ctx, req.CustomerID) {
			return nil, &domain.ErrInvalidOperation{Reason: "customer has overdue debts and cannot acquire new products"}
		}
		if !s.accounts.AccountExists(ctx, req.PrimaryAccountID) {
			return nil, &domain.ErrInvalidOperation{Reason: fmt.Sprintf("primary account not found with id: %s", req.PrimaryAccountID)}
		}
		if !s.accounts.VerifyOwnership(ctx, req.PrimaryAccountID, req.CustomerID) {
			return nil, &domain.ErrInvalidOperation{Reason: "primary account does not belong to the customer"}
		}

		now := time.Now()
		card := &domain.DebitCard{
			ID:                   uuid.New().String(),
			CardNumber:           newCardNumber(),
			CustomerID:           req.CustomerID,
			PrimaryAccountID:     req.PrimaryAccountID,
			AssociatedAccountIDs: append([]string(nil), req.AssociatedAccountIDs...),
			ExpirationDate:       now.AddDate(4, 0, 0).Format("2006-01-02"),
			CVV:                  newCVV(),
			Active:               true,
			CreatedAt:            now,
			UpdatedAt:            now,
		}

		// The primary account always draws first; make sure it is in the list.
		if !contains(card.AssociatedAccountIDs, card.PrimaryAccountID) {
			card.AssociatedAccountIDs = append(card.AssociatedAccountIDs, card.PrimaryAccountID)
		}

		saved, err := s.store.InsertCard(ctx, card)
		if err != nil {
			s.logger.Error("failed to insert debit card",
				zap.String("customer_id", req.CustomerID),
				zap.Error(err),
			)
			return nil, err
		}

		s.logger.Info("debit card created",
			zap.String("card_id", saved.ID),
			zap.String("customer_id", saved.CustomerID),
			zap.String("primary_account_id", saved.PrimaryAccountID),
		)
		return saved, nil
	})
}

// Update mutates the active flag. The owning customer is immutable; a
// request naming a different customer_id is rejected.
func (s *CardService) Update(ctx context.Context, id string, req *domain.UpdateCardRequest) (*domain.DebitCard, error) {
	ctx, span := tracer.Start(ctx, "CardService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", id))

	return protected(ctx, s.opTimeout, "update debit card", s.logger, s.metrics, func(ctx context.Context) (*domain.DebitCard, error) {
		card, err := s.store.GetCard(ctx, id)
		if err != nil {
			return nil, err
		}

		if req.CustomerID != "" && req.CustomerID != card.CustomerID {
			return nil, &domain.ErrInvalidOperation{Reason: "cannot change debit card owner"}
		}

		if req.Active != nil {
			card.Active = *req.Active
		}
		card.UpdatedAt = time.Now()

		updated, err := s.store.UpdateCard(ctx, card)
		if err != nil {
			return nil, err
		}

		s.logger.Info("debit card updated",
			zap.String("card_id", id),
			zap.Bool("active", updated.Active),
		)
		return updated, nil
	})
}

// Delete removes a card; the card must exist.
func (s *CardService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "CardService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", id))

	if _, err := s.store.GetCard(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteCard(ctx, id); err != nil {
		return err
	}

	s.logger.Info("debit card deleted", zap.String("card_id", id))
	return nil
}

// GetPrimaryAccountBalance reads the balance of the card's primary account.
func (s *CardService) GetPrimaryAccountBalance(ctx context.Context, id string) (*domain.Balance, error) {
	ctx, span := tracer.Start(ctx, "CardService.GetPrimaryAccountBalance")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", id))

	return protected(ctx, s.opTimeout, "get primary account balance", s.logger, s.metrics, func(ctx context.Context) (*domain.Balance, error) {
		card, err := s.store.GetCard(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.accounts.GetBalance(ctx, card.PrimaryAccountID)
	})
}

// newCardNumber generates a card number: leading '4' plus 3 random
// digits, then 3 groups of 4 random digits, dash separated.
func newCardNumber() string {
	return fmt.Sprintf("4%03d-%04d-%04d-%04d",
		rand.Intn(1000),
		rand.Intn(10000),
		rand.Intn(10000),
		rand.Intn(10000),
	)
}

// newCVV generates a random 3-digit CVV.
func newCVV() string {
	return fmt.Sprintf("%03d", rand.Intn(1000))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
