// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/bankapp/debit-cards-go/internal/domain"
)

// CardStore defines the persistence operations for debit cards.
// Implemented by the Supabase adapter (or any other document store).
type CardStore interface {
	ListCards(ctx context.Context) ([]domain.DebitCard, error)
	GetCard(ctx context.Context, id string) (*domain.DebitCard, error)
	GetCardByNumber(ctx context.Context, cardNumber string) (*domain.DebitCard, error)
	ListCardsByCustomer(ctx context.Context, customerID string) ([]domain.DebitCard, error)
	InsertCard(ctx context.Context, card *domain.DebitCard) (*domain.DebitCard, error)
	UpdateCard(ctx context.Context, card *domain.DebitCard) (*domain.DebitCard, error)
	DeleteCard(ctx context.Context, id string) error
}

// CustomerDirectory answers advisory questions about customers.
// Implementations absorb transport failures and answer false; these
// checks gate business rules, they never abort on their own.
type CustomerDirectory interface {
	CustomerExists(ctx context.Context, customerID string) bool
	HasOverdueDebts(ctx context.Context, customerID string) bool
}

// AccountLedger wraps calls to the account service. The boolean checks
// degrade to false on remote failure; balance reads and writes and
// account-number lookups propagate errors.
type AccountLedger interface {
	AccountExists(ctx context.Context, accountID string) bool
	VerifyOwnership(ctx context.Context, accountID, customerID string) bool
	GetBalance(ctx context.Context, accountID string) (*domain.Balance, error)
	UpdateBalance(ctx context.Context, accountID string, amount float64) (*domain.Balance, error)
	GetAccountNumber(ctx context.Context, accountID string) (string, error)
}

// TransactionLog wraps calls to the transaction service.
type TransactionLog interface {
	CreateCardTransaction(ctx context.Context, req *domain.CardTransactionRequest) (*domain.Transaction, error)
	ListCardTransactions(ctx context.Context, debitCardID string, limit int) ([]domain.Transaction, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
