package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/handler"
	"github.com/bankapp/debit-cards-go/internal/infra/cache"
	"github.com/bankapp/debit-cards-go/internal/infra/observability"
	"github.com/bankapp/debit-cards-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type stubStore struct {
	cards map[string]*domain.DebitCard
}

func (s *stubStore) ListCards(_ context.Context) ([]domain.DebitCard, error) {
	out := make([]domain.DebitCard, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubStore) GetCard(_ context.Context, id string) (*domain.DebitCard, error) {
	if c, ok := s.cards[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, &domain.ErrNotFound{Resource: "debit_card", ID: id}
}

func (s *stubStore) GetCardByNumber(_ context.Context, cardNumber string) (*domain.DebitCard, error) {
	for _, c := range s.cards {
		if c.CardNumber == cardNumber {
			copied := *c
			return &copied, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "debit_card", ID: cardNumber}
}

func (s *stubStore) ListCardsByCustomer(_ context.Context, customerID string) ([]domain.DebitCard, error) {
	var out []domain.DebitCard
	for _, c := range s.cards {
		if c.CustomerID == customerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubStore) InsertCard(_ context.Context, card *domain.DebitCard) (*domain.DebitCard, error) {
	copied := *card
	s.cards[card.ID] = &copied
	result := copied
	return &result, nil
}

func (s *stubStore) UpdateCard(_ context.Context, card *domain.DebitCard) (*domain.DebitCard, error) {
	copied := *card
	s.cards[card.ID] = &copied
	result := copied
	return &result, nil
}

func (s *stubStore) DeleteCard(_ context.Context, id string) error {
	delete(s.cards, id)
	return nil
}

type stubCustomers struct{}

func (stubCustomers) CustomerExists(_ context.Context, _ string) bool  { return true }
func (stubCustomers) HasOverdueDebts(_ context.Context, _ string) bool { return false }

type stubAccounts struct {
	balance    float64
	balanceErr error
}

func (stubAccounts) AccountExists(_ context.Context, _ string) bool       { return true }
func (stubAccounts) VerifyOwnership(_ context.Context, _, _ string) bool  { return true }
func (s stubAccounts) GetBalance(_ context.Context, accountID string) (*domain.Balance, error) {
	if s.balanceErr != nil {
		return nil, s.balanceErr
	}
	return &domain.Balance{AccountID: accountID, Balance: s.balance, Currency: "USD"}, nil
}
func (s stubAccounts) UpdateBalance(_ context.Context, accountID string, amount float64) (*domain.Balance, error) {
	return &domain.Balance{AccountID: accountID, Balance: s.balance + amount, Currency: "USD"}, nil
}
func (stubAccounts) GetAccountNumber(_ context.Context, _ string) (string, error) {
	return "1111-2222", nil
}

type stubTransactions struct{}

func (stubTransactions) CreateCardTransaction(_ context.Context, req *domain.CardTransactionRequest) (*domain.Transaction, error) {
	return &domain.Transaction{
		ID:          "tx-1",
		AccountID:   req.AccountID,
		DebitCardID: req.DebitCardID,
		Amount:      req.Amount,
		Type:        "DEBIT_CARD_PAYMENT",
	}, nil
}

func (stubTransactions) ListCardTransactions(_ context.Context, _ string, _ int) ([]domain.Transaction, error) {
	return []domain.Transaction{
		{ID: "tx-1", AccountID: "acc-1", Amount: 25, Type: "DEBIT_CARD_PAYMENT", TransactionDate: time.Now()},
	}, nil
}

func newTestRouter(accounts stubAccounts, cards ...*domain.DebitCard) http.Handler {
	store := &stubStore{cards: make(map[string]*domain.DebitCard)}
	for _, c := range cards {
		copied := *c
		store.cards[c.ID] = &copied
	}
	metrics := observability.NewMetrics()
	svc := service.NewCardService(
		store,
		stubCustomers{},
		accounts,
		stubTransactions{},
		cache.New[string](time.Minute),
		metrics,
		zap.NewNop(),
		5*time.Second,
	)
	return handler.NewRouter(svc, handler.RouterConfig{MovementsDefaultLimit: 10}, metrics, zap.NewNop())
}

func testCard() *domain.DebitCard {
	return &domain.DebitCard{
		ID:                   "card-1",
		CardNumber:           "4123-4567-8901-2345",
		CustomerID:           "cust-1",
		PrimaryAccountID:     "acc-1",
		AssociatedAccountIDs: []string{"acc-1"},
		ExpirationDate:       "2030-09-01",
		CVV:                  "123",
		Active:               true,
	}
}

// --- Tests ---

func TestHealthz(t *testing.T) {
	router := newTestRouter(stubAccounts{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(stubAccounts{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(stubAccounts{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCreateCard(t *testing.T) {
	router := newTestRouter(stubAccounts{})

	body, _ := json.Marshal(domain.CreateCardRequest{
		CustomerID:       "cust-1",
		PrimaryAccountID: "acc-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/debit-cards", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var card domain.DebitCard
	if err := json.NewDecoder(rec.Body).Decode(&card); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if card.CustomerID != "cust-1" || !card.Active {
		t.Errorf("unexpected card in response: %+v", card)
	}
}

func TestCreateCard_InvalidBody(t *testing.T) {
	router := newTestRouter(stubAccounts{})

	req := httptest.NewRequest(http.MethodPost, "/v1/debit-cards", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetCard_NotFound(t *testing.T) {
	router := newTestRouter(stubAccounts{})

	req := httptest.NewRequest(http.MethodGet, "/v1/debit-cards/card-missing", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateCard_OwnerChangeRejected(t *testing.T) {
	router := newTestRouter(stubAccounts{}, testCard())

	body, _ := json.Marshal(map[string]any{"customer_id": "cust-other", "active": false})
	req := httptest.NewRequest(http.MethodPut, "/v1/debit-cards/card-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteCard(t *testing.T) {
	router := newTestRouter(stubAccounts{}, testCard())

	req := httptest.NewRequest(http.MethodDelete, "/v1/debit-cards/card-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestProcessPayment_Approved(t *testing.T) {
	router := newTestRouter(stubAccounts{balance: 500}, testCard())

	body, _ := json.Marshal(domain.CardPaymentRequest{
		DebitCardID: "card-1",
		Amount:      100,
		CustomerID:  "cust-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/debit-cards/process-payment", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var tx domain.Transaction
	if err := json.NewDecoder(rec.Body).Decode(&tx); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if tx.AccountID != "acc-1" {
		t.Errorf("expected payment on acc-1, got %s", tx.AccountID)
	}
}

func TestProcessPayment_InsufficientFunds(t *testing.T) {
	router := newTestRouter(stubAccounts{balance: 10}, testCard())

	body, _ := json.Marshal(domain.CardPaymentRequest{
		DebitCardID: "card-1",
		Amount:      100,
		CustomerID:  "cust-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/debit-cards/process-payment", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProcessPayment_LedgerDown(t *testing.T) {
	accounts := stubAccounts{
		balanceErr: &domain.ErrExternalService{Service: "accounts", Err: errors.New("connection refused")},
	}
	router := newTestRouter(accounts, testCard())

	body, _ := json.Marshal(domain.CardPaymentRequest{
		DebitCardID: "card-1",
		Amount:      100,
		CustomerID:  "cust-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/debit-cards/process-payment", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "service is currently unavailable, please try again later" {
		t.Errorf("unexpected error message: %q", resp.Error)
	}
}

func TestProcessPayment_MissingFields(t *testing.T) {
	router := newTestRouter(stubAccounts{}, testCard())

	body, _ := json.Marshal(domain.CardPaymentRequest{Amount: 100})
	req := httptest.NewRequest(http.MethodPost, "/v1/debit-cards/process-payment", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAssociateAccounts(t *testing.T) {
	router := newTestRouter(stubAccounts{}, testCard())

	body, _ := json.Marshal(domain.AccountAssociationRequest{
		DebitCardID:          "card-1",
		PrimaryAccountID:     "acc-2",
		AssociatedAccountIDs: []string{"acc-3", "acc-2"},
		CustomerID:           "cust-1",
	})
	req := httptest.NewRequest(http.MethodPut, "/v1/debit-cards/associate-accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var card domain.DebitCard
	if err := json.NewDecoder(rec.Body).Decode(&card); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(card.AssociatedAccountIDs) != 2 || card.AssociatedAccountIDs[0] != "acc-2" {
		t.Errorf("expected primary first with dedup, got %v", card.AssociatedAccountIDs)
	}
}

func TestGetMovements(t *testing.T) {
	router := newTestRouter(stubAccounts{}, testCard())

	req := httptest.NewRequest(http.MethodGet, "/v1/debit-cards/card-1/movements?limit=5", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report domain.MovementReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.CardType != "DEBIT_CARD" {
		t.Errorf("expected DEBIT_CARD, got %s", report.CardType)
	}
	if len(report.Movements) != 1 || report.Movements[0].AccountNumber != "1111-2222" {
		t.Errorf("unexpected movements: %+v", report.Movements)
	}
}

func TestGetCardBalance(t *testing.T) {
	router := newTestRouter(stubAccounts{balance: 321.50}, testCard())

	req := httptest.NewRequest(http.MethodGet, "/v1/debit-cards/card-1/balance", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var balance domain.Balance
	if err := json.NewDecoder(rec.Body).Decode(&balance); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if balance.Balance != 321.50 {
		t.Errorf("expected 321.50, got %f", balance.Balance)
	}
}

func TestGetCardsByCustomer(t *testing.T) {
	router := newTestRouter(stubAccounts{}, testCard())

	req := httptest.NewRequest(http.MethodGet, "/v1/debit-cards/customer/cust-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var cards []domain.DebitCard
	if err := json.NewDecoder(rec.Body).Decode(&cards); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(cards) != 1 {
		t.Errorf("expected 1 card, got %d", len(cards))
	}
}

func TestPaymentMetricsSnapshot(t *testing.T) {
	router := newTestRouter(stubAccounts{balance: 500}, testCard())

	body, _ := json.Marshal(domain.CardPaymentRequest{
		DebitCardID: "card-1",
		Amount:      100,
		CustomerID:  "cust-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/debit-cards/process-payment", bytes.NewReader(body))
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/v1/metrics/payments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snapshot domain.PaymentMetrics
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snapshot.Approved != 1 || snapshot.TotalPayments != 1 {
		t.Errorf("expected 1 approved payment, got %+v", snapshot)
	}
}
