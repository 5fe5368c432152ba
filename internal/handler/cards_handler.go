package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/bankapp/debit-cards-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Debit Cards
// ============================================================

func listCardsHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debit-cards")
		defer span.End()

		cards, err := svc.FindAll(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func getCardHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debit-cards/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("card.id", id))

		card, err := svc.FindByID(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func getCardsByCustomerHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debit-cards/customer/{customerId}")
		defer span.End()

		customerID := chi.URLParam(r, "customerId")
		span.SetAttributes(attribute.String("customer.id", customerID))

		cards, err := svc.FindByCustomerID(ctx, customerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func getCardByNumberHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debit-cards/number/{cardNumber}")
		defer span.End()

		cardNumber := chi.URLParam(r, "cardNumber")

		card, err := svc.FindByCardNumber(ctx, cardNumber)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func createCardHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/debit-cards")
		defer span.End()

		var req domain.CreateCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		card, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, card)
	}
}

func updateCardHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/debit-cards/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("card.id", id))

		var req domain.UpdateCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		card, err := svc.Update(ctx, id, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func deleteCardHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/debit-cards/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("card.id", id))

		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Card operations
// ============================================================

func associateAccountsHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/debit-cards/associate-accounts")
		defer span.End()

		var req domain.AccountAssociationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.DebitCardID == "" || req.PrimaryAccountID == "" || req.CustomerID == "" {
			writeError(w, http.StatusBadRequest, "debit_card_id, primary_account_id and customer_id are required")
			return
		}

		card, err := svc.AssociateAccounts(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func processPaymentHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/debit-cards/process-payment")
		defer span.End()

		var req domain.CardPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.DebitCardID == "" || req.CustomerID == "" {
			writeError(w, http.StatusBadRequest, "debit_card_id and customer_id are required")
			return
		}
		span.SetAttributes(attribute.String("card.id", req.DebitCardID))

		tx, err := svc.ProcessPayment(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func getMovementsHandler(svc *service.CardService, defaultLimit int, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debit-cards/{id}/movements")
		defer span.End()

		id := chi.URLParam(r, "id")
		limit := parseLimit(r, defaultLimit)
		span.SetAttributes(
			attribute.String("card.id", id),
			attribute.Int("limit", limit),
		)

		report, err := svc.GetLastMovements(ctx, id, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func getPrimaryBalanceHandler(svc *service.CardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debit-cards/{id}/balance")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("card.id", id))

		balance, err := svc.GetPrimaryAccountBalance(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, balance)
	}
}
