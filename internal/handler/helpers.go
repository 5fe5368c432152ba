package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bankapp/debit-cards-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseLimit reads the ?limit= query parameter, falling back to def and
// capping at 100.
func parseLimit(r *http.Request, def int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	return limit
}

// handleServiceError maps domain errors to HTTP responses. Unavailable
// dependencies and unclassified failures surface a generic message only,
// never internal detail.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var invalidOp *domain.ErrInvalidOperation
	var validation *domain.ErrValidation
	var insufficientFunds *domain.ErrInsufficientFunds
	var unavailable *domain.ErrServiceUnavailable
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalidOp):
		logger.Debug("invalid operation", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficientFunds):
		logger.Warn("insufficient funds", zap.Float64("required", insufficientFunds.Required))
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &unavailable), errors.As(err, &circuitOpen):
		logger.Error("service unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service is currently unavailable, please try again later")
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "service is currently unavailable, please try again later")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
