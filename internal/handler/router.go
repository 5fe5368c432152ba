package handler

import (
	"context"
	"net/http"

	"github.com/bankapp/debit-cards-go/internal/infra/observability"
	"github.com/bankapp/debit-cards-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether the card store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig tunes handler behavior that comes from configuration.
type RouterConfig struct {
	MovementsDefaultLimit int

	// Store backs the readiness probe; nil skips the store check.
	Store Pinger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.CardService, cfg RouterConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	if cfg.MovementsDefaultLimit <= 0 {
		cfg.MovementsDefaultLimit = 10
	}

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(cfg.Store, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Route("/debit-cards", func(r chi.Router) {
			r.Get("/", listCardsHandler(svc, logger))
			r.Post("/", createCardHandler(svc, logger))
			r.Put("/associate-accounts", associateAccountsHandler(svc, logger))
			r.Post("/process-payment", processPaymentHandler(svc, logger))
			r.Get("/customer/{customerId}", getCardsByCustomerHandler(svc, logger))
			r.Get("/number/{cardNumber}", getCardByNumberHandler(svc, logger))
			r.Get("/{id}", getCardHandler(svc, logger))
			r.Put("/{id}", updateCardHandler(svc, logger))
			r.Delete("/{id}", deleteCardHandler(svc, logger))
			r.Get("/{id}/movements", getMovementsHandler(svc, cfg.MovementsDefaultLimit, logger))
			r.Get("/{id}/balance", getPrimaryBalanceHandler(svc, logger))
		})

		r.Get("/metrics/payments", paymentMetricsHandler(metrics, logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "debit-cards",
		})
	}
}

func readyzHandler(store Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				logger.Warn("readiness check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func paymentMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/payments")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetPaymentsSnapshot())
	}
}
