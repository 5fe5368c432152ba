package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bankapp/debit-cards-go/internal/config"
	"github.com/bankapp/debit-cards-go/internal/handler"
	"github.com/bankapp/debit-cards-go/internal/infra/cache"
	"github.com/bankapp/debit-cards-go/internal/infra/client"
	"github.com/bankapp/debit-cards-go/internal/infra/observability"
	"github.com/bankapp/debit-cards-go/internal/infra/resilience"
	"github.com/bankapp/debit-cards-go/internal/infra/supabase"
	"github.com/bankapp/debit-cards-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("operation_timeout", cfg.OperationTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Duration("account_cache_ttl", cfg.AccountCacheTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "debit-cards")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	accountNumbers := cache.New[string](cfg.AccountCacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	customers := client.NewCustomerClient(
		httpClient,
		cfg.CustomerAPIURL,
		resilience.NewCircuitBreaker("customers"),
		resilienceCfg,
		logger,
	)
	accounts := client.NewAccountClient(
		httpClient,
		cfg.AccountAPIURL,
		resilience.NewCircuitBreaker("accounts"),
		resilienceCfg,
		bulkhead,
		logger,
	)
	transactions := client.NewTransactionClient(
		httpClient,
		cfg.TransactionAPIURL,
		resilience.NewCircuitBreaker("transactions"),
		resilienceCfg,
		logger,
	)

	// --- Card store (Supabase) ---
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		resilience.NewCircuitBreaker("store"),
		resilienceCfg,
		logger,
	)

	// --- Service ---
	cardSvc := service.NewCardService(
		store,
		customers,
		accounts,
		transactions,
		accountNumbers,
		metrics,
		logger,
		cfg.OperationTimeout,
	)

	// --- Router ---
	router := handler.NewRouter(cardSvc, handler.RouterConfig{
		MovementsDefaultLimit: cfg.MovementsDefaultLimit,
		Store:                 store,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
