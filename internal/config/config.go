package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Collaborator services
	CustomerAPIURL    string
	AccountAPIURL     string
	TransactionAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Protected operations run under this deadline before falling back
	// to a service-unavailable response.
	OperationTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Account-number cache
	AccountCacheTTL time.Duration

	// Movements report
	MovementsDefaultLimit int

	// Observability
	OTLPEndpoint string

	// Supabase (document store backend)
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CustomerAPIURL:    getEnv("CUSTOMER_API_URL", "http://ms-customer-service:8080"),
		AccountAPIURL:     getEnv("ACCOUNT_API_URL", "http://ms-account-service:8080"),
		TransactionAPIURL: getEnv("TRANSACTION_API_URL", "http://ms-transaction-service:8080"),

		HTTPTimeout:      getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		OperationTimeout: getEnvDuration("OPERATION_TIMEOUT", 5*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		AccountCacheTTL: getEnvDuration("ACCOUNT_CACHE_TTL", 10*time.Minute),

		MovementsDefaultLimit: getEnvInt("MOVEMENTS_DEFAULT_LIMIT", 10),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
