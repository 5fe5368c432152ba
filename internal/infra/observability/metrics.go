package observability

import (
	"time"

	"github.com/bankapp/debit-cards-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Payment outcome labels.
const (
	PaymentApproved     = "approved"
	PaymentInsufficient = "insufficient_funds"
	PaymentUnavailable  = "unavailable"
)

// Metrics holds all Prometheus metrics for the debit card service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	paymentsTotal   *prometheus.CounterVec
	fallbacksTotal  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "debitcards_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debitcards_external_errors_total",
				Help: "Total errors from collaborator services.",
			},
			[]string{"service"},
		),
		paymentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debitcards_payments_total",
				Help: "Total card payments processed, by outcome.",
			},
			[]string{"outcome"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debitcards_fallbacks_total",
				Help: "Total operations short-circuited to service-unavailable.",
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debitcards_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debitcards_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrPayment increments the payment counter with an outcome label.
func (m *Metrics) IncrPayment(outcome string) {
	m.paymentsTotal.WithLabelValues(outcome).Inc()
}

// IncrFallback increments the fallback counter for an operation.
func (m *Metrics) IncrFallback(operation string) {
	m.fallbacksTotal.WithLabelValues(operation).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetPaymentsSnapshot returns a snapshot of payment metrics suitable
// for the GET /v1/metrics/payments endpoint.
func (m *Metrics) GetPaymentsSnapshot() *domain.PaymentMetrics {
	// Gather current values from Prometheus counters.
	// Note: Prometheus counters expose cumulative values.
	approved := getCounterValue(m.paymentsTotal, PaymentApproved)
	insufficient := getCounterValue(m.paymentsTotal, PaymentInsufficient)
	unavailable := getCounterValue(m.paymentsTotal, PaymentUnavailable)
	total := approved + insufficient + unavailable

	cacheHits := getCounterValue(m.cacheHits, "account_numbers")
	cacheMisses := getCounterValue(m.cacheMisses, "account_numbers")

	approvalRate := float64(0)
	cacheHitRate := float64(0)
	if total > 0 {
		approvalRate = approved / total
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.PaymentMetrics{
		TotalPayments:       int64(total),
		Approved:            int64(approved),
		InsufficientFunds:   int64(insufficient),
		Unavailable:         int64(unavailable),
		ApprovalRate:        approvalRate,
		AccountCacheHitRate: cacheHitRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
