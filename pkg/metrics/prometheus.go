package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry            *prometheus.Registry
	operationsTotal     *prometheus.CounterVec
	operationsFailed    *prometheus.CounterVec
	operationDuration   prometheus.Histogram
	lockTimeouts        prometheus.Counter
	accountBalance      *prometheus.GaugeVec
	interestRunAccounts prometheus.Gauge
	logger              *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		operationsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "bank_operations_total",
			Help: "Total number of ledger operations by kind",
		}, []string{"operation"}),
		operationsFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "bank_operations_failed_total",
			Help: "Total number of failed ledger operations by kind",
		}, []string{"operation"}),
		operationDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "bank_operation_duration_seconds",
			Help:    "Time taken to execute a ledger operation",
			Buckets: prometheus.DefBuckets,
		}),
		lockTimeouts: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "bank_lock_timeouts_total",
			Help: "Total number of operations aborted waiting for an account lock",
		}),
		accountBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "bank_account_balance",
			Help: "Current account balance",
		}, []string{"account_id", "kind"}),
		interestRunAccounts: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "bank_interest_run_accounts",
			Help: "Number of accounts visited by the last interest sweep",
		}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordOperation(operation string, duration time.Duration, success bool) {
	m.operationsTotal.WithLabelValues(operation).Inc()
	if !success {
		m.operationsFailed.WithLabelValues(operation).Inc()
	}
	m.operationDuration.Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordLockTimeout() {
	m.lockTimeouts.Inc()
}

func (m *MetricsCollector) UpdateAccountBalance(accountID, kind string, balance float64) {
	m.accountBalance.WithLabelValues(accountID, kind).Set(balance)
}

func (m *MetricsCollector) RecordInterestRun(accounts int) {
	m.interestRunAccounts.Set(float64(accounts))
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
