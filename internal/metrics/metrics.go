package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates ledger operation metrics on its own registry. A nil
// *Collector is valid and records nothing, so tests can pass nil.
type Collector struct {
	registry         *prometheus.Registry
	operations       *prometheus.CounterVec
	transferDuration prometheus.Histogram
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		operations: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by kind and result",
		}, []string{"operation", "result"}),
		transferDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transfer_duration_seconds",
			Help:    "Time taken to complete a transfer",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (c *Collector) RecordOperation(operation string, err error) {
	if c == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	c.operations.WithLabelValues(operation, result).Inc()
}

func (c *Collector) ObserveTransfer(d time.Duration) {
	if c == nil {
		return
	}

	c.transferDuration.Observe(d.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
