package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	BatchesTotal  *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec
	OrdersTotal   *prometheus.CounterVec
	CarrierErrors *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics on the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates and registers Prometheus metrics on the given
// registerer. Tests pass a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parcelbridge_batches_total",
				Help: "Total number of export batches by mode and status",
			},
			[]string{"mode", "status"},
		),
		BatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parcelbridge_batch_duration_seconds",
				Help:    "Export batch duration in seconds by mode",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		OrdersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parcelbridge_orders_total",
				Help: "Total orders processed by outcome",
			},
			[]string{"outcome"},
		),
		CarrierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parcelbridge_carrier_errors_total",
				Help: "Total carrier API errors by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordBatch records one finished batch.
func (m *Metrics) RecordBatch(mode, status string, duration float64) {
	m.BatchesTotal.WithLabelValues(mode, status).Inc()
	m.BatchDuration.WithLabelValues(mode).Observe(duration)
}

// RecordOrder records one processed order outcome.
func (m *Metrics) RecordOrder(outcome string) {
	m.OrdersTotal.WithLabelValues(outcome).Inc()
}

// RecordCarrierError records a carrier API error.
func (m *Metrics) RecordCarrierError(operation string) {
	m.CarrierErrors.WithLabelValues(operation).Inc()
}
