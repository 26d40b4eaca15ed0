package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server. Each instance owns
// its registry so tests and embedded servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SchemaFetches   *prometheus.CounterVec
	Submissions     *prometheus.CounterVec
	CatalogSize     prometheus.Gauge
}

// NewMetrics creates and registers the server collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "formtree",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "formtree",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		SchemaFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "formtree",
				Name:      "schema_fetches_total",
				Help:      "Schema fetches by outcome",
			},
			[]string{"result"},
		),
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "formtree",
				Name:      "submissions_total",
				Help:      "Stored submissions by channel and outcome",
			},
			[]string{"channel", "result"},
		),
		CatalogSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "formtree",
				Name:      "catalog_forms",
				Help:      "Number of forms currently listed",
			},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) fetch(result string) {
	if m != nil {
		m.SchemaFetches.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) submission(channel, result string) {
	if m != nil {
		m.Submissions.WithLabelValues(channel, result).Inc()
	}
}
