// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the engine's collectors around a private registry so tests
// can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// SearchesTotal counts searches by the phase that answered them.
	SearchesTotal *prometheus.CounterVec
	// SearchDuration observes end-to-end federated search latency.
	SearchDuration prometheus.Histogram
	// OrganismFailures counts per-organism soft failures by reason.
	OrganismFailures *prometheus.CounterVec
	// RowsReturned observes per-organism result sizes.
	RowsReturned prometheus.Histogram
	// DataQualityWarnings counts incomplete annotation records served.
	DataQualityWarnings prometheus.Counter
	// HTTPRequests counts requests by route and status class.
	HTTPRequests *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry, including the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "moop_searches_total",
			Help: "Searches served, labeled by the phase that produced rows.",
		}, []string{"kind"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "moop_search_duration_seconds",
			Help:    "Federated search latency.",
			Buckets: prometheus.DefBuckets,
		}),
		OrganismFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "moop_organism_failures_total",
			Help: "Per-organism soft failures during federation.",
		}, []string{"organism", "reason"}),
		RowsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "moop_search_rows_returned",
			Help:    "Rows returned per organism per search.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		DataQualityWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "moop_data_quality_warnings_total",
			Help: "Annotation rows served with missing source or accession.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "moop_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
