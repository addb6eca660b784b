// Package metric wraps a private Prometheus registry with the runtime's
// core metrics: graph sizes, store operations, inference cycles, and
// gateway traffic.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the core runtime metrics.
type Metrics struct {
	registry *prometheus.Registry

	GraphTriples    *prometheus.GaugeVec
	StoreLoads      prometheus.Counter
	StoreClears     prometheus.Counter
	StoreQueries    prometheus.Counter
	QueryFailures   prometheus.Counter
	InferenceRuns   prometheus.Counter
	InferenceErrors prometheus.Counter
	InferenceTime   prometheus.Histogram
	HTTPRequests    *prometheus.CounterVec
}

// New creates the registry and registers every core metric plus the Go
// runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		GraphTriples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "urdf_graph_triples",
			Help: "Triple count per named graph",
		}, []string{"graph"}),
		StoreLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urdf_store_loads_total",
			Help: "Dataset load operations",
		}),
		StoreClears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urdf_store_clears_total",
			Help: "Graph clear operations",
		}),
		StoreQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urdf_store_queries_total",
			Help: "SPARQL queries evaluated",
		}),
		QueryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urdf_store_query_failures_total",
			Help: "SPARQL queries that failed",
		}),
		InferenceRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urdf_inference_runs_total",
			Help: "Completed inference cycles",
		}),
		InferenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urdf_inference_errors_total",
			Help: "Inference cycles that failed",
		}),
		InferenceTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "urdf_inference_duration_seconds",
			Help:    "Inference cycle duration",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urdf_http_requests_total",
			Help: "Gateway requests by endpoint and outcome",
		}, []string{"endpoint", "status"}),
	}
	reg.MustRegister(
		m.GraphTriples, m.StoreLoads, m.StoreClears, m.StoreQueries,
		m.QueryFailures, m.InferenceRuns, m.InferenceErrors,
		m.InferenceTime, m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the Prometheus exposition handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetGraphSizes replaces the per-graph triple gauges.
func (m *Metrics) SetGraphSizes(sizes map[string]int) {
	m.GraphTriples.Reset()
	for gid, n := range sizes {
		m.GraphTriples.WithLabelValues(gid).Set(float64(n))
	}
}
