package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec // labels: route, status

	ClimateFetches       *prometheus.CounterVec   // labels: source, outcome={success,error,empty}
	ClimateFetchDuration *prometheus.HistogramVec // labels: source

	CacheLookups *prometheus.CounterVec // labels: cache={history,geocode}, result={hit,miss}

	Reports     prometheus.Counter
	ReportScore prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HTTPRequests,
		m.ClimateFetches,
		m.ClimateFetchDuration,
		m.CacheLookups,
		m.Reports,
		m.ReportScore,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parade",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		ClimateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parade",
			Name:      "climate_fetch_total",
			Help:      "Climate history fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		ClimateFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "parade",
			Name:      "climate_fetch_duration_seconds",
			Help:      "Climate source request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parade",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		Reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parade",
			Name:      "reports_total",
			Help:      "Suitability reports built.",
		}),
		ReportScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parade",
			Name:      "report_score",
			Help:      "Average suitability score of each report.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}
}
