package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_analysis"

// Metrics holds the Prometheus collectors for feed refreshes and analysis.
type Metrics struct {
	FeedFetches       *prometheus.CounterVec // labels: station, outcome={success,error}
	FeedFetchDuration *prometheus.HistogramVec
	StoredSamples     *prometheus.GaugeVec // labels: station, variable

	AnalysisDuration prometheus.Histogram
	AlertsRaised     *prometheus.CounterVec // labels: class, category
	ReportCache      *prometheus.CounterVec // labels: result={hit,miss}
	AlertPublishErrs prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Station feed fetches by outcome.",
		}, []string{"station", "outcome"}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of a station feed fetch including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"station"}),
		StoredSamples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_samples",
			Help:      "Samples currently held per station variable.",
		}, []string{"station", "variable"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "station_analysis_duration_seconds",
			Help:      "Duration of analysing every variable of one station.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Alerts raised during refreshes by variable class and category.",
		}, []string{"class", "category"}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		AlertPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_publish_errors_total",
			Help:      "Failed attempts to publish alerts.",
		}),
	}

	reg.MustRegister(
		m.FeedFetches,
		m.FeedFetchDuration,
		m.StoredSamples,
		m.AnalysisDuration,
		m.AlertsRaised,
		m.ReportCache,
		m.AlertPublishErrs,
	)

	return m
}

// NewMetricsForTesting creates Metrics on a throwaway registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
