// Package observability holds the Prometheus metrics and logger setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters, histograms and gauges for feed loading.
type Metrics struct {
	FeedFetches      *prometheus.CounterVec   // labels: overlay, outcome={success,error}
	FeedDuration     *prometheus.HistogramVec // labels: overlay
	FeaturesSkipped  *prometheus.CounterVec   // labels: overlay
	OverlayFeatures  *prometheus.GaugeVec     // labels: overlay
	NoticesPublished *prometheus.CounterVec   // labels: level
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "feed_fetch_total",
			Help:      "Feed fetches by overlay and outcome.",
		}, []string{"overlay", "outcome"}),
		FeedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quake",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of a feed fetch including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"overlay"}),
		FeaturesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "features_skipped_total",
			Help:      "Features dropped because their geometry cannot be drawn.",
		}, []string{"overlay"}),
		OverlayFeatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "quake",
			Name:      "overlay_features",
			Help:      "Rendered features per overlay group.",
		}, []string{"overlay"}),
		NoticesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake",
			Name:      "notices_published_total",
			Help:      "User-visible notices by level.",
		}, []string{"level"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedFetches,
		m.FeedDuration,
		m.FeaturesSkipped,
		m.OverlayFeatures,
		m.NoticesPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
