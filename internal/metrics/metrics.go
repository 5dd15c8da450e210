package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videobot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videobot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)

	// ReconcileTotal counts reconciliation passes by variant (load/refresh)
	// and status (success/error).
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videobot",
			Subsystem: "catalog",
			Name:      "reconcile_total",
			Help:      "Total catalog reconciliation passes",
		},
		[]string{"variant", "status"},
	)

	ReconcileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videobot",
			Subsystem: "catalog",
			Name:      "reconcile_duration_seconds",
			Help:      "Catalog reconciliation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"variant"},
	)

	VideosChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videobot",
			Subsystem: "catalog",
			Name:      "videos_changed_total",
			Help:      "Catalog records added or removed by reconciliation",
		},
		[]string{"change"},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "videobot",
			Subsystem: "catalog",
			Name:      "videos",
			Help:      "Number of videos currently in the catalog",
		},
	)

	BotUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videobot",
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Telegram updates handled, by kind",
		},
		[]string{"kind"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordReconcile records one reconciliation pass and the catalog size it left behind.
func RecordReconcile(variant string, err error, added, removed, total int, durationSec float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ReconcileTotal.WithLabelValues(variant, status).Inc()
	ReconcileDuration.WithLabelValues(variant).Observe(durationSec)
	if err != nil {
		return
	}
	VideosChanged.WithLabelValues("added").Add(float64(added))
	VideosChanged.WithLabelValues("removed").Add(float64(removed))
	CatalogSize.Set(float64(total))
}

func RecordBotUpdate(kind string) {
	BotUpdatesTotal.WithLabelValues(kind).Inc()
}
