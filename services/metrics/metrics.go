package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	// LookupTotal counts barcode lookups by outcome (found, unknown, failed).
	LookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proteinrank_lookup_total",
			Help: "Barcode lookups by result",
		},
		[]string{"result"},
	)

	LookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "proteinrank_lookup_duration_seconds",
			Help:    "Latency of barcode lookups against the food database",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ScoreTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proteinrank_score_total",
			Help: "Computed scores by tier and source",
		},
		[]string{"tier", "source"},
	)

	StaleResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proteinrank_stale_responses_total",
			Help: "Lookup responses discarded because a newer scan was issued",
		},
	)

	ActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proteinrank_active_streams",
			Help: "Open display snapshot streams",
		},
	)
)

func init() {
	Registry.MustRegister(LookupTotal, LookupDuration, ScoreTotal, StaleResponses, ActiveStreams)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
