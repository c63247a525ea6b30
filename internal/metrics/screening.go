package metrics

import "github.com/prometheus/client_golang/prometheus"

// Screening Prometheus metrics.
var (
	ScreeningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyscan",
			Name:      "screenings_total",
			Help:      "Total number of screenings by mode and decision",
		},
		[]string{"mode", "decision"},
	)

	ScreeningDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policyscan",
			Name:      "screening_duration_seconds",
			Help:      "Screening duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)
)

var screeningMetricsRegistered bool

// RegisterScreeningMetrics registers screening metrics. Must be called once from main.
func RegisterScreeningMetrics() {
	if screeningMetricsRegistered {
		return
	}
	prometheus.MustRegister(ScreeningsTotal)
	prometheus.MustRegister(ScreeningDuration)
	screeningMetricsRegistered = true
}

// ObserveScreening records one finished screening.
func ObserveScreening(mode, decision string, seconds float64) {
	ScreeningsTotal.WithLabelValues(mode, decision).Inc()
	ScreeningDuration.WithLabelValues(mode).Observe(seconds)
}
