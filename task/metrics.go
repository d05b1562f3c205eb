package task

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nmcweather_fetch_cycles_total",
		Help: "Number of fetch cycles by result (ok, error, busy).",
	}, []string{"result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nmcweather_fetch_duration_seconds",
		Help:    "Duration of successful and failed fetch cycles.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})
)
