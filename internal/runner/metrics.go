package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flockrank_runs_total",
			Help: "Scoring runs processed, labelled by terminal status",
		},
		[]string{"status"},
	)

	animalsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flockrank_animals_scored_total",
			Help: "Animals processed across all completed scoring runs",
		},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flockrank_run_duration_seconds",
			Help:    "Wall-clock duration of completed scoring runs",
			Buckets: prometheus.DefBuckets,
		},
	)
)
