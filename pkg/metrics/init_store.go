package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreConnectsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copurchase_store_connects_total",
			Help: "Store connection attempts by outcome",
		},
		[]string{"status"},
	)

	r.StoreBatchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copurchase_store_batches_total",
			Help: "Persist batches by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	r.PersistDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copurchase_persist_duration_seconds",
			Help:    "Time spent persisting the graph",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	r.LoadDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copurchase_load_duration_seconds",
			Help:    "Time spent loading the graph from the store",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)
}

func (r *Registry) initPipelineMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copurchase_runs_total",
			Help: "Pipeline runs by final status",
		},
		[]string{"status"},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copurchase_stage_duration_seconds",
			Help:    "Pipeline stage durations",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"stage"},
	)
}
