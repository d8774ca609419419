package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.BuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copurchase_build_duration_seconds",
			Help:    "Time spent building the graph from source streams",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copurchase_graph_nodes_total",
			Help: "Number of nodes in the current graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copurchase_graph_edges_total",
			Help: "Number of edges in the current graph",
		},
	)

	r.RecordsSkipped = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copurchase_records_skipped_total",
			Help: "Source records skipped during build",
		},
		[]string{"stage"},
	)

	r.DuplicateEdges = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "copurchase_duplicate_edges_total",
			Help: "Edge records that repeated an existing ordered pair",
		},
	)
}

func (r *Registry) initAnalysisMetrics() {
	r.AnalyzeDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copurchase_analyze_duration_seconds",
			Help:    "Time spent computing structural statistics",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120},
		},
	)

	r.CommunityDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copurchase_community_duration_seconds",
			Help:    "Time spent on community detection",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120},
		},
	)

	r.CommunitiesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copurchase_communities_total",
			Help: "Number of communities found in the last detection",
		},
	)

	r.CommunityModularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copurchase_community_modularity",
			Help: "Modularity score of the last partition",
		},
	)
}
