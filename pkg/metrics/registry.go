// Package metrics exposes the pipeline's Prometheus instrumentation behind
// one Registry value, so a run can be observed end to end: graph build,
// analysis, community detection, and store traffic.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the pipeline.
type Registry struct {
	// Graph build
	BuildDuration    prometheus.Histogram
	GraphNodesTotal  prometheus.Gauge
	GraphEdgesTotal  prometheus.Gauge
	RecordsSkipped   *prometheus.CounterVec
	DuplicateEdges   prometheus.Counter

	// Analysis and community detection
	AnalyzeDuration     prometheus.Histogram
	CommunityDuration   prometheus.Histogram
	CommunitiesTotal    prometheus.Gauge
	CommunityModularity prometheus.Gauge

	// Store traffic
	StoreConnectsTotal *prometheus.CounterVec
	StoreBatchesTotal  *prometheus.CounterVec
	PersistDuration    prometheus.Histogram
	LoadDuration       prometheus.Histogram

	// Pipeline runs
	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide metrics registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initGraphMetrics()
	r.initAnalysisMetrics()
	r.initStoreMetrics()
	r.initPipelineMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry for
// exposition handlers.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
