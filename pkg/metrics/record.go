package metrics

import (
	"time"
)

// Batch outcome labels for StoreBatchesTotal.
const (
	BatchOK      = "ok"
	BatchFailed  = "failed"
	BatchRetried = "retried"
)

// RecordBuild records one graph build: size gauges, skip counters, and the
// stage duration.
func (r *Registry) RecordBuild(nodes, edges, skippedEdges, droppedAttrs, duplicates int, duration time.Duration) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
	r.RecordsSkipped.WithLabelValues("edges").Add(float64(skippedEdges))
	r.RecordsSkipped.WithLabelValues("attributes").Add(float64(droppedAttrs))
	r.DuplicateEdges.Add(float64(duplicates))
	r.BuildDuration.Observe(duration.Seconds())
	r.StageDuration.WithLabelValues("build").Observe(duration.Seconds())
}

// RecordAnalyze records one analysis pass.
func (r *Registry) RecordAnalyze(duration time.Duration) {
	r.AnalyzeDuration.Observe(duration.Seconds())
	r.StageDuration.WithLabelValues("analyze").Observe(duration.Seconds())
}

// RecordCommunities records one community detection pass.
func (r *Registry) RecordCommunities(communities int, modularity float64, duration time.Duration) {
	r.CommunitiesTotal.Set(float64(communities))
	r.CommunityModularity.Set(modularity)
	r.CommunityDuration.Observe(duration.Seconds())
	r.StageDuration.WithLabelValues("community").Observe(duration.Seconds())
}

// RecordConnect records one store connection attempt.
func (r *Registry) RecordConnect(status string) {
	r.StoreConnectsTotal.WithLabelValues(status).Inc()
}

// RecordPersist records one persist pass. Failure counts are per batch
// kind; retries are not kind-attributed in the summary and count under
// "all".
func (r *Registry) RecordPersist(nodeBatches, edgeBatches, failedNodes, failedEdges, retried int, duration time.Duration) {
	if ok := nodeBatches - failedNodes; ok > 0 {
		r.StoreBatchesTotal.WithLabelValues("nodes", BatchOK).Add(float64(ok))
	}
	if ok := edgeBatches - failedEdges; ok > 0 {
		r.StoreBatchesTotal.WithLabelValues("edges", BatchOK).Add(float64(ok))
	}
	if failedNodes > 0 {
		r.StoreBatchesTotal.WithLabelValues("nodes", BatchFailed).Add(float64(failedNodes))
	}
	if failedEdges > 0 {
		r.StoreBatchesTotal.WithLabelValues("edges", BatchFailed).Add(float64(failedEdges))
	}
	if retried > 0 {
		r.StoreBatchesTotal.WithLabelValues("all", BatchRetried).Add(float64(retried))
	}
	r.PersistDuration.Observe(duration.Seconds())
	r.StageDuration.WithLabelValues("persist").Observe(duration.Seconds())
}

// RecordLoad records one store load.
func (r *Registry) RecordLoad(duration time.Duration) {
	r.LoadDuration.Observe(duration.Seconds())
	r.StageDuration.WithLabelValues("load").Observe(duration.Seconds())
}

// RecordRun records a finished pipeline run by its final status.
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.StageDuration.WithLabelValues("run").Observe(duration.Seconds())
}
