package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/w2sg-arnav/arangodb/pkg/analyze"
	"github.com/w2sg-arnav/arangodb/pkg/arango"
	"github.com/w2sg-arnav/arangodb/pkg/community"
	"github.com/w2sg-arnav/arangodb/pkg/graph"
	"github.com/w2sg-arnav/arangodb/pkg/preflight"
	"github.com/w2sg-arnav/arangodb/pkg/runlog"
	"github.com/w2sg-arnav/arangodb/pkg/snapshot"
)

// ErrNoSource is returned when the store has no graph and no source is
// configured to build one from.
var ErrNoSource = errors.New("no dataset source configured")

// Run executes one pipeline pass. It always returns a result, even on
// failure or cancellation, so callers can inspect the states walked and the
// diagnostics collected; the error reports why a run stopped short of Done.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	res := &RunResult{
		RunID:  uuid.NewString(),
		States: []State{StateInit},
	}
	o.logger.Info("pipeline run starting",
		"run_id", res.RunID,
		"dataset", o.cfg.Dataset)
	o.runPreflight(ctx, res)

	g, err := o.acquireGraph(ctx, res)
	if err != nil {
		return o.fail(ctx, res, started, err)
	}
	res.Graph = g

	analysis, err := o.analyzeGraph(ctx, res, g)
	if err != nil {
		return o.fail(ctx, res, started, err)
	}
	res.Analysis = analysis

	comms, err := o.detectCommunities(ctx, res, g, analysis)
	if err != nil {
		return o.fail(ctx, res, started, err)
	}
	res.Communities = comms

	if err := o.maybePersist(ctx, res, g); err != nil {
		return o.fail(ctx, res, started, err)
	}

	res.transition(StateDone)
	res.Status = StatusDone
	o.finalize(ctx, res, started)
	return res, nil
}

// fail closes out a run that stopped before Done. Context faults become the
// distinct cancelled outcome; everything else is a failure.
func (o *Orchestrator) fail(ctx context.Context, res *RunResult, started time.Time, err error) (*RunResult, error) {
	if ctx.Err() != nil {
		res.Status = StatusCancelled
	} else {
		res.Status = StatusFailed
	}
	res.diag("run stopped: " + err.Error())
	o.finalize(ctx, res, started)
	return res, err
}

// finalize records the run in the ledger, assembles the bundle, and emits
// run-level metrics. Status must be set before calling.
func (o *Orchestrator) finalize(ctx context.Context, res *RunResult, started time.Time) {
	elapsed := time.Since(started)
	o.record(ctx, res, started)
	res.Bundle = o.assembleBundle(res)
	o.metrics.RecordRun(res.Status, elapsed)
	o.logger.Info("pipeline run finished",
		"run_id", res.RunID,
		"status", res.Status,
		"states", len(res.States),
		"elapsed", elapsed)
}

// runPreflight records the probe report in the run's diagnostics. The
// report is advisory: a failed probe does not stop the run, because the
// stages that need the resource fail with a more precise error anyway.
func (o *Orchestrator) runPreflight(ctx context.Context, res *RunResult) {
	if o.preflight == nil {
		return
	}
	report := o.preflight.Run(ctx)
	res.Diagnostics = append(res.Diagnostics, report.Diagnostics()...)
	if report.Status != preflight.StatusOK {
		o.logger.Warn("preflight reported problems", "status", report.Status)
	}
}

// acquireGraph loads the graph from the store when possible and builds it
// from the source otherwise.
func (o *Orchestrator) acquireGraph(ctx context.Context, res *RunResult) (*graph.Graph, error) {
	g, err := o.tryLoad(ctx, res)
	if err != nil {
		return nil, err
	}
	if g != nil {
		res.LoadedFromStore = true
		res.transition(StateLoaded)
		return g, nil
	}
	return o.buildFromSource(ctx, res)
}

// tryLoad asks the store for a previously persisted graph. Connection-level
// faults degrade to a rebuild; schema faults abort because persisting later
// would fail the same way.
func (o *Orchestrator) tryLoad(ctx context.Context, res *RunResult) (*graph.Graph, error) {
	res.transition(StateTryLoad)
	if o.store == nil {
		res.diag("loaded from store: false; reason: persistence disabled")
		return nil, nil
	}
	start := time.Now()
	g, err := o.store.Load(ctx)
	switch {
	case err == nil && g == nil:
		res.diag("loaded from store: false; reason: store has no graph")
		return nil, nil
	case err == nil:
		o.metrics.RecordLoad(time.Since(start))
		res.diag(fmt.Sprintf("loaded from store: true; %d nodes, %d edges", g.NumNodes(), g.NumEdges()))
		o.logger.Info("graph loaded from store",
			"nodes", g.NumNodes(),
			"edges", g.NumEdges(),
			"elapsed", time.Since(start))
		return g, nil
	case ctx.Err() != nil:
		return nil, err
	case errors.Is(err, arango.ErrSchema):
		return nil, fmt.Errorf("store load: %w", err)
	default:
		res.diag("loaded from store: false; reason: " + err.Error())
		o.logger.Warn("store load failed, rebuilding from source", "error", err)
		return nil, nil
	}
}

// buildFromSource streams the dataset through the graph builder and
// optionally exports a snapshot of the result.
func (o *Orchestrator) buildFromSource(ctx context.Context, res *RunResult) (*graph.Graph, error) {
	res.transition(StateBuildFromSource)
	if o.source == nil {
		return nil, ErrNoSource
	}

	edges, err := o.source.Edges()
	if err != nil {
		return nil, fmt.Errorf("open edge source: %w", err)
	}
	defer closeQuietly(edges)

	attrs, err := o.source.Attrs()
	if err != nil {
		return nil, fmt.Errorf("open attribute source: %w", err)
	}
	if attrs != nil {
		defer closeQuietly(attrs)
	}

	start := time.Now()
	g, stats, err := graph.NewBuilder(o.logger).Build(ctx, edges, attrs)
	if err != nil {
		return nil, fmt.Errorf("build graph from %s: %w", o.source.Name(), err)
	}
	o.metrics.RecordBuild(g.NumNodes(), g.NumEdges(), stats.SkippedEdges, stats.AttrsDropped, stats.DuplicateEdges, time.Since(start))
	o.logger.Info("graph built from source",
		"dataset", o.source.Name(),
		"nodes", g.NumNodes(),
		"edges", g.NumEdges(),
		"duplicate_edges", stats.DuplicateEdges,
		"skipped_edges", stats.SkippedEdges,
		"elapsed", time.Since(start))
	res.diag(fmt.Sprintf("loaded from store: false; built from %s: %d nodes, %d edges",
		o.source.Name(), g.NumNodes(), g.NumEdges()))

	o.exportSnapshot(res, g)
	return g, nil
}

// exportSnapshot writes the freshly built graph to SnapshotPath. Export
// failures are diagnostics, not run failures.
func (o *Orchestrator) exportSnapshot(res *RunResult, g *graph.Graph) {
	if o.cfg.SnapshotPath == "" {
		return
	}
	st, err := snapshot.WriteFile(o.cfg.SnapshotPath, g)
	if err != nil {
		res.diag("snapshot export failed: " + err.Error())
		o.logger.Warn("snapshot export failed", "path", o.cfg.SnapshotPath, "error", err)
		return
	}
	res.diag(fmt.Sprintf("snapshot exported: %s (%d nodes, %d edges)", o.cfg.SnapshotPath, st.Nodes, st.Edges))
	o.logger.Info("snapshot exported",
		"path", o.cfg.SnapshotPath,
		"frames", st.Frames,
		"bytes_compressed", st.BytesCompressed)
}

func (o *Orchestrator) analyzeGraph(ctx context.Context, res *RunResult, g *graph.Graph) (*analyze.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	analysis, err := analyze.Analyze(g, o.cfg.Analyze)
	if err != nil {
		return nil, fmt.Errorf("analyze graph: %w", err)
	}
	o.metrics.RecordAnalyze(time.Since(start))
	res.transition(StateAnalyzed)
	o.logger.Info("graph analyzed",
		"nodes", analysis.NumNodes,
		"edges", analysis.NumEdges,
		"max_degree", analysis.MaxDegree,
		"max_degree_node", analysis.MaxDegreeNode,
		"components", analysis.NumComponents,
		"elapsed", time.Since(start))
	return analysis, nil
}

func (o *Orchestrator) detectCommunities(ctx context.Context, res *RunResult, g *graph.Graph, analysis *analyze.Result) (*community.Result, error) {
	opts := o.cfg.Community
	if opts.PriorSample == nil {
		// Reuse the analysis sample so an oversized graph is not walked twice.
		opts.PriorSample = analysis.Sample
	}
	start := time.Now()
	comms, err := community.Detect(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("detect communities: %w", err)
	}
	o.metrics.RecordCommunities(comms.NumCommunities, comms.Modularity, time.Since(start))
	res.transition(StateCommunityDetected)
	o.logger.Info("communities detected",
		"algorithm", comms.Algorithm,
		"communities", comms.NumCommunities,
		"modularity", comms.Modularity,
		"detected_nodes", comms.DetectedNodes,
		"sampled", comms.Sampled,
		"elapsed", time.Since(start))
	return comms, nil
}

// maybePersist writes the graph back to the store when the run asked for it.
// Loaded graphs are skipped unless ForcePersist; partial write failures stay
// inside the summary and never fail the run.
func (o *Orchestrator) maybePersist(ctx context.Context, res *RunResult, g *graph.Graph) error {
	if !o.cfg.Persist {
		return nil
	}
	if o.store == nil {
		res.diag("persist skipped: no store configured")
		return nil
	}
	if res.LoadedFromStore && !o.cfg.ForcePersist {
		res.diag("persist skipped: graph already loaded from store")
		return nil
	}
	if res.LoadedFromStore {
		res.diag("force persist: rewriting graph loaded from store")
	}

	if err := o.store.EnsureSchema(ctx); err != nil {
		o.metrics.RecordConnect("failed")
		return fmt.Errorf("ensure store schema: %w", err)
	}
	o.metrics.RecordConnect("ok")

	start := time.Now()
	sum, err := o.store.Persist(ctx, g)
	if sum != nil {
		res.Persist = sum
		failedNodes, failedEdges := splitFailures(sum.FailedBatches)
		o.metrics.RecordPersist(sum.NodeBatches, sum.EdgeBatches, failedNodes, failedEdges, sum.RetriedBatches, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("persist graph: %w", err)
	}
	if sum != nil && len(sum.FailedBatches) > 0 {
		res.diag(fmt.Sprintf("persist incomplete: %d batches failed after retry", len(sum.FailedBatches)))
		o.logger.Warn("persist finished with failed batches",
			"failed_batches", len(sum.FailedBatches),
			"nodes_written", sum.NodesWritten,
			"edges_written", sum.EdgesWritten)
	}
	res.transition(StatePersisted)
	return nil
}

func splitFailures(failures []arango.BatchFailure) (nodes, edges int) {
	for _, f := range failures {
		if f.Kind == arango.BatchKindNodes {
			nodes++
		} else {
			edges++
		}
	}
	return nodes, edges
}

// record appends the run to the ledger. The append survives cancellation so
// aborted runs still show up in history.
func (o *Orchestrator) record(ctx context.Context, res *RunResult, started time.Time) {
	if o.recorder == nil {
		return
	}
	entry := &runlog.Entry{
		RunID:           res.RunID,
		Dataset:         o.cfg.Dataset,
		Status:          res.Status,
		LoadedFromStore: res.LoadedFromStore,
		StartedAt:       started.UTC(),
		FinishedAt:      time.Now().UTC(),
		Diagnostics:     res.Diagnostics,
	}
	if res.Analysis != nil {
		entry.NumNodes = res.Analysis.NumNodes
		entry.NumEdges = res.Analysis.NumEdges
	}
	if res.Communities != nil {
		entry.NumCommunities = res.Communities.NumCommunities
		entry.Algorithm = string(res.Communities.Algorithm)
	}
	if res.Persist != nil {
		entry.NodesWritten = res.Persist.NodesWritten
		entry.EdgesWritten = res.Persist.EdgesWritten
		entry.FailedBatches = len(res.Persist.FailedBatches)
	}
	if err := o.recorder.Append(context.WithoutCancel(ctx), entry); err != nil {
		o.logger.Warn("run ledger append failed", "run_id", res.RunID, "error", err)
	}
}

func closeQuietly(v interface{}) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}
