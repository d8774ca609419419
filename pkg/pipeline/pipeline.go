// Package pipeline orchestrates a co-purchase graph run end to end: try to
// load a previously persisted graph, rebuild from the raw dataset when the
// store cannot serve one, analyze the topology, detect communities, and
// optionally write the result back to ArangoDB. Every run walks an explicit
// state sequence and finishes with a JSON-serializable result bundle.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/w2sg-arnav/arangodb/pkg/analyze"
	"github.com/w2sg-arnav/arangodb/pkg/arango"
	"github.com/w2sg-arnav/arangodb/pkg/community"
	"github.com/w2sg-arnav/arangodb/pkg/graph"
	"github.com/w2sg-arnav/arangodb/pkg/metrics"
	"github.com/w2sg-arnav/arangodb/pkg/preflight"
	"github.com/w2sg-arnav/arangodb/pkg/runlog"
)

// State is one phase of a pipeline run. States are appended to the run
// result in the order they are entered.
type State string

const (
	StateInit              State = "init"
	StateTryLoad           State = "try-load"
	StateLoaded            State = "loaded"
	StateBuildFromSource   State = "build-from-source"
	StateAnalyzed          State = "analyzed"
	StateCommunityDetected State = "community-detected"
	StatePersisted         State = "persisted"
	StateDone              State = "done"
)

// Run outcome statuses.
const (
	StatusDone      = "done"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Source supplies the raw streams a fresh build consumes. Attrs may return
// (nil, nil) when the dataset has no attribute sidecar.
type Source interface {
	// Name identifies the dataset for logs and diagnostics.
	Name() string
	// Edges opens the edge record stream.
	Edges() (graph.EdgeSource, error)
	// Attrs opens the attribute record stream, or returns (nil, nil).
	Attrs() (graph.AttrSource, error)
}

// GraphStore is the persistence surface the orchestrator drives. A nil
// store disables both loading and persisting. *arango.Store satisfies it.
type GraphStore interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context) (*graph.Graph, error)
	Persist(ctx context.Context, g *graph.Graph) (*arango.PersistSummary, error)
}

// RunRecorder appends finished runs to a ledger. *runlog.Ledger satisfies
// it; a nil recorder disables run history.
type RunRecorder interface {
	Append(ctx context.Context, entry *runlog.Entry) error
}

// Config controls one orchestrator. The zero value builds from source,
// analyzes, detects communities, and persists nothing.
type Config struct {
	// Dataset names the input for logs, diagnostics, and the run ledger.
	Dataset string
	// Persist writes a freshly built graph to the store after detection.
	Persist bool
	// ForcePersist also rewrites graphs that were loaded from the store.
	ForcePersist bool
	// SnapshotPath, when set, exports a binary snapshot after a fresh build.
	SnapshotPath string

	Analyze   analyze.Options
	Community community.Options
}

// Deps carries the orchestrator's collaborators. Everything except Source
// may be nil; a nil Source only fails runs that cannot load from the store.
type Deps struct {
	Source    Source
	Store     GraphStore
	Recorder  RunRecorder
	Preflight *preflight.Checker
	Metrics   *metrics.Registry
	Logger    *slog.Logger
}

// Orchestrator executes pipeline runs.
type Orchestrator struct {
	cfg       Config
	source    Source
	store     GraphStore
	recorder  RunRecorder
	preflight *preflight.Checker
	metrics   *metrics.Registry
	logger    *slog.Logger
}

// NewOrchestrator wires an orchestrator from its config and collaborators.
func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := deps.Metrics
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Orchestrator{
		cfg:       cfg,
		source:    deps.Source,
		store:     deps.Store,
		recorder:  deps.Recorder,
		preflight: deps.Preflight,
		metrics:   reg,
		logger:    logger,
	}
}

// RunResult is the product of one pipeline run. Graph and Analysis are set
// on every non-aborted run; Communities after detection; Persist only when
// a store write happened.
type RunResult struct {
	RunID           string
	Status          string
	LoadedFromStore bool
	Graph           *graph.Graph
	Analysis        *analyze.Result
	Communities     *community.Result
	Persist         *arango.PersistSummary
	States          []State
	Diagnostics     []string
	Bundle          *Bundle
}

func (r *RunResult) transition(s State) {
	r.States = append(r.States, s)
}

func (r *RunResult) diag(line string) {
	r.Diagnostics = append(r.Diagnostics, line)
}
