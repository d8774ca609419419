package arango

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	driver "github.com/arangodb/go-driver"

	"github.com/w2sg-arnav/arangodb/pkg/graph"
	"github.com/w2sg-arnav/arangodb/pkg/parallel"
)

// Batch kinds recorded in failure reports
const (
	BatchKindNodes = "nodes"
	BatchKindEdges = "edges"
)

// nodeDoc is the vertex document shape. Attributes nest under "attrs" so
// arbitrary attribute keys can never collide with system fields.
type nodeDoc struct {
	Key   string                 `json:"_key"`
	ID    string                 `json:"id"`
	Attrs map[string]graph.Value `json:"attrs,omitempty"`
}

// edgeDoc is the edge document shape; From and To are full document handles
// into the node collection.
type edgeDoc struct {
	Key  string `json:"_key"`
	From string `json:"_from"`
	To   string `json:"_to"`
}

// BatchFailure records one batch that failed its write and its retry.
type BatchFailure struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
	Size  int    `json:"size"`
	Error string `json:"error"`
}

// PersistSummary reports what one Persist call did. Failed batches are not
// an error: the summary carries them and the caller decides.
type PersistSummary struct {
	NodesWritten   int            `json:"nodesWritten"`
	EdgesWritten   int            `json:"edgesWritten"`
	NodeBatches    int            `json:"nodeBatches"`
	EdgeBatches    int            `json:"edgeBatches"`
	RetriedBatches int            `json:"retriedBatches"`
	FailedBatches  []BatchFailure `json:"failedBatches,omitempty"`
	Cancelled      bool           `json:"cancelled,omitempty"`
	ElapsedMs      int64          `json:"elapsedMs"`
}

// preparedBatch pairs one write payload with its document count.
type preparedBatch struct {
	docs interface{}
	size int
}

// Persist upserts the whole graph: every node batch first, then every edge
// batch, each phase fanned out over the worker pool. Documents are written
// with overwrite-mode replace, so persisting the same graph twice leaves
// the store unchanged. A failed batch is retried once and then recorded in
// the summary; processing continues. Cancellation stops dispatch at the
// next batch boundary and surfaces as an error with Cancelled set.
func (s *Store) Persist(ctx context.Context, g *graph.Graph) (*PersistSummary, error) {
	if !s.ready {
		return nil, &StoreError{Op: "persist", Entity: "store", Cause: ErrNotReady}
	}

	start := time.Now()
	sum := &PersistSummary{}

	nodeBatches := s.prepareNodeBatches(g)
	edgeBatches := s.prepareEdgeBatches(g)
	sum.NodeBatches = len(nodeBatches)
	sum.EdgeBatches = len(edgeBatches)

	var mu sync.Mutex
	cancelled := s.dispatch(ctx, BatchKindNodes, s.nodes, nodeBatches, sum, &mu)
	if !cancelled {
		// Phase barrier: no edge write may race a node write, or an edge
		// could reference a vertex that is not there yet.
		cancelled = s.dispatch(ctx, BatchKindEdges, s.edges, edgeBatches, sum, &mu)
	}

	sort.Slice(sum.FailedBatches, func(i, j int) bool {
		if sum.FailedBatches[i].Kind != sum.FailedBatches[j].Kind {
			return sum.FailedBatches[i].Kind < sum.FailedBatches[j].Kind
		}
		return sum.FailedBatches[i].Index < sum.FailedBatches[j].Index
	})
	sum.ElapsedMs = time.Since(start).Milliseconds()

	if cancelled {
		sum.Cancelled = true
		return sum, fmt.Errorf("persist cancelled: %w", ctx.Err())
	}

	s.logger.Info("persist complete",
		"nodes", sum.NodesWritten,
		"edges", sum.EdgesWritten,
		"failed_batches", len(sum.FailedBatches),
		"retried_batches", sum.RetriedBatches,
		"elapsed_ms", sum.ElapsedMs)
	return sum, nil
}

// prepareNodeBatches chunks all node documents in sorted ID order, so batch
// composition is identical run to run.
func (s *Store) prepareNodeBatches(g *graph.Graph) []preparedBatch {
	ids := g.NodeIDs()

	batches := make([]preparedBatch, 0, len(ids)/s.cfg.BatchSize+1)
	for offset := 0; offset < len(ids); offset += s.cfg.BatchSize {
		end := offset + s.cfg.BatchSize
		if end > len(ids) {
			end = len(ids)
		}

		docs := make([]nodeDoc, 0, end-offset)
		for _, id := range ids[offset:end] {
			node, _ := g.Node(id)
			docs = append(docs, nodeDoc{
				Key:   DocumentKey(id),
				ID:    id,
				Attrs: node.Attrs,
			})
		}
		batches = append(batches, preparedBatch{docs: docs, size: len(docs)})
	}
	return batches
}

// prepareEdgeBatches chunks all edge documents in sorted (from, to) order.
func (s *Store) prepareEdgeBatches(g *graph.Graph) []preparedBatch {
	edges := g.Edges()

	batches := make([]preparedBatch, 0, len(edges)/s.cfg.BatchSize+1)
	for offset := 0; offset < len(edges); offset += s.cfg.BatchSize {
		end := offset + s.cfg.BatchSize
		if end > len(edges) {
			end = len(edges)
		}

		docs := make([]edgeDoc, 0, end-offset)
		for _, e := range edges[offset:end] {
			docs = append(docs, edgeDoc{
				Key:  EdgeKey(e.From, e.To),
				From: s.nodeRef(e.From),
				To:   s.nodeRef(e.To),
			})
		}
		batches = append(batches, preparedBatch{docs: docs, size: len(docs)})
	}
	return batches
}

// nodeRef builds the document handle an edge uses to reference a node.
func (s *Store) nodeRef(id string) string {
	return s.cfg.NodeCollection + "/" + DocumentKey(id)
}

// dispatch fans one phase's batches out to a fresh worker pool and drains
// it. It reports whether dispatch stopped early due to cancellation.
func (s *Store) dispatch(ctx context.Context, kind string, col driver.Collection, batches []preparedBatch, sum *PersistSummary, mu *sync.Mutex) bool {
	if len(batches) == 0 {
		return ctx.Err() != nil
	}

	pool := parallel.NewWorkerPool(s.cfg.Workers, s.logger)
	cancelled := false

	for i, batch := range batches {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		index, payload := i, batch
		pool.Submit(func() {
			err := s.writeBatch(ctx, col, payload.docs)
			retried := false
			if err != nil && ctx.Err() == nil {
				s.logger.Warn("batch write failed, retrying",
					"kind", kind, "batch", index, "size", payload.size, "error", err)
				retried = true
				err = s.writeBatch(ctx, col, payload.docs)
			}

			mu.Lock()
			defer mu.Unlock()
			if retried {
				sum.RetriedBatches++
			}
			if err != nil {
				sum.FailedBatches = append(sum.FailedBatches, BatchFailure{
					Kind:  kind,
					Index: index,
					Size:  payload.size,
					Error: err.Error(),
				})
				return
			}
			switch kind {
			case BatchKindNodes:
				sum.NodesWritten += payload.size
			case BatchKindEdges:
				sum.EdgesWritten += payload.size
			}
		})
	}

	pool.Wait()
	return cancelled
}

// writeBatch performs one upsert round trip for a batch of documents.
func (s *Store) writeBatch(ctx context.Context, col driver.Collection, docs interface{}) error {
	octx := driver.WithOverwriteMode(ctx, driver.OverwriteModeReplace)
	_, errs, err := col.CreateDocuments(octx, docs)
	if err != nil {
		return err
	}
	if errs != nil {
		if derr := errs.FirstNonNil(); derr != nil {
			return derr
		}
	}
	return nil
}
