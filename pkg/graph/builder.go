package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// EdgeRecord is one directed co-purchase pair from a source stream.
type EdgeRecord struct {
	Source string
	Target string
}

// AttrRecord assigns one attribute value to a node.
type AttrRecord struct {
	NodeID string
	Key    string
	Value  Value
}

// EdgeSource streams edge records. Next returns io.EOF when the stream is
// exhausted; any other error aborts the build.
type EdgeSource interface {
	Next() (EdgeRecord, error)
}

// AttrSource streams attribute records. Next returns io.EOF when the stream
// is exhausted; any other error aborts the build.
type AttrSource interface {
	Next() (AttrRecord, error)
}

// BuildStats counts what the builder did with the source streams.
type BuildStats struct {
	EdgesAdded     int // distinct directed edges inserted
	DuplicateEdges int // records that repeated an existing ordered pair
	SkippedEdges   int // records with an empty endpoint after canonicalization
	AttrsApplied   int // attribute records stored on a known node
	AttrsDropped   int // attribute records for unknown nodes or empty values
}

// checkEvery is how many records pass between context checks during a build.
const checkEvery = 4096

// Builder constructs a Graph from record streams. The edge pass defines the
// node set; the attribute pass only decorates nodes the edge pass created.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a builder that logs progress to the given logger.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build consumes the edge stream, then the attribute stream, and returns the
// resulting graph. Records with empty endpoints or unknown attribute targets
// are counted and skipped, never fatal; a source error other than io.EOF
// aborts the build. The attribute source may be nil.
func (b *Builder) Build(ctx context.Context, edges EdgeSource, attrs AttrSource) (*Graph, *BuildStats, error) {
	if edges == nil {
		return nil, nil, errors.New("build: nil edge source")
	}

	g := New()
	stats := &BuildStats{}

	records := 0
	for {
		rec, err := edges.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read edge record: %w", err)
		}

		records++
		if records%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, fmt.Errorf("build cancelled after %d edge records: %w", records, err)
			}
		}

		src := CanonicalID(rec.Source)
		tgt := CanonicalID(rec.Target)
		if src == "" || tgt == "" {
			stats.SkippedEdges++
			continue
		}

		if g.AddEdge(src, tgt) {
			stats.EdgesAdded++
		} else {
			stats.DuplicateEdges++
		}
	}

	b.logger.Debug("edge pass complete",
		"records", records,
		"nodes", g.NumNodes(),
		"edges", stats.EdgesAdded,
		"duplicates", stats.DuplicateEdges,
		"skipped", stats.SkippedEdges)

	if attrs != nil {
		if err := b.applyAttrs(ctx, g, attrs, stats); err != nil {
			return nil, nil, err
		}
	}

	return g, stats, nil
}

// applyAttrs runs the attribute pass over an already-built node set.
func (b *Builder) applyAttrs(ctx context.Context, g *Graph, attrs AttrSource, stats *BuildStats) error {
	records := 0
	for {
		rec, err := attrs.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read attribute record: %w", err)
		}

		records++
		if records%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("build cancelled after %d attribute records: %w", records, err)
			}
		}

		if rec.Key == "" || rec.Value.IsZero() {
			stats.AttrsDropped++
			continue
		}

		switch err := g.SetAttr(rec.NodeID, rec.Key, rec.Value); {
		case err == nil:
			stats.AttrsApplied++
		case errors.Is(err, ErrNodeNotFound), errors.Is(err, ErrEmptyID):
			stats.AttrsDropped++
		default:
			return fmt.Errorf("apply attribute %q to node %q: %w", rec.Key, rec.NodeID, err)
		}
	}

	b.logger.Debug("attribute pass complete",
		"records", records,
		"applied", stats.AttrsApplied,
		"dropped", stats.AttrsDropped)
	return nil
}
