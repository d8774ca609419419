package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/w2sg-arnav/arangodb/pkg/arango"
	"github.com/w2sg-arnav/arangodb/pkg/dataset"
	"github.com/w2sg-arnav/arangodb/pkg/graph"
	"github.com/w2sg-arnav/arangodb/pkg/snapshot"
)

func runExport(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("graph-snapshot export", flag.ExitOnError)
	edges := fs.String("edges", "", "edge list: local path or s3:// URL, plain or .gz")
	meta := fs.String("meta", "", "product metadata: local path or s3:// URL")
	cache := fs.String("cache", "./cache", "download cache directory")
	out := fs.String("out", "", "snapshot file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *edges == "" || *out == "" {
		return fmt.Errorf("export needs -edges and -out")
	}

	edgePath, err := dataset.Resolve(ctx, *edges, *cache, logger)
	if err != nil {
		return fmt.Errorf("resolve edge list: %w", err)
	}
	metaPath := ""
	if *meta != "" {
		if metaPath, err = dataset.Resolve(ctx, *meta, *cache, logger); err != nil {
			return fmt.Errorf("resolve metadata: %w", err)
		}
	}

	src := dataset.NewFileSource(edgePath, metaPath, logger)
	edgeStream, err := src.Edges()
	if err != nil {
		return err
	}
	attrStream, err := src.Attrs()
	if err != nil {
		return err
	}

	g, stats, err := graph.NewBuilder(logger).Build(ctx, edgeStream, attrStream)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	logger.Info("graph built",
		"nodes", g.NumNodes(),
		"edges", g.NumEdges(),
		"duplicate_edges", stats.DuplicateEdges,
		"skipped_edges", stats.SkippedEdges)

	st, err := snapshot.WriteFile(*out, g)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	logger.Info("snapshot written",
		"path", *out,
		"frames", st.Frames,
		"bytes_uncompressed", st.BytesUncompressed,
		"bytes_compressed", st.BytesCompressed)
	return printJSON(st)
}

func runImport(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("graph-snapshot import", flag.ExitOnError)
	in := fs.String("in", "", "snapshot file to read")
	endpoint := fs.String("arango", "", "ArangoDB endpoint, e.g. http://localhost:8529")
	database := fs.String("db", arango.DefaultDatabase, "ArangoDB database")
	username := fs.String("user", "", "ArangoDB username")
	batchSize := fs.Int("batch", arango.DefaultBatchSize, "documents per write batch")
	workers := fs.Int("workers", arango.DefaultWorkers, "concurrent batch writers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *endpoint == "" {
		return fmt.Errorf("import needs -in and -arango")
	}

	g, err := snapshot.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	logger.Info("snapshot loaded", "path", *in, "nodes", g.NumNodes(), "edges", g.NumEdges())

	store, err := arango.Dial(ctx, arango.Config{
		Endpoint:  *endpoint,
		Database:  *database,
		Username:  *username,
		Password:  os.Getenv("COPURCHASE_ARANGO_PASSWORD"),
		BatchSize: *batchSize,
		Workers:   *workers,
	}, logger)
	if err != nil {
		return err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	sum, err := store.Persist(ctx, g)
	if sum != nil {
		if perr := printJSON(sum); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if len(sum.FailedBatches) > 0 {
		return fmt.Errorf("import incomplete: %d batches failed", len(sum.FailedBatches))
	}
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("graph-snapshot inspect", flag.ExitOnError)
	in := fs.String("in", "", "snapshot file to read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("inspect needs -in")
	}

	info, err := os.Stat(*in)
	if err != nil {
		return err
	}
	g, err := snapshot.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	return printJSON(map[string]interface{}{
		"path":      *in,
		"fileBytes": info.Size(),
		"numNodes":  g.NumNodes(),
		"numEdges":  g.NumEdges(),
	})
}
