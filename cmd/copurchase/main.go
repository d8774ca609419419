// Command copurchase runs the co-purchase graph pipeline: load a persisted
// graph from ArangoDB or build one from a SNAP edge list (local or S3),
// analyze it, detect communities, optionally persist, and print the result
// bundle as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/w2sg-arnav/arangodb/pkg/analyze"
	"github.com/w2sg-arnav/arangodb/pkg/arango"
	"github.com/w2sg-arnav/arangodb/pkg/community"
	"github.com/w2sg-arnav/arangodb/pkg/dataset"
	"github.com/w2sg-arnav/arangodb/pkg/metrics"
	"github.com/w2sg-arnav/arangodb/pkg/pipeline"
	"github.com/w2sg-arnav/arangodb/pkg/preflight"
	"github.com/w2sg-arnav/arangodb/pkg/runlog"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, logger))
}

// loadConfig assembles the configuration: defaults, then the YAML file,
// then environment, then explicitly set flags.
func loadConfig(args []string) (Config, error) {
	fs := flag.NewFlagSet("copurchase", flag.ExitOnError)

	configPath := fs.String("config", "", "YAML config file")
	edges := fs.String("edges", "", "edge list: local path or s3:// URL, plain or .gz")
	meta := fs.String("meta", "", "product metadata: local path or s3:// URL")
	cache := fs.String("cache", "", "download cache directory")
	endpoint := fs.String("arango", "", "ArangoDB endpoint, e.g. http://localhost:8529")
	database := fs.String("db", "", "ArangoDB database")
	username := fs.String("user", "", "ArangoDB username")
	persist := fs.Bool("persist", false, "persist the graph after a fresh build")
	forcePersist := fs.Bool("force-persist", false, "persist even when the graph was loaded from the store")
	snapshotPath := fs.String("snapshot", "", "export freshly built graphs to this snapshot file")
	ledgerURL := fs.String("ledger", "", "Postgres URL for the run ledger")
	metricsListen := fs.String("metrics-listen", "", "serve Prometheus metrics on this address for the run's duration")
	logLevel := fs.String("log-level", "", "debug, info, warn, or error")
	output := fs.String("out", "", "result bundle destination, - for stdout")
	topK := fs.Int("top-k", 0, "ranked nodes to report")
	sampleCap := fs.Int("sample-cap", 0, "connectivity sample node cap")
	maxNodes := fs.Int("max-nodes", 0, "community detection node cap")
	seed := fs.Int64("seed", 0, "sampling seed for oversized graphs")
	resolution := fs.Float64("resolution", 0, "modularity resolution")
	components := fs.Bool("components", false, "use the connected-components detector")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadFile(&cfg, *configPath); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "edges":
			cfg.Dataset.Edges = *edges
		case "meta":
			cfg.Dataset.Meta = *meta
		case "cache":
			cfg.Dataset.Cache = *cache
		case "arango":
			cfg.Arango.Endpoint = *endpoint
		case "db":
			cfg.Arango.Database = *database
		case "user":
			cfg.Arango.Username = *username
		case "persist":
			cfg.Persist = *persist
		case "force-persist":
			cfg.ForcePersist = *forcePersist
		case "snapshot":
			cfg.SnapshotPath = *snapshotPath
		case "ledger":
			cfg.LedgerURL = *ledgerURL
		case "metrics-listen":
			cfg.MetricsListen = *metricsListen
		case "log-level":
			cfg.LogLevel = *logLevel
		case "out":
			cfg.Output = *output
		case "top-k":
			cfg.Analyze.TopK = *topK
		case "sample-cap":
			cfg.Analyze.SampleCap = *sampleCap
		case "max-nodes":
			cfg.Community.MaxNodes = *maxNodes
		case "seed":
			cfg.Community.Seed = *seed
		case "resolution":
			cfg.Community.Resolution = *resolution
		case "components":
			cfg.Community.ForceComponents = *components
		}
	})

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) int {
	reg := metrics.DefaultRegistry()
	if cfg.MetricsListen != "" {
		shutdown := serveMetrics(cfg.MetricsListen, reg, logger)
		defer shutdown()
	}

	checker := preflight.NewChecker()
	deps := pipeline.Deps{
		Preflight: checker,
		Metrics:   reg,
		Logger:    logger,
	}

	// ArangoDB store. A failed dial degrades the run to a source rebuild;
	// the preflight report carries the reason into the diagnostics.
	if cfg.Arango.Endpoint != "" {
		store, err := arango.Dial(ctx, arango.Config{
			Endpoint:       cfg.Arango.Endpoint,
			Database:       cfg.Arango.Database,
			Username:       cfg.Arango.Username,
			Password:       cfg.Arango.Password,
			NodeCollection: cfg.Arango.NodeCollection,
			EdgeCollection: cfg.Arango.EdgeCollection,
			BatchSize:      cfg.Arango.BatchSize,
			Workers:        cfg.Arango.Workers,
		}, logger)
		if err != nil {
			logger.Warn("arangodb unreachable, continuing without store", "error", err)
			dialErr := err
			checker.Register("arangodb", func(ctx context.Context) preflight.Check {
				return preflight.Check{Status: preflight.StatusFailed, Message: dialErr.Error()}
			})
		} else {
			deps.Store = store
			checker.Register("arangodb", preflight.StoreCheck(store))
		}
	} else {
		checker.Register("arangodb", preflight.StoreCheck(nil))
	}

	// Dataset source. S3 selectors resolve to the local cache first.
	datasetName := ""
	if cfg.Dataset.Edges != "" {
		edgePath, err := dataset.Resolve(ctx, cfg.Dataset.Edges, cfg.Dataset.Cache, logger)
		if err != nil {
			if deps.Store == nil {
				logger.Error("cannot resolve dataset and no store to load from", "error", err)
				return 1
			}
			logger.Warn("dataset unavailable, store load is the only path", "error", err)
			checker.Register("dataset", func(ctx context.Context) preflight.Check {
				return preflight.Check{Status: preflight.StatusFailed, Message: err.Error()}
			})
		} else {
			metaPath := ""
			if cfg.Dataset.Meta != "" {
				metaPath, err = dataset.Resolve(ctx, cfg.Dataset.Meta, cfg.Dataset.Cache, logger)
				if err != nil {
					logger.Warn("metadata unavailable, building without attributes", "error", err)
					metaPath = ""
				}
			}
			deps.Source = dataset.NewFileSource(edgePath, metaPath, logger)
			datasetName = deps.Source.Name()
			checker.Register("dataset", preflight.DatasetCheck(edgePath))
		}
	} else {
		checker.Register("dataset", preflight.DatasetCheck(""))
	}
	if datasetName == "" {
		datasetName = cfg.Arango.Database
	}

	// Run ledger, optional.
	if cfg.LedgerURL != "" {
		ledger, err := runlog.Open(ctx, cfg.LedgerURL, logger)
		if err != nil {
			logger.Warn("run ledger unavailable", "error", err)
			checker.Register("ledger", preflight.LedgerCheck(nil))
		} else {
			defer ledger.Close()
			deps.Recorder = ledger
			checker.Register("ledger", preflight.LedgerCheck(ledger))
		}
	}

	orch := pipeline.NewOrchestrator(pipeline.Config{
		Dataset:      datasetName,
		Persist:      cfg.Persist,
		ForcePersist: cfg.ForcePersist,
		SnapshotPath: cfg.SnapshotPath,
		Analyze: analyze.Options{
			TopK:      cfg.Analyze.TopK,
			SampleCap: cfg.Analyze.SampleCap,
		},
		Community: community.Options{
			MaxNodes:        cfg.Community.MaxNodes,
			Seed:            cfg.Community.Seed,
			Resolution:      cfg.Community.Resolution,
			ForceComponents: cfg.Community.ForceComponents,
		},
	}, deps)

	res, runErr := orch.Run(ctx)
	if res != nil && res.Bundle != nil {
		if err := writeBundle(cfg.Output, res); err != nil {
			logger.Error("failed to write result bundle", "error", err)
			return 1
		}
	}
	if runErr != nil {
		logger.Error("pipeline run failed", "error", runErr)
		return 1
	}
	return 0
}

// serveMetrics exposes the registry over HTTP while the pipeline runs.
func serveMetrics(addr string, reg *metrics.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		reg.GetPrometheusRegistry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func writeBundle(dest string, res *pipeline.RunResult) error {
	if dest == "" || dest == "-" {
		return res.Bundle.Encode(os.Stdout)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := res.Bundle.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
