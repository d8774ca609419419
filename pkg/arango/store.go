// Package arango persists co-purchase graphs to ArangoDB and loads them
// back. Nodes land in a vertex collection keyed by canonical product ID;
// edges land in an edge collection whose documents reference endpoints
// through `_from` and `_to`. All writes are idempotent upserts, so a
// re-persist of the same graph converges to the same documents.
package arango

import (
	"context"
	"fmt"
	"log/slog"

	driver "github.com/arangodb/go-driver"
	"github.com/arangodb/go-driver/http"

	"github.com/w2sg-arnav/arangodb/pkg/retry"
)

// Default schema and batching parameters
const (
	DefaultDatabase       = "copurchase"
	DefaultNodeCollection = "products"
	DefaultEdgeCollection = "copurchases"
	DefaultBatchSize      = 1000
	DefaultWorkers        = 4
)

// Config describes one store target.
type Config struct {
	Endpoint       string // e.g. http://localhost:8529
	Database       string
	Username       string
	Password       string
	NodeCollection string
	EdgeCollection string
	BatchSize      int // documents per write batch
	Workers        int // concurrent batch writers
	Retry          retry.Config
}

// withDefaults fills zero fields with package defaults.
func (c Config) withDefaults() Config {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.NodeCollection == "" {
		c.NodeCollection = DefaultNodeCollection
	}
	if c.EdgeCollection == "" {
		c.EdgeCollection = DefaultEdgeCollection
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = retry.DefaultConfig()
	}
	return c
}

// Store is a graph persistence adapter over one ArangoDB database. Create
// it with Dial, run EnsureSchema once, then Persist and Load at will. The
// store itself is driven sequentially; only Persist fans out internally.
type Store struct {
	cfg    Config
	client driver.Client
	logger *slog.Logger

	db    driver.Database
	nodes driver.Collection
	edges driver.Collection
	ready bool
}

// NewStore wraps an existing driver client. Dial is the usual entry point;
// NewStore serves callers that manage their own connection.
func NewStore(client driver.Client, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:    cfg.withDefaults(),
		client: client,
		logger: logger,
	}
}

// Dial connects to the configured endpoint and probes it until the retry
// budget runs out. Authentication rejections fail immediately; an exhausted
// budget surfaces as ErrConnect so callers can degrade to a source rebuild.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg = cfg.withDefaults()
	if cfg.Endpoint == "" {
		return nil, &StoreError{Op: "dial", Entity: "server", Cause: fmt.Errorf("no endpoint configured")}
	}

	conn, err := http.NewConnection(http.ConnectionConfig{
		Endpoints: []string{cfg.Endpoint},
	})
	if err != nil {
		return nil, connectError("dial", err)
	}

	clientCfg := driver.ClientConfig{Connection: conn}
	if cfg.Username != "" {
		clientCfg.Authentication = driver.BasicAuthentication(cfg.Username, cfg.Password)
	}
	client, err := driver.NewClient(clientCfg)
	if err != nil {
		return nil, connectError("dial", err)
	}

	store := NewStore(client, cfg, logger)

	version, err := retry.DoWithResult(ctx, cfg.Retry, func() (driver.VersionInfo, error) {
		info, verr := client.Version(ctx)
		if verr != nil && driver.IsUnauthorized(verr) {
			return info, retry.NonRetryable(verr)
		}
		return info, verr
	})
	if err != nil {
		return nil, connectError("dial", err)
	}

	store.logger.Info("connected to arangodb",
		"endpoint", cfg.Endpoint,
		"version", string(version.Version))
	return store, nil
}

// EnsureSchema creates the database and both collections when absent. It is
// idempotent: concurrent creation conflicts are treated as already-present.
// Any other backend fault comes back tagged ErrSchema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	db, err := s.ensureDatabase(ctx)
	if err != nil {
		return err
	}

	nodes, err := s.ensureCollection(ctx, db, s.cfg.NodeCollection, driver.CollectionTypeDocument)
	if err != nil {
		return err
	}
	edges, err := s.ensureCollection(ctx, db, s.cfg.EdgeCollection, driver.CollectionTypeEdge)
	if err != nil {
		return err
	}

	s.db = db
	s.nodes = nodes
	s.edges = edges
	s.ready = true

	s.logger.Debug("schema ready",
		"database", s.cfg.Database,
		"nodes", s.cfg.NodeCollection,
		"edges", s.cfg.EdgeCollection)
	return nil
}

func (s *Store) ensureDatabase(ctx context.Context) (driver.Database, error) {
	exists, err := s.client.DatabaseExists(ctx, s.cfg.Database)
	if err != nil {
		return nil, schemaError("database", s.cfg.Database, err)
	}
	if !exists {
		if _, err := s.client.CreateDatabase(ctx, s.cfg.Database, nil); err != nil && !driver.IsConflict(err) {
			return nil, schemaError("database", s.cfg.Database, err)
		}
	}

	db, err := s.client.Database(ctx, s.cfg.Database)
	if err != nil {
		return nil, schemaError("database", s.cfg.Database, err)
	}
	return db, nil
}

func (s *Store) ensureCollection(ctx context.Context, db driver.Database, name string, typ driver.CollectionType) (driver.Collection, error) {
	exists, err := db.CollectionExists(ctx, name)
	if err != nil {
		return nil, schemaError("collection", name, err)
	}
	if !exists {
		opts := &driver.CreateCollectionOptions{Type: typ}
		if _, err := db.CreateCollection(ctx, name, opts); err != nil && !driver.IsConflict(err) {
			return nil, schemaError("collection", name, err)
		}
	}

	col, err := db.Collection(ctx, name)
	if err != nil {
		return nil, schemaError("collection", name, err)
	}
	return col, nil
}

// Ready reports whether EnsureSchema has completed on this store.
func (s *Store) Ready() bool {
	return s.ready
}

// Ping probes the server with a version request.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.Version(ctx); err != nil {
		return connectError("ping", err)
	}
	return nil
}

// NodeCount returns the number of node documents. The store must be ready.
func (s *Store) NodeCount(ctx context.Context) (int64, error) {
	if !s.ready {
		return 0, &StoreError{Op: "count", Entity: "collection", Name: s.cfg.NodeCollection, Cause: ErrNotReady}
	}
	return s.nodes.Count(ctx)
}

// EdgeCount returns the number of edge documents. The store must be ready.
func (s *Store) EdgeCount(ctx context.Context) (int64, error) {
	if !s.ready {
		return 0, &StoreError{Op: "count", Entity: "collection", Name: s.cfg.EdgeCollection, Cause: ErrNotReady}
	}
	return s.edges.Count(ctx)
}
