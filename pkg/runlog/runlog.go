// Package runlog keeps a Postgres ledger of pipeline runs. The pipeline
// appends one row per run; operators query the table directly or through
// Recent. The ledger is optional: the pipeline runs fine without one.
package runlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one pipeline run's ledger row.
type Entry struct {
	RunID           string
	Dataset         string
	Status          string
	LoadedFromStore bool
	NumNodes        int
	NumEdges        int
	NumCommunities  int
	Algorithm       string
	NodesWritten    int
	EdgesWritten    int
	FailedBatches   int
	StartedAt       time.Time
	FinishedAt      time.Time
	Diagnostics     []string
}

// Ledger is a PostgreSQL-backed run history.
type Ledger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to the ledger database and ensures its schema.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Ledger, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// One appender and an occasional reader; a small pool is plenty.
	config.MaxConns = 4
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger database unreachable: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{pool: pool, logger: logger}

	if err := l.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger migration failed: %w", err)
	}
	return l, nil
}

// Ping checks database connectivity.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

// Close closes the connection pool.
func (l *Ledger) Close() error {
	l.pool.Close()
	return nil
}
