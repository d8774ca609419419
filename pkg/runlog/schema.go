package runlog

import "context"

// migrate creates the ledger table when absent.
func (l *Ledger) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		run_id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		status TEXT NOT NULL,
		loaded_from_store BOOLEAN NOT NULL,
		num_nodes BIGINT NOT NULL,
		num_edges BIGINT NOT NULL,
		num_communities BIGINT NOT NULL,
		algorithm TEXT,
		nodes_written BIGINT NOT NULL DEFAULT 0,
		edges_written BIGINT NOT NULL DEFAULT 0,
		failed_batches BIGINT NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		diagnostics JSONB
	);

	CREATE INDEX IF NOT EXISTS idx_pipeline_runs_started_at ON pipeline_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_pipeline_runs_status ON pipeline_runs(status);
	`

	_, err := l.pool.Exec(ctx, schema)
	return err
}
