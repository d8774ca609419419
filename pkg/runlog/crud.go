package runlog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Append stores one run entry.
func (l *Ledger) Append(ctx context.Context, entry *Entry) error {
	diagnosticsJSON, err := json.Marshal(entry.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostics: %w", err)
	}

	query := `
		INSERT INTO pipeline_runs (run_id, dataset, status, loaded_from_store, num_nodes, num_edges,
			num_communities, algorithm, nodes_written, edges_written, failed_batches,
			started_at, finished_at, diagnostics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = l.pool.Exec(ctx, query,
		entry.RunID,
		entry.Dataset,
		entry.Status,
		entry.LoadedFromStore,
		entry.NumNodes,
		entry.NumEdges,
		entry.NumCommunities,
		entry.Algorithm,
		entry.NodesWritten,
		entry.EdgesWritten,
		entry.FailedBatches,
		entry.StartedAt,
		entry.FinishedAt,
		diagnosticsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append run entry: %w", err)
	}

	l.logger.Debug("run recorded", "run_id", entry.RunID, "status", entry.Status)
	return nil
}

// Recent returns the most recent run entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, dataset, status, loaded_from_store, num_nodes, num_edges,
			num_communities, algorithm, nodes_written, edges_written, failed_batches,
			started_at, finished_at, diagnostics
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := l.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var diagnosticsJSON []byte

		err := rows.Scan(
			&entry.RunID,
			&entry.Dataset,
			&entry.Status,
			&entry.LoadedFromStore,
			&entry.NumNodes,
			&entry.NumEdges,
			&entry.NumCommunities,
			&entry.Algorithm,
			&entry.NodesWritten,
			&entry.EdgesWritten,
			&entry.FailedBatches,
			&entry.StartedAt,
			&entry.FinishedAt,
			&diagnosticsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run entry: %w", err)
		}

		if len(diagnosticsJSON) > 0 {
			if err := json.Unmarshal(diagnosticsJSON, &entry.Diagnostics); err != nil {
				return nil, fmt.Errorf("failed to unmarshal diagnostics: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
