package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/w2sg-arnav/arangodb/pkg/arango"
	"github.com/w2sg-arnav/arangodb/pkg/runlog"
)

// StoreCheck probes the graph store. A nil store means persistence is
// disabled, which is a degraded run, not a broken one.
func StoreCheck(store *arango.Store) CheckFunc {
	return func(ctx context.Context) Check {
		if store == nil {
			return Check{Status: StatusDegraded, Message: "persistence disabled"}
		}
		if err := store.Ping(ctx); err != nil {
			return Check{Status: StatusFailed, Message: err.Error()}
		}
		return Check{Status: StatusOK}
	}
}

// DatasetCheck verifies the dataset file exists and is readable.
func DatasetCheck(path string) CheckFunc {
	return func(ctx context.Context) Check {
		if path == "" {
			return Check{Status: StatusDegraded, Message: "no dataset configured"}
		}
		info, err := os.Stat(path)
		if err != nil {
			return Check{Status: StatusFailed, Message: err.Error()}
		}
		if info.IsDir() {
			return Check{Status: StatusFailed, Message: path + " is a directory"}
		}
		f, err := os.Open(path)
		if err != nil {
			return Check{Status: StatusFailed, Message: err.Error()}
		}
		_ = f.Close()
		return Check{Status: StatusOK, Message: fmt.Sprintf("%d bytes", info.Size())}
	}
}

// LedgerCheck probes the run ledger. Like the store, a missing ledger
// degrades rather than fails.
func LedgerCheck(ledger *runlog.Ledger) CheckFunc {
	return func(ctx context.Context) Check {
		if ledger == nil {
			return Check{Status: StatusDegraded, Message: "run ledger disabled"}
		}
		if err := ledger.Ping(ctx); err != nil {
			return Check{Status: StatusFailed, Message: err.Error()}
		}
		return Check{Status: StatusOK}
	}
}
