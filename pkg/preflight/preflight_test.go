package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticCheck(status Status, msg string) CheckFunc {
	return func(context.Context) Check {
		return Check{Status: status, Message: msg}
	}
}

// TestChecker_WorstStatusWins verifies aggregation and registration order.
func TestChecker_WorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("store", staticCheck(StatusOK, ""))
	c.Register("dataset", staticCheck(StatusDegraded, "no dataset configured"))
	c.Register("ledger", staticCheck(StatusOK, ""))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	require.Len(t, report.Checks, 3)
	assert.Equal(t, []string{"store", "dataset", "ledger"},
		[]string{report.Checks[0].Name, report.Checks[1].Name, report.Checks[2].Name})

	c.Register("schema", staticCheck(StatusFailed, "forbidden"))
	report = c.Run(context.Background())
	assert.Equal(t, StatusFailed, report.Status)
}

// TestChecker_EmptyIsOK verifies a checker with no checks reports ok.
func TestChecker_EmptyIsOK(t *testing.T) {
	report := NewChecker().Run(context.Background())
	assert.Equal(t, StatusOK, report.Status)
	assert.Empty(t, report.Checks)
}

// TestReport_Diagnostics verifies the rendered diagnostic lines.
func TestReport_Diagnostics(t *testing.T) {
	c := NewChecker()
	c.Register("store", staticCheck(StatusOK, ""))
	c.Register("dataset", staticCheck(StatusFailed, "no such file"))

	lines := c.Run(context.Background()).Diagnostics()
	assert.Equal(t, []string{
		"preflight store: ok",
		"preflight dataset: failed (no such file)",
	}, lines)
}

// TestDatasetCheck covers present, missing, and unconfigured datasets.
func TestDatasetCheck(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "edges.txt")
	require.NoError(t, os.WriteFile(path, []byte("0\t1\n"), 0o644))
	check := DatasetCheck(path)(ctx)
	assert.Equal(t, StatusOK, check.Status)
	assert.Contains(t, check.Message, "bytes")

	check = DatasetCheck(filepath.Join(t.TempDir(), "missing.txt"))(ctx)
	assert.Equal(t, StatusFailed, check.Status)

	check = DatasetCheck("")(ctx)
	assert.Equal(t, StatusDegraded, check.Status)

	check = DatasetCheck(t.TempDir())(ctx)
	assert.Equal(t, StatusFailed, check.Status)
}

// TestStoreAndLedgerChecks_Disabled covers the nil collaborator paths.
func TestStoreAndLedgerChecks_Disabled(t *testing.T) {
	ctx := context.Background()

	check := StoreCheck(nil)(ctx)
	assert.Equal(t, StatusDegraded, check.Status)

	check = LedgerCheck(nil)(ctx)
	assert.Equal(t, StatusDegraded, check.Status)
}
