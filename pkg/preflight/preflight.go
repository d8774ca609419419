// Package preflight runs named readiness checks before a pipeline run:
// is the store reachable, is the dataset readable, is the ledger up. The
// report feeds the run's diagnostics; a failed check does not by itself
// stop the pipeline, that policy belongs to the orchestrator.
package preflight

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status grades one check or a whole report.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Check is one named probe's outcome.
type Check struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ms"`
}

// CheckFunc performs one probe. It fills Name, Status, and Message; the
// checker stamps the duration.
type CheckFunc func(ctx context.Context) Check

// Checker runs registered checks in registration order.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
	order  []string
}

// Report is the aggregate outcome; worst status wins.
type Report struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register adds a check under a name. Re-registering a name replaces the
// check but keeps its original position.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.checks[name]; !exists {
		c.order = append(c.order, name)
	}
	c.checks[name] = check
}

// Run executes every check and aggregates the report.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report := Report{
		Status:    StatusOK,
		Timestamp: time.Now(),
	}

	for _, name := range c.order {
		start := time.Now()
		check := c.checks[name](ctx)
		check.Name = name
		check.Duration = time.Since(start)
		report.Checks = append(report.Checks, check)

		if check.Status == StatusFailed {
			report.Status = StatusFailed
		} else if check.Status == StatusDegraded && report.Status != StatusFailed {
			report.Status = StatusDegraded
		}
	}
	return report
}

// Diagnostics renders the report as diagnostic lines for the result bundle.
func (r Report) Diagnostics() []string {
	lines := make([]string, 0, len(r.Checks))
	for _, check := range r.Checks {
		line := fmt.Sprintf("preflight %s: %s", check.Name, check.Status)
		if check.Message != "" {
			line += " (" + check.Message + ")"
		}
		lines = append(lines, line)
	}
	return lines
}
