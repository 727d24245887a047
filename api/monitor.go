/*
monitor.go - Stuck dispute monitor

PURPOSE:
  Periodically lists disputed claims whose arbitrator window has lapsed.
  Such claims can no longer be resolved by their arbitrator and stay locked
  until an admin or mediator calls ResolveDispute. The monitor only reports
  them; it never transitions state.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Checks once immediately on start
  - Logs each stuck claim once until it leaves the stuck set

USAGE:
  monitor := NewDisputeMonitor(manager, time.Minute, logger)
  go monitor.Run(ctx)   // returns when ctx is cancelled

SEE ALSO:
  - claims/manager.go: StuckDisputes, ResolveDispute
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/coverage-engine/claims"
)

// DisputeMonitor reports disputes stuck past their arbitrator deadline.
type DisputeMonitor struct {
	Manager       *claims.Manager
	CheckInterval time.Duration

	logger   *slog.Logger
	mu       sync.Mutex
	reported map[claims.Hash]bool
}

// NewDisputeMonitor creates a monitor. A non-positive interval defaults to
// one minute.
func NewDisputeMonitor(manager *claims.Manager, interval time.Duration, logger *slog.Logger) *DisputeMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DisputeMonitor{
		Manager:       manager,
		CheckInterval: interval,
		logger:        logger.With("component", "dispute_monitor"),
		reported:      make(map[claims.Hash]bool),
	}
}

// Run checks until ctx is cancelled.
func (m *DisputeMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.CheckInterval)
	defer ticker.Stop()

	m.logger.Info("started", "interval", m.CheckInterval)
	m.Check(ctx)
	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			m.logger.Info("stopped")
			return nil
		}
	}
}

// Check runs one pass and returns the claims newly found stuck.
func (m *DisputeMonitor) Check(ctx context.Context) []claims.Claim {
	stuck, err := m.Manager.StuckDisputes(ctx)
	if err != nil {
		m.logger.Error("failed to list stuck disputes", "error", err)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := make(map[claims.Hash]bool, len(stuck))
	var fresh []claims.Claim
	for _, c := range stuck {
		current[c.Hash] = true
		if m.reported[c.Hash] {
			continue
		}
		deadline, _ := m.Manager.Deadline(c)
		m.logger.Warn("dispute past arbitrator deadline; admin resolution required",
			"claim", c.Hash, "arbitrator", c.Arbitrator, "deadline", deadline)
		fresh = append(fresh, c)
	}
	m.reported = current
	return fresh
}
