/*
Package quota provides the sliding-window quota enforcer.

PURPOSE:
  Caps how much value an account may consume within a rolling time window.
  The claims engine keys accounts by the arbitrator identity that authorized
  a payout, but this package has NO knowledge of claims, policies or payouts.

KEY CONCEPTS:
  - Quota: {period, cap} configured per account
  - Usage log: ordered (timestamp, amount) entries, oldest first
  - Window: entries with timestamp > now - period still count

SLIDING, NOT BUCKETED:
  There is no reset event. Usage recorded at t0 under a 7-day window counts
  at t0+7d-1ns and silently stops counting at t0+7d.

UNMETERED ACCOUNTS:
  An account without a quota accepts any usage and never retains it.
  Queries always report zero for it.

SEE ALSO:
  - enforcer.go: RecordUsage / Usage algorithms
  - store.go: persistence contract (FIFO usage log)
*/
package quota

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account identifies whose usage is being metered.
type Account string

// Quota is the window configuration for one account.
type Quota struct {
	Account Account
	Period  time.Duration
	Cap     decimal.Decimal
}

// Usage is a single usage-log entry.
type Usage struct {
	At     time.Time
	Amount decimal.Decimal
}

// windowStart returns the exclusive lower bound of the window ending at now.
// Entries at or before it no longer count.
func (q Quota) windowStart(now time.Time) time.Time {
	return now.Add(-q.Period)
}

// Sum totals the amounts of the given entries.
func Sum(entries []Usage) decimal.Decimal {
	total := decimal.Zero
	for _, u := range entries {
		total = total.Add(u.Amount)
	}
	return total
}
