package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENFORCER - Sliding-window usage accounting
// =============================================================================

// Enforcer applies quotas on top of a Store. It holds no state of its own, so
// callers running inside a store transaction build one over the tx view.
type Enforcer struct {
	store Store
	clock func() time.Time
}

// NewEnforcer creates an enforcer over store using the wall clock.
func NewEnforcer(store Store) *Enforcer {
	return &Enforcer{store: store, clock: time.Now}
}

// WithClock overrides the clock for deterministic testing and for callers
// that carry their own notion of "now".
func (e *Enforcer) WithClock(clock func() time.Time) *Enforcer {
	e.clock = clock
	return e
}

// SetQuota configures a quota, overwriting any existing one and clearing the
// account's usage log.
func (e *Enforcer) SetQuota(ctx context.Context, account Account, period time.Duration, cap decimal.Decimal) error {
	if account == "" {
		return ErrZeroAccount
	}
	if period <= 0 {
		return ErrInvalidPeriod
	}
	if !cap.IsPositive() {
		return ErrInvalidCap
	}
	if err := e.store.PutQuota(ctx, Quota{Account: account, Period: period, Cap: cap}); err != nil {
		return fmt.Errorf("failed to save quota: %w", err)
	}
	if err := e.store.ClearUsage(ctx, account); err != nil {
		return fmt.Errorf("failed to clear usage: %w", err)
	}
	return nil
}

// ResetQuota removes the quota and the usage log. Idempotent.
func (e *Enforcer) ResetQuota(ctx context.Context, account Account) error {
	if err := e.store.DeleteQuota(ctx, account); err != nil {
		return fmt.Errorf("failed to delete quota: %w", err)
	}
	if err := e.store.ClearUsage(ctx, account); err != nil {
		return fmt.Errorf("failed to clear usage: %w", err)
	}
	return nil
}

// Quota returns the account's configuration, or nil when unmetered.
func (e *Enforcer) Quota(ctx context.Context, account Account) (*Quota, error) {
	return e.store.GetQuota(ctx, account)
}

// RecordUsage charges amount against the account's window.
//
// Unmetered accounts accept anything and persist nothing. Metered accounts
// first evict expired entries, then reject if the window would exceed the
// cap. A rejected amount is never appended.
func (e *Enforcer) RecordUsage(ctx context.Context, account Account, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	q, err := e.store.GetQuota(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to load quota: %w", err)
	}
	if q == nil {
		return nil
	}

	now := e.clock()
	if err := e.store.EvictUsage(ctx, account, q.windowStart(now)); err != nil {
		return fmt.Errorf("failed to evict usage: %w", err)
	}
	entries, err := e.store.UsageLog(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to load usage: %w", err)
	}

	used := Sum(entries)
	if used.Add(amount).GreaterThan(q.Cap) {
		return &ExceededError{Account: account, Cap: q.Cap, Used: used, Requested: amount}
	}
	if amount.IsZero() {
		return nil
	}
	if err := e.store.AppendUsage(ctx, account, Usage{At: now, Amount: amount}); err != nil {
		return fmt.Errorf("failed to append usage: %w", err)
	}
	return nil
}

// Usage reports what the account has consumed inside the current window.
// It never mutates the store.
func (e *Enforcer) Usage(ctx context.Context, account Account) (decimal.Decimal, error) {
	q, err := e.store.GetQuota(ctx, account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load quota: %w", err)
	}
	if q == nil {
		return decimal.Zero, nil
	}
	entries, err := e.store.UsageLog(ctx, account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load usage: %w", err)
	}
	start := q.windowStart(e.clock())
	total := decimal.Zero
	for _, u := range entries {
		if u.At.After(start) {
			total = total.Add(u.Amount)
		}
	}
	return total, nil
}

// Remaining reports how much more the account may consume right now.
// Unmetered accounts report ok=false.
func (e *Enforcer) Remaining(ctx context.Context, account Account) (remaining decimal.Decimal, ok bool, err error) {
	q, err := e.store.GetQuota(ctx, account)
	if err != nil || q == nil {
		return decimal.Zero, false, err
	}
	used, err := e.Usage(ctx, account)
	if err != nil {
		return decimal.Zero, false, err
	}
	return decimal.Max(q.Cap.Sub(used), decimal.Zero), true, nil
}
