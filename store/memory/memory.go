// Package memory provides an in-memory claims store for tests and dev servers.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/coverage-engine/arbitration"
	"github.com/warp/coverage-engine/claims"
	"github.com/warp/coverage-engine/quota"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements claims.TxStore and arbitration.DisputeStore.
type Memory struct {
	mu    sync.RWMutex
	state *state
}

var (
	_ claims.TxStore           = (*Memory)(nil)
	_ arbitration.DisputeStore = (*Memory)(nil)
	_ arbitration.DisputeStore = view{}
)

func New() *Memory {
	return &Memory{state: newState()}
}

type state struct {
	policies map[claims.Hash]claims.Policy
	claims   map[claims.Hash]claims.Claim
	events   map[claims.Hash][]claims.Event
	payouts  map[claims.Hash][]claims.Payout
	quotas   map[quota.Account]quota.Quota
	usage    map[quota.Account][]quota.Usage
	disputes map[arbitration.DisputeID]arbitration.Dispute
	evidence map[arbitration.DisputeID][]arbitration.Evidence
}

func newState() *state {
	return &state{
		policies: make(map[claims.Hash]claims.Policy),
		claims:   make(map[claims.Hash]claims.Claim),
		events:   make(map[claims.Hash][]claims.Event),
		payouts:  make(map[claims.Hash][]claims.Payout),
		quotas:   make(map[quota.Account]quota.Quota),
		usage:    make(map[quota.Account][]quota.Usage),
		disputes: make(map[arbitration.DisputeID]arbitration.Dispute),
		evidence: make(map[arbitration.DisputeID][]arbitration.Evidence),
	}
}

// clone copies every map. Records are values, so a shallow copy of each
// slice is enough; event metadata is never mutated after append.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.policies {
		c.policies[k] = v
	}
	for k, v := range s.claims {
		c.claims[k] = v
	}
	for k, v := range s.events {
		c.events[k] = append([]claims.Event(nil), v...)
	}
	for k, v := range s.payouts {
		c.payouts[k] = append([]claims.Payout(nil), v...)
	}
	for k, v := range s.quotas {
		c.quotas[k] = v
	}
	for k, v := range s.usage {
		c.usage[k] = append([]quota.Usage(nil), v...)
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	for k, v := range s.evidence {
		c.evidence[k] = append([]arbitration.Evidence(nil), v...)
	}
	return c
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For the memory store this is a snapshot + rollback on error. Transactions
// are serialized.
func (m *Memory) WithTx(ctx context.Context, fn func(claims.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(view{s: m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *Memory) read() view {
	return view{s: m.state}
}

// =============================================================================
// LOCKED ACCESSORS
// =============================================================================

func (m *Memory) GetPolicy(ctx context.Context, hash claims.Hash) (*claims.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().GetPolicy(ctx, hash)
}

func (m *Memory) PutPolicy(ctx context.Context, p claims.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().PutPolicy(ctx, p)
}

func (m *Memory) GetClaim(ctx context.Context, hash claims.Hash) (*claims.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().GetClaim(ctx, hash)
}

func (m *Memory) PutClaim(ctx context.Context, c claims.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().PutClaim(ctx, c)
}

func (m *Memory) ClaimsByStatus(ctx context.Context, status claims.Status) ([]claims.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().ClaimsByStatus(ctx, status)
}

func (m *Memory) AppendEvent(ctx context.Context, e claims.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().AppendEvent(ctx, e)
}

func (m *Memory) Events(ctx context.Context, subject claims.Hash) ([]claims.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().Events(ctx, subject)
}

func (m *Memory) AppendPayout(ctx context.Context, p claims.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().AppendPayout(ctx, p)
}

func (m *Memory) Payouts(ctx context.Context, claim claims.Hash) ([]claims.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().Payouts(ctx, claim)
}

func (m *Memory) GetQuota(ctx context.Context, account quota.Account) (*quota.Quota, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().GetQuota(ctx, account)
}

func (m *Memory) PutQuota(ctx context.Context, q quota.Quota) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().PutQuota(ctx, q)
}

func (m *Memory) DeleteQuota(ctx context.Context, account quota.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().DeleteQuota(ctx, account)
}

func (m *Memory) UsageLog(ctx context.Context, account quota.Account) ([]quota.Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().UsageLog(ctx, account)
}

func (m *Memory) AppendUsage(ctx context.Context, account quota.Account, u quota.Usage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().AppendUsage(ctx, account, u)
}

func (m *Memory) EvictUsage(ctx context.Context, account quota.Account, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().EvictUsage(ctx, account, cutoff)
}

func (m *Memory) ClearUsage(ctx context.Context, account quota.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().ClearUsage(ctx, account)
}

func (m *Memory) GetDispute(ctx context.Context, id arbitration.DisputeID) (*arbitration.Dispute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().GetDispute(ctx, id)
}

func (m *Memory) PutDispute(ctx context.Context, d arbitration.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().PutDispute(ctx, d)
}

func (m *Memory) DisputeByClaim(ctx context.Context, claim claims.Hash) (*arbitration.Dispute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().DisputeByClaim(ctx, claim)
}

func (m *Memory) AppendEvidence(ctx context.Context, e arbitration.Evidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read().AppendEvidence(ctx, e)
}

func (m *Memory) Evidence(ctx context.Context, id arbitration.DisputeID) ([]arbitration.Evidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().Evidence(ctx, id)
}

// =============================================================================
// VIEW - Unlocked access; the caller holds the lock
// =============================================================================

type view struct {
	s *state
}

func (v view) GetPolicy(_ context.Context, hash claims.Hash) (*claims.Policy, error) {
	p, ok := v.s.policies[hash]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (v view) PutPolicy(_ context.Context, p claims.Policy) error {
	v.s.policies[p.Hash] = p
	return nil
}

func (v view) GetClaim(_ context.Context, hash claims.Hash) (*claims.Claim, error) {
	c, ok := v.s.claims[hash]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (v view) PutClaim(_ context.Context, c claims.Claim) error {
	v.s.claims[c.Hash] = c
	return nil
}

func (v view) ClaimsByStatus(_ context.Context, status claims.Status) ([]claims.Claim, error) {
	var out []claims.Claim
	for _, c := range v.s.claims {
		if c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdateTime.Equal(out[j].UpdateTime) {
			return out[i].Hash.String() < out[j].Hash.String()
		}
		return out[i].UpdateTime.Before(out[j].UpdateTime)
	})
	return out, nil
}

func (v view) AppendEvent(_ context.Context, e claims.Event) error {
	v.s.events[e.Subject] = append(v.s.events[e.Subject], e)
	return nil
}

func (v view) Events(_ context.Context, subject claims.Hash) ([]claims.Event, error) {
	return append([]claims.Event(nil), v.s.events[subject]...), nil
}

func (v view) AppendPayout(_ context.Context, p claims.Payout) error {
	v.s.payouts[p.ClaimHash] = append(v.s.payouts[p.ClaimHash], p)
	return nil
}

func (v view) Payouts(_ context.Context, claim claims.Hash) ([]claims.Payout, error) {
	return append([]claims.Payout(nil), v.s.payouts[claim]...), nil
}

func (v view) GetQuota(_ context.Context, account quota.Account) (*quota.Quota, error) {
	q, ok := v.s.quotas[account]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (v view) PutQuota(_ context.Context, q quota.Quota) error {
	v.s.quotas[q.Account] = q
	return nil
}

func (v view) DeleteQuota(_ context.Context, account quota.Account) error {
	delete(v.s.quotas, account)
	return nil
}

func (v view) UsageLog(_ context.Context, account quota.Account) ([]quota.Usage, error) {
	return append([]quota.Usage(nil), v.s.usage[account]...), nil
}

func (v view) AppendUsage(_ context.Context, account quota.Account, u quota.Usage) error {
	v.s.usage[account] = append(v.s.usage[account], u)
	return nil
}

func (v view) EvictUsage(_ context.Context, account quota.Account, cutoff time.Time) error {
	log := v.s.usage[account]
	i := 0
	for i < len(log) && !log[i].At.After(cutoff) {
		i++
	}
	if i == len(log) {
		delete(v.s.usage, account)
		return nil
	}
	v.s.usage[account] = log[i:]
	return nil
}

func (v view) ClearUsage(_ context.Context, account quota.Account) error {
	delete(v.s.usage, account)
	return nil
}

func (v view) GetDispute(_ context.Context, id arbitration.DisputeID) (*arbitration.Dispute, error) {
	d, ok := v.s.disputes[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (v view) PutDispute(_ context.Context, d arbitration.Dispute) error {
	v.s.disputes[d.ID] = d
	return nil
}

func (v view) DisputeByClaim(_ context.Context, claim claims.Hash) (*arbitration.Dispute, error) {
	var found *arbitration.Dispute
	for _, d := range v.s.disputes {
		if d.ClaimHash != claim {
			continue
		}
		if found == nil || d.ID > found.ID {
			d := d
			found = &d
		}
	}
	return found, nil
}

func (v view) AppendEvidence(_ context.Context, e arbitration.Evidence) error {
	v.s.evidence[e.DisputeID] = append(v.s.evidence[e.DisputeID], e)
	return nil
}

func (v view) Evidence(_ context.Context, id arbitration.DisputeID) ([]arbitration.Evidence, error) {
	return append([]arbitration.Evidence(nil), v.s.evidence[id]...), nil
}
