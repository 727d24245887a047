package claims

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/quota"
)

// =============================================================================
// MANAGER - Guarded claim lifecycle transitions
// =============================================================================

// ResponsePeriods bound each party's window to act, measured from the claim's
// last transition.
type ResponsePeriods struct {
	Mediator   time.Duration
	Claimant   time.Duration
	Arbitrator time.Duration
}

// Options configures a Manager.
type Options struct {
	Store     TxStore
	Roles     RoleChecker
	RoleNames Roles
	Converter Converter
	Pool      Pool
	Periods   ResponsePeriods

	// SelfQuotaKey is the quota account a claimant's own acceptance is
	// charged to. Left unmetered unless an admin sets a quota on it.
	SelfQuotaKey Address

	Logger *slog.Logger
}

// Manager owns policies and claims and is the only path value leaves the
// pool through.
type Manager struct {
	store     TxStore
	roles     RoleChecker
	names     Roles
	converter Converter
	pool      Pool
	periods   ResponsePeriods
	selfKey   Address
	clock     func() time.Time
	logger    *slog.Logger

	mu          sync.RWMutex
	arbitrators map[Address]Arbitrator
}

// DefaultSelfQuotaKey is used when Options.SelfQuotaKey is empty.
const DefaultSelfQuotaKey Address = "self"

// NewManager validates opts and builds a Manager.
func NewManager(opts Options) (*Manager, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("claims: store is required")
	case opts.Roles == nil:
		return nil, errors.New("claims: role checker is required")
	case opts.Converter == nil:
		return nil, errors.New("claims: converter is required")
	case opts.Pool == nil:
		return nil, errors.New("claims: pool is required")
	case opts.Periods.Mediator <= 0 || opts.Periods.Claimant <= 0 || opts.Periods.Arbitrator <= 0:
		return nil, errors.New("claims: response periods must be positive")
	}
	if opts.RoleNames == (Roles{}) {
		opts.RoleNames = DefaultRoles()
	}
	if opts.SelfQuotaKey.IsZero() {
		opts.SelfQuotaKey = DefaultSelfQuotaKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		store:       opts.Store,
		roles:       opts.Roles,
		names:       opts.RoleNames,
		converter:   opts.Converter,
		pool:        opts.Pool,
		periods:     opts.Periods,
		selfKey:     opts.SelfQuotaKey,
		clock:       time.Now,
		logger:      opts.Logger.With("component", "claims"),
		arbitrators: make(map[Address]Arbitrator),
	}, nil
}

// WithClock overrides the clock for deterministic testing.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// Now returns the manager's notion of current time.
func (m *Manager) Now() time.Time { return m.clock() }

// Periods returns the configured response periods.
func (m *Manager) Periods() ResponsePeriods { return m.periods }

// RoleNames returns the configured role identifiers.
func (m *Manager) RoleNames() Roles { return m.names }

// HasRole exposes the injected role check to adapters.
func (m *Manager) HasRole(ctx context.Context, role string, caller Address) bool {
	return m.roles.HasRole(ctx, role, caller)
}

// IsManagerOrMediator reports whether caller holds the admin or mediator role.
func (m *Manager) IsManagerOrMediator(ctx context.Context, caller Address) bool {
	return m.roles.HasRole(ctx, m.names.Admin, caller) || m.roles.HasRole(ctx, m.names.Mediator, caller)
}

// =============================================================================
// ARBITRATOR REGISTRY
// =============================================================================

// RegisterArbitrator makes an adapter addressable by its Address. Binding a
// dispute still requires the adapter to hold the arbitrator role.
func (m *Manager) RegisterArbitrator(a Arbitrator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arbitrators[a.Address()] = a
}

// Arbitrator returns the adapter registered under addr.
func (m *Manager) Arbitrator(addr Address) (Arbitrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.arbitrators[addr]
	if !ok {
		return nil, ErrUnknownArbitrator
	}
	return a, nil
}

// Arbitrators lists registered adapters ordered by address.
func (m *Manager) Arbitrators() []Arbitrator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Arbitrator, 0, len(m.arbitrators))
	for _, a := range m.arbitrators {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address() < out[j].Address() })
	return out
}

// =============================================================================
// POLICIES
// =============================================================================

// CreatePolicy records a new policy. Policy agents only.
func (m *Manager) CreatePolicy(ctx context.Context, caller Address, p PolicyParams) (Policy, error) {
	if !m.roles.HasRole(ctx, m.names.PolicyAgent, caller) {
		return Policy{}, m.rejected("create_policy", caller, ErrNotPolicyAgent)
	}
	switch {
	case p.Policyholder.IsZero():
		return Policy{}, ErrZeroPolicyholder
	case !p.CoverageAmount.IsPositive():
		return Policy{}, ErrZeroCoverage
	case !p.ClaimsAllowedUntil.After(p.ClaimsAllowedFrom):
		return Policy{}, ErrInvalidClaimPeriod
	case p.PolicyDocumentRef == "":
		return Policy{}, ErrEmptyPolicyDocument
	}

	policy := Policy{
		Hash:               PolicyHashOf(p.Policyholder, p.ClaimsAllowedFrom, p.PolicyDocumentRef),
		Policyholder:       p.Policyholder,
		CoverageAmount:     p.CoverageAmount,
		ClaimsAllowedFrom:  p.ClaimsAllowedFrom,
		ClaimsAllowedUntil: p.ClaimsAllowedUntil,
		PolicyDocumentRef:  p.PolicyDocumentRef,
		CreatedBy:          caller,
	}

	err := m.transact(ctx, func(tx Store, now time.Time) error {
		existing, err := tx.GetPolicy(ctx, policy.Hash)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrPolicyExists
		}
		policy.CreatedAt = now
		if err := tx.PutPolicy(ctx, policy); err != nil {
			return fmt.Errorf("failed to save policy: %w", err)
		}
		e := newEvent(EventPolicyCreated, policy.Hash, caller, StatusNone, now)
		e.Amount = policy.CoverageAmount
		return tx.AppendEvent(ctx, e)
	})
	if err != nil {
		return Policy{}, m.rejected("create_policy", caller, err)
	}
	m.logger.Info("policy created", "policy", policy.Hash, "actor", caller, "coverage", policy.CoverageAmount)
	return policy, nil
}

// Policy returns a policy by hash.
func (m *Manager) Policy(ctx context.Context, hash Hash) (Policy, error) {
	p, err := m.store.GetPolicy(ctx, hash)
	if err != nil {
		return Policy{}, err
	}
	if p == nil {
		return Policy{}, ErrPolicyNotFound
	}
	return *p, nil
}

// =============================================================================
// CLAIMS
// =============================================================================

// CreateClaim opens a claim on behalf of the caller, who becomes its claimant.
func (m *Manager) CreateClaim(ctx context.Context, caller Address, p ClaimParams) (Claim, error) {
	if caller.IsZero() {
		return Claim{}, ErrNotClaimant
	}
	if !p.Amount.IsPositive() {
		return Claim{}, ErrZeroClaimAmount
	}
	if p.EvidenceRef == "" {
		return Claim{}, ErrEmptyEvidence
	}

	claim := Claim{
		Hash:        ClaimHashOf(p.PolicyHash, caller, p.Amount, p.EvidenceRef),
		PolicyHash:  p.PolicyHash,
		Claimant:    caller,
		Amount:      p.Amount,
		EvidenceRef: p.EvidenceRef,
		Status:      StatusClaimCreated,
	}

	err := m.transact(ctx, func(tx Store, now time.Time) error {
		policy, err := tx.GetPolicy(ctx, p.PolicyHash)
		if err != nil {
			return err
		}
		if policy == nil {
			return ErrPolicyNotFound
		}
		if !policy.ClaimsAllowedAt(now) {
			if now.Before(policy.ClaimsAllowedFrom) {
				return ErrClaimsNotYetAllowed
			}
			return ErrClaimsNoLongerAllowed
		}
		if p.Amount.GreaterThan(policy.CoverageAmount) {
			return ErrClaimExceedsCoverage
		}
		existing, err := tx.GetClaim(ctx, claim.Hash)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status != StatusNone {
			return ErrClaimExists
		}

		claim.UpdateTime = now
		if err := tx.PutClaim(ctx, claim); err != nil {
			return fmt.Errorf("failed to save claim: %w", err)
		}
		e := newEvent(EventClaimCreated, claim.Hash, caller, claim.Status, now)
		e.Amount = claim.Amount
		e.Metadata = map[string]string{"policy": p.PolicyHash.String(), "evidence": p.EvidenceRef}
		return tx.AppendEvent(ctx, e)
	})
	if err != nil {
		return Claim{}, m.rejected("create_claim", caller, err)
	}
	m.transitioned(claim, caller)
	return claim, nil
}

// Claim returns a claim by hash.
func (m *Manager) Claim(ctx context.Context, hash Hash) (Claim, error) {
	c, err := m.store.GetClaim(ctx, hash)
	if err != nil {
		return Claim{}, err
	}
	if c == nil {
		return Claim{}, ErrClaimNotFound
	}
	return *c, nil
}

// Settlement returns the most recently proposed settlement for a claim.
func (m *Manager) Settlement(ctx context.Context, hash Hash) (decimal.Decimal, bool, error) {
	return latestSettlement(ctx, m.store, hash)
}

// Events returns the transition history of a policy or claim.
func (m *Manager) Events(ctx context.Context, subject Hash) ([]Event, error) {
	return m.store.Events(ctx, subject)
}

// Payouts returns the payouts executed for a claim.
func (m *Manager) Payouts(ctx context.Context, claim Hash) ([]Payout, error) {
	return m.store.Payouts(ctx, claim)
}

// Deadline returns when the window of the claim's current status closes.
// Terminal claims have no deadline.
func (m *Manager) Deadline(c Claim) (time.Time, bool) {
	switch c.Status {
	case StatusClaimCreated:
		return c.UpdateTime.Add(m.periods.Mediator), true
	case StatusSettlementProposed:
		return c.UpdateTime.Add(m.periods.Claimant), true
	case StatusDisputeCreated:
		return c.UpdateTime.Add(m.periods.Arbitrator), true
	}
	return time.Time{}, false
}

// =============================================================================
// NEGOTIATION
// =============================================================================

// ProposeSettlement offers a reduced payout. Mediators and admins only,
// while the mediator window is open.
func (m *Manager) ProposeSettlement(ctx context.Context, caller Address, hash Hash, amount decimal.Decimal) (Claim, error) {
	if !m.IsManagerOrMediator(ctx, caller) {
		return Claim{}, m.rejected("propose_settlement", caller, ErrNotMediator)
	}
	if !amount.IsPositive() {
		return Claim{}, ErrZeroSettlement
	}

	var claim Claim
	err := m.transact(ctx, func(tx Store, now time.Time) error {
		c, err := loadClaim(ctx, tx, hash)
		if err != nil {
			return err
		}
		if c.Status != StatusClaimCreated {
			return ErrClaimNotCreated
		}
		if now.After(c.UpdateTime.Add(m.periods.Mediator)) {
			return ErrTooLateToProposeSettlement
		}
		if amount.GreaterThan(c.Amount) {
			return ErrSettlementExceedsClaim
		}
		if err := advance(c, StatusSettlementProposed, now); err != nil {
			return err
		}
		if err := tx.PutClaim(ctx, *c); err != nil {
			return fmt.Errorf("failed to save claim: %w", err)
		}
		e := newEvent(EventSettlementProposed, c.Hash, caller, c.Status, now)
		e.Amount = amount
		claim = *c
		return tx.AppendEvent(ctx, e)
	})
	if err != nil {
		return Claim{}, m.rejected("propose_settlement", caller, err)
	}
	m.transitioned(claim, caller, "settlement", amount)
	return claim, nil
}

// AcceptClaim pays the full claim amount without negotiation. Claimant only,
// from ClaimCreated. The payout is charged to the self quota key.
func (m *Manager) AcceptClaim(ctx context.Context, caller Address, hash Hash, minPayout decimal.Decimal) (Claim, Payout, error) {
	return m.accept(ctx, "accept_claim", caller, hash, minPayout)
}

// AcceptSettlement pays the proposed settlement. Claimant only, from
// SettlementProposed.
func (m *Manager) AcceptSettlement(ctx context.Context, caller Address, hash Hash, minPayout decimal.Decimal) (Claim, Payout, error) {
	return m.accept(ctx, "accept_settlement", caller, hash, minPayout)
}

func (m *Manager) accept(ctx context.Context, op string, caller Address, hash Hash, minPayout decimal.Decimal) (Claim, Payout, error) {
	var (
		claim  Claim
		payout Payout
	)
	err := m.transact(ctx, func(tx Store, now time.Time) error {
		c, err := loadClaim(ctx, tx, hash)
		if err != nil {
			return err
		}
		if c.Claimant != caller {
			return ErrNotClaimant
		}

		var (
			usd  decimal.Decimal
			next Status
			kind EventKind
		)
		switch op {
		case "accept_claim":
			if c.Status != StatusClaimCreated {
				return ErrClaimNotCreated
			}
			usd, next, kind = c.Amount, StatusClaimAccepted, EventClaimAccepted
		default:
			if c.Status != StatusSettlementProposed {
				return ErrSettlementNotProposed
			}
			amount, ok, err := latestSettlement(ctx, tx, c.Hash)
			if err != nil {
				return err
			}
			if !ok {
				return ErrSettlementNotProposed
			}
			usd, next, kind = amount, StatusSettlementAccepted, EventSettlementAccepted
		}

		if err := advance(c, next, now); err != nil {
			return err
		}
		if err := tx.PutClaim(ctx, *c); err != nil {
			return fmt.Errorf("failed to save claim: %w", err)
		}
		e := newEvent(kind, c.Hash, caller, c.Status, now)
		e.Amount = usd
		if err := tx.AppendEvent(ctx, e); err != nil {
			return err
		}
		payout, err = m.payout(ctx, tx, *c, usd, m.selfKey, minPayout, now)
		claim = *c
		return err
	})
	if err != nil {
		return Claim{}, Payout{}, m.rejected(op, caller, err)
	}
	m.transitioned(claim, caller, "usd", payout.USD, "asset", payout.Asset)
	return claim, payout, nil
}

// =============================================================================
// DISPUTES
// =============================================================================

// CreateDispute binds a claim to the requesting arbitrator adapter.
//
// From ClaimCreated the claimant may escalate while the mediator window is
// open; from SettlementProposed while the claimant window is open. Each
// window runs from the transition that opened it; they do not stack.
//
// Only the adapter registered under req.Arbitrator may call this, from its
// own CreateDispute. The adapter's Open hook is what records its side of
// the dispute; a direct call skips it and leaves the adapter unable to
// report a decision.
func (m *Manager) CreateDispute(ctx context.Context, req DisputeRequest) (Claim, error) {
	if !m.roles.HasRole(ctx, m.names.Arbitrator, req.Arbitrator) {
		return Claim{}, m.rejected("create_dispute", req.Caller, ErrNotArbitrator)
	}
	if _, err := m.Arbitrator(req.Arbitrator); err != nil {
		return Claim{}, m.rejected("create_dispute", req.Caller, err)
	}

	var claim Claim
	err := m.transact(ctx, func(tx Store, now time.Time) error {
		c, err := loadClaim(ctx, tx, req.ClaimHash)
		if err != nil {
			return err
		}
		if c.Claimant != req.Caller {
			return ErrNotClaimant
		}

		var settlement *decimal.Decimal
		switch c.Status {
		case StatusClaimCreated:
			if now.After(c.UpdateTime.Add(m.periods.Mediator)) {
				return ErrTooLateToCreateDispute
			}
		case StatusSettlementProposed:
			if now.After(c.UpdateTime.Add(m.periods.Claimant)) {
				return ErrTooLateToCreateDispute
			}
			amount, ok, err := latestSettlement(ctx, tx, c.Hash)
			if err != nil {
				return err
			}
			if ok {
				settlement = &amount
			}
		default:
			return ErrClaimNotDisputable
		}

		if err := advance(c, StatusDisputeCreated, now); err != nil {
			return err
		}
		c.Arbitrator = req.Arbitrator
		if err := tx.PutClaim(ctx, *c); err != nil {
			return fmt.Errorf("failed to save claim: %w", err)
		}
		e := newEvent(EventDisputeCreated, c.Hash, req.Caller, c.Status, now)
		e.Metadata = map[string]string{"arbitrator": req.Arbitrator.String()}
		if err := tx.AppendEvent(ctx, e); err != nil {
			return err
		}
		claim = *c
		if req.Open != nil {
			return req.Open(ctx, tx, *c, settlement)
		}
		return nil
	})
	if err != nil {
		return Claim{}, m.rejected("create_dispute", req.Caller, err)
	}
	m.transitioned(claim, req.Caller, "arbitrator", req.Arbitrator)
	return claim, nil
}

// ReportDecision executes the bound arbitrator's outcome. It fails once the
// arbitrator window has lapsed or the adapter lost the arbitrator role; the
// claim then stays DisputeCreated until an admin resolves it.
func (m *Manager) ReportDecision(ctx context.Context, r DecisionReport) (Claim, error) {
	if !r.Decision.Valid() {
		return Claim{}, ErrInvalidDecision
	}

	var claim Claim
	err := m.transact(ctx, func(tx Store, now time.Time) error {
		c, err := loadClaim(ctx, tx, r.ClaimHash)
		if err != nil {
			return err
		}
		if c.Status != StatusDisputeCreated {
			return ErrNotDisputed
		}
		if c.Arbitrator != r.Arbitrator {
			return ErrNotBoundArbitrator
		}
		if !m.roles.HasRole(ctx, m.names.Arbitrator, r.Arbitrator) {
			return ErrNotArbitrator
		}
		if now.After(c.UpdateTime.Add(m.periods.Arbitrator)) {
			return ErrTooLateToResolveDispute
		}
		if err := m.resolve(ctx, tx, c, r.Decision, r.Arbitrator, now, r.Resolved); err != nil {
			return err
		}
		claim = *c
		return nil
	})
	if err != nil {
		return Claim{}, m.rejected("report_decision", r.Arbitrator, err)
	}
	m.transitioned(claim, r.Arbitrator, "decision", r.Decision)
	return claim, nil
}

// ResolveDispute is the manual override for disputed claims. Admins and
// mediators only; no deadline applies. The payout is charged to the caller.
func (m *Manager) ResolveDispute(ctx context.Context, caller Address, hash Hash, d Decision) (Claim, error) {
	if !m.IsManagerOrMediator(ctx, caller) {
		return Claim{}, m.rejected("resolve_dispute", caller, ErrNotMediator)
	}
	if !d.Valid() {
		return Claim{}, ErrInvalidDecision
	}

	var claim Claim
	err := m.transact(ctx, func(tx Store, now time.Time) error {
		c, err := loadClaim(ctx, tx, hash)
		if err != nil {
			return err
		}
		if c.Status != StatusDisputeCreated {
			return ErrNotDisputed
		}
		if err := m.resolve(ctx, tx, c, d, caller, now, nil); err != nil {
			return err
		}
		claim = *c
		return nil
	})
	if err != nil {
		return Claim{}, m.rejected("resolve_dispute", caller, err)
	}
	m.transitioned(claim, caller, "decision", d)
	return claim, nil
}

// resolve moves a disputed claim to the decision's terminal status and runs
// the payout path. c is updated in place.
func (m *Manager) resolve(ctx context.Context, tx Store, c *Claim, d Decision, authorizer Address, now time.Time, hook func(context.Context, Store) error) error {
	usd := decimal.Zero
	switch d {
	case DecisionPayClaim:
		usd = c.Amount
	case DecisionPaySettlement:
		amount, ok, err := latestSettlement(ctx, tx, c.Hash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidDecision
		}
		usd = amount
	}

	if err := advance(c, d.resolvedStatus(), now); err != nil {
		return err
	}
	if err := tx.PutClaim(ctx, *c); err != nil {
		return fmt.Errorf("failed to save claim: %w", err)
	}
	e := newEvent(EventDisputeResolved, c.Hash, authorizer, c.Status, now)
	e.Amount = usd
	e.Metadata = map[string]string{"decision": d.String()}
	if err := tx.AppendEvent(ctx, e); err != nil {
		return err
	}
	if hook != nil {
		if err := hook(ctx, tx); err != nil {
			return err
		}
	}
	if !usd.IsPositive() {
		return nil
	}
	_, err := m.payout(ctx, tx, *c, usd, authorizer, decimal.Zero, now)
	return err
}

// StuckDisputes lists disputed claims whose arbitrator window has lapsed.
// They stay locked until an admin resolves them.
func (m *Manager) StuckDisputes(ctx context.Context) ([]Claim, error) {
	disputed, err := m.store.ClaimsByStatus(ctx, StatusDisputeCreated)
	if err != nil {
		return nil, err
	}
	now := m.clock()
	var stuck []Claim
	for _, c := range disputed {
		if now.After(c.UpdateTime.Add(m.periods.Arbitrator)) {
			stuck = append(stuck, c)
		}
	}
	return stuck, nil
}

// =============================================================================
// QUOTAS
// =============================================================================

// SetQuota caps what account may authorize per rolling period. Admins only.
func (m *Manager) SetQuota(ctx context.Context, caller, account Address, period time.Duration, cap decimal.Decimal) error {
	if !m.roles.HasRole(ctx, m.names.Admin, caller) {
		return m.rejected("set_quota", caller, ErrNotAdmin)
	}
	err := m.transact(ctx, func(tx Store, now time.Time) error {
		enforcer := quota.NewEnforcer(tx).WithClock(func() time.Time { return now })
		if err := enforcer.SetQuota(ctx, quota.Account(account), period, cap); err != nil {
			return err
		}
		e := newEvent(EventQuotaSet, ZeroHash, caller, StatusNone, now)
		e.Amount = cap
		e.Metadata = map[string]string{"account": account.String(), "period": period.String()}
		return tx.AppendEvent(ctx, e)
	})
	if err != nil {
		return m.rejected("set_quota", caller, err)
	}
	m.logger.Info("quota set", "account", account, "period", period, "cap", cap, "actor", caller)
	return nil
}

// ResetQuota removes account's quota, leaving it unmetered. Admins only.
func (m *Manager) ResetQuota(ctx context.Context, caller, account Address) error {
	if !m.roles.HasRole(ctx, m.names.Admin, caller) {
		return m.rejected("reset_quota", caller, ErrNotAdmin)
	}
	err := m.transact(ctx, func(tx Store, now time.Time) error {
		if err := quota.NewEnforcer(tx).ResetQuota(ctx, quota.Account(account)); err != nil {
			return err
		}
		e := newEvent(EventQuotaReset, ZeroHash, caller, StatusNone, now)
		e.Metadata = map[string]string{"account": account.String()}
		return tx.AppendEvent(ctx, e)
	})
	if err != nil {
		return m.rejected("reset_quota", caller, err)
	}
	m.logger.Info("quota reset", "account", account, "actor", caller)
	return nil
}

// QuotaUsage reports account's usage inside its current window.
func (m *Manager) QuotaUsage(ctx context.Context, account Address) (decimal.Decimal, error) {
	return quota.NewEnforcer(m.store).WithClock(m.clock).Usage(ctx, quota.Account(account))
}

// Quota returns account's quota, or nil when unmetered.
func (m *Manager) Quota(ctx context.Context, account Address) (*quota.Quota, error) {
	return quota.NewEnforcer(m.store).Quota(ctx, quota.Account(account))
}

// =============================================================================
// HELPERS
// =============================================================================

// transact runs fn under the store's transaction lock. The clock is read
// once the lock is held, so guards and timestamps never predate a wait on
// another transaction.
func (m *Manager) transact(ctx context.Context, fn func(tx Store, now time.Time) error) error {
	return m.store.WithTx(ctx, func(tx Store) error {
		return fn(tx, m.clock())
	})
}

func (m *Manager) rejected(op string, actor Address, err error) error {
	m.logger.Debug("transition rejected", "op", op, "actor", actor, "reason", Reason(err))
	return err
}

func (m *Manager) transitioned(c Claim, actor Address, attrs ...any) {
	args := append([]any{"claim", c.Hash, "actor", actor, "status", c.Status}, attrs...)
	m.logger.Info("claim transition", args...)
}

func loadClaim(ctx context.Context, s Store, hash Hash) (*Claim, error) {
	c, err := s.GetClaim(ctx, hash)
	if err != nil {
		return nil, err
	}
	if c == nil || c.Status == StatusNone {
		return nil, ErrClaimNotFound
	}
	return c, nil
}

// advance moves c to next. updateTime must strictly increase.
func advance(c *Claim, next Status, now time.Time) error {
	if !now.After(c.UpdateTime) {
		return ErrStaleClock
	}
	c.Status = next
	c.UpdateTime = now
	return nil
}
