package claims_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/coverage-engine/arbitration"
	"github.com/warp/coverage-engine/claims"
	"github.com/warp/coverage-engine/oracle"
	"github.com/warp/coverage-engine/pool"
	"github.com/warp/coverage-engine/store/memory"
)

// =============================================================================
// HAPPY PATHS
// =============================================================================

func TestSettlementAccepted_PaysConvertedSettlement(t *testing.T) {
	// GIVEN: $50,000 policy, $25,000 claim
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")
	assert.Equal(t, claims.StatusClaimCreated, c.Status)

	// WHEN: mediator proposes $12,500 and the claimant accepts at $2/unit
	f.clock.Advance(time.Hour)
	c, err := f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("12500"))
	require.NoError(t, err)
	assert.Equal(t, claims.StatusSettlementProposed, c.Status)

	f.clock.Advance(time.Hour)
	c, payout, err := f.manager.AcceptSettlement(f.ctx, holder, c.Hash, d("6250"))
	require.NoError(t, err)

	// THEN: 6,250 units paid, coverage $37,500
	assert.Equal(t, claims.StatusSettlementAccepted, c.Status)
	assert.True(t, payout.Asset.Equal(d("6250")), "asset %s", payout.Asset)
	assert.True(t, payout.USD.Equal(d("12500")))
	assert.Equal(t, claims.DefaultSelfQuotaKey, payout.Authorizer)
	assert.True(t, f.coverage(p.Hash).Equal(d("37500")))
	assert.True(t, f.pool.Balance(holder).Equal(d("6250")))

	events, err := f.manager.Events(f.ctx, c.Hash)
	require.NoError(t, err)
	var kinds []claims.EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []claims.EventKind{
		claims.EventClaimCreated,
		claims.EventSettlementProposed,
		claims.EventSettlementAccepted,
	}, kinds)
}

func TestAcceptClaim_PaysFullAmount(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "1000", "ipfs://evidence")

	f.clock.Advance(time.Minute)
	c, payout, err := f.manager.AcceptClaim(f.ctx, holder, c.Hash, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, claims.StatusClaimAccepted, c.Status)
	assert.True(t, payout.Asset.Equal(d("500")))
	assert.True(t, f.coverage(p.Hash).Equal(d("49000")))

	payouts, err := f.manager.Payouts(f.ctx, c.Hash)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, payout.ID, payouts[0].ID)
}

func TestPassiveArbitrator_PayClaimChargesArbitratorQuota(t *testing.T) {
	// GIVEN: a metered passive arbitrator and a claim the mediator ignored
	f := newFixture(t)
	require.NoError(t, f.manager.SetQuota(f.ctx, admin, passive, 7*24*time.Hour, d("1000000")))
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")

	// WHEN: the claimant escalates at the close of the mediator window
	f.clock.now = c.UpdateTime.Add(periods.Mediator)
	receipt, err := f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	require.NoError(t, err)
	assert.Equal(t, passive, receipt.Arbitrator)

	c = f.reload(c.Hash)
	assert.Equal(t, claims.StatusDisputeCreated, c.Status)
	assert.Equal(t, passive, c.Arbitrator)

	// AND: the operator decides PayClaim
	f.clock.Advance(24 * time.Hour)
	c, err = f.passive.Decide(f.ctx, operator, c.Hash, claims.DecisionPayClaim)
	require.NoError(t, err)

	// THEN: full $25,000 paid as 12,500 units, charged to the arbitrator
	assert.Equal(t, claims.StatusDisputeResolvedWithClaimPayout, c.Status)
	assert.True(t, f.pool.Balance(holder).Equal(d("12500")))
	assert.True(t, f.coverage(p.Hash).Equal(d("25000")))

	used, err := f.manager.QuotaUsage(f.ctx, passive)
	require.NoError(t, err)
	assert.True(t, used.Equal(d("12500")), "used %s", used)

	payouts, err := f.manager.Payouts(f.ctx, c.Hash)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, passive, payouts[0].Authorizer)
}

func TestResolveDispute_PaySettlementUsesLatestProposal(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")

	f.clock.Advance(time.Hour)
	_, err := f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("10000"))
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	c, err = f.manager.ResolveDispute(f.ctx, admin, c.Hash, claims.DecisionPaySettlement)
	require.NoError(t, err)

	assert.Equal(t, claims.StatusDisputeResolvedWithSettlementPayout, c.Status)
	assert.True(t, f.pool.Balance(holder).Equal(d("5000")))
	assert.True(t, f.coverage(p.Hash).Equal(d("40000")))
}

func TestResolveDispute_DoNotPayMovesNoValue(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")

	f.clock.Advance(time.Hour)
	_, err := f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	c, err = f.passive.Decide(f.ctx, operator, c.Hash, claims.DecisionDoNotPay)
	require.NoError(t, err)

	assert.Equal(t, claims.StatusDisputeResolvedWithoutPayout, c.Status)
	assert.True(t, f.pool.Balance(holder).IsZero())
	assert.True(t, f.coverage(p.Hash).Equal(d("50000")))
	payouts, err := f.manager.Payouts(f.ctx, c.Hash)
	require.NoError(t, err)
	assert.Empty(t, payouts)
}

// =============================================================================
// WINDOWS
// =============================================================================

func TestCreateDispute_FromClaimCreatedBoundary(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	late := f.claim(p, "100", "ipfs://late")
	onTime := f.claim(p, "200", "ipfs://on-time")

	// One nanosecond past the mediator window fails
	f.clock.now = late.UpdateTime.Add(periods.Mediator).Add(time.Nanosecond)
	_, err := f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: late.Hash})
	assert.ErrorIs(t, err, claims.ErrTooLateToCreateDispute)
	assert.Equal(t, "too late to create dispute", claims.Reason(err))
	assert.True(t, claims.IsGuardViolation(err))
	assert.Equal(t, claims.StatusClaimCreated, f.reload(late.Hash).Status)

	// Exactly at the boundary succeeds
	f.clock.now = onTime.UpdateTime.Add(periods.Mediator)
	_, err = f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: onTime.Hash})
	require.NoError(t, err)
}

func TestCreateDispute_FromSettlementUsesClaimantWindow(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")

	// Proposal late in the mediator window restarts the clock
	f.clock.now = c.UpdateTime.Add(periods.Mediator)
	c, err := f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("100"))
	require.NoError(t, err)

	f.clock.now = c.UpdateTime.Add(periods.Claimant).Add(time.Nanosecond)
	_, err = f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	assert.ErrorIs(t, err, claims.ErrTooLateToCreateDispute)

	f.clock.now = c.UpdateTime.Add(periods.Claimant)
	_, err = f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	require.NoError(t, err)
}

func TestProposeSettlement_Guards(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")

	f.clock.Advance(time.Minute)
	_, err := f.manager.ProposeSettlement(f.ctx, stranger, c.Hash, d("1"))
	assert.ErrorIs(t, err, claims.ErrNotMediator)
	assert.True(t, claims.IsUnauthorized(err))

	_, err = f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, decimal.Zero)
	assert.ErrorIs(t, err, claims.ErrZeroSettlement)

	_, err = f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("25000.01"))
	assert.ErrorIs(t, err, claims.ErrSettlementExceedsClaim)

	f.clock.now = c.UpdateTime.Add(periods.Mediator).Add(time.Second)
	_, err = f.manager.ProposeSettlement(f.ctx, admin, c.Hash, d("1"))
	assert.ErrorIs(t, err, claims.ErrTooLateToProposeSettlement)
}

func TestReportDecision_AfterArbitratorWindowFails(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")

	f.clock.Advance(time.Hour)
	_, err := f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	require.NoError(t, err)
	c = f.reload(c.Hash)

	f.clock.now = c.UpdateTime.Add(periods.Arbitrator).Add(time.Second)
	_, err = f.passive.Decide(f.ctx, operator, c.Hash, claims.DecisionPayClaim)
	assert.ErrorIs(t, err, claims.ErrTooLateToResolveDispute)
	assert.Equal(t, claims.StatusDisputeCreated, f.reload(c.Hash).Status)

	stuck, err := f.manager.StuckDisputes(f.ctx)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, c.Hash, stuck[0].Hash)

	// Admin intervention is never time-limited
	c, err = f.manager.ResolveDispute(f.ctx, mediator, c.Hash, claims.DecisionPayClaim)
	require.NoError(t, err)
	assert.Equal(t, claims.StatusDisputeResolvedWithClaimPayout, c.Status)
}

// =============================================================================
// AUTHORIZATION
// =============================================================================

func TestAuthorization(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CreatePolicy(f.ctx, stranger, claims.PolicyParams{})
	assert.ErrorIs(t, err, claims.ErrNotPolicyAgent)

	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")
	f.clock.Advance(time.Minute)

	_, _, err = f.manager.AcceptClaim(f.ctx, stranger, c.Hash, decimal.Zero)
	assert.ErrorIs(t, err, claims.ErrNotClaimant)

	_, err = f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: stranger, ClaimHash: c.Hash})
	assert.ErrorIs(t, err, claims.ErrNotClaimant)

	_, err = f.manager.ResolveDispute(f.ctx, holder, c.Hash, claims.DecisionPayClaim)
	assert.ErrorIs(t, err, claims.ErrNotMediator)

	err = f.manager.SetQuota(f.ctx, mediator, passive, time.Hour, d("1"))
	assert.ErrorIs(t, err, claims.ErrNotAdmin)

	// An adapter without the arbitrator role cannot bind a dispute
	rogue := arbitration.NewPassiveArbitrator("rogue", operator, f.manager)
	_, err = rogue.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	assert.ErrorIs(t, err, claims.ErrNotArbitrator)

	_, err = f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.passive.Decide(f.ctx, stranger, c.Hash, claims.DecisionPayClaim)
	assert.ErrorIs(t, err, arbitration.ErrNotOperator)

	// Only the bound arbitrator may report
	f.roles.Grant(f.manager.RoleNames().Arbitrator, "rogue")
	_, err = rogue.Decide(f.ctx, operator, c.Hash, claims.DecisionPayClaim)
	assert.ErrorIs(t, err, claims.ErrNotBoundArbitrator)

	// Losing the role after binding blocks the report
	f.roles.Revoke(f.manager.RoleNames().Arbitrator, passive)
	_, err = f.passive.Decide(f.ctx, operator, c.Hash, claims.DecisionPayClaim)
	assert.ErrorIs(t, err, claims.ErrNotArbitrator)
	assert.Equal(t, claims.StatusDisputeCreated, f.reload(c.Hash).Status)
}

// =============================================================================
// RESOURCE FAILURES - Nothing applies
// =============================================================================

func TestQuotaExceeded_LeavesDisputeOpen(t *testing.T) {
	// GIVEN: arbitrator cap of 10,000 units per week
	f := newFixture(t)
	require.NoError(t, f.manager.SetQuota(f.ctx, admin, passive, 7*24*time.Hour, d("10000")))
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")

	f.clock.Advance(time.Hour)
	_, err := f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	require.NoError(t, err)

	// WHEN: a PayClaim ruling would pay 12,500 units
	f.clock.Advance(time.Hour)
	_, err = f.passive.Decide(f.ctx, operator, c.Hash, claims.DecisionPayClaim)

	// THEN: the transition fails whole
	require.Error(t, err)
	assert.ErrorIs(t, err, claims.ErrQuotaExceeded)
	assert.True(t, claims.IsResourceError(err))
	assert.Equal(t, claims.StatusDisputeCreated, f.reload(c.Hash).Status)
	assert.True(t, f.coverage(p.Hash).Equal(d("50000")))
	assert.True(t, f.pool.Balance(holder).IsZero())

	used, err := f.manager.QuotaUsage(f.ctx, passive)
	require.NoError(t, err)
	assert.True(t, used.IsZero())

	events, err := f.manager.Events(f.ctx, c.Hash)
	require.NoError(t, err)
	assert.Len(t, events, 2, "no resolution event survives the rollback")
}

func TestAcceptSettlement_SlippageGuard(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")
	f.clock.Advance(time.Minute)
	_, err := f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("12500"))
	require.NoError(t, err)

	// Price moved to $2.50: 12,500 USD is now 5,000 units
	f.feed.Set(d("2.5"), f.clock.now)
	f.clock.Advance(time.Minute)
	_, _, err = f.manager.AcceptSettlement(f.ctx, holder, c.Hash, d("6250"))

	var slippage *claims.SlippageError
	require.ErrorAs(t, err, &slippage)
	assert.True(t, slippage.Payout.Equal(d("5000")))
	assert.ErrorIs(t, err, claims.ErrPayoutBelowMinimum)
	assert.Equal(t, claims.StatusSettlementProposed, f.reload(c.Hash).Status)
	assert.True(t, f.coverage(p.Hash).Equal(d("50000")))
}

func TestAcceptClaim_ConversionFailure(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "25000", "ipfs://evidence")

	f.feed.Set(decimal.Zero, f.clock.now)
	f.clock.Advance(time.Minute)
	_, _, err := f.manager.AcceptClaim(f.ctx, holder, c.Hash, decimal.Zero)

	assert.ErrorIs(t, err, claims.ErrConversionFailed)
	assert.ErrorIs(t, err, oracle.ErrNonPositivePrice)
	assert.Equal(t, claims.StatusClaimCreated, f.reload(c.Hash).Status)
}

func TestPayout_ClipsToStakeAndCoverage(t *testing.T) {
	// GIVEN: only 100 units staked
	clock := &testClock{now: t0.Add(time.Hour)}
	f := newFixture(t)
	small := pool.NewStakingPool(d("100"))
	manager, err := claims.NewManager(claims.Options{
		Store:     memory.New(),
		Roles:     f.roles,
		Converter: oracle.NewConverter(oracle.Fixed{Value: d("2")}, 0),
		Pool:      small,
		Periods:   periods,
	})
	require.NoError(t, err)
	manager.WithClock(clock.Now)
	f.manager, f.clock, f.pool = manager, clock, small

	p := f.policy()
	first := f.claim(p, "40000", "ipfs://first")
	second := f.claim(p, "25000", "ipfs://second")

	// WHEN: the first claim is accepted
	f.clock.Advance(time.Minute)
	_, payout, err := f.manager.AcceptClaim(f.ctx, holder, first.Hash, decimal.Zero)
	require.NoError(t, err)

	// THEN: the asset amount is clipped to the stake
	assert.True(t, payout.Asset.Equal(d("100")))
	assert.True(t, payout.USD.Equal(d("40000")))
	assert.True(t, f.coverage(p.Hash).Equal(d("10000")))

	// AND: the second claim is clipped to the remaining coverage
	require.NoError(t, small.Deposit(d("100000")))
	f.clock.Advance(time.Minute)
	_, payout, err = f.manager.AcceptClaim(f.ctx, holder, second.Hash, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, payout.USD.Equal(d("10000")))
	assert.True(t, payout.Asset.Equal(d("5000")))
	assert.True(t, f.coverage(p.Hash).IsZero())
}

// =============================================================================
// STATE GUARDS
// =============================================================================

func TestTerminalStatusesRejectEverything(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "100", "ipfs://evidence")
	f.clock.Advance(time.Minute)
	_, _, err := f.manager.AcceptClaim(f.ctx, holder, c.Hash, decimal.Zero)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("1"))
	assert.ErrorIs(t, err, claims.ErrClaimNotCreated)
	_, _, err = f.manager.AcceptClaim(f.ctx, holder, c.Hash, decimal.Zero)
	assert.ErrorIs(t, err, claims.ErrClaimNotCreated)
	_, _, err = f.manager.AcceptSettlement(f.ctx, holder, c.Hash, decimal.Zero)
	assert.ErrorIs(t, err, claims.ErrSettlementNotProposed)
	_, err = f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	assert.ErrorIs(t, err, claims.ErrClaimNotDisputable)
	_, err = f.manager.ResolveDispute(f.ctx, admin, c.Hash, claims.DecisionDoNotPay)
	assert.ErrorIs(t, err, claims.ErrNotDisputed)

	assert.True(t, f.reload(c.Hash).Status.IsTerminal())
}

func TestCreatePolicy_Validation(t *testing.T) {
	f := newFixture(t)
	valid := claims.PolicyParams{
		Policyholder:       holder,
		CoverageAmount:     d("1"),
		ClaimsAllowedFrom:  t0,
		ClaimsAllowedUntil: t0.Add(time.Hour),
		PolicyDocumentRef:  "doc",
	}

	tests := []struct {
		name   string
		mutate func(*claims.PolicyParams)
		want   error
	}{
		{"zero policyholder", func(p *claims.PolicyParams) { p.Policyholder = "" }, claims.ErrZeroPolicyholder},
		{"zero coverage", func(p *claims.PolicyParams) { p.CoverageAmount = decimal.Zero }, claims.ErrZeroCoverage},
		{"empty window", func(p *claims.PolicyParams) { p.ClaimsAllowedUntil = t0 }, claims.ErrInvalidClaimPeriod},
		{"no document", func(p *claims.PolicyParams) { p.PolicyDocumentRef = "" }, claims.ErrEmptyPolicyDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			_, err := f.manager.CreatePolicy(f.ctx, agent, params)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.manager.CreatePolicy(f.ctx, agent, valid)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.manager.CreatePolicy(f.ctx, agent, valid)
	assert.ErrorIs(t, err, claims.ErrPolicyExists)
}

func TestCreateClaim_Guards(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	params := claims.ClaimParams{PolicyHash: p.Hash, Amount: d("100"), EvidenceRef: "ipfs://evidence"}

	_, err := f.manager.CreateClaim(f.ctx, holder, claims.ClaimParams{PolicyHash: claims.ZeroHash, Amount: d("1"), EvidenceRef: "x"})
	assert.ErrorIs(t, err, claims.ErrPolicyNotFound)
	assert.True(t, claims.IsNotFound(err))

	over := params
	over.Amount = d("50000.01")
	_, err = f.manager.CreateClaim(f.ctx, holder, over)
	assert.ErrorIs(t, err, claims.ErrClaimExceedsCoverage)

	noEvidence := params
	noEvidence.EvidenceRef = ""
	_, err = f.manager.CreateClaim(f.ctx, holder, noEvidence)
	assert.ErrorIs(t, err, claims.ErrEmptyEvidence)

	_, err = f.manager.CreateClaim(f.ctx, holder, params)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.manager.CreateClaim(f.ctx, holder, params)
	assert.ErrorIs(t, err, claims.ErrClaimExists)

	f.clock.now = p.ClaimsAllowedUntil
	edge := params
	edge.EvidenceRef = "ipfs://edge"
	_, err = f.manager.CreateClaim(f.ctx, holder, edge)
	require.NoError(t, err, "the last allowed instant is inclusive")

	f.clock.now = p.ClaimsAllowedUntil.Add(time.Second)
	late := params
	late.EvidenceRef = "ipfs://late"
	_, err = f.manager.CreateClaim(f.ctx, holder, late)
	assert.ErrorIs(t, err, claims.ErrClaimsNoLongerAllowed)

	f.clock.now = t0.Add(-time.Second)
	_, err = f.manager.CreateClaim(f.ctx, holder, late)
	assert.ErrorIs(t, err, claims.ErrClaimsNotYetAllowed)
}

func TestPaySettlementWithoutProposal(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "100", "ipfs://evidence")
	f.clock.Advance(time.Minute)
	_, err := f.passive.CreateDispute(f.ctx, claims.DisputeFiling{Caller: holder, ClaimHash: c.Hash})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.manager.ResolveDispute(f.ctx, admin, c.Hash, claims.DecisionPaySettlement)
	assert.ErrorIs(t, err, claims.ErrInvalidDecision)
	assert.Equal(t, claims.StatusDisputeCreated, f.reload(c.Hash).Status)
}

func TestSameInstantTransitionsAreRejected(t *testing.T) {
	f := newFixture(t)
	p := f.policy()
	c := f.claim(p, "100", "ipfs://evidence")

	_, err := f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("50"))
	assert.ErrorIs(t, err, claims.ErrStaleClock)
}

func TestArbitratorRegistry(t *testing.T) {
	f := newFixture(t)

	a, err := f.manager.Arbitrator(passive)
	require.NoError(t, err)
	assert.Equal(t, "passive", a.Kind())

	_, err = f.manager.Arbitrator("missing")
	assert.True(t, errors.Is(err, claims.ErrUnknownArbitrator))
	assert.Len(t, f.manager.Arbitrators(), 1)
}

func TestCreateDispute_RequiresRegisteredAdapter(t *testing.T) {
	// GIVEN: an address holding the arbitrator role with no adapter behind it
	f := newFixture(t)
	c := f.claim(f.policy(), "25000", "ipfs://evidence")
	f.roles.Grant(f.manager.RoleNames().Arbitrator, "unregistered")
	f.clock.Advance(time.Minute)

	// WHEN: a dispute is bound to it directly
	_, err := f.manager.CreateDispute(f.ctx, claims.DisputeRequest{
		Arbitrator: "unregistered",
		Caller:     holder,
		ClaimHash:  c.Hash,
	})

	// THEN: nothing binds
	assert.ErrorIs(t, err, claims.ErrUnknownArbitrator)
	assert.True(t, claims.IsUnauthorized(err))
	assert.Equal(t, claims.StatusClaimCreated, f.reload(c.Hash).Status)
}

func TestNewManager_RequiresCollaborators(t *testing.T) {
	_, err := claims.NewManager(claims.Options{})
	assert.Error(t, err)

	_, err = claims.NewManager(claims.Options{
		Store:     memory.New(),
		Roles:     newFixture(t).roles,
		Converter: oracle.NewConverter(oracle.Fixed{Value: d("1")}, 0),
		Pool:      pool.NewStakingPool(d("1")),
	})
	assert.Error(t, err, "zero response periods are rejected")
}

// =============================================================================
// SERIALIZED TRANSACTIONS - Guards use the time the lock was taken
// =============================================================================

type lockedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *lockedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *lockedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// holdStore keeps the store inside a transaction until release is closed.
func holdStore(f *fixture) (release func()) {
	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = f.store.WithTx(f.ctx, func(claims.Store) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	return func() { close(done) }
}

func TestProposeSettlement_WaitingPastDeadlineFails(t *testing.T) {
	// GIVEN: a claim one hour before its mediator deadline and a store busy
	// with another transaction
	f := newFixture(t)
	c := f.claim(f.policy(), "25000", "ipfs://evidence")
	deadline := c.UpdateTime.Add(periods.Mediator)
	clock := &lockedClock{now: deadline.Add(-time.Hour)}
	f.manager.WithClock(clock.Now)
	release := holdStore(f)

	// WHEN: the proposal waits on the store while the deadline passes
	result := make(chan error, 1)
	go func() {
		_, err := f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("10000"))
		result <- err
	}()
	clock.Set(deadline.Add(2 * time.Hour))
	release()

	// THEN: it is judged at the time it got the store
	err := <-result
	assert.ErrorIs(t, err, claims.ErrTooLateToProposeSettlement)
	assert.Equal(t, claims.StatusClaimCreated, f.reload(c.Hash).Status)
}

func TestProposeSettlement_StampedWithTimeAfterWait(t *testing.T) {
	// GIVEN: a busy store and a clock that moves while the proposal waits,
	// staying inside the window
	f := newFixture(t)
	c := f.claim(f.policy(), "25000", "ipfs://evidence")
	clock := &lockedClock{now: c.UpdateTime.Add(time.Minute)}
	f.manager.WithClock(clock.Now)
	release := holdStore(f)

	result := make(chan error, 1)
	go func() {
		_, err := f.manager.ProposeSettlement(f.ctx, mediator, c.Hash, d("10000"))
		result <- err
	}()
	later := c.UpdateTime.Add(time.Hour)
	clock.Set(later)
	release()

	// THEN: the transition carries the later time
	require.NoError(t, <-result)
	got := f.reload(c.Hash)
	assert.Equal(t, claims.StatusSettlementProposed, got.Status)
	assert.Equal(t, later, got.UpdateTime)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestProperty_CoverageNeverIncreasesOrGoesNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("accepted claims debit coverage monotonically", prop.ForAll(
		func(amounts []int) bool {
			f := newFixture(t)
			p := f.policy()
			previous := f.coverage(p.Hash)
			for i, amount := range amounts {
				c, err := f.manager.CreateClaim(f.ctx, holder, claims.ClaimParams{
					PolicyHash:  p.Hash,
					Amount:      decimal.NewFromInt(int64(amount)),
					EvidenceRef: "ipfs://" + decimal.NewFromInt(int64(i)).String(),
				})
				f.clock.Advance(time.Minute)
				if err != nil {
					// Claims above the remaining coverage are refused outright
					if !errors.Is(err, claims.ErrClaimExceedsCoverage) {
						return false
					}
					continue
				}
				if _, _, err := f.manager.AcceptClaim(f.ctx, holder, c.Hash, decimal.Zero); err != nil {
					return false
				}
				f.clock.Advance(time.Minute)
				current := f.coverage(p.Hash)
				if current.GreaterThan(previous) || current.IsNegative() {
					return false
				}
				previous = current
			}
			return true
		},
		gen.SliceOf(gen.IntRange(1, 20000)),
	))

	properties.TestingRun(t)
}
