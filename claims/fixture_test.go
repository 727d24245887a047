package claims_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/coverage-engine/access"
	"github.com/warp/coverage-engine/arbitration"
	"github.com/warp/coverage-engine/claims"
	"github.com/warp/coverage-engine/oracle"
	"github.com/warp/coverage-engine/pool"
	"github.com/warp/coverage-engine/store/memory"
)

const (
	admin    claims.Address = "admin"
	agent    claims.Address = "agent"
	mediator claims.Address = "mediator"
	holder   claims.Address = "holder"
	stranger claims.Address = "stranger"
	passive  claims.Address = "passive-arbitrator"
	operator claims.Address = "operator"
)

var (
	t0      = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	periods = claims.ResponsePeriods{
		Mediator:   72 * time.Hour,
		Claimant:   48 * time.Hour,
		Arbitrator: 30 * 24 * time.Hour,
	}
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	t       *testing.T
	ctx     context.Context
	clock   *testClock
	store   *memory.Memory
	roles   *access.Registry
	feed    *oracle.Feed
	pool    *pool.StakingPool
	manager *claims.Manager
	passive *arbitration.PassiveArbitrator
}

// newFixture wires a manager over the memory store with price $2/unit,
// 1,000,000 units staked and a passive arbitrator holding the arbitrator
// role. The clock starts one hour after t0.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{now: t0.Add(time.Hour)}

	roles := access.NewRegistry()
	names := claims.DefaultRoles()
	roles.Grant(names.Admin, admin)
	roles.Grant(names.PolicyAgent, agent)
	roles.Grant(names.Mediator, mediator)
	roles.Grant(names.Arbitrator, passive)

	feed := oracle.NewFeed(d("2"), t0)
	stake := pool.NewStakingPool(d("1000000"))
	store := memory.New()

	manager, err := claims.NewManager(claims.Options{
		Store:     store,
		Roles:     roles,
		Converter: oracle.NewConverter(feed, 0),
		Pool:      stake,
		Periods:   periods,
	})
	require.NoError(t, err)
	manager.WithClock(clock.Now)

	arb := arbitration.NewPassiveArbitrator(passive, operator, manager)
	manager.RegisterArbitrator(arb)

	return &fixture{
		t:       t,
		ctx:     context.Background(),
		clock:   clock,
		store:   store,
		roles:   roles,
		feed:    feed,
		pool:    stake,
		manager: manager,
		passive: arb,
	}
}

// policy creates a $50,000 policy for holder with claims allowed from t0
// for a year.
func (f *fixture) policy() claims.Policy {
	f.t.Helper()
	p, err := f.manager.CreatePolicy(f.ctx, agent, claims.PolicyParams{
		Policyholder:       holder,
		CoverageAmount:     d("50000"),
		ClaimsAllowedFrom:  t0,
		ClaimsAllowedUntil: t0.Add(365 * 24 * time.Hour),
		PolicyDocumentRef:  "ipfs://policy",
	})
	require.NoError(f.t, err)
	return p
}

// claim files a claim by holder, one minute after the last action.
func (f *fixture) claim(p claims.Policy, amount, evidence string) claims.Claim {
	f.t.Helper()
	f.clock.Advance(time.Minute)
	c, err := f.manager.CreateClaim(f.ctx, holder, claims.ClaimParams{
		PolicyHash:  p.Hash,
		Amount:      d(amount),
		EvidenceRef: evidence,
	})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) reload(hash claims.Hash) claims.Claim {
	f.t.Helper()
	c, err := f.manager.Claim(f.ctx, hash)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) coverage(hash claims.Hash) decimal.Decimal {
	f.t.Helper()
	p, err := f.manager.Policy(f.ctx, hash)
	require.NoError(f.t, err)
	return p.CoverageAmount
}
