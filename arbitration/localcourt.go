package arbitration

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/claims"
)

// =============================================================================
// LOCAL COURT - In-process court for dev servers and tests
// =============================================================================

// LocalCourt implements Court in memory. Costs are fixed, ids are sequential
// from 1, and the current ruling is whatever SetRuling last said.
type LocalCourt struct {
	mu              sync.Mutex
	address         claims.Address
	arbitrationCost decimal.Decimal
	appealCost      decimal.Decimal
	nextID          DisputeID
	cases           map[DisputeID]*courtCase
}

type courtCase struct {
	choices int
	ruling  Ruling
	fees    decimal.Decimal
	appeals int
}

// NewLocalCourt builds a court calling back as address.
func NewLocalCourt(address claims.Address, arbitrationCost, appealCost decimal.Decimal) *LocalCourt {
	return &LocalCourt{
		address:         address,
		arbitrationCost: arbitrationCost,
		appealCost:      appealCost,
		nextID:          1,
		cases:           make(map[DisputeID]*courtCase),
	}
}

func (c *LocalCourt) Address() claims.Address { return c.address }

func (c *LocalCourt) ArbitrationCost(context.Context, []byte) (decimal.Decimal, error) {
	return c.arbitrationCost, nil
}

func (c *LocalCourt) AppealCost(_ context.Context, id DisputeID, _ []byte) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cases[id]; !ok {
		return decimal.Zero, fmt.Errorf("court: unknown dispute %d", id)
	}
	return c.appealCost, nil
}

func (c *LocalCourt) CreateDispute(_ context.Context, choices int, _ []byte, fee decimal.Decimal) (DisputeID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fee.LessThan(c.arbitrationCost) {
		return 0, fmt.Errorf("court: fee %s below cost %s", fee, c.arbitrationCost)
	}
	id := c.nextID
	c.nextID++
	c.cases[id] = &courtCase{choices: choices, fees: fee}
	return id, nil
}

func (c *LocalCourt) Appeal(_ context.Context, id DisputeID, _ []byte, fee decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cc, ok := c.cases[id]
	if !ok {
		return fmt.Errorf("court: unknown dispute %d", id)
	}
	if fee.LessThan(c.appealCost) {
		return fmt.Errorf("court: fee %s below appeal cost %s", fee, c.appealCost)
	}
	cc.appeals++
	cc.fees = cc.fees.Add(fee)
	return nil
}

func (c *LocalCourt) CurrentRuling(_ context.Context, id DisputeID) (Ruling, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cc, ok := c.cases[id]
	if !ok {
		return 0, fmt.Errorf("court: unknown dispute %d", id)
	}
	return cc.ruling, nil
}

// SetRuling stands in for the jury's vote.
func (c *LocalCourt) SetRuling(id DisputeID, r Ruling) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cc, ok := c.cases[id]
	if !ok {
		return fmt.Errorf("court: unknown dispute %d", id)
	}
	if r < RulingRefused || int(r) > cc.choices {
		return fmt.Errorf("court: ruling %d out of range for %d choices", r, cc.choices)
	}
	cc.ruling = r
	return nil
}

// Fees returns the total value paid into dispute id.
func (c *LocalCourt) Fees(id DisputeID) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cc, ok := c.cases[id]; ok {
		return cc.fees
	}
	return decimal.Zero
}

// Advance notifies proxy that dispute id entered period.
func (c *LocalCourt) Advance(ctx context.Context, proxy *CourtProxy, id DisputeID, period Period) error {
	return proxy.NotifyPeriod(ctx, c.address, id, period)
}

// Execute walks dispute id to the execution period and delivers the
// current ruling.
func (c *LocalCourt) Execute(ctx context.Context, proxy *CourtProxy, id DisputeID) (claims.Claim, error) {
	d, err := proxy.Dispute(ctx, id)
	if err != nil {
		return claims.Claim{}, err
	}
	for p := d.Period + 1; p <= PeriodExecution; p++ {
		if err := proxy.NotifyPeriod(ctx, c.address, id, p); err != nil {
			return claims.Claim{}, err
		}
	}
	ruling, err := c.CurrentRuling(ctx, id)
	if err != nil {
		return claims.Claim{}, err
	}
	return proxy.Rule(ctx, c.address, id, ruling)
}
