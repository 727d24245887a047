// Package pool provides an in-process staking pool payouts are drawn from.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/claims"
)

var (
	ErrInsufficientStake = errors.New("pool: insufficient stake")
	ErrInvalidAmount     = errors.New("pool: amount must be positive")
)

// Transfer is one movement out of the pool.
type Transfer struct {
	To     claims.Address
	Amount decimal.Decimal
	At     time.Time
}

// StakingPool implements claims.Pool.
type StakingPool struct {
	mu        sync.Mutex
	staked    decimal.Decimal
	paid      map[claims.Address]decimal.Decimal
	transfers []Transfer
}

func NewStakingPool(staked decimal.Decimal) *StakingPool {
	return &StakingPool{staked: staked, paid: make(map[claims.Address]decimal.Decimal)}
}

func (p *StakingPool) TotalStaked(context.Context) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.staked, nil
}

// Transfer pays amount out of the stake to to.
func (p *StakingPool) Transfer(_ context.Context, to claims.Address, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount.GreaterThan(p.staked) {
		return fmt.Errorf("%w: staked %s, requested %s", ErrInsufficientStake, p.staked, amount)
	}
	p.staked = p.staked.Sub(amount)
	p.paid[to] = p.paid[to].Add(amount)
	p.transfers = append(p.transfers, Transfer{To: to, Amount: amount, At: time.Now()})
	return nil
}

// Deposit adds stake.
func (p *StakingPool) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staked = p.staked.Add(amount)
	return nil
}

// Balance returns the total paid out to addr.
func (p *StakingPool) Balance(addr claims.Address) decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paid[addr]
}

// Transfers returns a copy of the transfer history.
func (p *StakingPool) Transfers() []Transfer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Transfer(nil), p.transfers...)
}
