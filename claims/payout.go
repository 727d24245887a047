/*
payout.go - The single path value leaves the staked pool through

PAYOUT PATH:
  1. Clip the USD figure to the policy's remaining coverage
  2. Convert USD to settlement-asset units (converter may fail)
  3. Clip the asset amount to the pool's total stake
  4. Enforce the caller's slippage minimum
  5. Charge the asset amount to the authorizer's quota
  6. Debit policy coverage, record the payout
  7. Transfer the asset amount to the claimant (last)

All steps run inside the caller's transaction. A failure at any step,
including the transfer, rolls back every write before it. The transfer is
the last step of every transition that pays out, so nothing can fail after
it except the commit itself. A commit failure after a successful transfer
is not compensated: the pool has paid and the ledger has no record, and the
pool's transfer history is what reconciles it.
*/
package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/quota"
)

func (m *Manager) payout(ctx context.Context, tx Store, c Claim, usd decimal.Decimal, authorizer Address, minAsset decimal.Decimal, now time.Time) (Payout, error) {
	policy, err := tx.GetPolicy(ctx, c.PolicyHash)
	if err != nil {
		return Payout{}, err
	}
	if policy == nil {
		return Payout{}, ErrPolicyNotFound
	}

	clipped := decimal.Min(usd, policy.CoverageAmount)
	asset := decimal.Zero
	if clipped.IsPositive() {
		asset, err = m.converter.Convert(ctx, clipped)
		if err != nil {
			return Payout{}, &conversionError{cause: err}
		}
	}

	staked, err := m.pool.TotalStaked(ctx)
	if err != nil {
		return Payout{}, fmt.Errorf("failed to read total stake: %w", err)
	}
	asset = decimal.Min(asset, decimal.Max(staked, decimal.Zero))

	if asset.LessThan(minAsset) {
		return Payout{}, &SlippageError{Payout: asset, Minimum: minAsset}
	}

	enforcer := quota.NewEnforcer(tx).WithClock(func() time.Time { return now })
	if err := enforcer.RecordUsage(ctx, quota.Account(authorizer), asset); err != nil {
		return Payout{}, wrapQuota(err)
	}

	policy.CoverageAmount = policy.CoverageAmount.Sub(clipped)
	if err := tx.PutPolicy(ctx, *policy); err != nil {
		return Payout{}, fmt.Errorf("failed to debit coverage: %w", err)
	}

	p := Payout{
		ID:         uuid.NewString(),
		ClaimHash:  c.Hash,
		PolicyHash: c.PolicyHash,
		Claimant:   c.Claimant,
		Authorizer: authorizer,
		USD:        clipped,
		Asset:      asset,
		At:         now,
	}
	if err := tx.AppendPayout(ctx, p); err != nil {
		return Payout{}, fmt.Errorf("failed to record payout: %w", err)
	}

	if asset.IsPositive() {
		if err := m.pool.Transfer(ctx, c.Claimant, asset); err != nil {
			return Payout{}, fmt.Errorf("%w: %w", ErrInsufficientPool, err)
		}
	}
	return p, nil
}
