package arbitration

import (
	"context"

	"github.com/warp/coverage-engine/claims"
)

// =============================================================================
// PASSIVE ARBITRATOR - Resolved by a single operator
// =============================================================================

var _ claims.Arbitrator = (*PassiveArbitrator)(nil)

// PassiveArbitrator records escalations and relays an operator's decision.
// It keeps no state of its own; the manager's claim record is the dispute.
type PassiveArbitrator struct {
	address  claims.Address
	operator claims.Address
	manager  *claims.Manager
}

// NewPassiveArbitrator builds an adapter acting as address. Only operator may
// decide its disputes.
func NewPassiveArbitrator(address, operator claims.Address, manager *claims.Manager) *PassiveArbitrator {
	return &PassiveArbitrator{address: address, operator: operator, manager: manager}
}

func (a *PassiveArbitrator) Address() claims.Address  { return a.address }
func (a *PassiveArbitrator) Kind() string             { return "passive" }
func (a *PassiveArbitrator) Operator() claims.Address { return a.operator }

// CreateDispute escalates a claim to this arbitrator. Any attached value is
// ignored.
func (a *PassiveArbitrator) CreateDispute(ctx context.Context, f claims.DisputeFiling) (claims.DisputeReceipt, error) {
	_, err := a.manager.CreateDispute(ctx, claims.DisputeRequest{
		Arbitrator: a.address,
		Caller:     f.Caller,
		ClaimHash:  f.ClaimHash,
	})
	if err != nil {
		return claims.DisputeReceipt{}, err
	}
	return claims.DisputeReceipt{ClaimHash: f.ClaimHash, Arbitrator: a.address}, nil
}

// Decide reports the operator's decision for a claim disputed here.
func (a *PassiveArbitrator) Decide(ctx context.Context, caller claims.Address, claimHash claims.Hash, d claims.Decision) (claims.Claim, error) {
	if caller.IsZero() || caller != a.operator {
		return claims.Claim{}, ErrNotOperator
	}
	return a.manager.ReportDecision(ctx, claims.DecisionReport{
		Arbitrator: a.address,
		ClaimHash:  claimHash,
		Decision:   d,
	})
}
