package claims

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ARBITRATOR ADAPTERS - Pluggable dispute backends
// =============================================================================

// Arbitrator is a dispute backend the manager can bind a claim to.
//
// Adapters escalate through Manager.CreateDispute and report outcomes through
// Manager.ReportDecision under their own Address, which must hold the
// arbitrator role at both moments. The manager only ever sees this interface.
type Arbitrator interface {
	// Address is the identity the adapter acts under.
	Address() Address

	// Kind names the backend ("passive", "court").
	Kind() string

	// CreateDispute escalates a claim on behalf of its claimant.
	CreateDispute(ctx context.Context, f DisputeFiling) (DisputeReceipt, error)
}

// DisputeFiling is a claimant's request to escalate a claim.
type DisputeFiling struct {
	Caller    Address
	ClaimHash Hash
	// Value is the fee attached to the call. Backends that charge nothing
	// ignore it.
	Value decimal.Decimal
}

// DisputeReceipt identifies the dispute a filing opened.
type DisputeReceipt struct {
	ClaimHash  Hash
	Arbitrator Address
	// DisputeID is the backend's identifier; empty for backends without one.
	DisputeID string
}

// DisputeRequest is what an adapter hands the manager to escalate a claim.
type DisputeRequest struct {
	Arbitrator Address
	Caller     Address
	ClaimHash  Hash

	// Open runs inside the escalation transaction after every guard passed.
	// Settlement is non-nil when the claim was escalated from a proposal.
	// Returning an error rolls the escalation back.
	Open func(ctx context.Context, tx Store, claim Claim, settlement *decimal.Decimal) error
}

// DecisionReport is an adapter's final outcome for a disputed claim.
type DecisionReport struct {
	Arbitrator Address
	ClaimHash  Hash
	Decision   Decision

	// Resolved runs inside the resolution transaction before value moves.
	// Returning an error rolls the resolution back.
	Resolved func(ctx context.Context, tx Store) error
}
