/*
Package claims provides the claims manager: policy bookkeeping, the claim
lifecycle state machine, settlement negotiation, dispute binding and the
single payout path out of the staked pool.

PURPOSE:
  Money leaves the pool through exactly one path (payout.go). Every actor's
  window to act is bounded by a response period measured from the claim's
  last transition. Disputes resolved by an arbitrator adapter execute once
  and only while the adapter is still authoritative.

KEY CONCEPTS IN THIS FILE (types.go):
  - Policy: coverage record, content-addressed by PolicyHash
  - Claim: payout demand, content-addressed by ClaimHash
  - Status: claim lifecycle states (None is implicit, no record exists)
  - Decision: arbitrator outcomes (DoNotPay, PayClaim, PaySettlement)

STATE MACHINE:

  None ──createClaim──▶ ClaimCreated ──acceptClaim──▶ ClaimAccepted
                             │
                             ├──proposeSettlement──▶ SettlementProposed ──acceptSettlement──▶ SettlementAccepted
                             │                              │
                             └──createDispute──▶ DisputeCreated ◀──createDispute──┘
                                                     │
                          decision / resolveDispute  ▼
                DisputeResolvedWithoutPayout | ...WithClaimPayout | ...WithSettlementPayout

  Every *Accepted / *Resolved* status is terminal.

SEE ALSO:
  - manager.go: guarded transitions
  - payout.go: the shared payout path
  - ledger.go: append-only event and payout records
*/
package claims

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Address identifies an actor: a policyholder, a mediator, an arbitrator
// adapter, or an operator. Addresses compare case-insensitively.
type Address string

// NewAddress normalizes s into an Address.
func NewAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

// IsZero reports whether no address is set.
func (a Address) IsZero() bool { return a == "" }

func (a Address) String() string { return string(a) }

// =============================================================================
// POLICY
// =============================================================================

// Policy is an insured party's coverage record.
//
// CoverageAmount only ever decreases (by payouts) and never goes negative.
// Policies are never deleted; exhausted ones stay as zero-coverage records.
type Policy struct {
	Hash               Hash
	Policyholder       Address
	CoverageAmount     decimal.Decimal // USD
	ClaimsAllowedFrom  time.Time
	ClaimsAllowedUntil time.Time
	PolicyDocumentRef  string
	CreatedBy          Address
	CreatedAt          time.Time
}

// PolicyParams are the inputs of CreatePolicy.
type PolicyParams struct {
	Policyholder       Address
	CoverageAmount     decimal.Decimal
	ClaimsAllowedFrom  time.Time
	ClaimsAllowedUntil time.Time
	PolicyDocumentRef  string
}

// ClaimsAllowedAt reports whether t falls in [from, until].
func (p Policy) ClaimsAllowedAt(t time.Time) bool {
	return !t.Before(p.ClaimsAllowedFrom) && !t.After(p.ClaimsAllowedUntil)
}

// =============================================================================
// CLAIM
// =============================================================================

// Status is the claim lifecycle state.
type Status string

const (
	StatusNone                                Status = "none"
	StatusClaimCreated                        Status = "claim_created"
	StatusClaimAccepted                       Status = "claim_accepted"
	StatusSettlementProposed                  Status = "settlement_proposed"
	StatusSettlementAccepted                  Status = "settlement_accepted"
	StatusDisputeCreated                      Status = "dispute_created"
	StatusDisputeResolvedWithoutPayout        Status = "dispute_resolved_without_payout"
	StatusDisputeResolvedWithClaimPayout      Status = "dispute_resolved_with_claim_payout"
	StatusDisputeResolvedWithSettlementPayout Status = "dispute_resolved_with_settlement_payout"
)

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusClaimAccepted,
		StatusSettlementAccepted,
		StatusDisputeResolvedWithoutPayout,
		StatusDisputeResolvedWithClaimPayout,
		StatusDisputeResolvedWithSettlementPayout:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusClaimCreated, StatusSettlementProposed, StatusDisputeCreated:
		return true
	}
	return s.IsTerminal()
}

// Claim is a demand for payout against a policy.
//
// The defining parameters are kept on the record so a claim can be addressed
// by hash alone. The proposed settlement amount is not stored here; it is
// derived from the most recent SettlementProposed event.
type Claim struct {
	Hash        Hash
	PolicyHash  Hash
	Claimant    Address
	Amount      decimal.Decimal // USD
	EvidenceRef string

	Status     Status
	UpdateTime time.Time
	Arbitrator Address // zero if no dispute is bound
}

// ClaimParams are the inputs of CreateClaim. The claimant is the caller.
type ClaimParams struct {
	PolicyHash  Hash
	Amount      decimal.Decimal
	EvidenceRef string
}

// =============================================================================
// DECISION
// =============================================================================

// Decision is an arbitrator's final outcome for a disputed claim.
type Decision int

const (
	DecisionDoNotPay Decision = iota + 1
	DecisionPayClaim
	DecisionPaySettlement
)

func (d Decision) Valid() bool {
	return d >= DecisionDoNotPay && d <= DecisionPaySettlement
}

func (d Decision) String() string {
	switch d {
	case DecisionDoNotPay:
		return "do_not_pay"
	case DecisionPayClaim:
		return "pay_claim"
	case DecisionPaySettlement:
		return "pay_settlement"
	}
	return "unknown"
}

// ParseDecision is the inverse of Decision.String.
func ParseDecision(s string) (Decision, bool) {
	for _, d := range []Decision{DecisionDoNotPay, DecisionPayClaim, DecisionPaySettlement} {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

// resolvedStatus maps a decision to the terminal status it produces.
func (d Decision) resolvedStatus() Status {
	switch d {
	case DecisionPayClaim:
		return StatusDisputeResolvedWithClaimPayout
	case DecisionPaySettlement:
		return StatusDisputeResolvedWithSettlementPayout
	default:
		return StatusDisputeResolvedWithoutPayout
	}
}
