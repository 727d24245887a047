package claims

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// EVENTS - One per transition, for audit and indexing
// =============================================================================

type EventKind string

const (
	EventPolicyCreated      EventKind = "policy_created"
	EventClaimCreated       EventKind = "claim_created"
	EventSettlementProposed EventKind = "settlement_proposed"
	EventClaimAccepted      EventKind = "claim_accepted"
	EventSettlementAccepted EventKind = "settlement_accepted"
	EventDisputeCreated     EventKind = "dispute_created"
	EventDisputeResolved    EventKind = "dispute_resolved"
	EventQuotaSet           EventKind = "quota_set"
	EventQuotaReset         EventKind = "quota_reset"
)

// Event is an immutable record of a transition.
type Event struct {
	ID      string
	Kind    EventKind
	Subject Hash // policy or claim hash; zero for quota events
	Actor   Address
	Status  Status
	// Amount is the settlement figure for EventSettlementProposed and the USD
	// payout for acceptance/resolution events.
	Amount   decimal.Decimal
	At       time.Time
	Metadata map[string]string
}

// =============================================================================
// PAYOUTS - Every unit that leaves the pool
// =============================================================================

// Payout records one execution of the payout path.
type Payout struct {
	ID         string
	ClaimHash  Hash
	PolicyHash Hash
	Claimant   Address
	// Authorizer is the quota key the payout was charged to.
	Authorizer Address
	USD        decimal.Decimal
	Asset      decimal.Decimal
	At         time.Time
}

func newEvent(kind EventKind, subject Hash, actor Address, status Status, at time.Time) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Subject: subject,
		Actor:   actor,
		Status:  status,
		Amount:  decimal.Zero,
		At:      at,
	}
}

// latestSettlement returns the amount of the most recent settlement proposal
// for a claim.
func latestSettlement(ctx context.Context, s Store, claim Hash) (decimal.Decimal, bool, error) {
	events, err := s.Events(ctx, claim)
	if err != nil {
		return decimal.Zero, false, err
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == EventSettlementProposed {
			return events[i].Amount, true, nil
		}
	}
	return decimal.Zero, false, nil
}
