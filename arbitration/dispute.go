/*
Package arbitration provides the arbitrator adapters a claim can be escalated
to: a passive arbitrator resolved by an operator, and a proxy that mirrors an
external multi-period court.

PERIOD STATE MACHINE (court proxy mirror):

  evidence ──▶ vote ──▶ appeal ──▶ execution
     ▲                    │
     └── funded appeal ───┘

  Periods only move on explicit notifications from the court. execution is
  terminal once the ruling has been executed (Ruled).

SEE ALSO:
  - passive.go: PassiveArbitrator
  - court.go: CourtProxy
  - localcourt.go: in-process court for dev and tests
*/
package arbitration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/warp/coverage-engine/claims"
)

// =============================================================================
// PERIODS
// =============================================================================

type Period int

const (
	PeriodEvidence Period = iota
	PeriodVote
	PeriodAppeal
	PeriodExecution
)

func (p Period) String() string {
	switch p {
	case PeriodEvidence:
		return "evidence"
	case PeriodVote:
		return "vote"
	case PeriodAppeal:
		return "appeal"
	case PeriodExecution:
		return "execution"
	}
	return "unknown"
}

// ParsePeriod is the inverse of Period.String.
func ParsePeriod(s string) (Period, error) {
	for p := PeriodEvidence; p <= PeriodExecution; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period %q", s)
}

// =============================================================================
// RULINGS
// =============================================================================

// Ruling is the court's answer. Zero means the court refused to arbitrate.
type Ruling int

const (
	RulingRefused Ruling = iota
	RulingDoNotPay
	RulingPayClaim
	RulingPaySettlement
)

// Decision maps a ruling onto the manager's outcomes. A refusal pays nothing.
func (r Ruling) Decision() claims.Decision {
	switch r {
	case RulingPayClaim:
		return claims.DecisionPayClaim
	case RulingPaySettlement:
		return claims.DecisionPaySettlement
	default:
		return claims.DecisionDoNotPay
	}
}

// FavorsClaimant reports whether the ruling pays the full claim.
func (r Ruling) FavorsClaimant() bool { return r == RulingPayClaim }

// =============================================================================
// DISPUTE MIRROR
// =============================================================================

// DisputeID is assigned by the external court.
type DisputeID uint64

func (id DisputeID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseDisputeID parses a decimal dispute id.
func ParseDisputeID(s string) (DisputeID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid dispute id %q: %w", s, err)
	}
	return DisputeID(v), nil
}

// Dispute is the proxy's local mirror of a court case. Never deleted.
type Dispute struct {
	ID               DisputeID
	ClaimHash        claims.Hash
	Subcourt         uint64
	NumberOfChoices  int
	Period           Period
	LastPeriodChange time.Time
	Round            int
	Appeals          int
	Ruled            bool
	Ruling           Ruling
	CreatedAt        time.Time
}

// Evidence is a payload submitted during the evidence period.
type Evidence struct {
	ID        string
	DisputeID DisputeID
	Submitter claims.Address
	Payload   string
	At        time.Time
}

// DisputeStore persists dispute mirrors and evidence. The claims store
// implementations satisfy it, so mirror writes share the claims transaction.
type DisputeStore interface {
	GetDispute(ctx context.Context, id DisputeID) (*Dispute, error)
	PutDispute(ctx context.Context, d Dispute) error
	DisputeByClaim(ctx context.Context, claim claims.Hash) (*Dispute, error)
	AppendEvidence(ctx context.Context, e Evidence) error
	Evidence(ctx context.Context, id DisputeID) ([]Evidence, error)
}

// canMoveTo reports whether the mirror may go from d.Period to next.
// A new round (appeal -> evidence) needs an appeal funded in this round.
func (d Dispute) canMoveTo(next Period) bool {
	switch {
	case next == d.Period+1 && next <= PeriodExecution:
		return true
	case d.Period == PeriodAppeal && next == PeriodEvidence:
		return d.Appeals > d.Round
	}
	return false
}

func disputeStore(s claims.Store) (DisputeStore, error) {
	ds, ok := s.(DisputeStore)
	if !ok {
		return nil, claims.ErrStoreRequired
	}
	return ds, nil
}
