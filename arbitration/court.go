/*
court.go - Proxy to an external multi-period court

PURPOSE:
  Escalations are forwarded to a court that runs its own evidence, vote,
  appeal and execution periods. The proxy keeps a local mirror of every
  dispute, accepts the court's period notifications and final ruling, and
  reports that ruling to the claims manager.

FEES:
  Callers attach value to escalations and appeals. The value must cover the
  court's current cost and is forwarded in full.

ORDERING:
  Every call that pays the court is the last step inside its transaction:
  local writes happen first, so a failed write never leaves a paid court
  call behind. CreateDispute is the exception, since the mirror is keyed by
  the id the court returns; the mirror write follows the court call there.
  Neither ordering survives a failed commit. A commit that fails after the
  court accepted the fee leaves the court dispute without a mirror, and the
  court's own records are the source for reconciling it.

WHO MAY DO WHAT:
  - CreateDispute:  the claimant, value >= arbitration cost
  - SubmitEvidence: admins and mediators, evidence period
  - Appeal:         the party the current ruling goes against, appeal period
  - NotifyPeriod:   the court only
  - Rule:           the court only, execution period, once
*/
package arbitration

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/claims"
)

// Court is the external court the proxy talks to.
type Court interface {
	// Address is the identity the court calls back under.
	Address() claims.Address
	ArbitrationCost(ctx context.Context, extraData []byte) (decimal.Decimal, error)
	AppealCost(ctx context.Context, id DisputeID, extraData []byte) (decimal.Decimal, error)
	CreateDispute(ctx context.Context, choices int, extraData []byte, fee decimal.Decimal) (DisputeID, error)
	Appeal(ctx context.Context, id DisputeID, extraData []byte, fee decimal.Decimal) error
	CurrentRuling(ctx context.Context, id DisputeID) (Ruling, error)
}

// CourtProxyConfig configures a CourtProxy.
type CourtProxyConfig struct {
	Address claims.Address
	Manager *claims.Manager
	Court   Court
	// Store must be the manager's store. It has to implement DisputeStore.
	Store    claims.TxStore
	Subcourt uint64
	Jurors   uint64
	Logger   *slog.Logger
}

var _ claims.Arbitrator = (*CourtProxy)(nil)

// CourtProxy is the court-backed arbitrator adapter.
type CourtProxy struct {
	address   claims.Address
	manager   *claims.Manager
	court     Court
	store     claims.TxStore
	subcourt  uint64
	extraData []byte
	clock     func() time.Time
	logger    *slog.Logger
}

// NewCourtProxy validates cfg and builds a proxy.
func NewCourtProxy(cfg CourtProxyConfig) (*CourtProxy, error) {
	switch {
	case cfg.Address.IsZero():
		return nil, errors.New("arbitration: proxy address is required")
	case cfg.Manager == nil:
		return nil, errors.New("arbitration: manager is required")
	case cfg.Court == nil:
		return nil, errors.New("arbitration: court is required")
	case cfg.Store == nil:
		return nil, errors.New("arbitration: store is required")
	}
	if _, ok := cfg.Store.(DisputeStore); !ok {
		return nil, claims.ErrStoreRequired
	}
	if cfg.Jurors == 0 {
		cfg.Jurors = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CourtProxy{
		address:   cfg.Address,
		manager:   cfg.Manager,
		court:     cfg.Court,
		store:     cfg.Store,
		subcourt:  cfg.Subcourt,
		extraData: encodeExtraData(cfg.Subcourt, cfg.Jurors),
		clock:     time.Now,
		logger:    cfg.Logger.With("component", "court_proxy", "arbitrator", cfg.Address),
	}, nil
}

// WithClock overrides the clock for deterministic testing.
func (p *CourtProxy) WithClock(clock func() time.Time) *CourtProxy {
	p.clock = clock
	return p
}

func (p *CourtProxy) Address() claims.Address { return p.address }
func (p *CourtProxy) Kind() string            { return "court" }

// ArbitrationCost is the value an escalation must attach.
func (p *CourtProxy) ArbitrationCost(ctx context.Context) (decimal.Decimal, error) {
	return p.court.ArbitrationCost(ctx, p.extraData)
}

// AppealCost is the value an appeal of dispute id must attach.
func (p *CourtProxy) AppealCost(ctx context.Context, id DisputeID) (decimal.Decimal, error) {
	return p.court.AppealCost(ctx, id, p.extraData)
}

// =============================================================================
// ESCALATION
// =============================================================================

// CreateDispute escalates a claim and opens a court dispute for it. The
// court dispute offers a settlement choice only when one was proposed.
func (p *CourtProxy) CreateDispute(ctx context.Context, f claims.DisputeFiling) (claims.DisputeReceipt, error) {
	cost, err := p.court.ArbitrationCost(ctx, p.extraData)
	if err != nil {
		return claims.DisputeReceipt{}, err
	}
	if f.Value.LessThan(cost) {
		return claims.DisputeReceipt{}, ErrInsufficientArbitrationFee
	}

	var id DisputeID
	_, err = p.manager.CreateDispute(ctx, claims.DisputeRequest{
		Arbitrator: p.address,
		Caller:     f.Caller,
		ClaimHash:  f.ClaimHash,
		Open: func(ctx context.Context, tx claims.Store, claim claims.Claim, settlement *decimal.Decimal) error {
			ds, err := disputeStore(tx)
			if err != nil {
				return err
			}
			choices := 2
			if settlement != nil {
				choices = 3
			}
			id, err = p.court.CreateDispute(ctx, choices, p.extraData, f.Value)
			if err != nil {
				return err
			}
			return ds.PutDispute(ctx, Dispute{
				ID:               id,
				ClaimHash:        claim.Hash,
				Subcourt:         p.subcourt,
				NumberOfChoices:  choices,
				Period:           PeriodEvidence,
				LastPeriodChange: claim.UpdateTime,
				CreatedAt:        claim.UpdateTime,
			})
		},
	})
	if err != nil {
		return claims.DisputeReceipt{}, err
	}
	p.logger.Info("court dispute created", "dispute", id, "claim", f.ClaimHash, "fee", f.Value)
	return claims.DisputeReceipt{ClaimHash: f.ClaimHash, Arbitrator: p.address, DisputeID: id.String()}, nil
}

// SubmitEvidence attaches a payload to a dispute in its evidence period.
func (p *CourtProxy) SubmitEvidence(ctx context.Context, caller claims.Address, id DisputeID, payload string) (Evidence, error) {
	if !p.manager.IsManagerOrMediator(ctx, caller) {
		return Evidence{}, ErrNotEvidenceSubmitter
	}
	if payload == "" {
		return Evidence{}, ErrEmptyEvidence
	}
	ev := Evidence{
		ID:        uuid.NewString(),
		DisputeID: id,
		Submitter: caller,
		Payload:   payload,
	}
	err := p.store.WithTx(ctx, func(tx claims.Store) error {
		ds, d, err := p.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if d.Period != PeriodEvidence {
			return ErrNotEvidencePeriod
		}
		ev.At = p.clock()
		return ds.AppendEvidence(ctx, ev)
	})
	if err != nil {
		return Evidence{}, err
	}
	p.logger.Info("evidence submitted", "dispute", id, "submitter", caller)
	return ev, nil
}

// Appeal funds an appeal of the current ruling. When the ruling pays the
// full claim only admins and mediators may appeal; otherwise only the
// claimant may.
func (p *CourtProxy) Appeal(ctx context.Context, caller claims.Address, id DisputeID, value decimal.Decimal) error {
	err := p.store.WithTx(ctx, func(tx claims.Store) error {
		ds, d, err := p.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if d.Ruled {
			return ErrAlreadyRuled
		}
		if d.Period != PeriodAppeal {
			return ErrNotAppealPeriod
		}
		ruling, err := p.court.CurrentRuling(ctx, id)
		if err != nil {
			return err
		}
		if ruling.FavorsClaimant() {
			if !p.manager.IsManagerOrMediator(ctx, caller) {
				return ErrNotAppellant
			}
		} else {
			c, err := tx.GetClaim(ctx, d.ClaimHash)
			if err != nil {
				return err
			}
			if c == nil {
				return claims.ErrClaimNotFound
			}
			if caller != c.Claimant {
				return ErrNotAppellant
			}
		}
		cost, err := p.court.AppealCost(ctx, id, p.extraData)
		if err != nil {
			return err
		}
		if value.LessThan(cost) {
			return ErrInsufficientAppealFee
		}
		d.Appeals++
		if err := ds.PutDispute(ctx, *d); err != nil {
			return err
		}
		return p.court.Appeal(ctx, id, p.extraData, value)
	})
	if err != nil {
		return err
	}
	p.logger.Info("appeal funded", "dispute", id, "appellant", caller, "fee", value)
	return nil
}

// =============================================================================
// COURT CALLBACKS
// =============================================================================

// NotifyPeriod moves the mirror to the court's new period. A move back to
// evidence starts a new round and requires an appeal funded in this one.
func (p *CourtProxy) NotifyPeriod(ctx context.Context, caller claims.Address, id DisputeID, next Period) error {
	if caller != p.court.Address() {
		return ErrNotCourt
	}
	err := p.store.WithTx(ctx, func(tx claims.Store) error {
		ds, d, err := p.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if d.Ruled {
			return ErrAlreadyRuled
		}
		if !d.canMoveTo(next) {
			return ErrInvalidPeriodChange
		}
		if next == PeriodEvidence {
			d.Round++
		}
		d.Period = next
		d.LastPeriodChange = p.clock()
		return ds.PutDispute(ctx, *d)
	})
	if err != nil {
		return err
	}
	p.logger.Info("court period changed", "dispute", id, "period", next)
	return nil
}

// Rule executes the court's final ruling. A refusal to arbitrate pays
// nothing. If the manager rejects the decision (window lapsed, role
// revoked, quota) the mirror stays unruled and the error is returned.
func (p *CourtProxy) Rule(ctx context.Context, caller claims.Address, id DisputeID, ruling Ruling) (claims.Claim, error) {
	if caller != p.court.Address() {
		return claims.Claim{}, ErrNotCourt
	}
	d, err := p.Dispute(ctx, id)
	if err != nil {
		return claims.Claim{}, err
	}
	switch {
	case d.Ruled:
		return claims.Claim{}, ErrAlreadyRuled
	case d.Period != PeriodExecution:
		return claims.Claim{}, ErrNotExecutionPeriod
	case ruling < RulingRefused || int(ruling) > d.NumberOfChoices:
		return claims.Claim{}, ErrInvalidRuling
	}

	claim, err := p.manager.ReportDecision(ctx, claims.DecisionReport{
		Arbitrator: p.address,
		ClaimHash:  d.ClaimHash,
		Decision:   ruling.Decision(),
		Resolved: func(ctx context.Context, tx claims.Store) error {
			ds, err := disputeStore(tx)
			if err != nil {
				return err
			}
			current, err := ds.GetDispute(ctx, id)
			if err != nil {
				return err
			}
			if current == nil {
				return ErrDisputeNotFound
			}
			if current.Ruled {
				return ErrAlreadyRuled
			}
			current.Ruled = true
			current.Ruling = ruling
			return ds.PutDispute(ctx, *current)
		},
	})
	if err != nil {
		p.logger.Warn("ruling not executed", "dispute", id, "ruling", ruling, "reason", claims.Reason(err))
		return claims.Claim{}, err
	}
	p.logger.Info("ruling executed", "dispute", id, "ruling", ruling, "claim", claim.Hash, "status", claim.Status)
	return claim, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Dispute returns the mirror for id.
func (p *CourtProxy) Dispute(ctx context.Context, id DisputeID) (Dispute, error) {
	_, d, err := p.load(ctx, p.store, id)
	if err != nil {
		return Dispute{}, err
	}
	return *d, nil
}

// DisputeByClaim returns the mirror opened for a claim.
func (p *CourtProxy) DisputeByClaim(ctx context.Context, claim claims.Hash) (Dispute, error) {
	ds, err := disputeStore(p.store)
	if err != nil {
		return Dispute{}, err
	}
	d, err := ds.DisputeByClaim(ctx, claim)
	if err != nil {
		return Dispute{}, err
	}
	if d == nil {
		return Dispute{}, ErrDisputeNotFound
	}
	return *d, nil
}

// Evidence lists the evidence submitted for id, oldest first.
func (p *CourtProxy) Evidence(ctx context.Context, id DisputeID) ([]Evidence, error) {
	ds, _, err := p.load(ctx, p.store, id)
	if err != nil {
		return nil, err
	}
	return ds.Evidence(ctx, id)
}

func (p *CourtProxy) load(ctx context.Context, s claims.Store, id DisputeID) (DisputeStore, *Dispute, error) {
	ds, err := disputeStore(s)
	if err != nil {
		return nil, nil, err
	}
	d, err := ds.GetDispute(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, ErrDisputeNotFound
	}
	return ds, d, nil
}

// encodeExtraData packs the subcourt and juror count the way the court
// expects them: two big-endian 32-byte words.
func encodeExtraData(subcourt, jurors uint64) []byte {
	out := make([]byte, 64)
	binary.BigEndian.PutUint64(out[24:32], subcourt)
	binary.BigEndian.PutUint64(out[56:64], jurors)
	return out
}
