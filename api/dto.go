/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  USD and asset amounts travel as decimal strings ("12500.00") so no
  precision is lost in JSON numbers.

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/arbitration"
	"github.com/warp/coverage-engine/claims"
	"github.com/warp/coverage-engine/quota"
)

// =============================================================================
// REQUESTS
// =============================================================================

type CreatePolicyRequest struct {
	Policyholder       string          `json:"policyholder"`
	CoverageAmount     decimal.Decimal `json:"coverage_amount"`
	ClaimsAllowedFrom  time.Time       `json:"claims_allowed_from"`
	ClaimsAllowedUntil time.Time       `json:"claims_allowed_until"`
	PolicyDocument     string          `json:"policy_document"`
}

type CreateClaimRequest struct {
	PolicyHash claims.Hash     `json:"policy_hash"`
	Amount     decimal.Decimal `json:"amount"`
	Evidence   string          `json:"evidence"`
}

type ProposeSettlementRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type AcceptRequest struct {
	MinPayout decimal.Decimal `json:"min_payout"`
}

type CreateDisputeRequest struct {
	Arbitrator string          `json:"arbitrator"`
	Value      decimal.Decimal `json:"value"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
}

type PassiveDecisionRequest struct {
	ClaimHash claims.Hash `json:"claim_hash"`
	Decision  string      `json:"decision"`
}

type SetQuotaRequest struct {
	Period string          `json:"period"`
	Cap    decimal.Decimal `json:"cap"`
}

type EvidenceRequest struct {
	Payload string `json:"payload"`
}

type AppealRequest struct {
	Value decimal.Decimal `json:"value"`
}

type PeriodRequest struct {
	Period string `json:"period"`
}

type RulingRequest struct {
	Ruling int `json:"ruling"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type PolicyDTO struct {
	Hash               claims.Hash     `json:"hash"`
	Policyholder       string          `json:"policyholder"`
	CoverageAmount     decimal.Decimal `json:"coverage_amount"`
	ClaimsAllowedFrom  time.Time       `json:"claims_allowed_from"`
	ClaimsAllowedUntil time.Time       `json:"claims_allowed_until"`
	PolicyDocument     string          `json:"policy_document"`
	CreatedBy          string          `json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
}

type ClaimDTO struct {
	Hash       claims.Hash      `json:"hash"`
	PolicyHash claims.Hash      `json:"policy_hash"`
	Claimant   string           `json:"claimant"`
	Amount     decimal.Decimal  `json:"amount"`
	Evidence   string           `json:"evidence"`
	Status     claims.Status    `json:"status"`
	UpdateTime time.Time        `json:"update_time"`
	Arbitrator string           `json:"arbitrator,omitempty"`
	Settlement *decimal.Decimal `json:"settlement,omitempty"`
	Deadline   *time.Time       `json:"deadline,omitempty"`
	IsTerminal bool             `json:"is_terminal"`
}

type PayoutDTO struct {
	ID         string          `json:"id"`
	ClaimHash  claims.Hash     `json:"claim_hash"`
	Claimant   string          `json:"claimant"`
	Authorizer string          `json:"authorizer"`
	USD        decimal.Decimal `json:"usd"`
	Asset      decimal.Decimal `json:"asset"`
	At         time.Time       `json:"at"`
}

type AcceptResponse struct {
	Claim  ClaimDTO  `json:"claim"`
	Payout PayoutDTO `json:"payout"`
}

type EventDTO struct {
	ID       string            `json:"id"`
	Kind     claims.EventKind  `json:"kind"`
	Subject  claims.Hash       `json:"subject"`
	Actor    string            `json:"actor"`
	Status   claims.Status     `json:"status"`
	Amount   decimal.Decimal   `json:"amount"`
	At       time.Time         `json:"at"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type DisputeReceiptDTO struct {
	ClaimHash  claims.Hash `json:"claim_hash"`
	Arbitrator string      `json:"arbitrator"`
	DisputeID  string      `json:"dispute_id,omitempty"`
	Claim      ClaimDTO    `json:"claim"`
}

type ArbitratorDTO struct {
	Address string `json:"address"`
	Kind    string `json:"kind"`
}

type QuotaDTO struct {
	Account   string           `json:"account"`
	Metered   bool             `json:"metered"`
	Period    string           `json:"period,omitempty"`
	Cap       *decimal.Decimal `json:"cap,omitempty"`
	Used      decimal.Decimal  `json:"used"`
	Remaining *decimal.Decimal `json:"remaining,omitempty"`
}

type CourtDisputeDTO struct {
	ID               string          `json:"id"`
	ClaimHash        claims.Hash     `json:"claim_hash"`
	Subcourt         uint64          `json:"subcourt"`
	NumberOfChoices  int             `json:"number_of_choices"`
	Period           string          `json:"period"`
	LastPeriodChange time.Time       `json:"last_period_change"`
	Round            int             `json:"round"`
	Appeals          int             `json:"appeals"`
	Ruled            bool            `json:"ruled"`
	Ruling           int             `json:"ruling"`
	AppealCost       decimal.Decimal `json:"appeal_cost"`
}

type EvidenceDTO struct {
	ID        string    `json:"id"`
	DisputeID string    `json:"dispute_id"`
	Submitter string    `json:"submitter"`
	Payload   string    `json:"payload"`
	At        time.Time `json:"at"`
}

type CostDTO struct {
	ArbitrationCost decimal.Decimal `json:"arbitration_cost"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPolicyDTO(p claims.Policy) PolicyDTO {
	return PolicyDTO{
		Hash:               p.Hash,
		Policyholder:       p.Policyholder.String(),
		CoverageAmount:     p.CoverageAmount,
		ClaimsAllowedFrom:  p.ClaimsAllowedFrom,
		ClaimsAllowedUntil: p.ClaimsAllowedUntil,
		PolicyDocument:     p.PolicyDocumentRef,
		CreatedBy:          p.CreatedBy.String(),
		CreatedAt:          p.CreatedAt,
	}
}

func toPayoutDTO(p claims.Payout) PayoutDTO {
	return PayoutDTO{
		ID:         p.ID,
		ClaimHash:  p.ClaimHash,
		Claimant:   p.Claimant.String(),
		Authorizer: p.Authorizer.String(),
		USD:        p.USD,
		Asset:      p.Asset,
		At:         p.At,
	}
}

func toEventDTO(e claims.Event) EventDTO {
	return EventDTO{
		ID:       e.ID,
		Kind:     e.Kind,
		Subject:  e.Subject,
		Actor:    e.Actor.String(),
		Status:   e.Status,
		Amount:   e.Amount,
		At:       e.At,
		Metadata: e.Metadata,
	}
}

func toEvidenceDTO(e arbitration.Evidence) EvidenceDTO {
	return EvidenceDTO{
		ID:        e.ID,
		DisputeID: e.DisputeID.String(),
		Submitter: e.Submitter.String(),
		Payload:   e.Payload,
		At:        e.At,
	}
}

func toCourtDisputeDTO(d arbitration.Dispute, appealCost decimal.Decimal) CourtDisputeDTO {
	return CourtDisputeDTO{
		ID:               d.ID.String(),
		ClaimHash:        d.ClaimHash,
		Subcourt:         d.Subcourt,
		NumberOfChoices:  d.NumberOfChoices,
		Period:           d.Period.String(),
		LastPeriodChange: d.LastPeriodChange,
		Round:            d.Round,
		Appeals:          d.Appeals,
		Ruled:            d.Ruled,
		Ruling:           int(d.Ruling),
		AppealCost:       appealCost,
	}
}

func toQuotaDTO(account claims.Address, q *quota.Quota, used decimal.Decimal) QuotaDTO {
	dto := QuotaDTO{Account: account.String(), Used: used}
	if q == nil {
		return dto
	}
	remaining := decimal.Max(q.Cap.Sub(used), decimal.Zero)
	dto.Metered = true
	dto.Period = q.Period.String()
	dto.Cap = &q.Cap
	dto.Remaining = &remaining
	return dto
}
