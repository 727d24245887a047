/*
handlers.go - HTTP API handlers for the claims manager

PURPOSE:
  Exposes policies, claims, disputes, quotas and the court proxy over REST.
  Handles HTTP request/response and JSON serialization, and delegates every
  decision to the domain packages.

ENDPOINTS:
  Policies:
    POST   /api/policies                          Create policy (policy agent)
    GET    /api/policies/{hash}                   Policy details
    GET    /api/policies/{hash}/events            Policy history

  Claims:
    POST   /api/claims                            Create claim (caller = claimant)
    GET    /api/claims/{hash}                     Claim, settlement, deadline
    GET    /api/claims/{hash}/events              Transition history
    GET    /api/claims/{hash}/payouts             Executed payouts
    POST   /api/claims/{hash}/settlement          Propose settlement (mediator)
    POST   /api/claims/{hash}/accept              Accept full claim (claimant)
    POST   /api/claims/{hash}/accept-settlement   Accept settlement (claimant)
    POST   /api/claims/{hash}/dispute             Escalate to an arbitrator (claimant)
    POST   /api/claims/{hash}/resolve             Manual resolution (admin/mediator)
    GET    /api/claims/{hash}/court-dispute       Court mirror for the claim

  Disputes / arbitrators:
    GET    /api/disputes/stuck                    Disputes past the arbitrator window
    GET    /api/arbitrators                       Registered adapters
    POST   /api/arbitrators/passive/decisions     Passive operator decision

  Court proxy:
    GET    /api/court/cost                        Arbitration cost
    GET    /api/court/disputes/{id}               Mirror and appeal cost
    GET    /api/court/disputes/{id}/evidence      Evidence log
    POST   /api/court/disputes/{id}/evidence      Submit evidence (admin/mediator)
    POST   /api/court/disputes/{id}/appeal        Fund an appeal
    POST   /api/court/disputes/{id}/period        Period notification (court)
    POST   /api/court/disputes/{id}/ruling        Final ruling (court)

  Quotas:
    GET    /api/quotas/{account}                  Quota and window usage
    PUT    /api/quotas/{account}                  Set quota (admin)
    DELETE /api/quotas/{account}                  Reset quota (admin)

CALLER IDENTITY:
  The acting address is read from the X-Caller header. Authentication is
  expected in front of this service; the header is trusted as-is.

ERROR HANDLING:
  Errors are returned as JSON with the stable reason string:
  - 400: Malformed input
  - 403: Authorization failures
  - 404: Referenced record does not exist
  - 409: Guard/state violations (wrong status, window expired, bad amount)
  - 422: Resource failures (quota, fee, conversion, slippage)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/arbitration"
	"github.com/warp/coverage-engine/claims"
	"github.com/warp/coverage-engine/quota"
)

// CallerHeader carries the acting address.
const CallerHeader = "X-Caller"

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds all HTTP handlers and their dependencies.
type Handler struct {
	Manager *claims.Manager
	Passive *arbitration.PassiveArbitrator
	Court   *arbitration.CourtProxy
	Health  HealthChecker
	Logger  *slog.Logger
}

// NewHandler creates a handler. passive and court may be nil when the
// corresponding adapter is not deployed.
func NewHandler(manager *claims.Manager, passive *arbitration.PassiveArbitrator, court *arbitration.CourtProxy, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Manager: manager,
		Passive: passive,
		Court:   court,
		Logger:  logger.With("component", "api"),
	}
}

// WithHealthCheck makes /healthz report the store's reachability.
func (h *Handler) WithHealthCheck(hc HealthChecker) *Handler {
	h.Health = hc
	return h
}

// Healthz reports liveness, and store reachability when a checker is set.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			h.Logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// POLICIES
// =============================================================================

// CreatePolicy records a new policy.
// POST /api/policies
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Manager.CreatePolicy(r.Context(), caller(r), claims.PolicyParams{
		Policyholder:       claims.NewAddress(req.Policyholder),
		CoverageAmount:     req.CoverageAmount,
		ClaimsAllowedFrom:  req.ClaimsAllowedFrom,
		ClaimsAllowedUntil: req.ClaimsAllowedUntil,
		PolicyDocumentRef:  req.PolicyDocument,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPolicyDTO(p))
}

// GetPolicy returns a policy.
// GET /api/policies/{hash}
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	p, err := h.Manager.Policy(r.Context(), hash)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(p))
}

// GetEvents returns the history of a policy or claim.
// GET /api/policies/{hash}/events, GET /api/claims/{hash}/events
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	events, err := h.Manager.Events(r.Context(), hash)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]EventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// CLAIMS
// =============================================================================

// CreateClaim opens a claim for the caller.
// POST /api/claims
func (h *Handler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var req CreateClaimRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Manager.CreateClaim(r.Context(), caller(r), claims.ClaimParams{
		PolicyHash:  req.PolicyHash,
		Amount:      req.Amount,
		EvidenceRef: req.Evidence,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeClaim(w, r, http.StatusCreated, c)
}

// GetClaim returns a claim with its open settlement and deadline.
// GET /api/claims/{hash}
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	c, err := h.Manager.Claim(r.Context(), hash)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeClaim(w, r, http.StatusOK, c)
}

// GetPayouts lists the payouts executed for a claim.
// GET /api/claims/{hash}/payouts
func (h *Handler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	payouts, err := h.Manager.Payouts(r.Context(), hash)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]PayoutDTO, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, toPayoutDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// ProposeSettlement offers a reduced payout.
// POST /api/claims/{hash}/settlement
func (h *Handler) ProposeSettlement(w http.ResponseWriter, r *http.Request) {
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	var req ProposeSettlementRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Manager.ProposeSettlement(r.Context(), caller(r), hash, req.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeClaim(w, r, http.StatusOK, c)
}

// AcceptClaim pays the full claim.
// POST /api/claims/{hash}/accept
func (h *Handler) AcceptClaim(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.Manager.AcceptClaim)
}

// AcceptSettlement pays the proposed settlement.
// POST /api/claims/{hash}/accept-settlement
func (h *Handler) AcceptSettlement(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.Manager.AcceptSettlement)
}

type acceptFunc func(ctx context.Context, caller claims.Address, hash claims.Hash, minPayout decimal.Decimal) (claims.Claim, claims.Payout, error)

func (h *Handler) accept(w http.ResponseWriter, r *http.Request, fn acceptFunc) {
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	var req AcceptRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	c, p, err := fn(r.Context(), caller(r), hash, req.MinPayout)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AcceptResponse{Claim: h.claimDTO(r, c), Payout: toPayoutDTO(p)})
}

// CreateDispute escalates a claim to the named arbitrator.
// POST /api/claims/{hash}/dispute
func (h *Handler) CreateDispute(w http.ResponseWriter, r *http.Request) {
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	var req CreateDisputeRequest
	if !decode(w, r, &req) {
		return
	}
	arb, err := h.Manager.Arbitrator(claims.NewAddress(req.Arbitrator))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	receipt, err := arb.CreateDispute(r.Context(), claims.DisputeFiling{
		Caller:    caller(r),
		ClaimHash: hash,
		Value:     req.Value,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	c, err := h.Manager.Claim(r.Context(), hash)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DisputeReceiptDTO{
		ClaimHash:  receipt.ClaimHash,
		Arbitrator: receipt.Arbitrator.String(),
		DisputeID:  receipt.DisputeID,
		Claim:      h.claimDTO(r, c),
	})
}

// ResolveDispute is the manual override for disputed claims.
// POST /api/claims/{hash}/resolve
func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	var req DecisionRequest
	if !decode(w, r, &req) {
		return
	}
	d, ok := claims.ParseDecision(req.Decision)
	if !ok {
		h.writeDomainError(w, claims.ErrInvalidDecision)
		return
	}
	c, err := h.Manager.ResolveDispute(r.Context(), caller(r), hash, d)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeClaim(w, r, http.StatusOK, c)
}

// =============================================================================
// ARBITRATORS
// =============================================================================

// ListArbitrators lists registered adapters.
// GET /api/arbitrators
func (h *Handler) ListArbitrators(w http.ResponseWriter, r *http.Request) {
	arbs := h.Manager.Arbitrators()
	out := make([]ArbitratorDTO, 0, len(arbs))
	for _, a := range arbs {
		out = append(out, ArbitratorDTO{Address: a.Address().String(), Kind: a.Kind()})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListStuckDisputes lists disputed claims past their arbitrator window.
// GET /api/disputes/stuck
func (h *Handler) ListStuckDisputes(w http.ResponseWriter, r *http.Request) {
	stuck, err := h.Manager.StuckDisputes(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]ClaimDTO, 0, len(stuck))
	for _, c := range stuck {
		out = append(out, h.claimDTO(r, c))
	}
	writeJSON(w, http.StatusOK, out)
}

// PassiveDecide relays the passive operator's decision.
// POST /api/arbitrators/passive/decisions
func (h *Handler) PassiveDecide(w http.ResponseWriter, r *http.Request) {
	if h.Passive == nil {
		writeError(w, http.StatusNotFound, "Passive arbitrator not deployed", nil)
		return
	}
	var req PassiveDecisionRequest
	if !decode(w, r, &req) {
		return
	}
	d, ok := claims.ParseDecision(req.Decision)
	if !ok {
		h.writeDomainError(w, claims.ErrInvalidDecision)
		return
	}
	c, err := h.Passive.Decide(r.Context(), caller(r), req.ClaimHash, d)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeClaim(w, r, http.StatusOK, c)
}

// =============================================================================
// QUOTAS
// =============================================================================

// GetQuota returns an account's quota and current window usage.
// GET /api/quotas/{account}
func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	account := claims.NewAddress(chi.URLParam(r, "account"))
	q, err := h.Manager.Quota(r.Context(), account)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	used, err := h.Manager.QuotaUsage(r.Context(), account)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuotaDTO(account, q, used))
}

// SetQuota caps an account's payouts per rolling period.
// PUT /api/quotas/{account}
func (h *Handler) SetQuota(w http.ResponseWriter, r *http.Request) {
	account := claims.NewAddress(chi.URLParam(r, "account"))
	var req SetQuotaRequest
	if !decode(w, r, &req) {
		return
	}
	period, err := time.ParseDuration(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	if err := h.Manager.SetQuota(r.Context(), caller(r), account, period, req.Cap); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.GetQuota(w, r)
}

// ResetQuota removes an account's quota.
// DELETE /api/quotas/{account}
func (h *Handler) ResetQuota(w http.ResponseWriter, r *http.Request) {
	account := claims.NewAddress(chi.URLParam(r, "account"))
	if err := h.Manager.ResetQuota(r.Context(), caller(r), account); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func caller(r *http.Request) claims.Address {
	return claims.NewAddress(r.Header.Get(CallerHeader))
}

func hashParam(w http.ResponseWriter, r *http.Request) (claims.Hash, bool) {
	hash, err := claims.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hash", err)
		return claims.Hash{}, false
	}
	return hash, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decode(w, r, dst)
}

func (h *Handler) claimDTO(r *http.Request, c claims.Claim) ClaimDTO {
	dto := ClaimDTO{
		Hash:       c.Hash,
		PolicyHash: c.PolicyHash,
		Claimant:   c.Claimant.String(),
		Amount:     c.Amount,
		Evidence:   c.EvidenceRef,
		Status:     c.Status,
		UpdateTime: c.UpdateTime,
		Arbitrator: c.Arbitrator.String(),
		IsTerminal: c.Status.IsTerminal(),
	}
	if deadline, ok := h.Manager.Deadline(c); ok {
		dto.Deadline = &deadline
	}
	if c.Status == claims.StatusSettlementProposed || c.Status == claims.StatusDisputeCreated {
		if amount, ok, err := h.Manager.Settlement(r.Context(), c.Hash); err == nil && ok {
			dto.Settlement = &amount
		}
	}
	return dto
}

func (h *Handler) writeClaim(w http.ResponseWriter, r *http.Request, status int, c claims.Claim) {
	writeJSON(w, status, h.claimDTO(r, c))
}

// writeDomainError maps error classes to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal error"
	switch {
	case claims.IsNotFound(err):
		status, message = http.StatusNotFound, "Not found"
	case claims.IsUnauthorized(err):
		status, message = http.StatusForbidden, "Forbidden"
	case claims.IsGuardViolation(err):
		status, message = http.StatusConflict, "Transition rejected"
	case claims.IsResourceError(err):
		status, message = http.StatusUnprocessableEntity, "Resource unavailable"
	case errors.Is(err, quota.ErrInvalidPeriod), errors.Is(err, quota.ErrInvalidCap), errors.Is(err, quota.ErrZeroAccount):
		status, message = http.StatusBadRequest, "Invalid quota"
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", "error", err)
		writeJSON(w, status, ErrorResponse{Error: message})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: message, Reason: claims.Reason(err), Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
