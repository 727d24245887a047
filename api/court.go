package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/coverage-engine/arbitration"
)

// =============================================================================
// COURT PROXY ENDPOINTS
// =============================================================================

// GetArbitrationCost returns the value an escalation to the court must attach.
// GET /api/court/cost
func (h *Handler) GetArbitrationCost(w http.ResponseWriter, r *http.Request) {
	if !h.courtDeployed(w) {
		return
	}
	cost, err := h.Court.ArbitrationCost(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CostDTO{ArbitrationCost: cost})
}

// GetCourtDispute returns a dispute mirror with its current appeal cost.
// GET /api/court/disputes/{id}
func (h *Handler) GetCourtDispute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.disputeParam(w, r)
	if !ok {
		return
	}
	d, err := h.Court.Dispute(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeCourtDispute(w, r, d)
}

// GetClaimCourtDispute returns the mirror opened for a claim.
// GET /api/claims/{hash}/court-dispute
func (h *Handler) GetClaimCourtDispute(w http.ResponseWriter, r *http.Request) {
	if !h.courtDeployed(w) {
		return
	}
	hash, ok := hashParam(w, r)
	if !ok {
		return
	}
	d, err := h.Court.DisputeByClaim(r.Context(), hash)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeCourtDispute(w, r, d)
}

// ListEvidence returns the evidence submitted for a dispute.
// GET /api/court/disputes/{id}/evidence
func (h *Handler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.disputeParam(w, r)
	if !ok {
		return
	}
	evidence, err := h.Court.Evidence(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]EvidenceDTO, 0, len(evidence))
	for _, e := range evidence {
		out = append(out, toEvidenceDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// SubmitEvidence attaches evidence during the evidence period.
// POST /api/court/disputes/{id}/evidence
func (h *Handler) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.disputeParam(w, r)
	if !ok {
		return
	}
	var req EvidenceRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := h.Court.SubmitEvidence(r.Context(), caller(r), id, req.Payload)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEvidenceDTO(e))
}

// Appeal funds an appeal of the current ruling.
// POST /api/court/disputes/{id}/appeal
func (h *Handler) Appeal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.disputeParam(w, r)
	if !ok {
		return
	}
	var req AppealRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Court.Appeal(r.Context(), caller(r), id, req.Value); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.GetCourtDispute(w, r)
}

// NotifyPeriod is the court's period-change callback.
// POST /api/court/disputes/{id}/period
func (h *Handler) NotifyPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.disputeParam(w, r)
	if !ok {
		return
	}
	var req PeriodRequest
	if !decode(w, r, &req) {
		return
	}
	period, err := arbitration.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	if err := h.Court.NotifyPeriod(r.Context(), caller(r), id, period); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.GetCourtDispute(w, r)
}

// Rule is the court's final-ruling callback.
// POST /api/court/disputes/{id}/ruling
func (h *Handler) Rule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.disputeParam(w, r)
	if !ok {
		return
	}
	var req RulingRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Court.Rule(r.Context(), caller(r), id, arbitration.Ruling(req.Ruling))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeClaim(w, r, http.StatusOK, c)
}

func (h *Handler) courtDeployed(w http.ResponseWriter) bool {
	if h.Court == nil {
		writeError(w, http.StatusNotFound, "Court proxy not deployed", nil)
		return false
	}
	return true
}

func (h *Handler) disputeParam(w http.ResponseWriter, r *http.Request) (arbitration.DisputeID, bool) {
	if !h.courtDeployed(w) {
		return 0, false
	}
	id, err := arbitration.ParseDisputeID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dispute id", err)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeCourtDispute(w http.ResponseWriter, r *http.Request, d arbitration.Dispute) {
	cost, err := h.Court.AppealCost(r.Context(), d.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourtDisputeDTO(d, cost))
}
