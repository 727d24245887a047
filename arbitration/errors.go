package arbitration

import "github.com/warp/coverage-engine/claims"

var (
	ErrNotOperator                = claims.NewReason(claims.ErrUnauthorized, "sender not arbitrator operator")
	ErrNotCourt                   = claims.NewReason(claims.ErrUnauthorized, "sender not court")
	ErrNotEvidenceSubmitter       = claims.NewReason(claims.ErrUnauthorized, "sender cannot submit evidence")
	ErrNotAppellant               = claims.NewReason(claims.ErrUnauthorized, "sender cannot appeal")
	ErrDisputeNotFound            = claims.NewReason(claims.ErrNotFound, "dispute does not exist")
	ErrNotEvidencePeriod          = claims.NewReason(claims.ErrInvalidState, "dispute not in evidence period")
	ErrNotAppealPeriod            = claims.NewReason(claims.ErrInvalidState, "dispute not in appeal period")
	ErrNotExecutionPeriod         = claims.NewReason(claims.ErrInvalidState, "dispute not in execution period")
	ErrEmptyEvidence              = claims.NewReason(claims.ErrInvalidState, "evidence empty")
	ErrAlreadyRuled               = claims.NewReason(claims.ErrInvalidState, "dispute already ruled")
	ErrInvalidPeriodChange        = claims.NewReason(claims.ErrInvalidState, "invalid period change")
	ErrInvalidRuling              = claims.NewReason(claims.ErrInvalidState, "ruling out of bounds")
	ErrInsufficientArbitrationFee = claims.NewReason(claims.ErrResource, "value less than arbitration cost")
	ErrInsufficientAppealFee      = claims.NewReason(claims.ErrResource, "value less than appeal cost")
)
