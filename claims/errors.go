/*
errors.go - Failure reasons for every guarded transition

PURPOSE:
  Every guard violation fails the whole transition with a distinct, stable
  reason string. Reasons are grouped into three classes:

  1. Authorization - caller lacks the role or relationship
  2. Guard/state   - wrong status, window expired, record missing, bad amount
  3. Resource      - quota exceeded, fee not covered, price conversion failed

USAGE:
  if errors.Is(err, claims.ErrTooLateToCreateDispute) { ... }   // exact reason
  if claims.IsGuardViolation(err) { ... }                        // class

SEE ALSO:
  - api/handlers.go: maps classes to HTTP status codes
*/
package claims

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/quota"
)

// =============================================================================
// ERROR CLASSES
// =============================================================================

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrResource     = errors.New("resource unavailable")
	ErrNotFound     = NewReason(ErrInvalidState, "not found")
)

// reasonError is a sentinel carrying a stable reason and its class.
type reasonError struct {
	reason string
	class  error
}

func (e *reasonError) Error() string { return e.reason }
func (e *reasonError) Unwrap() error { return e.class }

// NewReason builds a sentinel with a stable reason string belonging to one of
// the error classes. Adapters use it to classify their own guards.
func NewReason(class error, reason string) error {
	return &reasonError{reason: reason, class: class}
}

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

// Authorization
var (
	ErrNotPolicyAgent     = NewReason(ErrUnauthorized, "sender cannot manage policy")
	ErrNotMediator        = NewReason(ErrUnauthorized, "sender cannot mediate")
	ErrNotAdmin           = NewReason(ErrUnauthorized, "sender not admin")
	ErrNotClaimant        = NewReason(ErrUnauthorized, "sender not claimant")
	ErrNotArbitrator      = NewReason(ErrUnauthorized, "arbitrator lacks arbitrator role")
	ErrNotBoundArbitrator = NewReason(ErrUnauthorized, "sender wrong arbitrator")
	ErrUnknownArbitrator  = NewReason(ErrUnauthorized, "arbitrator not registered")
)

// Guard / state
var (
	ErrPolicyExists               = NewReason(ErrInvalidState, "policy exists")
	ErrPolicyNotFound             = NewReason(ErrNotFound, "policy does not exist")
	ErrClaimExists                = NewReason(ErrInvalidState, "claim exists")
	ErrClaimNotFound              = NewReason(ErrNotFound, "claim does not exist")
	ErrZeroPolicyholder           = NewReason(ErrInvalidState, "policyholder address zero")
	ErrZeroCoverage               = NewReason(ErrInvalidState, "coverage amount zero")
	ErrInvalidClaimPeriod         = NewReason(ErrInvalidState, "start not earlier than end")
	ErrEmptyPolicyDocument        = NewReason(ErrInvalidState, "policy document empty")
	ErrClaimsNotYetAllowed        = NewReason(ErrInvalidState, "claims not allowed yet")
	ErrClaimsNoLongerAllowed      = NewReason(ErrInvalidState, "claims no longer allowed")
	ErrZeroClaimAmount            = NewReason(ErrInvalidState, "claim amount zero")
	ErrClaimExceedsCoverage       = NewReason(ErrInvalidState, "claim larger than coverage")
	ErrEmptyEvidence              = NewReason(ErrInvalidState, "evidence address empty")
	ErrClaimNotCreated            = NewReason(ErrInvalidState, "claim is not acceptable")
	ErrSettlementNotProposed      = NewReason(ErrInvalidState, "no settlement to accept")
	ErrTooLateToProposeSettlement = NewReason(ErrInvalidState, "too late to propose settlement")
	ErrZeroSettlement             = NewReason(ErrInvalidState, "settlement amount zero")
	ErrSettlementExceedsClaim     = NewReason(ErrInvalidState, "settlement larger than claim")
	ErrClaimNotDisputable         = NewReason(ErrInvalidState, "claim is not disputable")
	ErrTooLateToCreateDispute     = NewReason(ErrInvalidState, "too late to create dispute")
	ErrNotDisputed                = NewReason(ErrInvalidState, "claim is not disputed")
	ErrTooLateToResolveDispute    = NewReason(ErrInvalidState, "arbitrator response too late")
	ErrInvalidDecision            = NewReason(ErrInvalidState, "invalid arbitrator decision")
	ErrStaleClock                 = NewReason(ErrInvalidState, "transition time not after last update")
)

// Resource
var (
	ErrPayoutBelowMinimum = NewReason(ErrResource, "payout less than minimum")
	ErrQuotaExceeded      = NewReason(ErrResource, "quota exceeded")
	ErrConversionFailed   = NewReason(ErrResource, "price conversion failed")
	ErrInsufficientPool   = NewReason(ErrResource, "staked pool cannot cover payout")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SlippageError reports a payout that fell below the caller's minimum.
type SlippageError struct {
	Payout  decimal.Decimal
	Minimum decimal.Decimal
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("%s: payout %s, minimum %s", ErrPayoutBelowMinimum, e.Payout, e.Minimum)
}

func (e *SlippageError) Unwrap() error { return ErrPayoutBelowMinimum }

// quotaError keeps the enforcer's detail while classifying as ErrQuotaExceeded.
type quotaError struct {
	cause error
}

func (e *quotaError) Error() string   { return e.cause.Error() }
func (e *quotaError) Unwrap() []error { return []error{ErrQuotaExceeded, e.cause} }

func wrapQuota(err error) error {
	if errors.Is(err, quota.ErrQuotaExceeded) {
		return &quotaError{cause: err}
	}
	return err
}

// conversionError classifies converter failures as ErrConversionFailed.
type conversionError struct {
	cause error
}

func (e *conversionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConversionFailed, e.cause)
}
func (e *conversionError) Unwrap() []error { return []error{ErrConversionFailed, e.cause} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsUnauthorized returns true for authorization failures.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsGuardViolation returns true for wrong-status, window and amount failures.
func IsGuardViolation(err error) bool { return errors.Is(err, ErrInvalidState) }

// IsResourceError returns true for quota, fee and conversion failures.
func IsResourceError(err error) bool { return errors.Is(err, ErrResource) }

// IsNotFound returns true if a referenced record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Reason returns the stable reason string of a classified error, or
// err.Error() for anything else.
func Reason(err error) string {
	var re *reasonError
	if errors.As(err, &re) {
		return re.reason
	}
	return err.Error()
}
