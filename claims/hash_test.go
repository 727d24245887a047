package claims

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_ParseRoundTrip(t *testing.T) {
	h := ClaimHashOf(ZeroHash, "holder", decimal.RequireFromString("25000"), "ipfs://evidence")
	assert.False(t, h.IsZero())
	assert.Len(t, h.String(), 66)

	parsed, err := ParseHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	bare, err := ParseHash(h.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, h, bare)

	_, err = ParseHash("0x1234")
	assert.Error(t, err)
	_, err = ParseHash("0xzz")
	assert.Error(t, err)
}

func TestHash_JSONUsesHex(t *testing.T) {
	h := PolicyHashOf("holder", time.Unix(1700000000, 0), "doc")
	b, err := json.Marshal(map[string]Hash{"hash": h})
	require.NoError(t, err)
	assert.Contains(t, string(b), h.String())

	var out map[string]Hash
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, h, out["hash"])
}

func TestClaimHashOf_DistinguishesEveryField(t *testing.T) {
	policy := PolicyHashOf("holder", time.Unix(0, 0), "doc")
	base := ClaimHashOf(policy, "holder", decimal.NewFromInt(100), "ev")

	assert.Equal(t, base, ClaimHashOf(policy, "holder", decimal.NewFromInt(100), "ev"))
	assert.NotEqual(t, base, ClaimHashOf(ZeroHash, "holder", decimal.NewFromInt(100), "ev"))
	assert.NotEqual(t, base, ClaimHashOf(policy, "other", decimal.NewFromInt(100), "ev"))
	assert.NotEqual(t, base, ClaimHashOf(policy, "holder", decimal.NewFromInt(101), "ev"))
	assert.NotEqual(t, base, ClaimHashOf(policy, "holder", decimal.NewFromInt(100), "ev2"))

	// Field boundaries cannot be shifted
	assert.NotEqual(t,
		PolicyHashOf("ab", time.Unix(0, 0), "c"),
		PolicyHashOf("a", time.Unix(0, 0), "bc"),
	)
}

func TestErrors_ClassesAndReasons(t *testing.T) {
	tests := []struct {
		err    error
		class  func(error) bool
		reason string
	}{
		{ErrNotMediator, IsUnauthorized, "sender cannot mediate"},
		{ErrTooLateToCreateDispute, IsGuardViolation, "too late to create dispute"},
		{ErrClaimNotFound, IsNotFound, "claim does not exist"},
		{ErrQuotaExceeded, IsResourceError, "quota exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			assert.True(t, tt.class(tt.err))
			assert.Equal(t, tt.reason, Reason(tt.err))
			assert.Equal(t, tt.reason, Reason(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}

	// Not-found is also a guard violation
	assert.True(t, IsGuardViolation(ErrPolicyNotFound))
	assert.False(t, IsUnauthorized(ErrPolicyNotFound))
	assert.Equal(t, "boom", Reason(errors.New("boom")))
}

func TestErrors_StructuredWrappers(t *testing.T) {
	slip := &SlippageError{Payout: decimal.NewFromInt(5), Minimum: decimal.NewFromInt(6)}
	assert.ErrorIs(t, slip, ErrPayoutBelowMinimum)
	assert.True(t, IsResourceError(slip))
	assert.Contains(t, slip.Error(), "payout 5, minimum 6")

	cause := errors.New("feed down")
	conv := &conversionError{cause: cause}
	assert.ErrorIs(t, conv, ErrConversionFailed)
	assert.ErrorIs(t, conv, cause)

	other := errors.New("disk full")
	assert.Equal(t, other, wrapQuota(other))
}

func TestDecision_Parse(t *testing.T) {
	for _, d := range []Decision{DecisionDoNotPay, DecisionPayClaim, DecisionPaySettlement} {
		parsed, ok := ParseDecision(d.String())
		require.True(t, ok)
		assert.Equal(t, d, parsed)
	}
	_, ok := ParseDecision("maybe")
	assert.False(t, ok)
	assert.False(t, Decision(0).Valid())
	assert.Equal(t, StatusDisputeResolvedWithoutPayout, DecisionDoNotPay.resolvedStatus())
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusClaimCreated.IsTerminal())
	assert.False(t, StatusDisputeCreated.IsTerminal())
	assert.True(t, StatusSettlementAccepted.IsTerminal())
	assert.True(t, StatusDisputeResolvedWithClaimPayout.Valid())
	assert.False(t, Status("bogus").Valid())
}
