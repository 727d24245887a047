package claims

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EXTERNAL COLLABORATORS - Consumed, never implemented here
// =============================================================================

// RoleChecker answers hasRole(role, caller). The registry that grants roles
// is owned elsewhere; see access.Registry for the in-process implementation.
type RoleChecker interface {
	HasRole(ctx context.Context, role string, caller Address) bool
}

// Roles names the capabilities the manager checks. Identifiers are
// configuration, never hard-coded into the state machine.
type Roles struct {
	Admin       string
	PolicyAgent string
	Mediator    string
	Arbitrator  string
}

// DefaultRoles returns the conventional role identifiers.
func DefaultRoles() Roles {
	return Roles{
		Admin:       "admin",
		PolicyAgent: "policy_agent",
		Mediator:    "mediator",
		Arbitrator:  "arbitrator",
	}
}

// Converter turns a USD amount into settlement-asset units. It fails when
// the price is stale or non-positive, or when the result overflows.
type Converter interface {
	Convert(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error)
}

// Pool is the staked collateral the payouts come out of.
type Pool interface {
	// TotalStaked bounds every payout.
	TotalStaked(ctx context.Context) (decimal.Decimal, error)

	// Transfer moves amount of the settlement asset to the recipient.
	Transfer(ctx context.Context, to Address, amount decimal.Decimal) error
}
