/*
store.go - Persistence contract for the claims ledger

PURPOSE:
  Policies, claims, events, payouts and quota state live behind one Store.
  All mutation happens inside TxStore.WithTx so a transition either fully
  applies (records + value transfer) or leaves nothing behind.

APPEND-ONLY PARTS:
  Events and payouts are never updated or deleted.
  Policies are never deleted. Claims are never deleted.

EXTENDED STORES:
  Adapters that keep their own records (arbitration.DisputeStore) type-assert
  the Store they are handed. Both shipped implementations satisfy every
  extension, inside and outside transactions.

IMPLEMENTATIONS:
  - store/memory: snapshot + rollback, for tests and dev
  - store/sqlite: database/sql transaction
*/
package claims

import (
	"context"
	"errors"

	"github.com/warp/coverage-engine/quota"
)

// ErrStoreRequired is returned when an operation needs a store extension the
// configured store does not implement.
var ErrStoreRequired = errors.New("operation requires extended store interface")

// Store handles persistence of the claims ledger.
type Store interface {
	quota.Store

	// GetPolicy returns the policy or nil if none exists.
	GetPolicy(ctx context.Context, hash Hash) (*Policy, error)
	// PutPolicy creates or overwrites a policy record.
	PutPolicy(ctx context.Context, p Policy) error

	// GetClaim returns the claim or nil if none exists.
	GetClaim(ctx context.Context, hash Hash) (*Claim, error)
	// PutClaim creates or overwrites a claim record.
	PutClaim(ctx context.Context, c Claim) error
	// ClaimsByStatus lists claims currently in status.
	ClaimsByStatus(ctx context.Context, status Status) ([]Claim, error)

	// AppendEvent records a transition. Append-only.
	AppendEvent(ctx context.Context, e Event) error
	// Events returns the events for a subject hash, oldest first.
	Events(ctx context.Context, subject Hash) ([]Event, error)

	// AppendPayout records a payout. Append-only.
	AppendPayout(ctx context.Context, p Payout) error
	// Payouts returns the payouts made for a claim, oldest first.
	Payouts(ctx context.Context, claim Hash) ([]Payout, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the view is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
