package quota

import (
	"context"
	"time"
)

// Store persists quota configuration and usage logs.
//
// The usage log is a FIFO: entries are appended in non-decreasing timestamp
// order and only ever evicted from the head.
type Store interface {
	// GetQuota returns the account's quota, or nil if none is configured.
	GetQuota(ctx context.Context, account Account) (*Quota, error)

	// PutQuota creates or overwrites the account's quota.
	PutQuota(ctx context.Context, q Quota) error

	// DeleteQuota removes the account's quota. No error if none exists.
	DeleteQuota(ctx context.Context, account Account) error

	// UsageLog returns the account's usage entries, oldest first.
	UsageLog(ctx context.Context, account Account) ([]Usage, error)

	// AppendUsage adds an entry at the tail of the log.
	AppendUsage(ctx context.Context, account Account, u Usage) error

	// EvictUsage drops every entry with At <= cutoff.
	EvictUsage(ctx context.Context, account Account, cutoff time.Time) error

	// ClearUsage drops the whole log.
	ClearUsage(ctx context.Context, account Account) error
}
