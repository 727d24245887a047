/*
Package sqlite provides a SQLite-backed implementation of the claims store.

PURPOSE:
  Implements claims.TxStore and arbitration.DisputeStore using SQLite. In
  production the same patterns apply to PostgreSQL with minor SQL dialect
  differences.

INTERFACES IMPLEMENTED:
  claims.TxStore:           policies, claims, events, payouts, quotas
  arbitration.DisputeStore: court dispute mirrors and evidence

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on events, payouts or evidence
  - Policies and claims are upserted, never deleted
  - quota_usage is the only table rows leave (window eviction)

KEY TABLES:
  policies:     Policy terms and remaining coverage
  claims:       Current status of each claim
  events:       Immutable transition log
  payouts:      Every unit that left the pool
  quotas:       Per-account window configuration
  quota_usage:  Per-account FIFO usage log
  disputes:     Court dispute mirrors
  evidence:     Evidence submitted to court disputes

ENCODING:
  Decimals are stored as TEXT to keep full precision. Timestamps are stored
  as INTEGER unix nanoseconds so window comparisons happen in SQL.

CONCURRENCY:
  Transactions are serialized with a mutex and the pool is limited to one
  connection, which also keeps ":memory:" databases shared.

USAGE:
  store, err := sqlite.New("./data/claims.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - claims/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/coverage-engine/arbitration"
	"github.com/warp/coverage-engine/claims"
	"github.com/warp/coverage-engine/quota"
)

// Store implements claims.TxStore and arbitration.DisputeStore.
type Store struct {
	ops
	db *sql.DB
	mu sync.Mutex
}

var (
	_ claims.TxStore           = (*Store)(nil)
	_ arbitration.DisputeStore = (*Store)(nil)
	_ arbitration.DisputeStore = (*ops)(nil)
)

// querier is the subset of *sql.DB and *sql.Tx the store needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := NewWithDB(db)
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// NewWithDB wraps an open database without migrating it.
func NewWithDB(db *sql.DB) *Store {
	return &Store{ops: ops{q: db}, db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS policies (
		hash TEXT PRIMARY KEY,
		policyholder TEXT NOT NULL,
		coverage_amount TEXT NOT NULL,
		claims_allowed_from INTEGER NOT NULL,
		claims_allowed_until INTEGER NOT NULL,
		policy_document_ref TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS claims (
		hash TEXT PRIMARY KEY,
		policy_hash TEXT NOT NULL REFERENCES policies(hash),
		claimant TEXT NOT NULL,
		amount TEXT NOT NULL,
		evidence_ref TEXT NOT NULL,
		status TEXT NOT NULL,
		update_time INTEGER NOT NULL,
		arbitrator TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_claims_status
		ON claims(status, update_time);

	-- Events (append-only)
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		subject TEXT NOT NULL,
		actor TEXT NOT NULL,
		status TEXT NOT NULL,
		amount TEXT NOT NULL,
		at INTEGER NOT NULL,
		metadata_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_subject
		ON events(subject, seq);

	-- Payouts (append-only)
	CREATE TABLE IF NOT EXISTS payouts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		claim_hash TEXT NOT NULL,
		policy_hash TEXT NOT NULL,
		claimant TEXT NOT NULL,
		authorizer TEXT NOT NULL,
		usd TEXT NOT NULL,
		asset TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payouts_claim
		ON payouts(claim_hash, seq);

	CREATE TABLE IF NOT EXISTS quotas (
		account TEXT PRIMARY KEY,
		period_ns INTEGER NOT NULL,
		cap TEXT NOT NULL
	);

	-- FIFO per account; seq keeps insertion order for equal timestamps
	CREATE TABLE IF NOT EXISTS quota_usage (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		account TEXT NOT NULL,
		at INTEGER NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quota_usage_account
		ON quota_usage(account, seq);

	CREATE TABLE IF NOT EXISTS disputes (
		id INTEGER PRIMARY KEY,
		claim_hash TEXT NOT NULL,
		subcourt INTEGER NOT NULL,
		number_of_choices INTEGER NOT NULL,
		period TEXT NOT NULL,
		last_period_change INTEGER NOT NULL,
		round INTEGER NOT NULL DEFAULT 0,
		appeals INTEGER NOT NULL DEFAULT 0,
		ruled INTEGER NOT NULL DEFAULT 0,
		ruling INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_disputes_claim
		ON disputes(claim_hash, id DESC);

	-- Evidence (append-only)
	CREATE TABLE IF NOT EXISTS evidence (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		dispute_id INTEGER NOT NULL REFERENCES disputes(id),
		submitter TEXT NOT NULL,
		payload TEXT NOT NULL,
		at INTEGER NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(claims.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&ops{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Reset clears all data. Dev servers only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, table := range []string{"evidence", "disputes", "quota_usage", "quotas", "payouts", "events", "claims", "policies"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// OPS - Queries shared by the store and its transactions
// =============================================================================

type ops struct {
	q querier
}

// -----------------------------------------------------------------------------
// Policies
// -----------------------------------------------------------------------------

func (o *ops) GetPolicy(ctx context.Context, hash claims.Hash) (*claims.Policy, error) {
	row := o.q.QueryRowContext(ctx, `
		SELECT hash, policyholder, coverage_amount, claims_allowed_from, claims_allowed_until,
		       policy_document_ref, created_by, created_at
		FROM policies WHERE hash = ?`, hash.String())

	var (
		p                              claims.Policy
		h, holder, coverage, createdBy string
		from, until, createdAt         int64
	)
	err := row.Scan(&h, &holder, &coverage, &from, &until, &p.PolicyDocumentRef, &createdBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if p.Hash, err = claims.ParseHash(h); err != nil {
		return nil, err
	}
	if p.CoverageAmount, err = decimal.NewFromString(coverage); err != nil {
		return nil, fmt.Errorf("invalid coverage amount %q: %w", coverage, err)
	}
	p.Policyholder = claims.Address(holder)
	p.CreatedBy = claims.Address(createdBy)
	p.ClaimsAllowedFrom = fromNanos(from)
	p.ClaimsAllowedUntil = fromNanos(until)
	p.CreatedAt = fromNanos(createdAt)
	return &p, nil
}

func (o *ops) PutPolicy(ctx context.Context, p claims.Policy) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO policies (hash, policyholder, coverage_amount, claims_allowed_from,
		                      claims_allowed_until, policy_document_ref, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET coverage_amount = excluded.coverage_amount`,
		p.Hash.String(), p.Policyholder.String(), p.CoverageAmount.String(),
		toNanos(p.ClaimsAllowedFrom), toNanos(p.ClaimsAllowedUntil),
		p.PolicyDocumentRef, p.CreatedBy.String(), toNanos(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Claims
// -----------------------------------------------------------------------------

const claimColumns = `hash, policy_hash, claimant, amount, evidence_ref, status, update_time, arbitrator`

func (o *ops) GetClaim(ctx context.Context, hash claims.Hash) (*claims.Claim, error) {
	rows, err := o.q.QueryContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE hash = ?`, hash.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}
	out, err := scanClaims(rows)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

func (o *ops) PutClaim(ctx context.Context, c claims.Claim) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			status = excluded.status,
			update_time = excluded.update_time,
			arbitrator = excluded.arbitrator`,
		c.Hash.String(), c.PolicyHash.String(), c.Claimant.String(), c.Amount.String(),
		c.EvidenceRef, string(c.Status), toNanos(c.UpdateTime), c.Arbitrator.String())
	if err != nil {
		return fmt.Errorf("failed to save claim: %w", err)
	}
	return nil
}

func (o *ops) ClaimsByStatus(ctx context.Context, status claims.Status) ([]claims.Claim, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE status = ? ORDER BY update_time, hash`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	return scanClaims(rows)
}

func scanClaims(rows *sql.Rows) ([]claims.Claim, error) {
	defer rows.Close()
	var out []claims.Claim
	for rows.Next() {
		var (
			c                                       claims.Claim
			hash, policy, claimant, amount, arbiter string
			status                                  string
			updated                                 int64
		)
		if err := rows.Scan(&hash, &policy, &claimant, &amount, &c.EvidenceRef, &status, &updated, &arbiter); err != nil {
			return nil, err
		}
		var err error
		if c.Hash, err = claims.ParseHash(hash); err != nil {
			return nil, err
		}
		if c.PolicyHash, err = claims.ParseHash(policy); err != nil {
			return nil, err
		}
		if c.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid claim amount %q: %w", amount, err)
		}
		c.Claimant = claims.Address(claimant)
		c.Status = claims.Status(status)
		c.UpdateTime = fromNanos(updated)
		c.Arbitrator = claims.Address(arbiter)
		out = append(out, c)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

func (o *ops) AppendEvent(ctx context.Context, e claims.Event) error {
	var meta sql.NullString
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode event metadata: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO events (id, kind, subject, actor, status, amount, at, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Subject.String(), e.Actor.String(), string(e.Status),
		e.Amount.String(), toNanos(e.At), meta)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (o *ops) Events(ctx context.Context, subject claims.Hash) ([]claims.Event, error) {
	rows, err := o.q.QueryContext(ctx, `
		SELECT id, kind, subject, actor, status, amount, at, metadata_json
		FROM events WHERE subject = ? ORDER BY seq`, subject.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []claims.Event
	for rows.Next() {
		var (
			e                                 claims.Event
			kind, subj, actor, status, amount string
			at                                int64
			meta                              sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &subj, &actor, &status, &amount, &at, &meta); err != nil {
			return nil, err
		}
		if e.Subject, err = claims.ParseHash(subj); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid event amount %q: %w", amount, err)
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("invalid event metadata: %w", err)
			}
		}
		e.Kind = claims.EventKind(kind)
		e.Actor = claims.Address(actor)
		e.Status = claims.Status(status)
		e.At = fromNanos(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Payouts
// -----------------------------------------------------------------------------

func (o *ops) AppendPayout(ctx context.Context, p claims.Payout) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO payouts (id, claim_hash, policy_hash, claimant, authorizer, usd, asset, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClaimHash.String(), p.PolicyHash.String(), p.Claimant.String(),
		p.Authorizer.String(), p.USD.String(), p.Asset.String(), toNanos(p.At))
	if err != nil {
		return fmt.Errorf("failed to append payout: %w", err)
	}
	return nil
}

func (o *ops) Payouts(ctx context.Context, claim claims.Hash) ([]claims.Payout, error) {
	rows, err := o.q.QueryContext(ctx, `
		SELECT id, claim_hash, policy_hash, claimant, authorizer, usd, asset, at
		FROM payouts WHERE claim_hash = ? ORDER BY seq`, claim.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	var out []claims.Payout
	for rows.Next() {
		var (
			p                                                 claims.Payout
			claimHash, policyHash, claimant, auth, usd, asset string
			at                                                int64
		)
		if err := rows.Scan(&p.ID, &claimHash, &policyHash, &claimant, &auth, &usd, &asset, &at); err != nil {
			return nil, err
		}
		if p.ClaimHash, err = claims.ParseHash(claimHash); err != nil {
			return nil, err
		}
		if p.PolicyHash, err = claims.ParseHash(policyHash); err != nil {
			return nil, err
		}
		if p.USD, err = decimal.NewFromString(usd); err != nil {
			return nil, fmt.Errorf("invalid payout usd %q: %w", usd, err)
		}
		if p.Asset, err = decimal.NewFromString(asset); err != nil {
			return nil, fmt.Errorf("invalid payout asset %q: %w", asset, err)
		}
		p.Claimant = claims.Address(claimant)
		p.Authorizer = claims.Address(auth)
		p.At = fromNanos(at)
		out = append(out, p)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Quotas
// -----------------------------------------------------------------------------

func (o *ops) GetQuota(ctx context.Context, account quota.Account) (*quota.Quota, error) {
	var (
		period  int64
		capText string
	)
	err := o.q.QueryRowContext(ctx, `SELECT period_ns, cap FROM quotas WHERE account = ?`, string(account)).
		Scan(&period, &capText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quota: %w", err)
	}
	c, err := decimal.NewFromString(capText)
	if err != nil {
		return nil, fmt.Errorf("invalid quota cap %q: %w", capText, err)
	}
	return &quota.Quota{Account: account, Period: time.Duration(period), Cap: c}, nil
}

func (o *ops) PutQuota(ctx context.Context, q quota.Quota) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO quotas (account, period_ns, cap) VALUES (?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET period_ns = excluded.period_ns, cap = excluded.cap`,
		string(q.Account), int64(q.Period), q.Cap.String())
	if err != nil {
		return fmt.Errorf("failed to save quota: %w", err)
	}
	return nil
}

func (o *ops) DeleteQuota(ctx context.Context, account quota.Account) error {
	if _, err := o.q.ExecContext(ctx, `DELETE FROM quotas WHERE account = ?`, string(account)); err != nil {
		return fmt.Errorf("failed to delete quota: %w", err)
	}
	return nil
}

func (o *ops) UsageLog(ctx context.Context, account quota.Account) ([]quota.Usage, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT at, amount FROM quota_usage WHERE account = ? ORDER BY seq`, string(account))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	var out []quota.Usage
	for rows.Next() {
		var (
			at     int64
			amount string
		)
		if err := rows.Scan(&at, &amount); err != nil {
			return nil, err
		}
		a, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid usage amount %q: %w", amount, err)
		}
		out = append(out, quota.Usage{At: fromNanos(at), Amount: a})
	}
	return out, rows.Err()
}

func (o *ops) AppendUsage(ctx context.Context, account quota.Account, u quota.Usage) error {
	_, err := o.q.ExecContext(ctx,
		`INSERT INTO quota_usage (account, at, amount) VALUES (?, ?, ?)`,
		string(account), toNanos(u.At), u.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to append usage: %w", err)
	}
	return nil
}

func (o *ops) EvictUsage(ctx context.Context, account quota.Account, cutoff time.Time) error {
	_, err := o.q.ExecContext(ctx,
		`DELETE FROM quota_usage WHERE account = ? AND at <= ?`, string(account), toNanos(cutoff))
	if err != nil {
		return fmt.Errorf("failed to evict usage: %w", err)
	}
	return nil
}

func (o *ops) ClearUsage(ctx context.Context, account quota.Account) error {
	if _, err := o.q.ExecContext(ctx, `DELETE FROM quota_usage WHERE account = ?`, string(account)); err != nil {
		return fmt.Errorf("failed to clear usage: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Disputes
// -----------------------------------------------------------------------------

const disputeColumns = `id, claim_hash, subcourt, number_of_choices, period, last_period_change,
	round, appeals, ruled, ruling, created_at`

func (o *ops) GetDispute(ctx context.Context, id arbitration.DisputeID) (*arbitration.Dispute, error) {
	rows, err := o.q.QueryContext(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = ?`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load dispute: %w", err)
	}
	return scanDispute(rows)
}

func (o *ops) DisputeByClaim(ctx context.Context, claim claims.Hash) (*arbitration.Dispute, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT `+disputeColumns+` FROM disputes WHERE claim_hash = ? ORDER BY id DESC LIMIT 1`, claim.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load dispute: %w", err)
	}
	return scanDispute(rows)
}

func (o *ops) PutDispute(ctx context.Context, d arbitration.Dispute) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO disputes (`+disputeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			period = excluded.period,
			last_period_change = excluded.last_period_change,
			round = excluded.round,
			appeals = excluded.appeals,
			ruled = excluded.ruled,
			ruling = excluded.ruling`,
		int64(d.ID), d.ClaimHash.String(), int64(d.Subcourt), d.NumberOfChoices, d.Period.String(),
		toNanos(d.LastPeriodChange), d.Round, d.Appeals, d.Ruled, int(d.Ruling), toNanos(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save dispute: %w", err)
	}
	return nil
}

func scanDispute(rows *sql.Rows) (*arbitration.Dispute, error) {
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		d                     arbitration.Dispute
		id, subcourt          int64
		claimHash, period     string
		lastChange, createdAt int64
		ruling                int
	)
	if err := rows.Scan(&id, &claimHash, &subcourt, &d.NumberOfChoices, &period, &lastChange,
		&d.Round, &d.Appeals, &d.Ruled, &ruling, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if d.ClaimHash, err = claims.ParseHash(claimHash); err != nil {
		return nil, err
	}
	if d.Period, err = arbitration.ParsePeriod(period); err != nil {
		return nil, err
	}
	d.ID = arbitration.DisputeID(id)
	d.Subcourt = uint64(subcourt)
	d.Ruling = arbitration.Ruling(ruling)
	d.LastPeriodChange = fromNanos(lastChange)
	d.CreatedAt = fromNanos(createdAt)
	return &d, nil
}

func (o *ops) AppendEvidence(ctx context.Context, e arbitration.Evidence) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO evidence (id, dispute_id, submitter, payload, at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, int64(e.DisputeID), e.Submitter.String(), e.Payload, toNanos(e.At))
	if err != nil {
		return fmt.Errorf("failed to append evidence: %w", err)
	}
	return nil
}

func (o *ops) Evidence(ctx context.Context, id arbitration.DisputeID) ([]arbitration.Evidence, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT id, submitter, payload, at FROM evidence WHERE dispute_id = ? ORDER BY seq`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()

	var out []arbitration.Evidence
	for rows.Next() {
		var (
			e         arbitration.Evidence
			submitter string
			at        int64
		)
		if err := rows.Scan(&e.ID, &submitter, &e.Payload, &at); err != nil {
			return nil, err
		}
		e.DisputeID = id
		e.Submitter = claims.Address(submitter)
		e.At = fromNanos(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
