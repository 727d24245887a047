/*
Package oracle converts USD figures into settlement-asset units.

PURPOSE:
  The claims engine denominates coverage, claims and settlements in USD but
  pays out of a pool staked in a settlement asset. Converter bridges the two
  using the latest price from a PriceFeed.

FAILURE MODES (never silently clamped):
  - stale price:         feed older than MaxAge
  - non-positive price:  zero or negative quote
  - price too large:     quote above MaxPrice
  - overflow:            input or result above MaxAmount

EXAMPLE:
  c := oracle.NewConverter(feed, time.Hour)
  units, err := c.Convert(ctx, decimal.NewFromInt(12500)) // $2/unit -> 6250
*/
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrStalePrice       = errors.New("price is stale")
	ErrNonPositivePrice = errors.New("price is not positive")
	ErrPriceTooLarge    = errors.New("price too large")
	ErrOverflow         = errors.New("amount overflows")
	ErrNegativeAmount   = errors.New("amount is negative")
)

// AssetDecimals is the precision payouts are rounded to.
const AssetDecimals = 18

var (
	// MaxAmount is the largest value representable as a 256-bit integer of
	// AssetDecimals-precision units.
	MaxAmount = decimal.NewFromBigInt(
		new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)),
		-AssetDecimals,
	)

	// MaxPrice bounds accepted quotes (USD per asset unit).
	MaxPrice = decimal.New(1, 36)
)

// Price is a USD-per-unit quote.
type Price struct {
	Value     decimal.Decimal
	UpdatedAt time.Time
}

// PriceFeed supplies the latest quote.
type PriceFeed interface {
	LatestPrice(ctx context.Context) (Price, error)
}

// =============================================================================
// CONVERTER
// =============================================================================

// Converter implements claims.Converter over a PriceFeed.
type Converter struct {
	feed   PriceFeed
	maxAge time.Duration
	clock  func() time.Time
}

// NewConverter creates a converter. maxAge <= 0 disables the staleness check.
func NewConverter(feed PriceFeed, maxAge time.Duration) *Converter {
	return &Converter{feed: feed, maxAge: maxAge, clock: time.Now}
}

// WithClock overrides the clock used for staleness checks.
func (c *Converter) WithClock(clock func() time.Time) *Converter {
	c.clock = clock
	return c
}

// Convert returns usd / price, rounded to AssetDecimals.
func (c *Converter) Convert(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error) {
	if usd.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	if usd.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrOverflow
	}

	p, err := c.feed.LatestPrice(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read price: %w", err)
	}
	if !p.Value.IsPositive() {
		return decimal.Zero, ErrNonPositivePrice
	}
	if p.Value.GreaterThan(MaxPrice) {
		return decimal.Zero, ErrPriceTooLarge
	}
	if c.maxAge > 0 && c.clock().Sub(p.UpdatedAt) > c.maxAge {
		return decimal.Zero, fmt.Errorf("%w: updated %s", ErrStalePrice, p.UpdatedAt.Format(time.RFC3339))
	}

	out := usd.DivRound(p.Value, AssetDecimals)
	if out.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrOverflow
	}
	return out, nil
}

// =============================================================================
// FEEDS
// =============================================================================

// Feed is a settable in-process price feed.
type Feed struct {
	mu    sync.RWMutex
	price Price
}

// NewFeed creates a feed quoting value as of at.
func NewFeed(value decimal.Decimal, at time.Time) *Feed {
	return &Feed{price: Price{Value: value, UpdatedAt: at}}
}

// Set replaces the current quote.
func (f *Feed) Set(value decimal.Decimal, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price = Price{Value: value, UpdatedAt: at}
}

func (f *Feed) LatestPrice(context.Context) (Price, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.price, nil
}

// Fixed quotes a constant price that never goes stale.
type Fixed struct {
	Value decimal.Decimal
	Clock func() time.Time
}

func (f Fixed) LatestPrice(context.Context) (Price, error) {
	clock := f.Clock
	if clock == nil {
		clock = time.Now
	}
	return Price{Value: f.Value, UpdatedAt: clock()}, nil
}
