package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConvert(t *testing.T) {
	ctx := context.Background()
	c := NewConverter(NewFeed(d("2"), t0), 0)

	out, err := c.Convert(ctx, d("25000"))
	require.NoError(t, err)
	assert.True(t, out.Equal(d("12500")))

	out, err = c.Convert(ctx, d("1"))
	require.NoError(t, err)
	assert.True(t, out.Equal(d("0.5")))

	out, err = c.Convert(ctx, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}

func TestConvert_RoundsToAssetDecimals(t *testing.T) {
	c := NewConverter(NewFeed(d("3"), t0), 0)
	out, err := c.Convert(context.Background(), d("1"))
	require.NoError(t, err)
	assert.Equal(t, "0.333333333333333333", out.String())
}

func TestConvert_Failures(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(d("2"), t0)

	tests := []struct {
		name  string
		price decimal.Decimal
		usd   decimal.Decimal
		want  error
	}{
		{"zero price", decimal.Zero, d("1"), ErrNonPositivePrice},
		{"negative price", d("-1"), d("1"), ErrNonPositivePrice},
		{"huge price", MaxPrice.Add(decimal.NewFromInt(1)), d("1"), ErrPriceTooLarge},
		{"negative amount", d("2"), d("-1"), ErrNegativeAmount},
		{"overflowing amount", d("2"), MaxAmount.Add(decimal.NewFromInt(1)), ErrOverflow},
		{"tiny price overflows result", d("0.000000000000000001"), MaxAmount, ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed.Set(tt.price, t0)
			_, err := NewConverter(feed, 0).Convert(ctx, tt.usd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConvert_Staleness(t *testing.T) {
	ctx := context.Background()
	now := t0.Add(2 * time.Hour)
	c := NewConverter(NewFeed(d("2"), t0), time.Hour).WithClock(func() time.Time { return now })

	_, err := c.Convert(ctx, d("1"))
	assert.ErrorIs(t, err, ErrStalePrice)

	now = t0.Add(time.Hour)
	_, err = c.Convert(ctx, d("1"))
	assert.NoError(t, err, "exactly maxAge old is still fresh")
}

func TestFixed_NeverStale(t *testing.T) {
	now := t0
	c := NewConverter(Fixed{Value: d("4"), Clock: func() time.Time { return now }}, time.Minute).
		WithClock(func() time.Time { return now })

	now = t0.Add(24 * time.Hour)
	out, err := c.Convert(context.Background(), d("8"))
	require.NoError(t, err)
	assert.True(t, out.Equal(d("2")))
}
