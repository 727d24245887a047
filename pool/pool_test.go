package pool

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakingPool_Transfer(t *testing.T) {
	ctx := context.Background()
	p := NewStakingPool(decimal.NewFromInt(100))

	require.NoError(t, p.Transfer(ctx, "holder", decimal.NewFromInt(40)))
	require.NoError(t, p.Transfer(ctx, "holder", decimal.NewFromInt(10)))

	staked, err := p.TotalStaked(ctx)
	require.NoError(t, err)
	assert.True(t, staked.Equal(decimal.NewFromInt(50)))
	assert.True(t, p.Balance("holder").Equal(decimal.NewFromInt(50)))
	assert.True(t, p.Balance("other").IsZero())
	assert.Len(t, p.Transfers(), 2)
}

func TestStakingPool_Guards(t *testing.T) {
	ctx := context.Background()
	p := NewStakingPool(decimal.NewFromInt(10))

	assert.ErrorIs(t, p.Transfer(ctx, "holder", decimal.NewFromInt(11)), ErrInsufficientStake)
	assert.ErrorIs(t, p.Transfer(ctx, "holder", decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, p.Deposit(decimal.NewFromInt(-1)), ErrInvalidAmount)
	assert.Empty(t, p.Transfers())

	require.NoError(t, p.Deposit(decimal.NewFromInt(5)))
	require.NoError(t, p.Transfer(ctx, "holder", decimal.NewFromInt(15)))
}
