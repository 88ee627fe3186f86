package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/order/domain"
)

type countingTax struct {
	calls atomic.Int64
	err   error
}

func (c *countingTax) Tax(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return 100, nil
}

func TestGuardedTax_RetriesOnce(t *testing.T) {
	inner := &countingTax{err: errors.New("boom")}
	guarded := NewGuardedTax(inner)

	_, err := guarded.Tax(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestGuardedTax_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &countingTax{err: errors.New("boom")}
	guarded := NewGuardedTax(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := guarded.Tax(ctx, nil, nil)
		assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	}

	// 3 consecutive failures trip the breaker; the wrapped calculator
	// must not be reached past that point.
	before := inner.calls.Load()
	_, err := guarded.Tax(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
	assert.Equal(t, before, inner.calls.Load())
}

func TestGuardedTax_PassesThroughSuccess(t *testing.T) {
	inner := &countingTax{}
	guarded := NewGuardedTax(inner)

	amount, err := guarded.Tax(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), amount)
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestFlatRateShipping(t *testing.T) {
	calc := FlatRateShipping{Rate: 499}

	amount, err := calc.Shipping(context.Background(), nil, testAddress())
	require.NoError(t, err)
	assert.Equal(t, int64(499), amount)

	amount, err = calc.Shipping(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount, "digital-only orders ship free")
}

func TestBasisPointTax(t *testing.T) {
	calc := BasisPointTax{Bps: 1000} // 10%
	items := []domain.OrderItem{
		{LineTotal: 2000},
		{LineTotal: 550},
	}

	amount, err := calc.Tax(context.Background(), items, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(255), amount)
}
