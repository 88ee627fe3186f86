package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart/domain"
)

func TestMemoryGet_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	cart, err := repo.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestMemoryUpsertAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	cart := &domain.Cart{SessionID: "s1"}
	require.NoError(t, cart.AddItem("p1", 500, 2, map[string]string{"size": "M"}))
	require.NoError(t, repo.Upsert(ctx, cart))

	fetched, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, 2, fetched.Items[0].Quantity)
	assert.False(t, fetched.CreatedAt.IsZero())
	assert.False(t, fetched.UpdatedAt.IsZero())
}

func TestMemoryUpsert_KeepsCreatedAt(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	cart := &domain.Cart{SessionID: "s1"}
	require.NoError(t, repo.Upsert(ctx, cart))

	first, err := repo.Get(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, cart.AddItem("p1", 500, 1, nil))
	require.NoError(t, repo.Upsert(ctx, cart))

	second, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestMemoryGet_ReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	cart := &domain.Cart{SessionID: "s1"}
	require.NoError(t, cart.AddItem("p1", 500, 2, nil))
	require.NoError(t, repo.Upsert(ctx, cart))

	fetched, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	fetched.Items[0].Quantity = 99

	again, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestMemoryDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Cart{SessionID: "s1"}))
	require.NoError(t, repo.Delete(ctx, "s1"))

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrCartNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "s1"), ErrCartNotFound)
}
