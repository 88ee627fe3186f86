package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart/cache"
	"storefront/internal/cart/domain"
	"storefront/internal/cart/repository"
	"storefront/internal/catalog"
)

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func testCatalog() *catalog.MemoryStore {
	store := catalog.NewMemoryStore()
	store.Put(catalog.Product{
		ID:       "p1",
		Name:     "T-Shirt",
		Price:    1000,
		Currency: "USD",
		Variants: []catalog.Variant{
			{Name: "size", Value: "M"},
			{Name: "size", Value: "XL", PriceModifier: 200},
		},
	})
	store.Put(catalog.Product{ID: "p2", Name: "Mug", Price: 550, Currency: "USD"})
	return store
}

func newTestService() *CartService {
	return NewCartService(repository.NewMemoryRepository(), &mockCache{}, testCatalog())
}

func TestGetCart_EmptySession(t *testing.T) {
	svc := newTestService()

	cart, err := svc.GetCart(context.Background(), "fresh")

	require.NoError(t, err)
	assert.Equal(t, "fresh", cart.SessionID)
	assert.Empty(t, cart.Items)
}

func TestAddItem_SnapshotsPrice(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "s1", "p1", 2, map[string]string{"size": "XL"})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1200), cart.Items[0].UnitPrice) // base 1000 + XL modifier 200
	assert.Equal(t, int64(2400), cart.TotalPrice())
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc := newTestService()

	_, err := svc.AddItem(context.Background(), "s1", "ghost", 1, nil)

	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestAddItem_UnknownVariant(t *testing.T) {
	svc := newTestService()

	_, err := svc.AddItem(context.Background(), "s1", "p1", 1, map[string]string{"size": "XXL"})

	assert.ErrorIs(t, err, catalog.ErrUnknownVariant)
}

func TestAddItem_ZeroQuantity(t *testing.T) {
	svc := newTestService()

	_, err := svc.AddItem(context.Background(), "s1", "p1", 0, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAddItem_PersistsAcrossGets(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "p2", 3, nil)
	require.NoError(t, err)

	cart, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, cart.TotalItems())
	assert.Equal(t, int64(1650), cart.TotalPrice())
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "p2", 3, nil)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, "s1", "p2", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClearCart(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "p2", 3, nil)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, "s1"))

	cart, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClearCart_EmptySessionIsFine(t *testing.T) {
	svc := newTestService()

	assert.NoError(t, svc.ClearCart(context.Background(), "never-used"))
}

func TestGetCart_RepoError(t *testing.T) {
	repoErr := errors.New("boom")
	svc := NewCartService(failingRepo{err: repoErr}, &mockCache{}, testCatalog())

	_, err := svc.GetCart(context.Background(), "s1")

	assert.ErrorIs(t, err, repoErr)
}

type failingRepo struct{ err error }

func (f failingRepo) Get(context.Context, string) (*domain.Cart, error) { return nil, f.err }
func (f failingRepo) Upsert(context.Context, *domain.Cart) error        { return f.err }
func (f failingRepo) Delete(context.Context, string) error              { return f.err }

// Two concurrent adds for the same (product, variants) key must merge, not
// race to overwrite each other.
func TestAddItem_ConcurrentSameKeyMerges(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "s1", "p1", 1, map[string]string{"size": "M"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, goroutines, cart.Items[0].Quantity)
	assert.Equal(t, goroutines, cart.TotalItems())
}

func TestConcurrentMixedOperations(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.AddItem(ctx, "s1", "p1", 1, nil)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.AddItem(ctx, "s1", "p2", 2, nil)
		}()
	}
	wg.Wait()

	cart, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 20+40, cart.TotalItems())
}

// Session locks are released and evicted once no writer holds them, so the
// lock map does not grow with every session ever seen.
func TestSessionLocksEvicted(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	const sessions = 30
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("s-%d", i)
			_, err := svc.AddItem(ctx, sid, "p1", 1, nil)
			assert.NoError(t, err)
			_, err = svc.UpdateQuantity(ctx, sid, "p1", 3, nil)
			assert.NoError(t, err)
			assert.NoError(t, svc.ClearCart(ctx, sid))
		}(i)
	}
	wg.Wait()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}
