package repository

import (
	"context"
	"sync"
	"time"

	"storefront/internal/cart/domain"
)

// MemoryRepository keeps session carts in a mutex-guarded map. Default
// backend when no Mongo URI is configured, and the workhorse for tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		carts: make(map[string]*domain.Cart),
	}
}

func (m *MemoryRepository) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart.Clone(), nil
}

func (m *MemoryRepository) Upsert(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cp := cart.Clone()
	if existing, ok := m.carts[cart.SessionID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	m.carts[cart.SessionID] = cp
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[sessionID]; !ok {
		return ErrCartNotFound
	}
	delete(m.carts, sessionID)
	return nil
}
