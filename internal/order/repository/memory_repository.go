package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/order/domain"
)

// MemoryRepository implements OrderRepository with in-memory storage.
// Default backend when no postgres credentials are configured, and the
// workhorse for service tests. Semantics mirror the postgres backend:
// unique order numbers, optimistic versioning.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order // keyed by order number
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (m *MemoryRepository) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[order.OrderNumber]; exists {
		return ErrDuplicateOrderNumber
	}

	now := time.Now()
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now

	m.orders[order.OrderNumber] = cloneOrder(order)
	return nil
}

func (m *MemoryRepository) GetByOrderNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderNumber]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (m *MemoryRepository) ListByOwner(_ context.Context, customerID, email string) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Order
	for _, order := range m.orders {
		if customerID != "" && order.CustomerID == customerID {
			out = append(out, cloneOrder(order))
			continue
		}
		if email != "" && order.Email == email {
			out = append(out, cloneOrder(order))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryRepository) ListAll(_ context.Context) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Order, 0, len(m.orders))
	for _, order := range m.orders {
		out = append(out, cloneOrder(order))
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, orderNumber string, status domain.Status, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderNumber]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Version != expectedVersion {
		return ErrVersionConflict
	}

	order.Status = status
	order.Version++
	order.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) UpdatePaymentStatus(_ context.Context, orderNumber string, status domain.PaymentStatus, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderNumber]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Version != expectedVersion {
		return ErrVersionConflict
	}

	order.PaymentStatus = status
	order.Version++
	order.UpdatedAt = time.Now()
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = make([]domain.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		cp.ShippingAddress = &addr
	}
	return &cp
}

func sortNewestFirst(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
