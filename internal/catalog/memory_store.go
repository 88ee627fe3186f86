package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements ProductStore with in-memory storage.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]Product),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// Put adds or replaces a product (used for initialization and tests).
func (s *MemoryStore) Put(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SetPrice updates a product's base price in place.
func (s *MemoryStore) SetPrice(id string, price int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Price = price
	s.products[id] = p
	return nil
}
