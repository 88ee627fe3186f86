package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"storefront/internal/cart/cache"
	"storefront/internal/cart/domain"
	"storefront/internal/cart/repository"
	"storefront/internal/catalog"
)

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalog.ProductStore
	sfg     singleflight.Group // prevents cache stampede on reads

	mu    sync.Mutex
	locks map[string]*sessionLock // per-session write serialization
}

// sessionLock is reference counted so idle sessions do not pin a map
// entry forever.
type sessionLock struct {
	sync.Mutex
	refs int
}

func NewCartService(repo repository.CartRepository, c cache.CartCache, products catalog.ProductStore) *CartService {
	return &CartService{
		repo:    repo,
		cache:   c,
		catalog: products,
		locks:   make(map[string]*sessionLock),
	}
}

// acquireLock serializes read-modify-write cycles per session so two
// concurrent adds for the same line merge instead of overwriting each other.
// Every acquire must be paired with releaseLock.
func (s *CartService) acquireLock(sessionID string) *sessionLock {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return l
}

func (s *CartService) releaseLock(sessionID string, l *sessionLock) {
	l.Unlock()

	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, sessionID)
	}
	s.mu.Unlock()
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.Get(ctx, sessionID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			// every session starts with an empty cart
			return &domain.Cart{SessionID: sessionID}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), sessionID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem snapshots the product's current price (variant modifiers applied)
// and merges the line into the session's cart.
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string, quantity int, variants map[string]string) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	unitPrice, err := product.UnitPrice(variants)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		return cart.AddItem(productID, unitPrice, quantity, variants)
	})
}

// UpdateQuantity changes a line's quantity. With variants it targets the
// exact line; without, the first line for the product.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int, variants map[string]string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		if len(variants) > 0 {
			cart.UpdateVariantQuantity(productID, variants, quantity)
		} else {
			cart.UpdateQuantity(productID, quantity)
		}
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		cart.RemoveItem(productID)
		return nil
	})
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	lock := s.acquireLock(sessionID)
	defer s.releaseLock(sessionID, lock)

	err := s.repo.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v", err)
		return err
	}

	s.invalidate(sessionID)
	return nil
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(cart *domain.Cart) error) (*domain.Cart, error) {
	lock := s.acquireLock(sessionID)
	defer s.releaseLock(sessionID, lock)

	cart, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart = &domain.Cart{SessionID: sessionID}
	} else if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, cart); err != nil {
		log.Printf("repo upsert cart error: %v", err)
		return nil, err
	}

	s.invalidate(sessionID)
	return cart, nil
}

func (s *CartService) invalidate(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
